// Package discovery implements the per-Configuration Discovery Operator
// (spec §4.2): one logical channel per (Configuration, registered
// Discovery Handler endpoint), diffed snapshot-over-snapshot, merged
// across every DH serving the same protocol name.
package discovery

import (
	"sort"

	"github.com/akri-sh/akri/internal/akrierr"
	"github.com/akri-sh/akri/internal/dhproto"
)

// Device is the Agent-internal, comparable projection of a dhproto.Device
// snapshot entry.
type Device struct {
	ID          string
	Properties  map[string]string
	Mounts      []*dhproto.Mount
	DeviceSpecs []*dhproto.DeviceSpec
}

func fromProto(d *dhproto.Device) Device {
	return Device{
		ID:          d.GetId(),
		Properties:  d.GetProperties(),
		Mounts:      d.Mounts,
		DeviceSpecs: d.DeviceSpecs,
	}
}

// Snapshot is one channel's most recent validated DiscoverResponse,
// keyed by device id.
type Snapshot map[string]Device

// validate converts a raw DiscoverResponse into a Snapshot, applying
// spec §7's HandlerInvalid rule: an empty id, or an id duplicated within
// one response, drops the offending device(s) and is reported back to
// the caller, which logs it, but never aborts
// processing of the rest of the snapshot.
func validate(resp *dhproto.DiscoverResponse) (Snapshot, []error) {
	counts := make(map[string]int, len(resp.GetDevices()))
	for _, d := range resp.GetDevices() {
		counts[d.GetId()]++
	}

	snap := make(Snapshot, len(resp.GetDevices()))
	var errs []error
	for _, d := range resp.GetDevices() {
		id := d.GetId()
		if id == "" {
			errs = append(errs, akrierr.New(akrierr.KindHandlerInvalid, "discovery handler reported a device with an empty id"))
			continue
		}
		if counts[id] > 1 {
			errs = append(errs, akrierr.New(akrierr.KindHandlerInvalid, "discovery handler reported duplicate device id "+id+" within one snapshot"))
			delete(snap, id)
			continue
		}
		snap[id] = fromProto(d)
	}
	return snap, errs
}

// Diff is the result of comparing a new snapshot S against the previous
// snapshot P (spec §4.2 step 1-4). The Operator diffs the merged view
// across all of a Configuration's channels, not one channel's snapshot.
type Diff struct {
	Appeared     []Device
	Disappeared  []string
	StillPresent []Device // only entries whose properties changed
}

func diff(previous, current Snapshot) Diff {
	var d Diff
	for id, dev := range current {
		prev, existed := previous[id]
		if !existed {
			d.Appeared = append(d.Appeared, dev)
			continue
		}
		if !propertiesEqual(prev.Properties, dev.Properties) {
			d.StillPresent = append(d.StillPresent, dev)
		}
	}
	for id := range previous {
		if _, stillThere := current[id]; !stillThere {
			d.Disappeared = append(d.Disappeared, id)
		}
	}
	sort.Slice(d.Appeared, func(i, j int) bool { return d.Appeared[i].ID < d.Appeared[j].ID })
	sort.Strings(d.Disappeared)
	sort.Slice(d.StillPresent, func(i, j int) bool { return d.StillPresent[i].ID < d.StillPresent[j].ID })
	return d
}

func propertiesEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// mergeChannels computes the node-visible device set across every active
// DH channel serving one Configuration's protocol (spec §4.2: "the
// union of all active DHs' snapshots defines visible on this node").
// Ties are broken by registration order, earliest endpoint wins
// (spec §4.2: "an observable contract").
func mergeChannels(channels []channelSnapshot) Snapshot {
	merged := make(Snapshot)
	winner := make(map[string]int) // device id -> winning channel's order
	for _, ch := range channels {
		for id, dev := range ch.snapshot {
			order, present := winner[id]
			if !present || ch.order < order {
				merged[id] = dev
				winner[id] = ch.order
			}
		}
	}
	return merged
}

type channelSnapshot struct {
	order    int
	snapshot Snapshot
}
