package discovery

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/akri-sh/akri/internal/dhproto"
)

func sortedDiff(d Diff) Diff {
	sort.Slice(d.Appeared, func(i, j int) bool { return d.Appeared[i].ID < d.Appeared[j].ID })
	sort.Strings(d.Disappeared)
	sort.Slice(d.StillPresent, func(i, j int) bool { return d.StillPresent[i].ID < d.StillPresent[j].ID })
	return d
}

func TestDiffDetectsAppearedDisappearedAndChanged(t *testing.T) {
	previous := Snapshot{
		"dev-1": {ID: "dev-1", Properties: map[string]string{"serial": "abc"}},
		"dev-2": {ID: "dev-2", Properties: map[string]string{"serial": "xyz"}},
	}
	current := Snapshot{
		"dev-1": {ID: "dev-1", Properties: map[string]string{"serial": "abc"}},
		"dev-2": {ID: "dev-2", Properties: map[string]string{"serial": "changed"}},
		"dev-3": {ID: "dev-3", Properties: map[string]string{"serial": "new"}},
	}

	got := sortedDiff(diff(previous, current))
	want := Diff{
		Appeared:     []Device{{ID: "dev-3", Properties: map[string]string{"serial": "new"}}},
		StillPresent: []Device{{ID: "dev-2", Properties: map[string]string{"serial": "changed"}}},
	}
	if diffErr := cmp.Diff(want, got, cmpopts.EquateEmpty()); diffErr != "" {
		t.Fatalf("unexpected diff (-want +got):\n%s", diffErr)
	}
}

func TestDiffReportsDisappearance(t *testing.T) {
	previous := Snapshot{"dev-1": {ID: "dev-1"}}
	current := Snapshot{}

	got := diff(previous, current)
	if diffErr := cmp.Diff([]string{"dev-1"}, got.Disappeared); diffErr != "" {
		t.Fatalf("unexpected diff (-want +got):\n%s", diffErr)
	}
}

func TestMergeChannelsBreaksTiesByRegistrationOrder(t *testing.T) {
	earliest := channelSnapshot{order: 0, snapshot: Snapshot{"dev-1": {ID: "dev-1", Properties: map[string]string{"from": "first"}}}}
	later := channelSnapshot{order: 1, snapshot: Snapshot{"dev-1": {ID: "dev-1", Properties: map[string]string{"from": "second"}}}}

	merged := mergeChannels([]channelSnapshot{later, earliest})
	if got := merged["dev-1"].Properties["from"]; got != "first" {
		t.Fatalf("expected the earliest-registered channel to win ties, got %q", got)
	}
}

func TestValidateDropsEmptyAndDuplicateIDs(t *testing.T) {
	resp := &dhproto.DiscoverResponse{
		Devices: []*dhproto.Device{
			{Id: "dev-1", Properties: map[string]string{"k": "v"}},
			{Id: ""},
			{Id: "dev-2"},
			{Id: "dev-2"},
		},
	}

	snap, errs := validate(resp)
	if len(errs) != 3 {
		t.Fatalf("expected 3 validation errors (empty id, two duplicate dev-2 entries), got %d: %v", len(errs), errs)
	}
	if _, ok := snap["dev-1"]; !ok {
		t.Fatalf("expected dev-1 to survive validation")
	}
	if _, ok := snap["dev-2"]; ok {
		t.Fatalf("expected duplicate dev-2 to be dropped entirely, got %+v", snap["dev-2"])
	}
}
