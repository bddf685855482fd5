// Package instance owns the Agent's local mirror of Instance state and
// the compare-and-swap writer that keeps the cluster's Instance custom
// resources in sync with it (spec §4.4).
package instance

import (
	"sync"

	v0 "github.com/akri-sh/akri/api/v0"
)

// Mirror is the Agent's local, per-node view of the Instances it has a
// stake in: every Instance backed by a device this node currently sees,
// keyed by Instance name. It is the assertion target of spec §4.4:
// "every locally mirrored Instance matches a registered DH result;
// stale mirrors are purged on DH reconnect and snapshot diff."
type Mirror struct {
	mu    sync.RWMutex
	byKey map[string]*Entry
}

// Entry is one locally-known device, independent of whether the cluster
// write has succeeded yet.
type Entry struct {
	ConfigurationName string
	InstanceName      string
	DeviceID          string
	Shared            bool
	Properties        map[string]string
}

func NewMirror() *Mirror {
	return &Mirror{byKey: make(map[string]*Entry)}
}

func (m *Mirror) Put(e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byKey[e.InstanceName] = &e
}

func (m *Mirror) Delete(instanceName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byKey, instanceName)
}

func (m *Mirror) Get(instanceName string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.byKey[instanceName]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// NamesForConfiguration lists every Instance name currently mirrored for
// a Configuration, in no particular order.
func (m *Mirror) NamesForConfiguration(configurationName string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var names []string
	for name, e := range m.byKey {
		if e.ConfigurationName == configurationName {
			names = append(names, name)
		}
	}
	return names
}

// PurgeExcept removes every mirrored Instance for configurationName whose
// name is not in keep, returning the removed names so the caller can
// drive deletion of the corresponding CRs.
func (m *Mirror) PurgeExcept(configurationName string, keep map[string]struct{}) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []string
	for name, e := range m.byKey {
		if e.ConfigurationName != configurationName {
			continue
		}
		if _, ok := keep[name]; ok {
			continue
		}
		delete(m.byKey, name)
		removed = append(removed, name)
	}
	return removed
}

// mergeBrokerProperties merges a Configuration's static properties with
// a device's dynamic properties; device-dynamic keys win on collision
// (spec §9, Open Questions: "this spec specifies device-dynamic wins").
func mergeBrokerProperties(configStatic, deviceDynamic map[string]string) map[string]string {
	merged := make(map[string]string, len(configStatic)+len(deviceDynamic))
	for k, v := range configStatic {
		merged[k] = v
	}
	for k, v := range deviceDynamic {
		merged[k] = v
	}
	return merged
}

// NewInstanceSpec builds the declarative half of an Instance's desired
// state from a freshly discovered device. The writer is responsible for
// the CAS merge into whatever already exists in the cluster.
func NewInstanceSpec(configurationName string, shared bool, configStatic, deviceDynamic map[string]string, deviceID string) v0.InstanceSpec {
	return v0.InstanceSpec{
		ConfigurationName: configurationName,
		Shared:            shared,
		BrokerProperties:  mergeBrokerProperties(configStatic, deviceDynamic),
		DiscoveryDetails:  rawDeviceID(deviceID),
	}
}
