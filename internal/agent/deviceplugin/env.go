package deviceplugin

import (
	"fmt"
	"strings"
)

// BuildEnv computes the environment variables injected into a broker
// container on Allocate (spec §6):
//
//   - per-device properties are exposed as <UPPER_KEY>_<INSTANCE_SHORT_HASH>
//     so that multiple Instances granted to one pod never collide
//     ("critical: not bare <UPPER_KEY>, which prior versions used and
//     which collided across devices").
//   - static broker_properties are additionally exposed as bare
//     <UPPER_KEY> whenever that key is not already used by any
//     per-device property across the devices being allocated in this
//     call (spec §6: "when unambiguous").
func BuildEnv(perDevice map[string]perDeviceEnv, staticProperties map[string]string) map[string]string {
	env := make(map[string]string)
	usedBareKeys := make(map[string]bool)

	for _, d := range perDevice {
		for key, value := range d.Properties {
			upper := strings.ToUpper(key)
			env[fmt.Sprintf("%s_%s", upper, d.InstanceShortHash)] = value
			usedBareKeys[upper] = true
		}
	}
	for key, value := range staticProperties {
		upper := strings.ToUpper(key)
		if usedBareKeys[upper] {
			continue
		}
		env[upper] = value
	}
	return env
}

// perDeviceEnv carries the per-device properties and instance short hash
// needed to namespace env var names for one device granted in a single
// Allocate call.
type perDeviceEnv struct {
	InstanceShortHash string
	Properties        map[string]string
}
