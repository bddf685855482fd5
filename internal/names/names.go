// Package names derives the deterministic, stable names the core uses
// for Instances and kubelet resources. Grounded on the pack's own
// device-name normalization helper (dranet's pkg/names), generalized
// from "normalize one non-DNS-1123 interface name" to "hash a handler id
// into a short, stable suffix and sanitize a resource name to a DNS
// label."
package names

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
)

// shortHashLen is long enough to make collisions between devices on the
// same Configuration implausible while keeping Instance and socket names
// well under the DNS-1123 label limit (63 chars).
const shortHashLen = 10

// InstanceName derives the deterministic Instance name
// "<configuration-name>-<short-hash>". The hash is computed only over the
// handler-supplied device id, never over human-readable properties
// (spec §3 invariant: renaming a broker property must never orphan an
// Instance).
func InstanceName(configurationName, deviceID string) string {
	return fmt.Sprintf("%s-%s", configurationName, shortHash(deviceID))
}

// ShortHashSuffix recovers the short-hash half of an Instance name
// ("<configuration-name>-<short-hash>"), the part safe to splice into
// an environment variable name (spec §6: "<UPPER_KEY>_<INSTANCE_SHORT_HASH>").
func ShortHashSuffix(instanceName string) string {
	idx := strings.LastIndexByte(instanceName, '-')
	if idx < 0 {
		return instanceName
	}
	return instanceName[idx+1:]
}

// SlotName derives the name of one usage slot of an Instance.
func SlotName(instanceName string, slot int) string {
	return fmt.Sprintf("%s-%d", instanceName, slot)
}

// ResourceName derives the kubelet-visible resource name
// "akri.sh/<configuration-name>-<short-hash>".
func ResourceName(domain, instanceName string) string {
	return fmt.Sprintf("%s/%s", domain, instanceName)
}

// PluginSocketName derives the device-plugin socket file name
// "akri-<configuration-short-hash>-<instance-short-hash>.sock" per
// spec §6.
func PluginSocketName(configurationName, instanceName string) string {
	return fmt.Sprintf("akri-%s-%s.sock", shortHash(configurationName), shortHash(instanceName))
}

// SanitizeDNSLabel lowercases s and rejects any character outside
// [a-z0-9-], as spec §4.3 requires for resource names derived from
// Configuration names. It does not attempt to repair the input: callers
// that need a name that is always valid should derive it from a hash
// instead (see InstanceName).
func SanitizeDNSLabel(s string) (string, error) {
	lower := strings.ToLower(s)
	if errs := validation.IsDNS1123Label(lower); len(errs) > 0 {
		return "", fmt.Errorf("%q is not a valid DNS-1123 label: %s", s, strings.Join(errs, "; "))
	}
	return lower, nil
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:shortHashLen]
}
