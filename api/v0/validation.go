/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package v0

import (
	"errors"
	"fmt"
)

// ValidateConfiguration performs the semantic checks the core itself must
// enforce (spec §6: "reject values violating invariants"). Everything
// else — naming conventions, broker image policy, and so on — is left to
// the external admission webhook collaborator (spec §1, out of scope).
func ValidateConfiguration(c *Configuration) error {
	var errs []error
	if c.Spec.Capacity < 1 {
		errs = append(errs, fmt.Errorf("capacity must be >= 1, got %d", c.Spec.Capacity))
	}
	if c.Spec.DiscoveryHandler.Name == "" {
		errs = append(errs, errors.New("discoveryHandler.name must not be empty"))
	}
	if c.Spec.BrokerSpec != nil && c.Spec.BrokerSpec.PodSpec != nil && c.Spec.BrokerSpec.JobSpec != nil {
		errs = append(errs, errors.New("brokerSpec.podSpec and brokerSpec.jobSpec are mutually exclusive"))
	}
	return errors.Join(errs...)
}

// ValidateCapacityChange implements the capacity-shrink guard from spec
// §8 scenario 6: a Configuration update is never allowed, at the core
// level, to shrink capacity below the number of slots currently owned by
// a node. The admission webhook is expected to reject this earlier; this
// is the Agent's last line of defense if the webhook is absent or bypassed.
func ValidateCapacityChange(newCapacity int32, ownedSlots int) error {
	if int(newCapacity) < ownedSlots {
		return fmt.Errorf("cannot shrink capacity to %d: %d slots are currently owned", newCapacity, ownedSlots)
	}
	return nil
}
