package controller

import "k8s.io/apimachinery/pkg/api/resource"

// resourceQuantityOne is the extended-resource quantity every broker
// container requests for its Instance resource: device-plugin resources
// are always requested as a whole unit (spec §4.5: "pod requests the
// resource akri.sh/<I.name>: \"1\"").
func resourceQuantityOne() resource.Quantity {
	return resource.MustParse("1")
}
