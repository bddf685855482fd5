// Package v0 contains the Configuration and Instance API types, group
// akri.sh, version v0.
package v0

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/scheme"
)

const GroupName = "akri.sh"

// GroupVersion is group akri.sh, version v0.
var GroupVersion = schema.GroupVersion{Group: GroupName, Version: "v0"}

// SchemeBuilder is used to add go types to the GroupVersionKind scheme.
var SchemeBuilder = &scheme.Builder{GroupVersion: GroupVersion}

// AddToScheme adds the types in this group-version to the given scheme.
var AddToScheme = SchemeBuilder.AddToScheme

func init() {
	SchemeBuilder.Register(
		&Configuration{}, &ConfigurationList{},
		&Instance{}, &InstanceList{},
	)
}
