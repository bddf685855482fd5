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
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

// Condition types and reasons for Instance.Status.Conditions. No code in
// this module sets Instance conditions.
const (
	ConditionTypeReconciled = "Reconciled"
	ConditionTypeSlotsValid = "SlotsValid"

	ReasonCASConflict       = "ResourceVersionConflict"
	ReasonCapacityShrink    = "CapacityShrinkBlocked"
	ReasonReconcileSucceeded = "ReconcileSucceeded"
)

// DiscoveryHandlerInfo selects a Discovery Handler by name and carries
// opaque, handler-specific filter details.
type DiscoveryHandlerInfo struct {
	// Name of the Discovery Handler protocol, e.g. "onvif", "opcua", "udev".
	Name string `json:"name"`
	// Details are opaque to the core and passed verbatim to every DH
	// matching Name.
	Details string `json:"details,omitempty"`
	// Properties are opaque byte-valued properties passed verbatim to
	// every matching DH alongside Details.
	Properties map[string][]byte `json:"properties,omitempty"`
}

// BrokerSpec is mutually exclusive between PodSpec and JobSpec.
type BrokerSpec struct {
	// +optional
	PodSpec *corev1.PodSpec `json:"podSpec,omitempty"`
	// +optional
	JobSpec *BrokerJobSpec `json:"jobSpec,omitempty"`
}

// BrokerJobSpec mirrors the subset of batchv1.JobSpec the core cares
// about: parallelism/completions plus a pod template.
type BrokerJobSpec struct {
	Parallelism *int32          `json:"parallelism,omitempty"`
	Completions *int32          `json:"completions,omitempty"`
	Template    corev1.PodSpec  `json:"template"`
}

// ServiceSpec is a template for a Service the Controller materializes.
type ServiceSpec struct {
	Ports []corev1.ServicePort `json:"ports,omitempty"`
	Type  corev1.ServiceType   `json:"type,omitempty"`
}

// ConfigurationSpec is the user's declarative request for a class of
// devices.
type ConfigurationSpec struct {
	// DiscoveryHandler selects a protocol by handler name.
	DiscoveryHandler DiscoveryHandlerInfo `json:"discoveryHandler"`

	// Capacity is the maximum number of concurrent brokers per
	// discovered device. Must be >= 1.
	Capacity int32 `json:"capacity"`

	// BrokerSpec is optional; when absent, no broker is scheduled for
	// Instances of this Configuration.
	// +optional
	BrokerSpec *BrokerSpec `json:"brokerSpec,omitempty"`

	// +optional
	InstanceServiceSpec *ServiceSpec `json:"instanceServiceSpec,omitempty"`
	// +optional
	ConfigurationServiceSpec *ServiceSpec `json:"configurationServiceSpec,omitempty"`

	// BrokerProperties are injected as environment variables into every
	// broker for Instances of this Configuration.
	// +optional
	BrokerProperties map[string]string `json:"brokerProperties,omitempty"`
}

// ConfigurationStatus is currently unused by the core but reserved for
// operator-visible summaries (active Instance count, last discovery
// error) filled in by future collaborators.
type ConfigurationStatus struct {
	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:resource:scope=Cluster,shortName=akric

// Configuration is the user's declarative request for a class of
// discoverable devices. See spec §3.
type Configuration struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ConfigurationSpec   `json:"spec"`
	Status ConfigurationStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// ConfigurationList contains a list of Configuration.
type ConfigurationList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Configuration `json:"items"`
}

// InstanceSpec is the node-discovered record of a single device.
type InstanceSpec struct {
	// ConfigurationName back-references the owning Configuration by
	// name; cyclic references are broken by name, not object pointer
	// (spec §9).
	ConfigurationName string `json:"configurationName"`

	// Shared is true iff the Discovery Handler declared the device
	// shared at registration time. Immutable after creation.
	Shared bool `json:"shared"`

	// BrokerProperties is merged from the Configuration's static
	// properties and the handler-supplied per-device properties;
	// device-dynamic keys win on collision (spec §9, Open Questions).
	// +optional
	BrokerProperties map[string]string `json:"brokerProperties,omitempty"`

	// Nodes is the ordered set of node names currently able to see the
	// device. len(Nodes) <= 1 for non-shared Instances.
	// +optional
	Nodes []string `json:"nodes,omitempty"`

	// DiscoveryDetails carries the raw handler-supplied device id used
	// to derive Instance.Name; never recomputed from human-readable
	// fields (spec §3 invariant).
	DiscoveryDetails runtime.RawExtension `json:"discoveryDetails,omitempty"`
}

// InstanceStatus carries the live, frequently-written fields: the slot
// table and any condition summarizing the last reconcile/CAS attempt.
type InstanceStatus struct {
	// DeviceUsage maps slot-id (<instance-name>-<0..capacity-1>) to
	// owner node name, or "" if free. len(DeviceUsage) == capacity
	// always (spec §3 invariant).
	// +optional
	DeviceUsage map[string]string `json:"deviceUsage,omitempty"`

	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Cluster,shortName=akrii

// Instance is the node's view of one discovered device, mirrored to the
// cluster. See spec §3.
type Instance struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   InstanceSpec   `json:"spec"`
	Status InstanceStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// InstanceList contains a list of Instance.
type InstanceList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Instance `json:"items"`
}
