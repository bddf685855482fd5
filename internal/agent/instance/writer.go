package instance

import (
	"context"
	"encoding/json"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/util/retry"
	"sigs.k8s.io/controller-runtime/pkg/client"

	v0 "github.com/akri-sh/akri/api/v0"
	"github.com/akri-sh/akri/internal/akrierr"
	"github.com/akri-sh/akri/internal/names"
)

// deviceIDHolder is the shape stashed into InstanceSpec.DiscoveryDetails
// so Instance.Name can always be recomputed from the object alone.
type deviceIDHolder struct {
	DeviceID string `json:"deviceId"`
}

func rawDeviceID(id string) runtime.RawExtension {
	raw, _ := json.Marshal(deviceIDHolder{DeviceID: id})
	return runtime.RawExtension{Raw: raw}
}

// DeviceIDOf recovers the handler-supplied device id stashed by
// rawDeviceID, or "" if the Instance predates this encoding.
func DeviceIDOf(i *v0.Instance) string {
	if len(i.Spec.DiscoveryDetails.Raw) == 0 {
		return ""
	}
	var holder deviceIDHolder
	if err := json.Unmarshal(i.Spec.DiscoveryDetails.Raw, &holder); err != nil {
		return ""
	}
	return holder.DeviceID
}

// Writer performs every compare-and-swap write against the cluster's
// Instance custom resources described in spec §4.4, built on
// client-go's RetryOnConflict (grounded on the pack's own reconciler CAS
// idiom).
type Writer struct {
	client   client.Client
	nodeName string
}

func NewWriter(c client.Client, nodeName string) *Writer {
	return &Writer{client: c, nodeName: nodeName}
}

// EnsureInstance creates the Instance if absent, or, for a shared
// device, adds this node to Nodes if it is not already present
// (spec §4.4: "Add-node-to-visibility (shared): read -> append this
// node to nodes if absent -> CAS write"). A non-shared Instance records
// this node only while its Nodes list is empty, so it never lists more
// than one node.
func (w *Writer) EnsureInstance(ctx context.Context, name string, capacity int32, spec v0.InstanceSpec) error {
	return retry.RetryOnConflict(retry.DefaultBackoff, func() error {
		existing := &v0.Instance{}
		err := w.client.Get(ctx, types.NamespacedName{Name: name}, existing)
		if apierrors.IsNotFound(err) {
			created := &v0.Instance{
				ObjectMeta: metav1.ObjectMeta{Name: name},
				Spec:       spec,
				Status: v0.InstanceStatus{
					DeviceUsage: freeSlots(name, capacity),
				},
			}
			created.Spec.Nodes = []string{w.nodeName}
			if createErr := w.client.Create(ctx, created); createErr != nil {
				return akrierr.Wrap(akrierr.KindAPIConflict, createErr, "failed to create instance "+name)
			}
			return nil
		}
		if err != nil {
			return akrierr.Wrap(akrierr.KindAPIUnavailable, err, "failed to get instance "+name)
		}

		resized, err := reconcileDeviceUsage(name, existing.Status.DeviceUsage, capacity)
		if err != nil {
			return err
		}

		existing.Spec.BrokerProperties = spec.BrokerProperties
		if !containsString(existing.Spec.Nodes, w.nodeName) && (existing.Spec.Shared || len(existing.Spec.Nodes) == 0) {
			existing.Spec.Nodes = append(existing.Spec.Nodes, w.nodeName)
		}
		if updateErr := w.client.Update(ctx, existing); updateErr != nil {
			if apierrors.IsConflict(updateErr) {
				return updateErr // RetryOnConflict will retry
			}
			return akrierr.Wrap(akrierr.KindAPIConflict, updateErr, "failed to update instance "+name)
		}

		if !deviceUsageEqual(existing.Status.DeviceUsage, resized) {
			existing.Status.DeviceUsage = resized
			if statusErr := w.client.Status().Update(ctx, existing); statusErr != nil {
				if apierrors.IsConflict(statusErr) {
					return statusErr // RetryOnConflict will retry
				}
				return akrierr.Wrap(akrierr.KindAPIConflict, statusErr, "failed to update instance status "+name)
			}
		}
		return nil
	})
}

// RemoveNode implements the departure half of spec §4.4: for a shared
// Instance, remove this node from Nodes, deleting the CR if that empties
// it; for a non-shared Instance, delete outright. "a retry on 409 may
// reveal another node added itself — in that case, abandon deletion."
func (w *Writer) RemoveNode(ctx context.Context, name string) error {
	return retry.RetryOnConflict(retry.DefaultBackoff, func() error {
		existing := &v0.Instance{}
		if err := w.client.Get(ctx, types.NamespacedName{Name: name}, existing); err != nil {
			if apierrors.IsNotFound(err) {
				return nil
			}
			return akrierr.Wrap(akrierr.KindAPIUnavailable, err, "failed to get instance "+name)
		}

		if !existing.Spec.Shared {
			if err := w.client.Delete(ctx, existing); err != nil && !apierrors.IsNotFound(err) {
				return akrierr.Wrap(akrierr.KindAPIConflict, err, "failed to delete instance "+name)
			}
			return nil
		}

		existing.Spec.Nodes = removeString(existing.Spec.Nodes, w.nodeName)
		if len(existing.Spec.Nodes) == 0 {
			if err := w.client.Delete(ctx, existing); err != nil && !apierrors.IsNotFound(err) {
				if apierrors.IsConflict(err) {
					return err // another node may have joined; retry will re-fetch
				}
				return akrierr.Wrap(akrierr.KindAPIConflict, err, "failed to delete instance "+name)
			}
			return nil
		}
		if err := w.client.Update(ctx, existing); err != nil {
			if apierrors.IsConflict(err) {
				return err
			}
			return akrierr.Wrap(akrierr.KindAPIConflict, err, "failed to update instance "+name)
		}
		return nil
	})
}

// ReserveSlot performs the Allocate-time CAS from spec §4.3: the slot
// must be free or already owned by this node; on success the owner
// becomes this node.
func (w *Writer) ReserveSlot(ctx context.Context, instanceName, slot string) error {
	return retry.RetryOnConflict(retry.DefaultBackoff, func() error {
		existing := &v0.Instance{}
		if err := w.client.Get(ctx, types.NamespacedName{Name: instanceName}, existing); err != nil {
			return akrierr.Wrap(akrierr.KindAPIUnavailable, err, "failed to get instance "+instanceName)
		}
		owner, ok := existing.Status.DeviceUsage[slot]
		if !ok {
			return akrierr.New(akrierr.KindHandlerInvalid, fmt.Sprintf("slot %s does not exist on instance %s", slot, instanceName))
		}
		if owner != "" && owner != w.nodeName {
			return akrierr.New(akrierr.KindSlotContended, fmt.Sprintf("slot %s already owned by node %s", slot, owner))
		}
		if owner == w.nodeName {
			return nil
		}
		existing.Status.DeviceUsage[slot] = w.nodeName
		if err := w.client.Status().Update(ctx, existing); err != nil {
			if apierrors.IsConflict(err) {
				return err
			}
			return akrierr.Wrap(akrierr.KindAPIConflict, err, "failed to update instance status "+instanceName)
		}
		return nil
	})
}

// ReleaseSlot frees a slot this node owns, e.g. once the Agent observes
// the broker pod holding it has exited (spec §3: "Slot reservation:
// ... released by the Agent when it observes that the corresponding pod
// has exited").
func (w *Writer) ReleaseSlot(ctx context.Context, instanceName, slot string) error {
	return retry.RetryOnConflict(retry.DefaultBackoff, func() error {
		existing := &v0.Instance{}
		if err := w.client.Get(ctx, types.NamespacedName{Name: instanceName}, existing); err != nil {
			if apierrors.IsNotFound(err) {
				return nil
			}
			return akrierr.Wrap(akrierr.KindAPIUnavailable, err, "failed to get instance "+instanceName)
		}
		if existing.Status.DeviceUsage[slot] != w.nodeName {
			return nil
		}
		existing.Status.DeviceUsage[slot] = ""
		if err := w.client.Status().Update(ctx, existing); err != nil {
			if apierrors.IsConflict(err) {
				return err
			}
			return akrierr.Wrap(akrierr.KindAPIConflict, err, "failed to update instance status "+instanceName)
		}
		return nil
	})
}

func freeSlots(instanceName string, capacity int32) map[string]string {
	slots := make(map[string]string, capacity)
	for i := int32(0); i < capacity; i++ {
		slots[names.SlotName(instanceName, int(i))] = ""
	}
	return slots
}

// reconcileDeviceUsage resizes an Instance's device_usage map to a new
// capacity, refusing to drop any currently-owned slot (spec §8
// scenario 6). Growing adds free slots; shrinking drops only unowned
// slots at indices the new capacity no longer covers.
func reconcileDeviceUsage(instanceName string, existing map[string]string, capacity int32) (map[string]string, error) {
	owned := 0
	for _, owner := range existing {
		if owner != "" {
			owned++
		}
	}
	if err := v0.ValidateCapacityChange(capacity, owned); err != nil {
		return nil, akrierr.New(akrierr.KindHandlerInvalid, err.Error())
	}

	resized := make(map[string]string, capacity)
	for i := int32(0); i < capacity; i++ {
		slot := names.SlotName(instanceName, int(i))
		resized[slot] = existing[slot]
	}
	for slot, owner := range existing {
		if _, kept := resized[slot]; !kept && owner != "" {
			return nil, akrierr.New(akrierr.KindHandlerInvalid, fmt.Sprintf("cannot shrink capacity to %d: slot %s is owned by node %s", capacity, slot, owner))
		}
	}
	return resized, nil
}

func deviceUsageEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for slot, owner := range a {
		if b[slot] != owner {
			return false
		}
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func removeString(list []string, s string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
