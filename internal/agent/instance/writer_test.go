package instance

import (
	"context"
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	v0 "github.com/akri-sh/akri/api/v0"
	"github.com/akri-sh/akri/internal/akrierr"
)

func newFakeWriter(t *testing.T, nodeName string, objs ...*v0.Instance) *Writer {
	t.Helper()
	scheme, err := v0.SchemeBuilder.Build()
	if err != nil {
		t.Fatalf("failed to build scheme: %v", err)
	}
	builder := fake.NewClientBuilder().WithScheme(scheme).WithStatusSubresource(&v0.Instance{})
	for _, o := range objs {
		builder = builder.WithObjects(o)
	}
	return NewWriter(builder.Build(), nodeName)
}

func TestEnsureInstanceCreatesWithFreeSlots(t *testing.T) {
	w := newFakeWriter(t, "nodeA")
	spec := v0.InstanceSpec{ConfigurationName: "c1", Shared: true}
	if err := w.EnsureInstance(context.Background(), "c1-abcdef0123", 2, spec); err != nil {
		t.Fatalf("EnsureInstance failed: %v", err)
	}

	got := &v0.Instance{}
	if err := w.client.Get(context.Background(), types.NamespacedName{Name: "c1-abcdef0123"}, got); err != nil {
		t.Fatalf("failed to fetch created instance: %v", err)
	}
	if len(got.Status.DeviceUsage) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(got.Status.DeviceUsage))
	}
	if got.Spec.Nodes[0] != "nodeA" {
		t.Fatalf("expected nodeA in Nodes, got %v", got.Spec.Nodes)
	}
}

func TestEnsureInstanceAddsNodeToSharedInstance(t *testing.T) {
	existing := &v0.Instance{
		ObjectMeta: metav1.ObjectMeta{Name: "c1-abcdef0123"},
		Spec:       v0.InstanceSpec{ConfigurationName: "c1", Shared: true, Nodes: []string{"nodeA"}},
		Status:     v0.InstanceStatus{DeviceUsage: map[string]string{"c1-abcdef0123-0": ""}},
	}
	w := newFakeWriter(t, "nodeB", existing)

	if err := w.EnsureInstance(context.Background(), "c1-abcdef0123", 1, v0.InstanceSpec{ConfigurationName: "c1", Shared: true}); err != nil {
		t.Fatalf("EnsureInstance failed: %v", err)
	}

	got := &v0.Instance{}
	if err := w.client.Get(context.Background(), types.NamespacedName{Name: "c1-abcdef0123"}, got); err != nil {
		t.Fatalf("failed to fetch instance: %v", err)
	}
	if len(got.Spec.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %v", got.Spec.Nodes)
	}
}

func TestReserveSlotRejectsContendedSlot(t *testing.T) {
	existing := &v0.Instance{
		ObjectMeta: metav1.ObjectMeta{Name: "c1-abcdef0123"},
		Spec:       v0.InstanceSpec{ConfigurationName: "c1", Shared: true, Nodes: []string{"nodeA", "nodeB"}},
		Status:     v0.InstanceStatus{DeviceUsage: map[string]string{"c1-abcdef0123-0": "nodeA"}},
	}
	w := newFakeWriter(t, "nodeB", existing)

	err := w.ReserveSlot(context.Background(), "c1-abcdef0123", "c1-abcdef0123-0")
	if !akrierr.Is(err, akrierr.KindSlotContended) {
		t.Fatalf("expected SlotContended, got %v", err)
	}
}

func TestReserveSlotIsIdempotentForOwner(t *testing.T) {
	existing := &v0.Instance{
		ObjectMeta: metav1.ObjectMeta{Name: "c1-abcdef0123"},
		Spec:       v0.InstanceSpec{ConfigurationName: "c1", Shared: true, Nodes: []string{"nodeA"}},
		Status:     v0.InstanceStatus{DeviceUsage: map[string]string{"c1-abcdef0123-0": "nodeA"}},
	}
	w := newFakeWriter(t, "nodeA", existing)

	if err := w.ReserveSlot(context.Background(), "c1-abcdef0123", "c1-abcdef0123-0"); err != nil {
		t.Fatalf("expected no error reserving an already-owned slot, got %v", err)
	}
}

func TestRemoveNodeDeletesNonSharedInstance(t *testing.T) {
	existing := &v0.Instance{
		ObjectMeta: metav1.ObjectMeta{Name: "c1-abcdef0123"},
		Spec:       v0.InstanceSpec{ConfigurationName: "c1", Shared: false, Nodes: []string{"nodeA"}},
		Status:     v0.InstanceStatus{DeviceUsage: map[string]string{"c1-abcdef0123-0": ""}},
	}
	w := newFakeWriter(t, "nodeA", existing)

	if err := w.RemoveNode(context.Background(), "c1-abcdef0123"); err != nil {
		t.Fatalf("RemoveNode failed: %v", err)
	}

	got := &v0.Instance{}
	err := w.client.Get(context.Background(), types.NamespacedName{Name: "c1-abcdef0123"}, got)
	if err == nil {
		t.Fatalf("expected instance to be deleted")
	}
}
