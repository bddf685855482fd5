package controller

import (
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	v0 "github.com/akri-sh/akri/api/v0"
)

func TestDesiredPodsOnePerNode(t *testing.T) {
	inst := &v0.Instance{
		ObjectMeta: metav1.ObjectMeta{Name: "c1-abcdef0123"},
		Spec:       v0.InstanceSpec{ConfigurationName: "c1", Shared: true, Nodes: []string{"nA", "nB"}},
	}
	cfg := &v0.Configuration{
		ObjectMeta: metav1.ObjectMeta{Name: "c1"},
		Spec: v0.ConfigurationSpec{
			Capacity: 2,
			BrokerSpec: &v0.BrokerSpec{
				PodSpec: &corev1.PodSpec{
					Containers: []corev1.Container{{Name: "broker", Image: "example/broker:latest"}},
				},
			},
		},
	}

	pods := desiredPods(inst, cfg)
	if len(pods) != 2 {
		t.Fatalf("expected 2 pods (one per node), got %d", len(pods))
	}
	for _, p := range pods {
		q, ok := p.Spec.Containers[0].Resources.Requests["akri.sh/c1-abcdef0123"]
		if !ok || q.String() != "1" {
			t.Fatalf("expected pod %s to request the instance resource, got %v", p.Name, p.Spec.Containers[0].Resources.Requests)
		}
	}
}

func TestDesiredPodsNilWithoutBrokerSpec(t *testing.T) {
	inst := &v0.Instance{ObjectMeta: metav1.ObjectMeta{Name: "c1-abcdef0123"}, Spec: v0.InstanceSpec{Nodes: []string{"nA"}}}
	cfg := &v0.Configuration{ObjectMeta: metav1.ObjectMeta{Name: "c1"}}
	if pods := desiredPods(inst, cfg); pods != nil {
		t.Fatalf("expected no pods without a broker spec, got %v", pods)
	}
}

func TestDesiredJobUsesConfiguredParallelism(t *testing.T) {
	var parallelism int32 = 3
	inst := &v0.Instance{ObjectMeta: metav1.ObjectMeta{Name: "c2-abcdef0123"}, Spec: v0.InstanceSpec{ConfigurationName: "c2"}}
	cfg := &v0.Configuration{
		ObjectMeta: metav1.ObjectMeta{Name: "c2"},
		Spec: v0.ConfigurationSpec{
			BrokerSpec: &v0.BrokerSpec{
				JobSpec: &v0.BrokerJobSpec{
					Parallelism: &parallelism,
					Template:    corev1.PodSpec{Containers: []corev1.Container{{Name: "broker"}}},
				},
			},
		},
	}

	job := desiredJob(inst, cfg)
	if job == nil {
		t.Fatal("expected a job to be built")
	}
	if *job.Spec.Parallelism != 3 {
		t.Fatalf("expected parallelism 3, got %d", *job.Spec.Parallelism)
	}
}
