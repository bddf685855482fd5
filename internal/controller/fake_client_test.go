package controller

import (
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	v0 "github.com/akri-sh/akri/api/v0"
)

func newFakeClient(objs ...client.Object) client.Client {
	scheme, err := v0.SchemeBuilder.Build()
	if err != nil {
		panic(err)
	}
	if err := corev1.AddToScheme(scheme); err != nil {
		panic(err)
	}
	return fake.NewClientBuilder().
		WithScheme(scheme).
		WithStatusSubresource(&v0.Instance{}).
		WithObjects(objs...).
		Build()
}
