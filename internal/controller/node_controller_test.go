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

package controller

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	ctrl "sigs.k8s.io/controller-runtime"

	v0 "github.com/akri-sh/akri/api/v0"
)

var _ = Describe("Node Controller", func() {
	ctx := context.Background()

	It("deletes a shared instance left with no nodes", func() {
		inst := &v0.Instance{
			ObjectMeta: metav1.ObjectMeta{Name: "c1-abcdef0123"},
			Spec:       v0.InstanceSpec{ConfigurationName: "c1", Shared: true, Nodes: []string{"nA"}},
			Status:     v0.InstanceStatus{DeviceUsage: map[string]string{"c1-abcdef0123-0": "nA"}},
		}
		cl := newFakeClient(inst)
		r := &NodeReconciler{Client: cl}

		_, err := r.Reconcile(ctx, ctrl.Request{NamespacedName: types.NamespacedName{Name: "nA"}})
		Expect(err).NotTo(HaveOccurred())

		got := &v0.Instance{}
		err = cl.Get(ctx, types.NamespacedName{Name: "c1-abcdef0123"}, got)
		Expect(apierrors.IsNotFound(err)).To(BeTrue())
	})

	It("keeps a non-shared instance but clears its node and slot owner", func() {
		inst := &v0.Instance{
			ObjectMeta: metav1.ObjectMeta{Name: "c1-abcdef0123"},
			Spec:       v0.InstanceSpec{ConfigurationName: "c1", Shared: false, Nodes: []string{"nA"}},
			Status:     v0.InstanceStatus{DeviceUsage: map[string]string{"c1-abcdef0123-0": "nA"}},
		}
		cl := newFakeClient(inst)
		r := &NodeReconciler{Client: cl}

		_, err := r.Reconcile(ctx, ctrl.Request{NamespacedName: types.NamespacedName{Name: "nA"}})
		Expect(err).NotTo(HaveOccurred())

		got := &v0.Instance{}
		Expect(cl.Get(ctx, types.NamespacedName{Name: "c1-abcdef0123"}, got)).To(Succeed())
		Expect(got.Spec.Nodes).To(BeEmpty())
		Expect(got.Status.DeviceUsage["c1-abcdef0123-0"]).To(Equal(""))
	})

	It("drops the node from a shared instance without deleting it while other nodes remain", func() {
		inst := &v0.Instance{
			ObjectMeta: metav1.ObjectMeta{Name: "c1-abcdef0123"},
			Spec:       v0.InstanceSpec{ConfigurationName: "c1", Shared: true, Nodes: []string{"nA", "nB"}},
			Status:     v0.InstanceStatus{DeviceUsage: map[string]string{"c1-abcdef0123-0": "nA"}},
		}
		cl := newFakeClient(inst)
		r := &NodeReconciler{Client: cl}

		_, err := r.Reconcile(ctx, ctrl.Request{NamespacedName: types.NamespacedName{Name: "nA"}})
		Expect(err).NotTo(HaveOccurred())

		got := &v0.Instance{}
		Expect(cl.Get(ctx, types.NamespacedName{Name: "c1-abcdef0123"}, got)).To(Succeed())
		Expect(got.Spec.Nodes).To(ConsistOf("nB"))
		Expect(got.Status.DeviceUsage["c1-abcdef0123-0"]).To(Equal(""))
	})

	It("is a no-op when the node still exists", func() {
		node := &corev1.Node{ObjectMeta: metav1.ObjectMeta{Name: "nA"}}
		inst := &v0.Instance{
			ObjectMeta: metav1.ObjectMeta{Name: "c1-abcdef0123"},
			Spec:       v0.InstanceSpec{ConfigurationName: "c1", Nodes: []string{"nA"}},
		}
		cl := newFakeClient(node, inst)
		r := &NodeReconciler{Client: cl}

		_, err := r.Reconcile(ctx, ctrl.Request{NamespacedName: types.NamespacedName{Name: "nA"}})
		Expect(err).NotTo(HaveOccurred())

		got := &v0.Instance{}
		Expect(cl.Get(ctx, types.NamespacedName{Name: "c1-abcdef0123"}, got)).To(Succeed())
		Expect(got.Spec.Nodes).To(ConsistOf("nA"))
	})
})
