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
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	v0 "github.com/akri-sh/akri/api/v0"
)

var _ = Describe("Configuration Controller", func() {
	ctx := context.Background()

	It("adds the cleanup finalizer on create", func() {
		cfg := &v0.Configuration{ObjectMeta: metav1.ObjectMeta{Name: "c1"}}
		cl := newFakeClient(cfg)
		r := &ConfigurationReconciler{Client: cl}

		_, err := r.Reconcile(ctx, ctrl.Request{NamespacedName: types.NamespacedName{Name: "c1"}})
		Expect(err).NotTo(HaveOccurred())

		got := &v0.Configuration{}
		Expect(cl.Get(ctx, types.NamespacedName{Name: "c1"}, got)).To(Succeed())
		Expect(controllerutil.ContainsFinalizer(got, ConfigurationFinalizer)).To(BeTrue())
	})

	It("deletes every derived Instance and requeues while any remain", func() {
		now := metav1.Now()
		cfg := &v0.Configuration{
			ObjectMeta: metav1.ObjectMeta{Name: "c1", Finalizers: []string{ConfigurationFinalizer}, DeletionTimestamp: &now},
		}
		inst := &v0.Instance{
			ObjectMeta: metav1.ObjectMeta{Name: "c1-abcdef0123"},
			Spec:       v0.InstanceSpec{ConfigurationName: "c1"},
		}
		cl := newFakeClient(cfg, inst)
		r := &ConfigurationReconciler{Client: cl}

		res, err := r.Reconcile(ctx, ctrl.Request{NamespacedName: types.NamespacedName{Name: "c1"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Requeue).To(BeTrue())

		err = cl.Get(ctx, types.NamespacedName{Name: "c1-abcdef0123"}, &v0.Instance{})
		Expect(apierrors.IsNotFound(err)).To(BeTrue())

		got := &v0.Configuration{}
		Expect(cl.Get(ctx, types.NamespacedName{Name: "c1"}, got)).To(Succeed())
		Expect(controllerutil.ContainsFinalizer(got, ConfigurationFinalizer)).To(BeTrue())
	})

	It("removes the finalizer and the per-Configuration Service once Instances are drained", func() {
		now := metav1.Now()
		cfg := &v0.Configuration{
			ObjectMeta: metav1.ObjectMeta{Name: "c1", Finalizers: []string{ConfigurationFinalizer}, DeletionTimestamp: &now},
		}
		svc := &corev1.Service{
			ObjectMeta: metav1.ObjectMeta{
				Name:      "c1",
				Namespace: brokerNamespace,
				Labels:    map[string]string{LabelController: ControllerLabelValue, LabelConfiguration: "c1"},
			},
		}
		cl := newFakeClient(cfg, svc)
		r := &ConfigurationReconciler{Client: cl}

		_, err := r.Reconcile(ctx, ctrl.Request{NamespacedName: types.NamespacedName{Name: "c1"}})
		Expect(err).NotTo(HaveOccurred())

		err = cl.Get(ctx, types.NamespacedName{Name: "c1"}, &v0.Configuration{})
		Expect(apierrors.IsNotFound(err)).To(BeTrue())

		err = cl.Get(ctx, types.NamespacedName{Name: "c1", Namespace: brokerNamespace}, &corev1.Service{})
		Expect(apierrors.IsNotFound(err)).To(BeTrue())
	})

	It("is idempotent when the Configuration no longer exists", func() {
		r := &ConfigurationReconciler{Client: newFakeClient()}

		_, err := r.Reconcile(ctx, ctrl.Request{NamespacedName: types.NamespacedName{Name: "missing"}})
		Expect(err).NotTo(HaveOccurred())
	})
})
