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
	"fmt"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	v0 "github.com/akri-sh/akri/api/v0"
)

// InstanceReconciler materializes broker Pods/Jobs and Services for each
// Instance (spec §4.5). It performs no arbitration over slot ownership:
// the Agent's CAS on device_usage is the sole serialization point
// (spec §4.5: "Tie-breaking ... the Controller does not arbitrate").
type InstanceReconciler struct {
	client.Client
	Scheme *runtime.Scheme
}

// +kubebuilder:rbac:groups=akri.sh,resources=instances,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups=akri.sh,resources=instances/status,verbs=get
// +kubebuilder:rbac:groups=akri.sh,resources=configurations,verbs=get;list;watch
// +kubebuilder:rbac:groups="",resources=pods,verbs=get;list;watch;create;delete
// +kubebuilder:rbac:groups="",resources=services,verbs=get;list;watch;create;update;delete
// +kubebuilder:rbac:groups=batch,resources=jobs,verbs=get;list;watch;create;delete

func (r *InstanceReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx)

	inst := &v0.Instance{}
	if err := r.Get(ctx, req.NamespacedName, inst); err != nil {
		if apierrors.IsNotFound(err) {
			return ctrl.Result{}, r.deleteBrokersForInstance(ctx, req.Name)
		}
		return ctrl.Result{}, fmt.Errorf("failed to get instance %s: %w", req.Name, err)
	}

	cfg := &v0.Configuration{}
	if err := r.Get(ctx, types.NamespacedName{Name: inst.Spec.ConfigurationName}, cfg); err != nil {
		if apierrors.IsNotFound(err) {
			// Configuration gone; its own delete cascade will clean this
			// Instance up. Nothing to do here.
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, fmt.Errorf("failed to get configuration %s: %w", inst.Spec.ConfigurationName, err)
	}

	if cfg.Spec.BrokerSpec == nil {
		return ctrl.Result{}, r.deleteBrokersForInstance(ctx, inst.Name)
	}

	if err := r.reconcileServices(ctx, inst, cfg); err != nil {
		return ctrl.Result{}, err
	}

	if cfg.Spec.BrokerSpec.JobSpec != nil {
		return ctrl.Result{}, r.reconcileJob(ctx, inst, cfg)
	}
	return ctrl.Result{}, r.reconcilePods(ctx, inst, cfg, logger)
}

func (r *InstanceReconciler) reconcilePods(ctx context.Context, inst *v0.Instance, cfg *v0.Configuration, logger interface {
	Info(msg string, kv ...interface{})
}) error {
	desired := desiredPods(inst, cfg)
	desiredNames := make(map[string]struct{}, len(desired))
	for _, p := range desired {
		desiredNames[p.Name] = struct{}{}
	}

	var existing corev1.PodList
	if err := r.List(ctx, &existing, client.InNamespace(brokerNamespace), client.MatchingLabels(brokerLabels(cfg.Name, inst.Name))); err != nil {
		return fmt.Errorf("failed to list broker pods for instance %s: %w", inst.Name, err)
	}

	existingByName := make(map[string]*corev1.Pod, len(existing.Items))
	for i := range existing.Items {
		existingByName[existing.Items[i].Name] = &existing.Items[i]
	}

	for _, p := range desired {
		if _, ok := existingByName[p.Name]; ok {
			continue
		}
		if err := r.Create(ctx, p); err != nil && !apierrors.IsAlreadyExists(err) {
			return fmt.Errorf("failed to create broker pod %s: %w", p.Name, err)
		}
		logger.Info("created broker pod", "pod", p.Name, "instance", inst.Name)
	}

	for name, p := range existingByName {
		if _, wanted := desiredNames[name]; wanted {
			continue
		}
		if err := r.Delete(ctx, p); err != nil && !apierrors.IsNotFound(err) {
			return fmt.Errorf("failed to delete extra broker pod %s: %w", name, err)
		}
		logger.Info("deleted extra broker pod", "pod", name, "instance", inst.Name)
	}
	return nil
}

func (r *InstanceReconciler) reconcileJob(ctx context.Context, inst *v0.Instance, cfg *v0.Configuration) error {
	desired := desiredJob(inst, cfg)
	if desired == nil {
		return nil
	}
	existing := &batchv1.Job{}
	err := r.Get(ctx, types.NamespacedName{Name: desired.Name, Namespace: desired.Namespace}, existing)
	if apierrors.IsNotFound(err) {
		if createErr := r.Create(ctx, desired); createErr != nil && !apierrors.IsAlreadyExists(createErr) {
			return fmt.Errorf("failed to create broker job %s: %w", desired.Name, createErr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get broker job %s: %w", desired.Name, err)
	}
	return nil
}

// deleteBrokersForInstance deletes every Pod/Job/Service this Controller
// previously derived from instanceName. Used both when the Instance is
// gone and when its Configuration no longer requests a broker.
func (r *InstanceReconciler) deleteBrokersForInstance(ctx context.Context, instanceName string) error {
	sel := client.MatchingLabels{LabelController: ControllerLabelValue, LabelInstance: instanceName}

	var pods corev1.PodList
	if err := r.List(ctx, &pods, client.InNamespace(brokerNamespace), sel); err != nil {
		return fmt.Errorf("failed to list broker pods for instance %s: %w", instanceName, err)
	}
	for i := range pods.Items {
		if err := r.Delete(ctx, &pods.Items[i]); err != nil && !apierrors.IsNotFound(err) {
			return fmt.Errorf("failed to delete broker pod %s: %w", pods.Items[i].Name, err)
		}
	}

	var jobs batchv1.JobList
	if err := r.List(ctx, &jobs, client.InNamespace(brokerNamespace), sel); err != nil {
		return fmt.Errorf("failed to list broker jobs for instance %s: %w", instanceName, err)
	}
	for i := range jobs.Items {
		if err := r.Delete(ctx, &jobs.Items[i]); err != nil && !apierrors.IsNotFound(err) {
			return fmt.Errorf("failed to delete broker job %s: %w", jobs.Items[i].Name, err)
		}
	}

	var services corev1.ServiceList
	if err := r.List(ctx, &services, client.InNamespace(brokerNamespace), client.MatchingLabels{LabelController: ControllerLabelValue, LabelInstance: instanceName}); err != nil {
		return fmt.Errorf("failed to list instance services for instance %s: %w", instanceName, err)
	}
	for i := range services.Items {
		if err := r.Delete(ctx, &services.Items[i]); err != nil && !apierrors.IsNotFound(err) {
			return fmt.Errorf("failed to delete instance service %s: %w", services.Items[i].Name, err)
		}
	}
	return nil
}

func (r *InstanceReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&v0.Instance{}).
		Complete(r)
}
