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

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	v0 "github.com/akri-sh/akri/api/v0"
)

// ConfigurationFinalizer blocks Configuration deletion until every
// derived Instance and broker object has been cleaned up
// (spec §4.5: "the cascade must be idempotent and safe to interrupt").
const ConfigurationFinalizer = "akri.sh/configuration-cleanup"

// ConfigurationReconciler owns the Configuration delete cascade: delete
// all Instances for the Configuration and all derived broker pods/jobs
// and services.
type ConfigurationReconciler struct {
	client.Client
	Scheme *runtime.Scheme
}

// +kubebuilder:rbac:groups=akri.sh,resources=configurations,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups=akri.sh,resources=configurations/finalizers,verbs=update
// +kubebuilder:rbac:groups=akri.sh,resources=instances,verbs=get;list;watch;delete

func (r *ConfigurationReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	cfg := &v0.Configuration{}
	if err := r.Get(ctx, req.NamespacedName, cfg); err != nil {
		if apierrors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, fmt.Errorf("failed to get configuration %s: %w", req.Name, err)
	}

	if cfg.DeletionTimestamp == nil {
		if !controllerutil.ContainsFinalizer(cfg, ConfigurationFinalizer) {
			controllerutil.AddFinalizer(cfg, ConfigurationFinalizer)
			if err := r.Update(ctx, cfg); err != nil {
				return ctrl.Result{}, fmt.Errorf("failed to add finalizer to configuration %s: %w", cfg.Name, err)
			}
		}
		return ctrl.Result{}, nil
	}

	if !controllerutil.ContainsFinalizer(cfg, ConfigurationFinalizer) {
		return ctrl.Result{}, nil
	}

	done, err := r.cascadeDelete(ctx, cfg.Name)
	if err != nil {
		return ctrl.Result{}, err
	}
	if !done {
		// Children were just asked to delete; requeue to observe them gone.
		return ctrl.Result{Requeue: true}, nil
	}

	controllerutil.RemoveFinalizer(cfg, ConfigurationFinalizer)
	if err := r.Update(ctx, cfg); err != nil {
		return ctrl.Result{}, fmt.Errorf("failed to remove finalizer from configuration %s: %w", cfg.Name, err)
	}
	return ctrl.Result{}, nil
}

// cascadeDelete deletes every Instance for configurationName and the
// per-Configuration Service. It is idempotent: a second call with
// nothing left to delete simply returns done=true. Per-Instance broker
// objects are cleaned up by InstanceReconciler reacting to the
// Instance's own deletion, so this does not duplicate that work.
func (r *ConfigurationReconciler) cascadeDelete(ctx context.Context, configurationName string) (done bool, err error) {
	var instances v0.InstanceList
	if err := r.List(ctx, &instances); err != nil {
		return false, fmt.Errorf("failed to list instances: %w", err)
	}

	remaining := 0
	for i := range instances.Items {
		inst := &instances.Items[i]
		if inst.Spec.ConfigurationName != configurationName {
			continue
		}
		remaining++
		if inst.DeletionTimestamp != nil {
			continue
		}
		if err := r.Delete(ctx, inst); err != nil && !apierrors.IsNotFound(err) {
			return false, fmt.Errorf("failed to delete instance %s: %w", inst.Name, err)
		}
	}
	if remaining > 0 {
		return false, nil
	}

	if err := deleteServicesForConfiguration(ctx, r.Client, configurationName); err != nil {
		return false, err
	}
	return true, nil
}

func (r *ConfigurationReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&v0.Configuration{}).
		Complete(r)
}
