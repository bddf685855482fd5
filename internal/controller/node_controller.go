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

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/util/retry"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	v0 "github.com/akri-sh/akri/api/v0"
)

// NodeReconciler watches Node deletion and removes the lost node from
// every Instance's Nodes/DeviceUsage, deleting orphaned broker pods
// pinned to it (spec §4.5: "Node loss").
type NodeReconciler struct {
	client.Client
	Scheme *runtime.Scheme
}

// +kubebuilder:rbac:groups="",resources=nodes,verbs=get;list;watch
// +kubebuilder:rbac:groups=akri.sh,resources=instances,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups=akri.sh,resources=instances/status,verbs=get;update;patch
// +kubebuilder:rbac:groups="",resources=pods,verbs=get;list;watch;delete

func (r *NodeReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	node := &corev1.Node{}
	err := r.Get(ctx, req.NamespacedName, node)
	if err == nil {
		// Node still exists; nothing to reconcile here (its absence is
		// what this reconciler reacts to).
		return ctrl.Result{}, nil
	}
	if !apierrors.IsNotFound(err) {
		return ctrl.Result{}, fmt.Errorf("failed to get node %s: %w", req.Name, err)
	}

	nodeName := req.Name
	var instances v0.InstanceList
	if err := r.List(ctx, &instances); err != nil {
		return ctrl.Result{}, fmt.Errorf("failed to list instances: %w", err)
	}

	for i := range instances.Items {
		inst := &instances.Items[i]
		if !containsNode(inst.Spec.Nodes, nodeName) {
			continue
		}
		if err := r.removeNodeFromInstance(ctx, inst.Name, nodeName); err != nil {
			return ctrl.Result{}, err
		}
		if err := r.deleteOrphanedPods(ctx, inst.Name, nodeName); err != nil {
			return ctrl.Result{}, err
		}
	}
	return ctrl.Result{}, nil
}

// removeNodeFromInstance drops nodeName from Spec.Nodes and frees any
// slot it owned; a shared Instance left with no nodes is deleted
// (spec §4.5).
func (r *NodeReconciler) removeNodeFromInstance(ctx context.Context, instanceName, nodeName string) error {
	return retry.RetryOnConflict(retry.DefaultBackoff, func() error {
		inst := &v0.Instance{}
		if err := r.Get(ctx, client.ObjectKey{Name: instanceName}, inst); err != nil {
			if apierrors.IsNotFound(err) {
				return nil
			}
			return err
		}

		inst.Spec.Nodes = removeString(inst.Spec.Nodes, nodeName)
		freed := make(map[string]string, len(inst.Status.DeviceUsage))
		for slot, owner := range inst.Status.DeviceUsage {
			if owner == nodeName {
				owner = ""
			}
			freed[slot] = owner
		}

		if inst.Spec.Shared && len(inst.Spec.Nodes) == 0 {
			return r.Delete(ctx, inst)
		}

		if err := r.Update(ctx, inst); err != nil {
			return err
		}
		// Update refreshes inst from the server, status included, so the
		// freed slot table is applied after it.
		inst.Status.DeviceUsage = freed
		return r.Status().Update(ctx, inst)
	})
}

func (r *NodeReconciler) deleteOrphanedPods(ctx context.Context, instanceName, nodeName string) error {
	var pods corev1.PodList
	if err := r.List(ctx, &pods, client.InNamespace(brokerNamespace), client.MatchingLabels{LabelController: ControllerLabelValue, LabelInstance: instanceName}); err != nil {
		return fmt.Errorf("failed to list broker pods for instance %s: %w", instanceName, err)
	}
	for i := range pods.Items {
		if pods.Items[i].Spec.NodeName != nodeName && pods.Items[i].Spec.NodeSelector["kubernetes.io/hostname"] != nodeName {
			continue
		}
		if err := r.Delete(ctx, &pods.Items[i]); err != nil && !apierrors.IsNotFound(err) {
			return fmt.Errorf("failed to delete orphaned broker pod %s: %w", pods.Items[i].Name, err)
		}
	}
	return nil
}

func containsNode(nodes []string, name string) bool {
	for _, n := range nodes {
		if n == name {
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

func (r *NodeReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&corev1.Node{}).
		Complete(r)
}
