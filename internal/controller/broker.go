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

// Package controller implements the Controller Reconciler (spec §4.5):
// a cluster-scoped reconciler over Configuration, Instance, and Node
// that materializes broker Pods/Jobs and Services and tears them down
// on device or node loss.
package controller

import (
	"fmt"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	v0 "github.com/akri-sh/akri/api/v0"
	"github.com/akri-sh/akri/internal/names"
)

// Labels placed on every broker object so the Controller can list and
// diff what it previously created (spec §4.5).
const (
	LabelController     = "controller"
	LabelConfiguration  = "configuration"
	LabelInstance       = "instance"
	ControllerLabelValue = "akri"
)

// brokerLabels returns the label set the Controller stamps onto every
// Pod/Job/Service it derives from an Instance.
func brokerLabels(configurationName, instanceName string) map[string]string {
	return map[string]string{
		LabelController:    ControllerLabelValue,
		LabelConfiguration: configurationName,
		LabelInstance:      instanceName,
	}
}

// desiredPods computes B(I) for a pod_spec broker (spec §4.5): one pod
// per node in Nodes, at most capacity pods in total, each pinned to its
// node with a kubernetes.io/hostname node selector and requesting one
// unit of the Instance resource.
func desiredPods(inst *v0.Instance, cfg *v0.Configuration) []*corev1.Pod {
	if cfg.Spec.BrokerSpec == nil || cfg.Spec.BrokerSpec.PodSpec == nil {
		return nil
	}
	resourceName := names.ResourceName(resourceDomain, inst.Name)

	var pods []*corev1.Pod
	for _, node := range inst.Spec.Nodes {
		if int32(len(pods)) >= cfg.Spec.Capacity {
			break
		}
		podSpec := *cfg.Spec.BrokerSpec.PodSpec.DeepCopy()
		podSpec.NodeSelector = mergeNodeSelector(podSpec.NodeSelector, node)
		addResourceRequest(&podSpec, resourceName)

		pods = append(pods, &corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{
				Name:      fmt.Sprintf("%s-%s-broker", inst.Name, node),
				Namespace: brokerNamespace,
				Labels:    brokerLabels(cfg.Name, inst.Name),
			},
			Spec: podSpec,
		})
	}
	return pods
}

// desiredJob computes B(I) for a job_spec broker: one Job for the whole
// Instance with the configured parallelism/completions.
func desiredJob(inst *v0.Instance, cfg *v0.Configuration) *batchv1.Job {
	if cfg.Spec.BrokerSpec == nil || cfg.Spec.BrokerSpec.JobSpec == nil {
		return nil
	}
	resourceName := names.ResourceName(resourceDomain, inst.Name)
	template := *cfg.Spec.BrokerSpec.JobSpec.Template.DeepCopy()
	addResourceRequest(&template, resourceName)

	return &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:      fmt.Sprintf("%s-broker", inst.Name),
			Namespace: brokerNamespace,
			Labels:    brokerLabels(cfg.Name, inst.Name),
		},
		Spec: batchv1.JobSpec{
			Parallelism: cfg.Spec.BrokerSpec.JobSpec.Parallelism,
			Completions: cfg.Spec.BrokerSpec.JobSpec.Completions,
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: brokerLabels(cfg.Name, inst.Name)},
				Spec:       template,
			},
		},
	}
}

func addResourceRequest(spec *corev1.PodSpec, resourceName string) {
	quantity := resourceQuantityOne()
	for i := range spec.Containers {
		if spec.Containers[i].Resources.Limits == nil {
			spec.Containers[i].Resources.Limits = corev1.ResourceList{}
		}
		if spec.Containers[i].Resources.Requests == nil {
			spec.Containers[i].Resources.Requests = corev1.ResourceList{}
		}
		spec.Containers[i].Resources.Limits[corev1.ResourceName(resourceName)] = quantity
		spec.Containers[i].Resources.Requests[corev1.ResourceName(resourceName)] = quantity
	}
}

func mergeNodeSelector(existing map[string]string, node string) map[string]string {
	sel := make(map[string]string, len(existing)+1)
	for k, v := range existing {
		sel[k] = v
	}
	sel["kubernetes.io/hostname"] = node
	return sel
}

// brokerNamespace is where the Controller materializes broker
// workloads. Akri's broker Pods/Jobs/Services are cluster-operational
// objects, not user-namespaced ones, so a single fixed namespace mirrors
// how the Configuration/Instance CRDs themselves are cluster-scoped.
const brokerNamespace = "akri"

// resourceDomain must match the Agent's device-plugin resource domain
// (internal/config's defaultDomain) so the resource name the Controller
// requests on a broker Pod/Job matches what the Agent actually
// advertises to kubelet.
const resourceDomain = "akri.sh"
