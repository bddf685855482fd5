package controller

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	v0 "github.com/akri-sh/akri/api/v0"
)

// reconcileServices materializes the per-Instance and per-Configuration
// Services described in spec §4.5: the former selects only pods labeled
// with this Instance, the latter every pod labeled with the
// Configuration (spanning all its Instances).
func (r *InstanceReconciler) reconcileServices(ctx context.Context, inst *v0.Instance, cfg *v0.Configuration) error {
	if cfg.Spec.InstanceServiceSpec != nil {
		name := fmt.Sprintf("%s-svc", inst.Name)
		selector := map[string]string{LabelController: ControllerLabelValue, LabelInstance: inst.Name}
		if err := r.ensureService(ctx, name, selector, cfg.Spec.InstanceServiceSpec, brokerLabels(cfg.Name, inst.Name)); err != nil {
			return fmt.Errorf("failed to reconcile instance service for %s: %w", inst.Name, err)
		}
	}
	if cfg.Spec.ConfigurationServiceSpec != nil {
		name := fmt.Sprintf("%s-svc", cfg.Name)
		selector := map[string]string{LabelController: ControllerLabelValue, LabelConfiguration: cfg.Name}
		if err := r.ensureService(ctx, name, selector, cfg.Spec.ConfigurationServiceSpec, map[string]string{LabelController: ControllerLabelValue, LabelConfiguration: cfg.Name}); err != nil {
			return fmt.Errorf("failed to reconcile configuration service for %s: %w", cfg.Name, err)
		}
	}
	return nil
}

func (r *InstanceReconciler) ensureService(ctx context.Context, name string, selector map[string]string, spec *v0.ServiceSpec, labels map[string]string) error {
	existing := &corev1.Service{}
	err := r.Get(ctx, types.NamespacedName{Name: name, Namespace: brokerNamespace}, existing)
	if apierrors.IsNotFound(err) {
		svc := &corev1.Service{
			ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: brokerNamespace, Labels: labels},
			Spec: corev1.ServiceSpec{
				Selector: selector,
				Ports:    spec.Ports,
				Type:     spec.Type,
			},
		}
		if createErr := r.Create(ctx, svc); createErr != nil && !apierrors.IsAlreadyExists(createErr) {
			return createErr
		}
		return nil
	}
	if err != nil {
		return err
	}
	existing.Spec.Selector = selector
	existing.Spec.Ports = spec.Ports
	existing.Spec.Type = spec.Type
	if updateErr := r.Update(ctx, existing); updateErr != nil {
		return updateErr
	}
	return nil
}

// deleteServicesForConfiguration removes the per-Configuration Service,
// used by the cascade delete in configuration_controller.go.
func deleteServicesForConfiguration(ctx context.Context, c client.Client, configurationName string) error {
	var services corev1.ServiceList
	if err := c.List(ctx, &services, client.InNamespace(brokerNamespace), client.MatchingLabels{LabelController: ControllerLabelValue, LabelConfiguration: configurationName}); err != nil {
		return fmt.Errorf("failed to list configuration services for %s: %w", configurationName, err)
	}
	for i := range services.Items {
		if err := c.Delete(ctx, &services.Items[i]); err != nil && !apierrors.IsNotFound(err) {
			return fmt.Errorf("failed to delete configuration service %s: %w", services.Items[i].Name, err)
		}
	}
	return nil
}
