// Package agent wires the Discovery Operator's snapshot diffs into
// Instance CAS writes and per-Instance device plugins, one Reconciler
// per Configuration (spec §4.2 step 4 onward, §4.3, §4.4).
package agent

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/akri-sh/akri/internal/agent/deviceplugin"
	"github.com/akri-sh/akri/internal/agent/discovery"
	"github.com/akri-sh/akri/internal/agent/instance"
	"github.com/akri-sh/akri/internal/names"
)

// ConfigurationView is the slice of Configuration.Spec a Reconciler
// needs; it is handed in fresh on every diff rather than re-read from
// the cluster, so a caller can keep it current from its own watch.
type ConfigurationView struct {
	Name             string
	Capacity         int32
	BrokerProperties map[string]string
}

// Reconciler drains one Configuration's discovery.Operator events,
// keeping the local Mirror, the cluster's Instance CRs, and the node's
// device plugins in lockstep.
type Reconciler struct {
	mirror   *instance.Mirror
	writer   *instance.Writer
	manager  *deviceplugin.Manager
	liveness *deviceplugin.LivenessReconciler
	logger   log.Logger
}

func NewReconciler(mirror *instance.Mirror, writer *instance.Writer, manager *deviceplugin.Manager, liveness *deviceplugin.LivenessReconciler, logger log.Logger) *Reconciler {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Reconciler{mirror: mirror, writer: writer, manager: manager, liveness: liveness, logger: logger}
}

// Run drains op.Events() for cfg until either ctx is cancelled or the
// Operator closes its event channel (spec §4.2: Configuration deletion
// cancels the Operator, which drains here as a closed channel).
func (r *Reconciler) Run(ctx context.Context, cfg ConfigurationView, op *discovery.Operator) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-op.Events():
			if !ok {
				return
			}
			r.handle(ctx, cfg, op.Shared(), ev)
		}
	}
}

func (r *Reconciler) handle(ctx context.Context, cfg ConfigurationView, shared bool, ev discovery.Event) {
	for _, err := range ev.Errs {
		_ = level.Warn(r.logger).Log("msg", "discovery handler reported an invalid device", "configuration", cfg.Name, "err", err)
	}

	for _, dev := range append(append([]discovery.Device{}, ev.Diff.Appeared...), ev.Diff.StillPresent...) {
		instanceName := names.InstanceName(cfg.Name, dev.ID)
		spec := instance.NewInstanceSpec(cfg.Name, shared, cfg.BrokerProperties, dev.Properties, dev.ID)
		if err := r.writer.EnsureInstance(ctx, instanceName, cfg.Capacity, spec); err != nil {
			_ = level.Warn(r.logger).Log("msg", "failed to ensure instance", "instance", instanceName, "err", err)
			continue
		}
		r.mirror.Put(instance.Entry{
			ConfigurationName: cfg.Name,
			InstanceName:      instanceName,
			DeviceID:          dev.ID,
			Shared:            shared,
			Properties:        dev.Properties,
		})
		r.manager.Ensure(ctx, instanceName, cfg.Capacity, deviceplugin.DeviceState{
			Present:           true,
			InstanceShortHash: names.ShortHashSuffix(instanceName),
			StaticProperties:  cfg.BrokerProperties,
			DeviceProperties:  dev.Properties,
			Mounts:            dev.Mounts,
			DeviceSpecs:       dev.DeviceSpecs,
		})
	}

	for _, deviceID := range ev.Diff.Disappeared {
		instanceName := names.InstanceName(cfg.Name, deviceID)
		r.manager.Ensure(ctx, instanceName, cfg.Capacity, deviceplugin.DeviceState{Present: false})
		r.mirror.Delete(instanceName)
		if err := r.writer.RemoveNode(ctx, instanceName); err != nil {
			_ = level.Warn(r.logger).Log("msg", "failed to remove node from instance", "instance", instanceName, "err", err)
		}
		go r.stopAfterGrace(instanceName)
	}
}

// stopAfterGrace tears down the device plugin for a disappeared
// Instance once its Unhealthy grace window has elapsed, unless it
// reappeared in the meantime (spec §4.3: "Unhealthy during the grace
// window after disappearance, then exit").
func (r *Reconciler) stopAfterGrace(instanceName string) {
	time.Sleep(disappearedGraceBuffer)
	if _, present := r.mirror.Get(instanceName); present {
		return
	}
	r.manager.Stop(instanceName)
}

const disappearedGraceBuffer = 6 * time.Second
