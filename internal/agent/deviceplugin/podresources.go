// SPDX-License-Identifier: Apache-2.0

package deviceplugin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	v1 "k8s.io/kubelet/pkg/apis/podresources/v1"

	"github.com/akri-sh/akri/internal/agent/instance"
)

const (
	// reservedPollInterval is used while a slot is Reserved but kubelet
	// has not yet reported a pod consuming it (spec §4.3: "<=1s when a
	// slot is Reserved-but-not-InUse").
	reservedPollInterval = 1 * time.Second
	// inUsePollInterval is used once a slot's owning pod has been
	// confirmed (spec §4.3: ">=10s once InUse confirmed").
	inUsePollInterval = 10 * time.Second
)

// slotPhase mirrors spec §4.3's per-slot state machine:
// Free -> Reserved(node) -> InUse(pod) -> Released -> Free.
type slotPhase int

const (
	phaseFree slotPhase = iota
	phaseReserved
	phaseInUse
)

type slotState struct {
	phase slotPhase
}

// LivenessReconciler polls the kubelet pod-resources API to discover
// whether a slot's owning pod still exists, releasing the slot via the
// Instance writer's CAS loop when it does not (spec §4.3 and §4.4,
// grounded on the teacher's own releaseDevices pod-resources query).
type LivenessReconciler struct {
	podResourcesSocket string
	writer             *instance.Writer
	logger             log.Logger

	mu     sync.Mutex
	slots  map[string]*slotState // "<instance>-<slot>" -> state
}

func NewLivenessReconciler(podResourcesSocket string, w *instance.Writer, logger log.Logger) *LivenessReconciler {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &LivenessReconciler{
		podResourcesSocket: podResourcesSocket,
		writer:             w,
		logger:             logger,
		slots:              make(map[string]*slotState),
	}
}

// TrackReserved records that this node just reserved slotID, starting it
// in the Reserved phase (fast polling until a pod is observed using it).
func (lr *LivenessReconciler) TrackReserved(slotID string) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	if _, ok := lr.slots[slotID]; !ok {
		lr.slots[slotID] = &slotState{phase: phaseReserved}
	}
}

// Run polls pod-resources at an adaptive cadence until ctx is cancelled.
func (lr *LivenessReconciler) Run(ctx context.Context) error {
	interval := reservedPollInterval
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}

		inUseNow, err := lr.reconcileOnce(ctx)
		if err != nil {
			_ = level.Warn(lr.logger).Log("msg", "pod-resources reconciliation failed", "err", err)
			continue
		}

		if inUseNow {
			interval = inUsePollInterval
		} else {
			interval = reservedPollInterval
		}
	}
}

// reconcileOnce queries pod-resources once, advances Reserved slots that
// are now witnessed into InUse, and releases InUse slots whose witnessing
// pod has vanished. Returns whether any tracked slot is currently InUse
// (used to pick the next poll interval).
func (lr *LivenessReconciler) reconcileOnce(ctx context.Context) (bool, error) {
	conn, err := kubeletClient(lr.podResourcesSocket)
	if err != nil {
		return false, fmt.Errorf("failed to connect to kubelet pod-resources: %w", err)
	}
	defer func() { _ = conn.Close() }()

	client := v1.NewPodResourcesListerClient(conn)
	usage, err := client.List(ctx, &v1.ListPodResourcesRequest{})
	if err != nil {
		return false, fmt.Errorf("failed to list pod resources: %w", err)
	}

	witnessed := make(map[string]bool)
	for _, podResources := range usage.GetPodResources() {
		for _, containerResources := range podResources.GetContainers() {
			for _, containerDevices := range containerResources.GetDevices() {
				for _, devID := range containerDevices.DeviceIds {
					witnessed[devID] = true
				}
			}
		}
	}

	lr.mu.Lock()
	defer lr.mu.Unlock()

	anyInUse := false
	for slotID, s := range lr.slots {
		switch s.phase {
		case phaseReserved:
			if witnessed[slotID] {
				s.phase = phaseInUse
				anyInUse = true
			}
		case phaseInUse:
			if witnessed[slotID] {
				anyInUse = true
				continue
			}
			instanceName, err := instanceNameFromSlot(slotID)
			if err != nil {
				_ = level.Warn(lr.logger).Log("msg", "failed to parse slot id", "slot", slotID, "err", err)
				continue
			}
			if releaseErr := lr.writer.ReleaseSlot(ctx, instanceName, slotID); releaseErr != nil {
				_ = level.Warn(lr.logger).Log("msg", "failed to release slot", "slot", slotID, "err", releaseErr)
				continue
			}
			delete(lr.slots, slotID)
		}
	}
	return anyInUse, nil
}

// instanceNameFromSlot strips the trailing "-<slot index>" suffix a slot
// id carries (spec §3: slot-ids are "<instance-name>-<0..capacity-1>").
func instanceNameFromSlot(slotID string) (string, error) {
	idx := -1
	for i := len(slotID) - 1; i >= 0; i-- {
		if slotID[i] == '-' {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return "", fmt.Errorf("malformed slot id %q", slotID)
	}
	return slotID[:idx], nil
}
