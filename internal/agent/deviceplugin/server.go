// SPDX-License-Identifier: Apache-2.0

package deviceplugin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/kubelet/pkg/apis/deviceplugin/v1beta1"

	"github.com/akri-sh/akri/internal/agent/instance"
	"github.com/akri-sh/akri/internal/akrierr"
	"github.com/akri-sh/akri/internal/dhproto"
	"github.com/akri-sh/akri/internal/names"
)

// disappearedGrace is how long a slot reports Unhealthy after its
// Instance disappears before the plugin exits (spec §4.3:
// "Unhealthy during the grace window after disappearance, then exit").
const disappearedGrace = 5 * time.Second

// DeviceState is the current visibility of the Instance this plugin
// serves slots for.
type DeviceState struct {
	Present           bool
	InstanceShortHash string
	StaticProperties  map[string]string
	DeviceProperties  map[string]string
	Mounts            []*dhproto.Mount
	DeviceSpecs       []*dhproto.DeviceSpec
}

// InstancePlugin is the v1beta1.DevicePluginServer for a single
// Instance: it emits `capacity` virtual devices, one per usage slot,
// and serializes Allocate through the Instance writer's CAS loop
// (spec §4.3).
type InstancePlugin struct {
	v1beta1.UnimplementedDevicePluginServer

	instanceName string
	capacity     int32
	writer       *instance.Writer
	liveness     *LivenessReconciler
	logger       log.Logger
	refreshChan  chan struct{}

	mu              sync.Mutex
	state           DeviceState
	disappearedAt   time.Time

	allocationsCounter prometheus.Counter
}

func NewInstancePlugin(instanceName string, capacity int32, writer *instance.Writer, liveness *LivenessReconciler, logger log.Logger, reg prometheus.Registerer) *InstancePlugin {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	p := &InstancePlugin{
		instanceName: instanceName,
		capacity:     capacity,
		writer:       writer,
		liveness:     liveness,
		logger:       logger,
		refreshChan:  make(chan struct{}, 1),
		allocationsCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "akri_device_plugin_allocations_total",
			Help: "The total number of container allocations served by this device plugin's Allocate calls.",
		}),
	}
	if reg != nil {
		reg.MustRegister(p.allocationsCounter)
	}
	return p
}

// UpdateState is called by the manager whenever discovery reconciliation
// changes the visibility or properties of this plugin's Instance.
func (p *InstancePlugin) UpdateState(s DeviceState) {
	p.mu.Lock()
	wasPresent := p.state.Present
	p.state = s
	if wasPresent && !s.Present {
		p.disappearedAt = time.Now()
	}
	if s.Present {
		p.disappearedAt = time.Time{}
	}
	p.mu.Unlock()

	select {
	case p.refreshChan <- struct{}{}:
	default:
	}
}

// slotHealth classifies one slot for the current ListAndWatch tick.
// The second return value is false once the slot should be omitted
// entirely ("then exit" in spec §4.3).
func (p *InstancePlugin) slotHealth() (health string, stillTracked bool) {
	if p.state.Present {
		return v1beta1.Healthy, true
	}
	if p.disappearedAt.IsZero() {
		return v1beta1.Healthy, true
	}
	if time.Since(p.disappearedAt) < disappearedGrace {
		return v1beta1.Unhealthy, true
	}
	return "", false
}

// ListAndWatch implements the restartable device list stream
// (spec §4.3). Re-emission is coalesced: a new list is sent only when
// it differs from the last one sent.
func (p *InstancePlugin) ListAndWatch(_ *v1beta1.Empty, stream v1beta1.DevicePlugin_ListAndWatchServer) error {
	_ = level.Info(p.logger).Log("msg", "starting listwatch", "instance", p.instanceName)
	var lastSent []*v1beta1.Device

	send := func() error {
		p.mu.Lock()
		health, tracked := p.slotHealth()
		p.mu.Unlock()
		if !tracked {
			return nil
		}
		devices := make([]*v1beta1.Device, 0, p.capacity)
		for slot := int32(0); slot < p.capacity; slot++ {
			devices = append(devices, &v1beta1.Device{
				ID:     names.SlotName(p.instanceName, int(slot)),
				Health: health,
			})
		}
		if devicesEqual(devices, lastSent) {
			return nil
		}
		lastSent = devices
		return stream.Send(&v1beta1.ListAndWatchResponse{Devices: devices})
	}

	if err := send(); err != nil {
		return err
	}
	for {
		select {
		case <-stream.Context().Done():
			return nil
		case <-p.refreshChan:
			if err := send(); err != nil {
				return err
			}
		case <-time.After(disappearedGrace):
			// Re-check periodically so the Unhealthy->exit transition
			// fires even without an external UpdateState call.
			if err := send(); err != nil {
				return err
			}
		}
	}
}

func devicesEqual(a, b []*v1beta1.Device) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Health != b[i].Health {
			return false
		}
	}
	return true
}

// Allocate reserves the requested slots via the Instance writer's CAS
// loop and returns the device's mounts, device specs, and namespaced
// environment (spec §4.3, §6).
func (p *InstancePlugin) Allocate(ctx context.Context, req *v1beta1.AllocateRequest) (*v1beta1.AllocateResponse, error) {
	p.mu.Lock()
	state := p.state
	p.mu.Unlock()

	res := &v1beta1.AllocateResponse{
		ContainerResponses: make([]*v1beta1.ContainerAllocateResponse, 0, len(req.ContainerRequests)),
	}
	for _, cr := range req.ContainerRequests {
		resp := &v1beta1.ContainerAllocateResponse{}
		perDevice := make(map[string]perDeviceEnv, len(cr.DevicesIds))
		for _, slotID := range cr.DevicesIds {
			if err := p.writer.ReserveSlot(ctx, p.instanceName, slotID); err != nil {
				if akrierr.Is(err, akrierr.KindSlotContended) {
					return nil, err
				}
				return nil, fmt.Errorf("failed to reserve slot %s: %w", slotID, err)
			}
			if p.liveness != nil {
				p.liveness.TrackReserved(slotID)
			}
			perDevice[slotID] = perDeviceEnv{InstanceShortHash: state.InstanceShortHash, Properties: state.DeviceProperties}
			for _, m := range state.Mounts {
				resp.Mounts = append(resp.Mounts, &v1beta1.Mount{
					ContainerPath: m.ContainerPath,
					HostPath:      m.HostPath,
					ReadOnly:      m.ReadOnly,
				})
			}
			for _, d := range state.DeviceSpecs {
				resp.Devices = append(resp.Devices, &v1beta1.DeviceSpec{
					ContainerPath: d.ContainerPath,
					HostPath:      d.HostPath,
					Permissions:   d.Permissions,
				})
			}
		}
		resp.Envs = BuildEnv(perDevice, state.StaticProperties)
		res.ContainerResponses = append(res.ContainerResponses, resp)
	}
	p.allocationsCounter.Add(float64(len(res.ContainerResponses)))
	return res, nil
}

func (p *InstancePlugin) GetDevicePluginOptions(_ context.Context, _ *v1beta1.Empty) (*v1beta1.DevicePluginOptions, error) {
	return &v1beta1.DevicePluginOptions{}, nil
}

func (p *InstancePlugin) PreStartContainer(_ context.Context, _ *v1beta1.PreStartContainerRequest) (*v1beta1.PreStartContainerResponse, error) {
	return &v1beta1.PreStartContainerResponse{}, nil
}

func (p *InstancePlugin) GetPreferredAllocation(context.Context, *v1beta1.PreferredAllocationRequest) (*v1beta1.PreferredAllocationResponse, error) {
	return &v1beta1.PreferredAllocationResponse{}, nil
}
