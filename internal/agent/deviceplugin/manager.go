// SPDX-License-Identifier: Apache-2.0

package deviceplugin

import (
	"context"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/akri-sh/akri/internal/agent/instance"
	"github.com/akri-sh/akri/internal/names"
)

// Manager owns the set of per-Instance device plugins currently running
// on this node, starting one when an Instance first becomes locally
// present and stopping it once the Instance is gone for good
// (spec §4.3: "For each Instance locally present, the Agent runs one
// virtual device plugin").
type Manager struct {
	domain      string
	pluginDir   string
	writer      *instance.Writer
	liveness    *LivenessReconciler
	logger      log.Logger
	registry    prometheus.Registerer

	mu      sync.Mutex
	running map[string]*managedPlugin // instance name -> handle
}

type managedPlugin struct {
	cancel  context.CancelFunc
	done    chan struct{}
	backend *InstancePlugin
}

func NewManager(domain, pluginDir string, w *instance.Writer, liveness *LivenessReconciler, logger log.Logger, reg prometheus.Registerer) *Manager {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Manager{
		domain:    domain,
		pluginDir: pluginDir,
		writer:    w,
		liveness:  liveness,
		logger:    logger,
		registry:  reg,
		running:   make(map[string]*managedPlugin),
	}
}

// Ensure starts a device plugin for instanceName if one is not already
// running, and pushes state (whether it reports an updated set of
// devices, properties, mounts) into it either way.
func (m *Manager) Ensure(ctx context.Context, instanceName string, capacity int32, state DeviceState) {
	m.mu.Lock()
	mp, exists := m.running[instanceName]
	m.mu.Unlock()

	if exists {
		mp.backend.UpdateState(state)
		return
	}

	backend := NewInstancePlugin(instanceName, capacity, m.writer, m.liveness, log.With(m.logger, "instance", instanceName),
		prometheus.WrapRegistererWith(prometheus.Labels{"instance": instanceName}, m.registry))
	backend.UpdateState(state)

	resourceName := names.ResourceName(m.domain, instanceName)
	socketName := names.PluginSocketName(resourceNameConfigPart(instanceName), instanceName)
	p := NewPlugin(resourceName, socketName, m.pluginDir, backend, log.With(m.logger, "instance", instanceName), m.registry)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.mu.Lock()
	m.running[instanceName] = &managedPlugin{cancel: cancel, done: done, backend: backend}
	m.mu.Unlock()

	go func() {
		defer close(done)
		_ = level.Info(m.logger).Log("msg", "starting device plugin", "instance", instanceName, "resource", resourceName)
		if err := p.Run(runCtx); err != nil {
			_ = level.Warn(m.logger).Log("msg", "device plugin exited with error", "instance", instanceName, "err", err)
		}
	}()
}

// Stop tears down the device plugin for instanceName, unlinking its
// socket and deregistering from kubelet (spec §5: "each device-plugin
// task registers an on-drop hook that unlinks its UNIX socket and sends
// a deregister" — deregistration is implicit in kubelet's own watch on
// the socket path disappearing).
func (m *Manager) Stop(instanceName string) {
	m.mu.Lock()
	mp, ok := m.running[instanceName]
	if ok {
		delete(m.running, instanceName)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	mp.cancel()
	<-mp.done
}

// resourceNameConfigPart recovers the Configuration-name component of an
// Instance name ("<configuration-name>-<short-hash>") so the plugin
// socket can be salted with both halves per spec §6. Falls back to the
// full instance name if the expected separator is absent.
func resourceNameConfigPart(instanceName string) string {
	idx := -1
	for i := len(instanceName) - 1; i >= 0; i-- {
		if instanceName[i] == '-' {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return instanceName
	}
	return instanceName[:idx]
}
