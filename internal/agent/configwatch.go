package agent

import (
	"context"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"k8s.io/apimachinery/pkg/watch"
	"sigs.k8s.io/controller-runtime/pkg/client"

	v0 "github.com/akri-sh/akri/api/v0"
	"github.com/akri-sh/akri/internal/agent/discovery"
	"github.com/akri-sh/akri/internal/agent/registration"
)

// ConfigurationWatcher keeps one discovery.Operator and Reconciler pair
// running per Configuration, mirroring the cluster's Configuration set
// (spec §4.2: one Operator per Configuration).
type ConfigurationWatcher struct {
	client     client.WithWatch
	registry   *registration.Registry
	reconciler *Reconciler
	logger     log.Logger

	mu      sync.Mutex
	running map[string]context.CancelFunc
}

func NewConfigurationWatcher(c client.WithWatch, reg *registration.Registry, reconciler *Reconciler, logger log.Logger) *ConfigurationWatcher {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &ConfigurationWatcher{
		client:     c,
		registry:   reg,
		reconciler: reconciler,
		logger:     logger,
		running:    make(map[string]context.CancelFunc),
	}
}

// Run lists and watches Configurations until ctx is cancelled, starting
// and stopping one Operator per Configuration as they come and go.
func (w *ConfigurationWatcher) Run(ctx context.Context) error {
	var list v0.ConfigurationList
	if err := w.client.List(ctx, &list); err != nil {
		return err
	}
	for i := range list.Items {
		w.start(ctx, &list.Items[i])
	}

	watcher, err := w.client.Watch(ctx, &v0.ConfigurationList{})
	if err != nil {
		return err
	}
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			w.stopAll()
			return nil
		case ev, ok := <-watcher.ResultChan():
			if !ok {
				return nil
			}
			cfg, ok := ev.Object.(*v0.Configuration)
			if !ok {
				continue
			}
			switch ev.Type {
			case watch.Added, watch.Modified:
				w.start(ctx, cfg)
			case watch.Deleted:
				w.stop(cfg.Name)
			}
		}
	}
}

func (w *ConfigurationWatcher) start(ctx context.Context, cfg *v0.Configuration) {
	if err := v0.ValidateConfiguration(cfg); err != nil {
		_ = level.Error(w.logger).Log("msg", "rejecting invalid configuration", "configuration", cfg.Name, "err", err)
		w.stop(cfg.Name)
		return
	}

	w.mu.Lock()
	if _, exists := w.running[cfg.Name]; exists {
		w.mu.Unlock()
		// Already running; the Operator dials fresh endpoints itself as
		// the registry changes. Configuration spec edits to discovery
		// details require a restart to take effect, so tear down and
		// restart unconditionally.
		w.stop(cfg.Name)
		w.mu.Lock()
	}
	opCtx, cancel := context.WithCancel(ctx)
	w.running[cfg.Name] = cancel
	w.mu.Unlock()

	view := ConfigurationView{Name: cfg.Name, Capacity: cfg.Spec.Capacity, BrokerProperties: cfg.Spec.BrokerProperties}
	op := discovery.NewOperator(cfg.Name, cfg.Spec.DiscoveryHandler.Name, cfg.Spec.DiscoveryHandler.Details,
		cfg.Spec.DiscoveryHandler.Properties, w.registry, log.With(w.logger, "configuration", cfg.Name))

	go func() {
		if err := op.Run(opCtx); err != nil {
			_ = level.Warn(w.logger).Log("msg", "discovery operator exited with error", "configuration", cfg.Name, "err", err)
		}
	}()
	go w.reconciler.Run(opCtx, view, op)
}

func (w *ConfigurationWatcher) stop(name string) {
	w.mu.Lock()
	cancel, ok := w.running[name]
	if ok {
		delete(w.running, name)
	}
	w.mu.Unlock()
	if ok {
		cancel()
	}
}

func (w *ConfigurationWatcher) stopAll() {
	w.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(w.running))
	for name, cancel := range w.running {
		cancels = append(cancels, cancel)
		delete(w.running, name)
	}
	w.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}
