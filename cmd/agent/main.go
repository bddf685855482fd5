// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/efficientgo/core/errors"
	"github.com/go-kit/log"
	"github.com/oklog/run"
	"k8s.io/klog/v2"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	v0 "github.com/akri-sh/akri/api/v0"
	"github.com/akri-sh/akri/internal/agent"
	"github.com/akri-sh/akri/internal/agent/deviceplugin"
	"github.com/akri-sh/akri/internal/agent/instance"
	"github.com/akri-sh/akri/internal/agent/registration"
	"github.com/akri-sh/akri/internal/config"
	"github.com/akri-sh/akri/internal/logging"
	"github.com/akri-sh/akri/internal/metrics"
)

// Main is the Agent binary's principal function, wrapped only by
// `main` for convenience, following the teacher's own Main/main split.
func Main() error {
	cfg, err := config.LoadAgent()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	klog.SetLogger(logging.AsLogr(logger))

	scheme, err := v0.SchemeBuilder.Build()
	if err != nil {
		return errors.Wrap(err, "failed to build scheme")
	}
	restConfig, err := ctrl.GetConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load kube config")
	}
	cl, err := client.NewWithWatch(restConfig, client.Options{Scheme: scheme})
	if err != nil {
		return errors.Wrap(err, "failed to build kube client")
	}

	reg := metrics.NewRegistry()

	writer := instance.NewWriter(cl, cfg.NodeName)
	mirror := instance.NewMirror()
	registrationRegistry := registration.NewRegistry(log.With(logger, "component", "registration"))
	liveness := deviceplugin.NewLivenessReconciler(cfg.PodResourcesSocket, writer, log.With(logger, "component", "pod-resources"))
	manager := deviceplugin.NewManager(cfg.Domain, cfg.PluginDirectory, writer, liveness, log.With(logger, "component", "device-plugin"), reg)
	reconciler := agent.NewReconciler(mirror, writer, manager, liveness, log.With(logger, "component", "reconciler"))
	configWatcher := agent.NewConfigurationWatcher(cl, registrationRegistry, reconciler, log.With(logger, "component", "config-watch"))

	var g run.Group

	if err := metrics.AddHTTPServer(&g, cfg.Listen, reg); err != nil {
		return errors.Wrap(err, "failed to start metrics server")
	}

	{
		term := make(chan os.Signal, 1)
		signal.Notify(term, syscall.SIGINT, syscall.SIGTERM)
		cancel := make(chan struct{})
		g.Add(func() error {
			select {
			case <-term:
				_ = logger.Log("msg", "caught interrupt; shutting down")
			case <-cancel:
			}
			return nil
		}, func(error) {
			close(cancel)
		})
	}

	{
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			return registration.Serve(ctx, cfg.RegistrationSocket, registrationRegistry, log.With(logger, "component", "registration"))
		}, func(error) {
			cancel()
		})
	}

	{
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			return liveness.Run(ctx)
		}, func(error) {
			cancel()
		})
	}

	{
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			return configWatcher.Run(ctx)
		}, func(error) {
			cancel()
		})
	}

	return g.Run()
}

func main() {
	if err := Main(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Execution failed: %v\n", err)
		os.Exit(1)
	}
}
