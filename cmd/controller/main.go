// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/efficientgo/core/errors"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/klog/v2"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	v0 "github.com/akri-sh/akri/api/v0"
	"github.com/akri-sh/akri/internal/config"
	"github.com/akri-sh/akri/internal/controller"
	"github.com/akri-sh/akri/internal/logging"
)

var scheme = runtime.NewScheme()

func init() {
	utilRuntimeMustAddToScheme(corev1.AddToScheme)
	utilRuntimeMustAddToScheme(batchv1.AddToScheme)
	utilRuntimeMustAddToScheme(v0.AddToScheme)
}

func utilRuntimeMustAddToScheme(add func(*runtime.Scheme) error) {
	if err := add(scheme); err != nil {
		panic(err)
	}
}

// Main is the Controller binary's principal function.
func Main() error {
	cfg, err := config.LoadController()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	ctrl.SetLogger(logging.AsLogr(logger))
	klog.SetLogger(logging.AsLogr(logger))

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{
		Scheme:                 scheme,
		Metrics:                metricsserver.Options{BindAddress: cfg.MetricsBindAddress},
		HealthProbeBindAddress: cfg.Listen,
		LeaderElection:         cfg.LeaderElection,
		LeaderElectionID:       cfg.LeaderElectionID,
	})
	if err != nil {
		return errors.Wrap(err, "failed to start controller manager")
	}

	if err := (&controller.InstanceReconciler{Client: mgr.GetClient(), Scheme: mgr.GetScheme()}).SetupWithManager(mgr); err != nil {
		return errors.Wrap(err, "failed to set up instance controller")
	}
	if err := (&controller.NodeReconciler{Client: mgr.GetClient(), Scheme: mgr.GetScheme()}).SetupWithManager(mgr); err != nil {
		return errors.Wrap(err, "failed to set up node controller")
	}
	if err := (&controller.ConfigurationReconciler{Client: mgr.GetClient(), Scheme: mgr.GetScheme()}).SetupWithManager(mgr); err != nil {
		return errors.Wrap(err, "failed to set up configuration controller")
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		return errors.Wrap(err, "failed to set up health check")
	}

	return mgr.Start(ctrl.SetupSignalHandler())
}

func main() {
	if err := Main(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Execution failed: %v\n", err)
		os.Exit(1)
	}
}
