// SPDX-License-Identifier: Apache-2.0

package deviceplugin

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"k8s.io/kubelet/pkg/apis/deviceplugin/v1beta1"
)

const (
	socketCheckInterval = 1 * time.Second
	restartInterval      = 5 * time.Second
)

// Plugin is a single Instance's virtual kubelet device plugin.
type Plugin interface {
	v1beta1.DevicePluginServer
	Run(context.Context) error
}

// plugin hosts the gRPC server implementing the device-plugin contract
// for one Instance and drives its registration lifecycle against
// kubelet (spec §4.3, §6).
type plugin struct {
	v1beta1.DevicePluginServer
	resourceName string
	pluginDir    string
	pluginSocket string
	grpcServer   *grpc.Server
	logger       log.Logger

	restartsTotal prometheus.Counter
}

// NewPlugin creates the device plugin for one Instance, socketed at
// pluginDir/<socket name derived per spec §6>.
func NewPlugin(resourceName, socketName, pluginDir string, dps v1beta1.DevicePluginServer, logger log.Logger, reg prometheus.Registerer) Plugin {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	p := &plugin{
		DevicePluginServer: dps,
		resourceName:       resourceName,
		pluginDir:          pluginDir,
		pluginSocket:       filepath.Join(pluginDir, socketName),
		logger:             logger,
		restartsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "akri_device_plugin_restarts_total",
			Help: "The number of times this device plugin's gRPC server has restarted.",
		}),
	}
	if reg != nil {
		reg.MustRegister(p.restartsTotal)
	}
	return p
}

// Run runs the device plugin until ctx is cancelled, restarting the
// underlying gRPC server and re-registering with kubelet on failure.
func (p *plugin) Run(ctx context.Context) error {
Outer:
	for {
		select {
		case <-ctx.Done():
			break Outer
		default:
			if err := p.runOnce(ctx); err != nil {
				_ = level.Warn(p.logger).Log("msg", "device plugin run failed; retrying", "err", err)
				select {
				case <-ctx.Done():
					break Outer
				case <-time.After(restartInterval):
					p.restartsTotal.Inc()
				}
			}
		}
	}
	return p.cleanUp()
}

// serve starts the gRPC server and blocks until it's accepting
// connections; returns execute/interrupt functions for a run.Group.
func (p *plugin) serve(ctx context.Context) (func() error, func(error), error) {
	_ = level.Info(p.logger).Log("msg", "listening on unix socket", "socket", p.pluginSocket)
	l, err := net.Listen("unix", p.pluginSocket)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to listen on socket %q: %w", p.pluginSocket, err)
	}

	ch := make(chan error)
	go func() {
		_ = level.Info(p.logger).Log("msg", "starting gRPC server")
		ch <- p.grpcServer.Serve(l)
		close(ch)
	}()

	t := time.NewTimer(1 * time.Second)
	defer t.Stop()
Outer:
	for ctx.Err() == nil {
		for range p.grpcServer.GetServiceInfo() {
			break Outer
		}
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-t.C:
			t.Reset(1 * time.Second)
		}
	}
	return func() error {
			return <-ch
		},
		func(_ error) {
			p.grpcServer.Stop()
			<-ch
			if err := l.Close(); err != nil {
				_ = level.Warn(p.logger).Log("msg", "failed to close listener", "err", err)
			}
		}, nil
}

var registerBackoffSchedule = []time.Duration{
	1 * time.Second,
	1 * time.Second,
	2 * time.Second,
	3 * time.Second,
	5 * time.Second,
	8 * time.Second,
}

func (p *plugin) runOnce(ctx context.Context) error {
	p.grpcServer = grpc.NewServer()
	v1beta1.RegisterDevicePluginServer(p.grpcServer, p.DevicePluginServer)

	var g run.Group
	{
		execute, interrupt, err := p.serve(ctx)
		if err != nil {
			return fmt.Errorf("failed to start gRPC server: %w", err)
		}
		g.Add(execute, interrupt)
	}
	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			defer cancel()
			var err error
			for _, backoff := range registerBackoffSchedule {
				if err = p.registerWithKubelet(); err == nil {
					break
				}
				time.Sleep(backoff)
			}
			if err != nil {
				return fmt.Errorf("failed to register with kubelet: %w", err)
			}
			<-ctx.Done()
			return nil
		}, func(error) {
			cancel()
		})
	}
	{
		t := time.NewTicker(socketCheckInterval)
		ctx, cancel := context.WithCancel(ctx)
		defer t.Stop()
		g.Add(func() error {
			for {
				select {
				case <-t.C:
					if _, err := os.Lstat(p.pluginSocket); err != nil {
						return fmt.Errorf("failed to stat plugin socket %q: %w", p.pluginSocket, err)
					}
				case <-ctx.Done():
					return nil
				}
			}
		}, func(error) {
			cancel()
		})
	}

	return g.Run()
}

func (p *plugin) registerWithKubelet() error {
	_ = level.Info(p.logger).Log("msg", "registering with kubelet")
	conn, err := kubeletClient(kubeletSocketPath(p.pluginDir))
	if err != nil {
		return fmt.Errorf("failed to connect to kubelet: %w", err)
	}
	defer func() { _ = conn.Close() }()

	client := v1beta1.NewRegistrationClient(conn)
	request := &v1beta1.RegisterRequest{
		Version:      v1beta1.Version,
		Endpoint:     filepath.Base(p.pluginSocket),
		ResourceName: p.resourceName,
	}
	if _, err = client.Register(context.Background(), request); err != nil {
		return fmt.Errorf("failed to register with kubelet registration service: %w", err)
	}
	return nil
}

func (p *plugin) cleanUp() error {
	if err := os.Remove(p.pluginSocket); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove plugin socket: %w", err)
	}
	return nil
}
