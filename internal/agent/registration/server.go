package registration

import (
	"context"
	"net"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"google.golang.org/grpc"

	"github.com/akri-sh/akri/internal/dhproto"
)

// Serve listens on socketPath and runs the Registration gRPC service
// backed by r until ctx is cancelled, unlinking the socket on the way
// out (spec §4.1, spec §5: "each device-plugin task registers an
// on-drop hook that unlinks its UNIX socket" - the same discipline
// applies to the registration socket itself).
func Serve(ctx context.Context, socketPath string, r *Registry, logger log.Logger) error {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	_ = os.Remove(socketPath)
	lis, err := net.Listen("unix", socketPath)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(socketPath) }()

	srv := grpc.NewServer()
	dhproto.RegisterRegistrationServer(srv, r)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(lis) }()

	_ = level.Info(logger).Log("msg", "registration service listening", "socket", socketPath)
	select {
	case <-ctx.Done():
		srv.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}
