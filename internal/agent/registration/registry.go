// Package registration implements the Agent-side Registration service
// (spec §4.1): the gRPC endpoint every out-of-process Discovery Handler
// calls once at startup, and the in-process registry the Discovery
// Operator reads to find handlers for a protocol name.
package registration

import (
	"context"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/akri-sh/akri/internal/dhproto"
)

// Endpoint describes a live Discovery Handler, as recorded by the most
// recent call to RegisterDiscoveryHandler.
type Endpoint struct {
	Name         string
	Endpoint     string
	EndpointType dhproto.EndpointType
	Shared       bool
	RegisteredAt time.Time
}

// Change is delivered to Watch subscribers whenever the set of endpoints
// for a protocol name is added to or removed from.
type Change struct {
	Name     string
	Endpoint Endpoint
	Removed  bool
}

// Registry is the Agent's in-memory table of registered Discovery
// Handlers, keyed by protocol name. Multiple handlers may register under
// the same name (spec §4.1: "the Agent fans discovery requests to all of
// them"); entries are reference types only while stored here; Discovery
// Operator channels read their own snapshot of List at dial time.
type Registry struct {
	mu          sync.Mutex
	byName      map[string]map[string]*Endpoint // name -> endpoint addr -> Endpoint
	subscribers []chan Change
	logger      log.Logger
}

func NewRegistry(logger log.Logger) *Registry {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Registry{
		byName: make(map[string]map[string]*Endpoint),
		logger: logger,
	}
}

var _ dhproto.RegistrationServer = (*Registry)(nil)

// RegisterDiscoveryHandler implements dhproto.RegistrationServer.
// Idempotent on (name, endpoint): a re-registration refreshes
// RegisteredAt and replaces any stale entry for the same address. The
// shared flag must stay consistent across re-registrations for the same
// name (spec §4.1 and Open Question: "reject with InvalidArgument; do
// not guess").
func (r *Registry) RegisterDiscoveryHandler(_ context.Context, req *dhproto.RegisterDiscoveryHandlerRequest) (*dhproto.Empty, error) {
	if req.GetName() == "" {
		return nil, status.Error(codes.InvalidArgument, "discovery handler name must not be empty")
	}
	if req.GetEndpoint() == "" {
		return nil, status.Error(codes.InvalidArgument, "discovery handler endpoint must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.byName[req.Name]
	if !ok {
		group = make(map[string]*Endpoint)
		r.byName[req.Name] = group
	} else {
		for _, existing := range group {
			if existing.Shared != req.Shared {
				return nil, status.Errorf(codes.InvalidArgument,
					"discovery handler %q already registered with shared=%t; got shared=%t", req.Name, existing.Shared, req.Shared)
			}
		}
	}

	ep := Endpoint{
		Name:         req.Name,
		Endpoint:     req.Endpoint,
		EndpointType: req.EndpointType,
		Shared:       req.Shared,
		RegisteredAt: time.Now(),
	}
	group[req.Endpoint] = &ep

	_ = level.Info(r.logger).Log("msg", "discovery handler registered", "name", req.Name, "endpoint", req.Endpoint, "shared", req.Shared)
	r.broadcast(Change{Name: req.Name, Endpoint: ep})

	return &dhproto.Empty{}, nil
}

// List returns a snapshot of the live endpoints registered under name.
func (r *Registry) List(name string) []Endpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	group := r.byName[name]
	out := make([]Endpoint, 0, len(group))
	for _, ep := range group {
		out = append(out, *ep)
	}
	return out
}

// Remove drops an endpoint, e.g. after its channel observed a permanent
// transport failure (spec §4.1: "A handler that closes its transport...
// is removed from the active set").
func (r *Registry) Remove(name, endpoint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	group, ok := r.byName[name]
	if !ok {
		return
	}
	ep, ok := group[endpoint]
	if !ok {
		return
	}
	delete(group, endpoint)
	if len(group) == 0 {
		delete(r.byName, name)
	}
	_ = level.Info(r.logger).Log("msg", "discovery handler removed", "name", name, "endpoint", endpoint)
	r.broadcast(Change{Name: name, Endpoint: *ep, Removed: true})
}

// Watch subscribes to registration changes across every protocol name.
// The returned channel is closed when ctx is cancelled.
func (r *Registry) Watch(ctx context.Context) <-chan Change {
	ch := make(chan Change, 16)
	r.mu.Lock()
	r.subscribers = append(r.subscribers, ch)
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, sub := range r.subscribers {
			if sub == ch {
				r.subscribers = append(r.subscribers[:i], r.subscribers[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch
}

// broadcast must be called with mu held.
func (r *Registry) broadcast(c Change) {
	for _, sub := range r.subscribers {
		select {
		case sub <- c:
		default:
			_ = level.Warn(r.logger).Log("msg", "dropping registration change, subscriber is not keeping up", "name", c.Name)
		}
	}
}
