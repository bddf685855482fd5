package discovery

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/akri-sh/akri/internal/agent/registration"
	"github.com/akri-sh/akri/internal/akrierr"
	"github.com/akri-sh/akri/internal/dhproto"
)

// channelState is a DH channel's position in the state machine from
// spec §4.2: "Idle -> Dialing -> Streaming -> (Errored|Closed) -> Dialing".
type channelState int

const (
	stateIdle channelState = iota
	stateDialing
	stateStreaming
	stateErrored
	stateClosed
)

// graceWindow is how long a channel's last snapshot is held after the
// stream closes, before its entries are treated as Disappeared
// (spec §4.2, default 5s).
const graceWindow = 5 * time.Second

// dialBackoff is the exponential, jittered, capped schedule used to
// retry a channel's Dial/Discover call (spec §4.2 state machine).
func dialBackoff() wait.Backoff {
	return wait.Backoff{
		Duration: 500 * time.Millisecond,
		Factor:   2.0,
		Jitter:   0.2,
		Steps:    1 << 30, // retried until cancelled, not until exhausted
		Cap:      30 * time.Second,
	}
}

// Event is emitted by an Operator after reconciling one snapshot for a
// Configuration (spec §4.2 steps 2-4). Events are always emitted for a
// whole snapshot at once (spec §5: "Snapshot atomicity").
type Event struct {
	ConfigurationName string
	Diff              Diff
	Errs              []error
}

// Operator runs the Discovery channels for one Configuration: one per
// registered endpoint of the matching protocol, merged by registration
// order (spec §4.2).
type Operator struct {
	configurationName string
	protocolName       string
	details            string
	properties         map[string][]byte
	registry            *registration.Registry
	logger              log.Logger
	dialer              func(ctx context.Context, endpoint string, endpointType dhproto.EndpointType) (*grpc.ClientConn, error)

	events chan Event

	mu       sync.Mutex
	merged   Snapshot
	channels map[string]*channel // endpoint -> channel
	nextOrder int
	shared    bool

	// reconnectLogLimiter caps how often a flapping channel can emit its
	// "stream closed" warning, so a DH stuck in a fast reconnect loop
	// cannot flood the log (grounded on dranet's inventory rate limiter).
	reconnectLogLimiter *rate.Limiter
}

type channel struct {
	order       int
	state       channelState
	snapshot    Snapshot
	lastSeenAt  time.Time
	cancel      context.CancelFunc
}

// NewOperator constructs an Operator for a single Configuration. details
// and properties are passed verbatim to every matching DH on every
// stream dial (spec §4.2).
func NewOperator(configurationName, protocolName, details string, properties map[string][]byte, reg *registration.Registry, logger log.Logger) *Operator {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Operator{
		configurationName: configurationName,
		protocolName:       protocolName,
		details:            details,
		properties:         properties,
		registry:            reg,
		logger:              logger,
		dialer:              dialEndpoint,
		events:              make(chan Event, 8),
		merged:              make(Snapshot),
		channels:            make(map[string]*channel),
		reconnectLogLimiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Events returns the channel on which reconciled snapshot diffs are
// delivered. The Operator owns the channel and closes it once Run
// returns.
func (o *Operator) Events() <-chan Event {
	return o.events
}

// Run drives every channel for the Configuration's protocol until ctx is
// cancelled (spec §4.2: "Cancellation: Configuration deletion cancels the
// stream promptly and releases resources without running the grace
// window").
func (o *Operator) Run(ctx context.Context) error {
	defer close(o.events)

	changes := o.registry.Watch(ctx)
	endpoints := o.registry.List(o.protocolName)
	sort.Slice(endpoints, func(i, j int) bool { return endpoints[i].RegisteredAt.Before(endpoints[j].RegisteredAt) })
	for _, ep := range endpoints {
		o.startChannel(ctx, ep)
	}

	for {
		select {
		case <-ctx.Done():
			o.mu.Lock()
			for _, ch := range o.channels {
				ch.cancel()
			}
			o.mu.Unlock()
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if change.Name != o.protocolName {
				continue
			}
			if change.Removed {
				o.stopChannel(change.Endpoint.Endpoint)
			} else {
				o.startChannel(ctx, change.Endpoint)
			}
		}
	}
}

func (o *Operator) startChannel(ctx context.Context, ep registration.Endpoint) {
	o.mu.Lock()
	if _, exists := o.channels[ep.Endpoint]; exists {
		o.mu.Unlock()
		return
	}
	chCtx, cancel := context.WithCancel(ctx)
	ch := &channel{order: o.nextOrder, state: stateIdle, cancel: cancel}
	o.nextOrder++
	o.channels[ep.Endpoint] = ch
	o.shared = ep.Shared
	o.mu.Unlock()

	go o.runChannel(chCtx, ep, ch)
}

// Shared reports the shared flag declared by the Configuration's
// Discovery Handlers. The registry rejects a handler that disagrees
// with one already registered under the same protocol name, so any
// active channel's value is authoritative.
func (o *Operator) Shared() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.shared
}

func (o *Operator) stopChannel(endpoint string) {
	o.mu.Lock()
	ch, ok := o.channels[endpoint]
	if ok {
		delete(o.channels, endpoint)
	}
	o.mu.Unlock()
	if ok {
		ch.cancel()
	}
}

// runChannel owns one DH endpoint's connection for the lifetime of the
// Operator: dial, stream, apply the grace window on disconnect, repeat.
func (o *Operator) runChannel(ctx context.Context, ep registration.Endpoint, ch *channel) {
	backoff := dialBackoff()
	for {
		select {
		case <-ctx.Done():
			o.setChannelState(ch, stateClosed)
			o.forgetChannelSnapshot(ep.Endpoint, ch, true)
			return
		default:
		}

		o.setChannelState(ch, stateDialing)
		err := o.streamOnce(ctx, ep, ch)
		if ctx.Err() != nil {
			o.forgetChannelSnapshot(ep.Endpoint, ch, true)
			return
		}

		o.setChannelState(ch, stateErrored)
		if o.reconnectLogLimiter.Allow() {
			_ = level.Warn(o.logger).Log("msg", "discovery handler stream closed", "configuration", o.configurationName, "endpoint", ep.Endpoint, "err", err)
		}

		graceTimer := time.NewTimer(graceWindow)
		select {
		case <-ctx.Done():
			graceTimer.Stop()
			o.forgetChannelSnapshot(ep.Endpoint, ch, true)
			return
		case <-graceTimer.C:
			o.forgetChannelSnapshot(ep.Endpoint, ch, false)
		}

		delay := backoff.Step()
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// streamOnce dials and reads a single Discover stream to completion,
// applying and publishing each snapshot as it arrives.
func (o *Operator) streamOnce(ctx context.Context, ep registration.Endpoint, ch *channel) error {
	conn, err := o.dialer(ctx, ep.Endpoint, ep.EndpointType)
	if err != nil {
		return akrierr.Wrap(akrierr.KindHandlerTransient, err, "failed to dial discovery handler")
	}
	defer func() { _ = conn.Close() }()

	client := dhproto.NewDiscoveryHandlerClient(conn)
	stream, err := client.Discover(ctx, &dhproto.DiscoverRequest{
		DiscoveryDetails:    o.details,
		DiscoveryProperties: o.properties,
	})
	if err != nil {
		return akrierr.Wrap(akrierr.KindHandlerTransient, err, "failed to open discover stream")
	}

	o.setChannelState(ch, stateStreaming)

	for {
		resp, err := stream.Recv()
		if err != nil {
			return err
		}
		snap, errs := validate(resp)
		o.applySnapshot(ep.Endpoint, ch, snap, errs)
	}
}

func (o *Operator) setChannelState(ch *channel, s channelState) {
	o.mu.Lock()
	ch.state = s
	o.mu.Unlock()
}

// applySnapshot replaces one channel's snapshot, recomputes the merged
// view across all channels, and emits a diff against the previously
// merged view (spec §4.2, §5 snapshot atomicity).
func (o *Operator) applySnapshot(endpoint string, ch *channel, snap Snapshot, errs []error) {
	o.mu.Lock()
	ch.snapshot = snap
	ch.lastSeenAt = time.Now()
	newMerged := o.recomputeMergedLocked()
	previousMerged := o.merged
	o.merged = newMerged
	o.mu.Unlock()

	d := diff(previousMerged, newMerged)
	if len(d.Appeared) == 0 && len(d.Disappeared) == 0 && len(d.StillPresent) == 0 && len(errs) == 0 {
		return // idempotent no-op snapshot (spec §8 round-trip law)
	}
	o.events <- Event{ConfigurationName: o.configurationName, Diff: d, Errs: errs}
}

// forgetChannelSnapshot drops a channel's contribution to the merged
// view, either immediately (Configuration cancelled) or after the grace
// window elapsed without a reconnect.
func (o *Operator) forgetChannelSnapshot(endpoint string, ch *channel, immediate bool) {
	o.mu.Lock()
	if !immediate {
		// A reconnect may have already replaced the snapshot; only clear
		// if this channel is still the one that timed out.
		current, ok := o.channels[endpoint]
		if !ok || current != ch || current.state == stateStreaming {
			o.mu.Unlock()
			return
		}
	}
	ch.snapshot = nil
	newMerged := o.recomputeMergedLocked()
	previousMerged := o.merged
	o.merged = newMerged
	o.mu.Unlock()

	d := diff(previousMerged, newMerged)
	if len(d.Appeared) == 0 && len(d.Disappeared) == 0 && len(d.StillPresent) == 0 {
		return
	}
	o.events <- Event{ConfigurationName: o.configurationName, Diff: d}
}

// recomputeMergedLocked must be called with o.mu held.
func (o *Operator) recomputeMergedLocked() Snapshot {
	channels := make([]channelSnapshot, 0, len(o.channels))
	for _, ch := range o.channels {
		if ch.snapshot == nil {
			continue
		}
		channels = append(channels, channelSnapshot{order: ch.order, snapshot: ch.snapshot})
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i].order < channels[j].order })
	return mergeChannels(channels)
}

func dialEndpoint(ctx context.Context, endpoint string, endpointType dhproto.EndpointType) (*grpc.ClientConn, error) {
	target := endpoint
	if endpointType == dhproto.EndpointType_UDS {
		target = fmt.Sprintf("unix://%s", endpoint)
	}
	return grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
}
