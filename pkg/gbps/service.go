// Package gbps is the peer sampling service: it wires together the View,
// Network, Sampler and Receiver collaborators from pkg/gbps/core behind a
// single shared mutex, and owns the init/shutdown lifecycle described in
// the spec. Adapted from the teacher's top-level Unity, which plays the
// same orchestrating role for a replication group.
package gbps

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/zarbafian/gbps/pkg/gbps/core"
	"github.com/zarbafian/gbps/pkg/gbps/definition"
	"github.com/zarbafian/gbps/pkg/gbps/monitor"
	"github.com/zarbafian/gbps/pkg/gbps/types"
)

// Re-exported so callers depend only on this package for the common path.
type (
	Peer    = types.Peer
	Message = types.Message
	Config  = types.Config
	Option  = types.Option
	Logger  = types.Logger
)

var (
	NewConfig              = types.NewConfig
	NewPeer                = types.NewPeer
	WithPush               = types.WithPush
	WithPull               = types.WithPull
	WithSamplingPeriod     = types.WithSamplingPeriod
	WithSamplingDeviation  = types.WithSamplingDeviation
	WithViewSize           = types.WithViewSize
	WithHealingFactor      = types.WithHealingFactor
	WithSwappingFactor     = types.WithSwappingFactor
	WithMonitoringEndpoint = types.WithMonitoringEndpoint
	WithMetricsAddr        = types.WithMetricsAddr
	WithLogger             = types.WithLogger
)

// Service owns the lifecycle of a single peer sampling node: one View
// behind one mutex, a listener goroutine, a receiver goroutine, and a
// sampler goroutine, started by Init and stopped by Shutdown.
type Service struct {
	config  *types.Config
	log     types.Logger
	view    *core.View
	mutex   sync.Mutex
	network *core.Network
	invoker core.Invoker

	metrics       *monitor.Metrics
	sink          *monitor.Sink
	metricsServer *http.Server

	listener net.Listener
	inbound  chan types.Message

	shutdownListener atomic.Bool
	shutdownSampler  atomic.Bool

	initOnce sync.Once
	started  bool
}

// NewService constructs a Service with an empty view. The listener,
// receiver and sampler goroutines are not started until Init is called.
func NewService(config *types.Config) *Service {
	log := config.Logger
	if log == nil {
		log = definition.NewDefaultLogger()
	}

	s := &Service{
		config:  config,
		log:     log,
		view:    core.NewView(config.Address),
		network: core.NewNetwork(log),
		invoker: core.NewInvoker(),
		sink:    monitor.NewSink(config.MonitoringEndpoint, log),
	}
	if config.MetricsAddr != "" {
		s.metrics = monitor.NewMetrics(config.Address)
	}
	return s
}

// InitialPeerFunc is invoked once during Init to seed the view's bootstrap
// contact(s). It may return nil/empty if this node has no known peer yet
// (e.g. it is the first node of the overlay).
type InitialPeerFunc func() []types.Peer

// Init seeds the view from initialPeer (invoked exactly once, its result
// appended to the view directly, bypassing Select), then starts the
// listener, receiver and sampler goroutines. Returns ErrBindFailed if the
// listener cannot bind.
func (s *Service) Init(initialPeer InitialPeerFunc) error {
	var initErr error
	s.initOnce.Do(func() {
		if initialPeer != nil {
			if seeds := initialPeer(); len(seeds) > 0 {
				s.view.Peers = append(s.view.Peers, seeds...)
			}
		}

		s.inbound = make(chan types.Message, 64)
		listener, err := s.network.StartListener(s.invoker, s.config.Address, s.inbound, &s.shutdownListener)
		if err != nil {
			initErr = err
			return
		}
		s.listener = listener

		if s.config.MetricsAddr != "" {
			s.startMetricsServer()
		}

		receiver := core.NewReceiver(s.config, s.view, &s.mutex, s.network, s.log, s.metricsAdapter(), s.snapshotAdapter())
		s.invoker.Spawn(func() { receiver.Run(s.inbound) })

		sampler := core.NewSampler(s.config, s.view, &s.mutex, s.network, s.log, s.metricsAdapter(), &s.shutdownSampler)
		s.invoker.Spawn(sampler.Run)

		s.started = true
		s.log.Info("all activity threads were started")
	})
	return initErr
}

func (s *Service) startMetricsServer() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics.Handler())
	s.metricsServer = &http.Server{Addr: s.config.MetricsAddr, Handler: mux}
	s.invoker.Spawn(func() {
		if err := s.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorf("metrics server error: %v", err)
		}
	})
}

func (s *Service) metricsAdapter() core.Metrics {
	if s.metrics == nil {
		return nil
	}
	return s.metrics
}

func (s *Service) snapshotAdapter() core.Snapshotter {
	if s.config.MonitoringEndpoint == "" {
		return nil
	}
	return s.sink
}

// GetPeer returns a pseudo-random peer for the application layer, biased
// toward newly observed peers still sitting in the queue.
func (s *Service) GetPeer() (types.Peer, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.view.GetPeer()
}

// Shutdown requests both worker flags, unblocks the listener with a local
// self-connect carrying an absent-view Response (the only portable way to
// interrupt a blocking Accept), and joins every spawned goroutine.
// Returns an error, without joining, if the local unblock connect failed; thread
// join failures are not individually observable in Go's goroutine model,
// so - unlike the reference's JoinHandle errors - there is nothing further
// to aggregate once Wait returns.
func (s *Service) Shutdown() error {
	if !s.started {
		return nil
	}

	s.shutdownSampler.Store(true)
	s.shutdownListener.Store(true)

	unblock := types.NewResponse(s.config.Address, nil)
	if err := s.network.Send(s.config.Address, unblock); err != nil {
		s.log.Errorf("failed to self-connect for shutdown: %v", err)
		return fmt.Errorf("shutdown: unblocking listener: %w", err)
	}

	if s.metricsServer != nil {
		_ = s.metricsServer.Close()
	}

	s.invoker.Wait()

	if s.listener != nil {
		_ = s.listener.Close()
	}

	s.log.Info("all activity threads were stopped")
	return nil
}
