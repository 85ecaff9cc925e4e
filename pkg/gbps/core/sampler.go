package core

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zarbafian/gbps/pkg/gbps/types"
)

// Metrics is the narrow slice of the monitoring registry the sampler and
// receiver need; kept as an interface here so core has no import on the
// monitor package. A nil Metrics is valid - every method is a no-op
// on it via the noopMetrics fallback installed by NewSampler/NewReceiver.
type Metrics interface {
	ObserveCycle(d time.Duration)
	ObserveViewSize(n int)
	CountMessageSent(requestType bool)
	CountMessageReceived(requestType bool)
}

type noopMetrics struct{}

func (noopMetrics) ObserveCycle(time.Duration) {}
func (noopMetrics) ObserveViewSize(int)        {}
func (noopMetrics) CountMessageSent(bool)      {}
func (noopMetrics) CountMessageReceived(bool)  {}

// Sampler drives the periodic push/pull cycle: sleep T+jitter, pick a
// partner, push a buffer (or probe if push is disabled), bump ages.
type Sampler struct {
	config   *types.Config
	view     *View
	mutex    *sync.Mutex
	network  *Network
	log      types.Logger
	metrics  Metrics
	shutdown *atomic.Bool
}

// NewSampler builds a Sampler over the given shared view/mutex. metrics
// may be nil.
func NewSampler(config *types.Config, view *View, mutex *sync.Mutex, network *Network, log types.Logger, metrics Metrics, shutdown *atomic.Bool) *Sampler {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Sampler{
		config:   config,
		view:     view,
		mutex:    mutex,
		network:  network,
		log:      log.WithField("component", "sampler"),
		metrics:  metrics,
		shutdown: shutdown,
	}
}

// Run is the sampler thread body. It returns once shutdown is observed
// after a completed cycle.
func (s *Sampler) Run() {
	defer s.log.Info("sampler exiting")
	s.log.Info("started sampling thread")
	for {
		s.sleepCycle()
		start := time.Now()
		s.cycle()
		s.metrics.ObserveCycle(time.Since(start))

		if s.shutdown.Load() {
			return
		}
	}
}

func (s *Sampler) sleepCycle() {
	var deviationMs uint64
	if s.config.SamplingDeviation > 0 {
		deviationMs = uint64(rand.Int64N(int64(s.config.SamplingDeviation) * 1000))
	}
	sleepMs := s.config.SamplingPeriod*1000 + deviationMs
	time.Sleep(time.Duration(sleepMs) * time.Millisecond)
}

func (s *Sampler) cycle() {
	s.log.Debug("sampling peers")
	s.mutex.Lock()
	defer s.mutex.Unlock()

	peer, ok := s.view.SelectPeer()
	if !ok {
		s.log.Warn("no peer found for sampling")
		return
	}

	var msg types.Message
	if s.config.Push {
		buffer := s.view.BuildBuffer(s.config.Address, s.config.HealingFactor, s.config.ViewSize)
		msg = types.NewRequest(s.config.Address, buffer)
	} else {
		// probe: send an absent view, the partner's pull response (if
		// enabled on their end) is what actually feeds this node's view.
		msg = types.NewRequest(s.config.Address, nil)
	}

	if err := s.network.Send(peer.Address, msg); err != nil {
		s.log.Errorf("error sending to %s: %v", peer.Address, err)
	} else {
		s.metrics.CountMessageSent(true)
	}

	s.view.IncreaseAge()
	s.metrics.ObserveViewSize(len(s.view.Peers))
}
