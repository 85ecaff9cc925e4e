package core

import (
	"net"
	"sync"

	"github.com/zarbafian/gbps/pkg/gbps/types"
)

// Snapshotter receives the resulting address list after every View.Select,
// matching the spec's "emit a monitoring snapshot" postcondition. A nil
// Snapshotter is valid - NewReceiver installs a no-op in that case.
type Snapshotter interface {
	Send(id string, addresses []string)
}

type noopSnapshotter struct{}

func (noopSnapshotter) Send(string, []string) {}

// Receiver consumes decoded Message values from the listener's channel and
// drives the view merge: on a Request with pull enabled it answers with
// the local buffer, and whenever the message carries a view it feeds
// View.Select before bumping ages.
type Receiver struct {
	config   *types.Config
	view     *View
	mutex    *sync.Mutex
	network  *Network
	log      types.Logger
	metrics  Metrics
	snapshot Snapshotter
}

// NewReceiver builds a Receiver over the given shared view/mutex. metrics
// and snapshot may both be nil.
func NewReceiver(config *types.Config, view *View, mutex *sync.Mutex, network *Network, log types.Logger, metrics Metrics, snapshot Snapshotter) *Receiver {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if snapshot == nil {
		snapshot = noopSnapshotter{}
	}
	return &Receiver{
		config:   config,
		view:     view,
		mutex:    mutex,
		network:  network,
		log:      log.WithField("component", "receiver"),
		metrics:  metrics,
		snapshot: snapshot,
	}
}

// Run is the receiver thread body. It exits once inbound is closed.
func (r *Receiver) Run(inbound <-chan types.Message) {
	defer r.log.Info("receiver exiting")
	r.log.Info("started message handling thread")
	for message := range inbound {
		r.process(message)
	}
}

func (r *Receiver) process(message types.Message) {
	r.log.Debugf("received: %#v", message)
	r.metrics.CountMessageReceived(message.Type == types.Request)

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if message.Type == types.Request && r.config.Pull {
		buffer := r.view.BuildBuffer(r.config.Address, r.config.HealingFactor, r.config.ViewSize)
		r.log.Debugf("built response buffer: %#v", buffer)
		if _, _, err := net.SplitHostPort(message.Sender); err != nil {
			r.log.Errorf("could not parse sender address %q: %v", message.Sender, err)
		} else {
			response := types.NewResponse(r.config.Address, buffer)
			if err := r.network.Send(message.Sender, response); err != nil {
				r.log.Errorf("error sending buffer to %s: %v", message.Sender, err)
			} else {
				r.metrics.CountMessageSent(false)
				r.log.Debug("buffer sent successfully")
			}
		}
	}

	if message.View != nil {
		r.view.Select(r.config.ViewSize, r.config.HealingFactor, r.config.SwappingFactor, message.View)
		r.emitSnapshot()
	} else {
		r.log.Warn("received a message with an absent view, skipping merge")
	}

	r.view.IncreaseAge()
	r.metrics.ObserveViewSize(len(r.view.Peers))
}

func (r *Receiver) emitSnapshot() {
	addresses := make([]string, len(r.view.Peers))
	for i, p := range r.view.Peers {
		addresses[i] = p.Address
	}
	r.log.Debugf("view after merge: %v", addresses)
	r.snapshot.Send(r.config.Address, addresses)
}
