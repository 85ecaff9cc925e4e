// Package monitor holds the two external-collaborator surfaces named in
// the spec but not part of the sampling core proper: the HTTP-POST
// snapshot sink, and an additive Prometheus metrics registry.
package monitor

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/zarbafian/gbps/pkg/gbps/types"
)

// snapshot is the payload POSTed after every View.Select, matching the
// reference implementation's hand-built JSON exactly: id, the current
// ordered address list, and a messages field that the reference always
// sent empty. gbps keeps the field for wire compatibility with any
// existing dashboard rather than drop it as dead weight.
type snapshot struct {
	ID       string   `json:"id"`
	Peers    []string `json:"peers"`
	Messages []string `json:"messages"`
}

// Sink posts post-merge view snapshots to a configured HTTP endpoint.
// A zero-value Sink (Endpoint == "") is valid and every Send is a no-op,
// matching the reference's disabled-by-default MonitoringConfig.
type Sink struct {
	Endpoint string
	Client   *http.Client
	Logger   types.Logger
}

// NewSink returns a Sink posting to endpoint with the given logger. An
// empty endpoint disables sending.
func NewSink(endpoint string, logger types.Logger) *Sink {
	return &Sink{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 5 * time.Second},
		Logger:   logger,
	}
}

// Send POSTs the given node id and ordered address list as one-shot
// HTTP/1.1 with Connection: close, asynchronously - a failure to post is
// logged and never affects sampling. A no-op if Endpoint is empty.
func (s *Sink) Send(id string, addresses []string) {
	if s == nil || s.Endpoint == "" {
		return
	}

	body, err := json.Marshal(snapshot{ID: id, Peers: addresses, Messages: []string{}})
	if err != nil {
		s.Logger.Errorf("failed marshalling monitoring snapshot: %v", err)
		return
	}

	go func() {
		req, err := http.NewRequest(http.MethodPost, s.Endpoint, bytes.NewReader(body))
		if err != nil {
			s.Logger.Errorf("failed building monitoring request: %v", err)
			return
		}
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
		req.Header.Set("Accept", "*/*")
		req.Close = true

		resp, err := s.Client.Do(req)
		if err != nil {
			s.Logger.Debugf("monitoring post failed: %v", err)
			return
		}
		defer resp.Body.Close()
		s.Logger.Debugf("monitoring data sent for %s", id)
	}()
}
