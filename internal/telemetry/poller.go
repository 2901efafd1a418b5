package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"fabric-inspection-backend/config"
)

// Channel identifies one of the two measurement instruments.
type Channel string

const (
	ChannelWeight Channel = "weight"
	ChannelLength Channel = "length"
)

// Channels lists the instrument channels in a stable order.
var Channels = []Channel{ChannelWeight, ChannelLength}

// Reading is the ephemeral state of one channel. It is never persisted; it
// only feeds the device-status panel and the measurement reconciler.
type Reading struct {
	Connected  bool      `json:"connected"`
	Value      float64   `json:"value"`
	ObservedAt time.Time `json:"observedAt"`
}

// Observer receives every successfully polled value. Implemented by the
// inspection session, which merges readings into the active roll.
type Observer interface {
	ObserveReading(ch Channel, value float64)
}

// Poller maintains near-real-time visibility into the two instrument channels
// and their connectivity by polling the device gateway. Polling is best
// effort: every failure is logged, the last known state is retained, and the
// loop keeps going.
type Poller struct {
	cfg      *config.TelemetryConfig
	client   *http.Client
	observer Observer

	mu       sync.RWMutex
	readings map[Channel]Reading
}

// NewPoller creates a poller for the configured device gateway. observer may
// be nil when nothing needs to consume readings.
func NewPoller(cfg *config.TelemetryConfig, observer Observer) *Poller {
	readings := make(map[Channel]Reading, len(Channels))
	for _, ch := range Channels {
		readings[ch] = Reading{}
	}
	return &Poller{
		cfg:      cfg,
		observer: observer,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		readings: readings,
	}
}

// Run starts the polling loops and blocks until ctx is cancelled. Connectivity
// is polled unconditionally on the slow interval; values are polled on the
// fast interval only for channels currently reported connected.
func (p *Poller) Run(ctx context.Context) {
	if !p.cfg.Enabled {
		log.Println("Telemetry polling is disabled. Not starting.")
		return
	}
	log.Println("Starting telemetry poller...")

	p.PollConnectivity(ctx)

	connTicker := time.NewTicker(p.cfg.ConnectivityInterval)
	defer connTicker.Stop()
	valueTicker := time.NewTicker(p.cfg.ValueInterval)
	defer valueTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Telemetry poller shutting down.")
			return
		case <-connTicker.C:
			p.PollConnectivity(ctx)
		case <-valueTicker.C:
			p.PollValues(ctx)
		}
	}
}

// PollConnectivity samples both channels' connectivity flags once. On failure
// the previous flags are retained and the failure is not surfaced beyond the
// log; the operator only ever sees the last known state.
func (p *Poller) PollConnectivity(ctx context.Context) {
	var resp StatusResponse
	if err := p.fetch(ctx, p.cfg.BaseURL+"/api/devices/status", &resp); err != nil {
		log.Printf("Telemetry connectivity poll failed: %v", err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	weight := p.readings[ChannelWeight]
	weight.Connected = resp.Data.WeightConnected
	p.readings[ChannelWeight] = weight

	length := p.readings[ChannelLength]
	length.Connected = resp.Data.MeterConnected
	p.readings[ChannelLength] = length
}

// PollValues samples the current reading of every connected channel once.
func (p *Poller) PollValues(ctx context.Context) {
	for _, ch := range Channels {
		if !p.Reading(ch).Connected {
			continue
		}
		p.pollValue(ctx, ch)
	}
}

// pollValue reads one channel and forwards the value to the observer. A
// failed read keeps the last known value.
func (p *Poller) pollValue(ctx context.Context, ch Channel) {
	url := fmt.Sprintf("%s/api/devices/value?channel=%s", p.cfg.BaseURL, ch)
	var resp ValueResponse
	if err := p.fetch(ctx, url, &resp); err != nil {
		log.Printf("Telemetry value poll for %s failed: %v", ch, err)
		return
	}

	p.mu.Lock()
	reading := p.readings[ch]
	reading.Value = resp.Data.Value
	reading.ObservedAt = time.Now().UTC()
	p.readings[ch] = reading
	p.mu.Unlock()

	if p.observer != nil {
		p.observer.ObserveReading(ch, resp.Data.Value)
	}
}

// Reading returns the last known state of one channel.
func (p *Poller) Reading(ch Channel) Reading {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.readings[ch]
}

// Snapshot returns the last known state of both channels.
func (p *Poller) Snapshot() map[Channel]Reading {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[Channel]Reading, len(p.readings))
	for ch, r := range p.readings {
		out[ch] = r
	}
	return out
}

// fetch performs one GET against the device gateway and decodes the envelope.
func (p *Poller) fetch(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range p.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal gateway response: %w", err)
	}

	// Both envelope types share the application-level code field.
	switch v := out.(type) {
	case *StatusResponse:
		if v.Code != 0 {
			return fmt.Errorf("gateway returned non-zero application code: %d", v.Code)
		}
	case *ValueResponse:
		if v.Code != 0 {
			return fmt.Errorf("gateway returned non-zero application code: %d", v.Code)
		}
	}
	return nil
}
