package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// Dispatcher tracks connectivity and replays the durable queue when the
// device comes back online. Connectivity is an explicit two-state model:
// the offline-to-online transition triggers exactly one drain, and a
// simple in-flight flag blocks re-entrant drains.
type Dispatcher struct {
	api   *Client
	queue *Queue

	mu       sync.Mutex
	online   bool
	draining bool
}

// NewDispatcher creates a dispatcher over an API client and queue. It
// starts offline; callers signal connectivity via SetOnline.
func NewDispatcher(api *Client, queue *Queue) *Dispatcher {
	return &Dispatcher{api: api, queue: queue}
}

// Online reports the current connectivity state.
func (d *Dispatcher) Online() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.online
}

// SetOnline records a connectivity change. The offline-to-online
// transition drains the queue once; every other change is state-only.
func (d *Dispatcher) SetOnline(ctx context.Context, online bool) {
	d.mu.Lock()
	wasOnline := d.online
	d.online = online
	d.mu.Unlock()

	if online && !wasOnline {
		if _, err := d.Drain(ctx); err != nil {
			log.Printf("drain after reconnect: %v", err)
		}
	}
}

// Drain replays the current queue snapshot sequentially: one request in
// flight at a time, confirmed items removed, failed items left in place
// for the next trigger. One bad item never blocks the rest of the pass.
// Returns the number of snapshot items that remained queued.
func (d *Dispatcher) Drain(ctx context.Context) (int, error) {
	d.mu.Lock()
	if d.draining {
		d.mu.Unlock()
		return 0, nil
	}
	d.draining = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.draining = false
		d.mu.Unlock()
	}()

	pending, err := d.queue.Pending()
	if err != nil {
		return 0, fmt.Errorf("read queue: %w", err)
	}

	remaining := 0
	for _, m := range pending {
		status, _, err := d.api.Do(ctx, m.Method, m.URL, m.Payload)
		if err != nil {
			log.Printf("replay %s %s (local %d): %v", m.Method, m.URL, m.LocalID, err)
			remaining++
			continue
		}
		if status < 200 || status > 299 {
			log.Printf("replay %s %s (local %d): server returned %d", m.Method, m.URL, m.LocalID, status)
			remaining++
			continue
		}
		if err := d.queue.Remove(m.LocalID); err != nil {
			// The server applied it; the idempotency key makes the extra
			// replay on the next drain harmless.
			log.Printf("remove confirmed item %d: %v", m.LocalID, err)
			remaining++
		}
	}
	return remaining, nil
}

// CaptureResult reports how a capture was handled: sent directly, or
// durably queued for a later drain.
type CaptureResult struct {
	Queued     bool   `json:"queued"`
	LocalID    int64  `json:"localId,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	Body       []byte `json:"-"`
}

// Capture sends a mutation directly when online and enqueues it when
// offline. A transport failure on the direct path flips the dispatcher
// offline and falls back to the queue, so a dropped connection looks to
// the caller exactly like offline capture. Enqueue errors propagate:
// they mean the capture was lost.
func (d *Dispatcher) Capture(ctx context.Context, url, method string, payload []byte) (*CaptureResult, error) {
	if d.Online() {
		status, body, err := d.api.Do(ctx, method, url, payload)
		if err == nil {
			return &CaptureResult{StatusCode: status, Body: body}, nil
		}
		log.Printf("capture %s %s: direct call failed, queueing: %v", method, url, err)
		d.mu.Lock()
		d.online = false
		d.mu.Unlock()
	}

	localID, err := d.queue.Enqueue(url, method, payload)
	if err != nil {
		return nil, err
	}
	return &CaptureResult{Queued: true, LocalID: localID}, nil
}

// CaptureJSON marshals v and captures it.
func (d *Dispatcher) CaptureJSON(ctx context.Context, url, method string, v interface{}) (*CaptureResult, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", url, err)
	}
	return d.Capture(ctx, url, method, payload)
}
