// Package notify delivers public IP changes to the configured destinations.
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/netip"
	"reflect"
	"time"

	"netloc/internal/state"

	"github.com/google/uuid"
)

// Effect values carried by a Payload
const (
	EffectInitialized = "initialized"
	EffectReplaced    = "replaced"
)

// EventType names the event sent to structured destinations
const EventType = "ip.change"

// Reporter delivers a change notification to one destination
type Reporter interface {
	Report(ctx context.Context, p *Payload) error
}

// ReporterFunc adapts a plain function to a Reporter
type ReporterFunc func(ctx context.Context, p *Payload) error

// Report calls f
func (f ReporterFunc) Report(ctx context.Context, p *Payload) error {
	return f(ctx, p)
}

// Payload is the full signal sent to every reporter on a change.
// Previous is empty when the address was first observed.
type Payload struct {
	IP        string    `json:"ip" bson:"ip"`
	Previous  string    `json:"previous,omitempty" bson:"previous,omitempty"`
	Effect    string    `json:"effect" bson:"effect"`
	EventID   string    `json:"event_id" bson:"event_id"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// NewPayload builds the payload for an announced update. It returns nil
// for an Unchanged effect.
func NewPayload(addr netip.Addr, effect state.UpdateEffect[netip.Addr]) *Payload {
	p := &Payload{
		IP:        addr.String(),
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
	}

	switch effect.Kind {
	case state.Initialized:
		p.Effect = EffectInitialized
	case state.Replaced:
		p.Effect = EffectReplaced
		p.Previous = effect.Previous.String()
	default:
		return nil
	}

	return p
}

// JSON encodes the payload
func (p *Payload) JSON() ([]byte, error) {
	return json.Marshal(p)
}

type namer interface {
	Name() string
}

// NameOf returns the reporter name used in logs and errors. Reporters
// without a Name method are named after their Go type.
func NameOf(r Reporter) string {
	if n, ok := r.(namer); ok {
		return n.Name()
	}
	t := reflect.TypeOf(r)
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}

// newHTTPClient returns the client shared by the webhook style reporters
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			DisableCompression:  true,
			MaxIdleConnsPerHost: 2,
		},
	}
}
