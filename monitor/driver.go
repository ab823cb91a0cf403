package monitor

import (
	"context"

	"github.com/kypria/zeus/config"
)

// Observation is what one portal check saw for one protocol.
type Observation struct {
	// RawHTML is the full page source; the change fingerprint is computed
	// over these bytes.
	RawHTML []byte
	// Text is the extracted visible text; classification runs over it.
	Text string
	// Screenshot is optional PNG evidence.
	Screenshot []byte

	// Structured fields scraped from the protocol row, when present.
	StatusDate   string
	Agency       string
	Subject      string
	ResponseText string
}

// Driver fetches the portal state for one protocol. The production driver
// runs a real browser session; tests substitute a fake.
type Driver interface {
	Check(ctx context.Context, protocol config.ProtocolConfig) (*Observation, error)
}

// DriverFunc adapts a function to the Driver interface.
type DriverFunc func(ctx context.Context, protocol config.ProtocolConfig) (*Observation, error)

func (f DriverFunc) Check(ctx context.Context, protocol config.ProtocolConfig) (*Observation, error) {
	return f(ctx, protocol)
}
