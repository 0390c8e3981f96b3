// Package bus defines the raw transport contract below the driver core.
//
// A Bus moves bytes to and from 16-bit register addresses and nothing else;
// addressing mode, clock stretching and transaction framing are the
// transport's own business. Implementations must return errors wrapping
// ErrBus on transfer failure so the hardware layer can apply its retry
// policy.
package bus

import (
	"context"
	"errors"
)

var (
	// ErrBus is a failed transfer on the underlying transport.
	ErrBus = errors.New("bus: transfer failed")
	// ErrTimeout is a transfer that exceeded its per-attempt bound.
	ErrTimeout = errors.New("bus: transfer timed out")
)

type Bus interface {
	// Read fetches n bytes starting at the 16-bit register address addr.
	Read(ctx context.Context, addr uint16, n int) ([]byte, error)
	// Write stores data starting at the 16-bit register address addr.
	Write(ctx context.Context, addr uint16, data []byte) error
}
