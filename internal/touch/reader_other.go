//go:build !linux

package touch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/verte-zerg/radialkb/internal/protocol"
)

// Device reads one evdev node. Only Linux has evdev.
type Device struct {
	Path      string
	Transform Transform
	Log       *zap.SugaredLogger
}

// Run always fails outside Linux.
func (d Device) Run(ctx context.Context, sink func(protocol.Event)) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, d.Path)
}
