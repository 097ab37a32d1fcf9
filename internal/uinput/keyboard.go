// Package uinput types committed keys through a Linux virtual keyboard.
package uinput

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/radialkb/internal/evdev"
	"github.com/verte-zerg/radialkb/internal/model"
)

// ErrUnavailable is returned when no virtual keyboard can be created on this
// system.
var ErrUnavailable = errors.New("uinput unavailable")

// DefaultCooldown is the minimum gap between device open attempts.
const DefaultCooldown = 2000 * time.Millisecond

// DefaultPath is the uinput control node.
const DefaultPath = "/dev/uinput"

// Device writes events to a virtual keyboard.
type Device interface {
	Write(events []evdev.Event) error
	Close() error
}

// Opener creates a device.
type Opener func() (Device, error)

// Keyboard owns the virtual keyboard. It opens lazily, reopens at most once
// per cooldown after a failure and logs only the first failure of a streak.
// Keyboard implements commit.Emitter.
type Keyboard struct {
	mu       sync.Mutex
	open     Opener
	dev      Device
	log      *zap.SugaredLogger
	now      func() time.Time
	cooldown time.Duration

	lastAttempt time.Time
	failing     bool
}

// Option configures a Keyboard.
type Option func(*Keyboard)

// WithOpener replaces the device opener.
func WithOpener(open Opener) Option {
	return func(k *Keyboard) { k.open = open }
}

// WithClock replaces the clock used for the cooldown.
func WithClock(now func() time.Time) Option {
	return func(k *Keyboard) { k.now = now }
}

// WithCooldown overrides DefaultCooldown.
func WithCooldown(d time.Duration) Option {
	return func(k *Keyboard) { k.cooldown = d }
}

// New returns a keyboard that opens path on first use.
func New(path string, log *zap.SugaredLogger, opts ...Option) *Keyboard {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if path == "" {
		path = DefaultPath
	}
	k := &Keyboard{
		open:     func() (Device, error) { return OpenDevice(path) },
		log:      log,
		now:      time.Now,
		cooldown: DefaultCooldown,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// EmitText types text. Characters without a key are skipped.
func (k *Keyboard) EmitText(text string) {
	var events []evdev.Event
	for _, r := range text {
		s, ok := StrokeForRune(r)
		if !ok {
			k.log.Debugw("no key for character", "char", string(r))
			continue
		}
		events = append(events, strokeEvents(s)...)
	}
	k.write(events)
}

// EmitAction presses the key for a named action.
func (k *Keyboard) EmitAction(action model.Action) {
	s, ok := StrokeForAction(action)
	if !ok {
		k.log.Warnw("no key for action", "action", action)
		return
	}
	k.write(strokeEvents(s))
}

// Available reports whether a device is currently open.
func (k *Keyboard) Available() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.dev != nil
}

// Close destroys the virtual keyboard.
func (k *Keyboard) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.dev == nil {
		return nil
	}
	err := k.dev.Close()
	k.dev = nil
	return err
}

func (k *Keyboard) write(events []evdev.Event) {
	if len(events) == 0 {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	dev := k.ensure()
	if dev == nil {
		return
	}
	if err := dev.Write(events); err != nil {
		// Best-effort close.
		_ = dev.Close()
		k.dev = nil
		k.lastAttempt = k.now()
		k.fail("write", err)
	}
}

// ensure returns the open device or nil while inside the cooldown.
func (k *Keyboard) ensure() Device {
	if k.dev != nil {
		return k.dev
	}
	now := k.now()
	if !k.lastAttempt.IsZero() && now.Sub(k.lastAttempt) < k.cooldown {
		return nil
	}
	k.lastAttempt = now
	dev, err := k.open()
	if err != nil {
		k.fail("open", err)
		return nil
	}
	if k.failing {
		k.log.Infow("virtual keyboard recovered")
	} else {
		k.log.Infow("virtual keyboard ready")
	}
	k.failing = false
	k.dev = dev
	return dev
}

func (k *Keyboard) fail(op string, err error) {
	if k.failing {
		return
	}
	k.failing = true
	k.log.Warnw("virtual keyboard unavailable", "op", op, "error", err)
}
