package uinput

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/verte-zerg/radialkb/internal/evdev"
	"github.com/verte-zerg/radialkb/internal/model"
)

type fakeDevice struct {
	writes   [][]evdev.Event
	writeErr error
	closed   bool
}

func (d *fakeDevice) Write(events []evdev.Event) error {
	if d.writeErr != nil {
		return d.writeErr
	}
	d.writes = append(d.writes, events)
	return nil
}

func (d *fakeDevice) Close() error {
	d.closed = true
	return nil
}

type fakeOpener struct {
	dev   *fakeDevice
	err   error
	calls int
}

func (o *fakeOpener) open() (Device, error) {
	o.calls++
	if o.err != nil {
		return nil, o.err
	}
	return o.dev, nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestKeyboard(op *fakeOpener, clock *fakeClock) (*Keyboard, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	k := New("", zap.New(core).Sugar(), WithOpener(op.open), WithClock(clock.now))
	return k, logs
}

func TestEmitTextPressesKeysWithShift(t *testing.T) {
	dev := &fakeDevice{}
	k, _ := newTestKeyboard(&fakeOpener{dev: dev}, &fakeClock{t: time.Unix(100, 0)})

	k.EmitText("aB")
	require.Len(t, dev.writes, 1)
	want := []evdev.Event{
		{Type: evdev.EvKey, Code: evdev.KeyA, Value: 1}, evdev.Sync(),
		{Type: evdev.EvKey, Code: evdev.KeyA, Value: 0}, evdev.Sync(),
		{Type: evdev.EvKey, Code: evdev.KeyLeftShift, Value: 1}, evdev.Sync(),
		{Type: evdev.EvKey, Code: evdev.KeyB, Value: 1}, evdev.Sync(),
		{Type: evdev.EvKey, Code: evdev.KeyB, Value: 0}, evdev.Sync(),
		{Type: evdev.EvKey, Code: evdev.KeyLeftShift, Value: 0}, evdev.Sync(),
	}
	require.Equal(t, want, dev.writes[0])
}

func TestEmitActionUsesActionKey(t *testing.T) {
	dev := &fakeDevice{}
	k, _ := newTestKeyboard(&fakeOpener{dev: dev}, &fakeClock{t: time.Unix(100, 0)})

	k.EmitAction(model.ActionBackspace)
	k.EmitAction("unknown")
	require.Len(t, dev.writes, 1)
	require.Equal(t, evdev.KeyBackspace, dev.writes[0][0].Code)
}

func TestOpenFailureRespectsCooldownAndLogsOnce(t *testing.T) {
	clock := &fakeClock{t: time.Unix(100, 0)}
	op := &fakeOpener{err: ErrUnavailable}
	k, logs := newTestKeyboard(op, clock)

	k.EmitText("a")
	k.EmitText("b")
	require.Equal(t, 1, op.calls, "second emit is inside the cooldown")

	clock.advance(DefaultCooldown)
	k.EmitText("c")
	require.Equal(t, 2, op.calls)
	require.Equal(t, 1, logs.FilterMessage("virtual keyboard unavailable").Len())

	op.err = nil
	op.dev = &fakeDevice{}
	clock.advance(DefaultCooldown)
	k.EmitText("d")
	require.True(t, k.Available())
	require.Len(t, op.dev.writes, 1)
	require.Equal(t, 1, logs.FilterMessage("virtual keyboard recovered").Len())
}

func TestWriteFailureDropsDevice(t *testing.T) {
	clock := &fakeClock{t: time.Unix(100, 0)}
	dev := &fakeDevice{writeErr: errors.New("enodev")}
	op := &fakeOpener{dev: dev}
	k, logs := newTestKeyboard(op, clock)

	k.EmitText("a")
	require.True(t, dev.closed)
	require.False(t, k.Available())

	clock.advance(time.Second)
	k.EmitText("b")
	require.Equal(t, 1, op.calls)

	clock.advance(time.Second)
	dev.writeErr = nil
	dev.closed = false
	k.EmitText("c")
	require.Equal(t, 2, op.calls)
	require.Len(t, dev.writes, 1)
	require.Equal(t, 1, logs.FilterMessage("virtual keyboard unavailable").Len())
}

func TestStrokeForRune(t *testing.T) {
	s, ok := StrokeForRune('?')
	require.True(t, ok)
	require.Equal(t, Stroke{Code: evdev.KeySlash, Shift: true}, s)

	s, ok = StrokeForRune('q')
	require.True(t, ok)
	require.Equal(t, Stroke{Code: evdev.KeyQ}, s)

	_, ok = StrokeForRune('é')
	require.False(t, ok)
}

func TestCodesAreUnique(t *testing.T) {
	seen := map[uint16]bool{}
	for _, c := range Codes() {
		require.False(t, seen[c], "duplicate code %d", c)
		seen[c] = true
	}
	require.True(t, seen[evdev.KeyLeftShift])
	require.True(t, seen[evdev.KeyEsc])
}
