// Package touch reads a single contact from an evdev touchscreen and turns it
// into normalized touch events.
package touch

import (
	"context"
	"errors"

	"github.com/verte-zerg/radialkb/internal/evdev"
	"github.com/verte-zerg/radialkb/internal/protocol"
)

// ErrUnsupported is returned where raw touch capture is not available.
var ErrUnsupported = errors.New("touch capture unsupported")

// Source produces touch events until ctx is done.
type Source interface {
	Run(ctx context.Context, sink func(protocol.Event)) error
}

// AxisRange is the reported span of one absolute axis.
type AxisRange struct {
	Min int32
	Max int32
}

func (r AxisRange) normalize(v int32) float64 {
	if r.Max <= r.Min {
		return 0
	}
	return protocol.Clamp01(float64(v-r.Min) / float64(r.Max-r.Min))
}

// Transform orients the panel. Swap is applied before inversion.
type Transform struct {
	SwapXY  bool
	InvertX bool
	InvertY bool
}

func (t Transform) apply(x, y float64) (float64, float64) {
	if t.SwapXY {
		x, y = y, x
	}
	if t.InvertX {
		x = 1 - x
	}
	if t.InvertY {
		y = 1 - y
	}
	return x, y
}

// Decoder folds evdev frames into touch events. Only slot 0 of a multitouch
// panel is followed.
type Decoder struct {
	xr, yr     AxisRange
	multitouch bool
	transform  Transform

	slot     int32
	x, y     int32
	touching bool
	down     bool
	up       bool
	moved    bool
	dropped  bool
}

// NewDecoder returns a decoder. multitouch selects the ABS_MT_* axes over
// ABS_X/ABS_Y.
func NewDecoder(x, y AxisRange, multitouch bool, transform Transform) *Decoder {
	return &Decoder{xr: x, yr: y, multitouch: multitouch, transform: transform}
}

// Touching reports whether a contact is down.
func (d *Decoder) Touching() bool {
	return d.touching
}

// Feed consumes one event. Events come out only at SYN_REPORT.
func (d *Decoder) Feed(ev evdev.Event) []protocol.Event {
	if d.dropped {
		if ev.Type == evdev.EvSyn && ev.Code == evdev.SynReport {
			d.dropped = false
		}
		return nil
	}
	switch ev.Type {
	case evdev.EvAbs:
		d.abs(ev)
	case evdev.EvKey:
		if ev.Code == evdev.BtnTouch || ev.Code == evdev.BtnLeft {
			d.contact(ev.Value != evdev.KeyValueRelease)
		}
	case evdev.EvSyn:
		switch ev.Code {
		case evdev.SynReport:
			return d.flush()
		case evdev.SynDropped:
			d.dropped = true
			d.down, d.up, d.moved = false, false, false
		}
	}
	return nil
}

func (d *Decoder) abs(ev evdev.Event) {
	if d.multitouch {
		switch ev.Code {
		case evdev.AbsMTSlot:
			d.slot = ev.Value
		case evdev.AbsMTTrackingID:
			if d.slot == 0 {
				d.contact(ev.Value != evdev.TrackingIDLifted)
			}
		case evdev.AbsMTPositionX:
			if d.slot == 0 {
				d.x, d.moved = ev.Value, true
			}
		case evdev.AbsMTPositionY:
			if d.slot == 0 {
				d.y, d.moved = ev.Value, true
			}
		}
		return
	}
	switch ev.Code {
	case evdev.AbsX:
		d.x, d.moved = ev.Value, true
	case evdev.AbsY:
		d.y, d.moved = ev.Value, true
	}
}

func (d *Decoder) contact(on bool) {
	if on {
		d.down = true
		d.up = false
	} else {
		d.up = true
	}
}

func (d *Decoder) flush() []protocol.Event {
	var out []protocol.Event
	p := d.point()
	switch {
	case d.down && !d.touching:
		d.touching = true
		out = append(out, protocol.TouchDown{Point: p})
	case d.touching && d.moved && !d.up:
		out = append(out, protocol.TouchMove{Point: p})
	}
	if d.up && d.touching {
		d.touching = false
		out = append(out, protocol.TouchUp{Point: p})
	}
	d.down, d.up, d.moved = false, false, false
	return out
}

func (d *Decoder) point() protocol.Point {
	x, y := d.transform.apply(d.xr.normalize(d.x), d.yr.normalize(d.y))
	return protocol.Point{X: x, Y: y}
}
