// Package protocol decodes newline-delimited JSON requests into typed events
// and encodes replies.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/verte-zerg/radialkb/internal/model"
)

// Request type names on the wire.
const (
	TypeTouchDown  = "touch_down"
	TypeTouchMove  = "touch_move"
	TypeTouchUp    = "touch_up"
	TypeCommitChar = "commit_char"
	TypeAction     = "action"
	TypeUIShow     = "ui_show"
	TypeUIHide     = "ui_hide"
)

// ErrInvalidJSON is returned for lines that are not a JSON object.
var ErrInvalidJSON = errors.New("invalid_json")

// Event is a decoded request. The set of implementations is closed.
type Event interface {
	Type() string
	isEvent()
}

// Point is a clamped normalized coordinate. TimestampMs is 0 when the client
// did not send one and the daemon clock should be used.
type Point struct {
	X           float64
	Y           float64
	TimestampMs int64
}

// TouchDown starts a touch.
type TouchDown struct{ Point }

// TouchMove updates an active touch.
type TouchMove struct{ Point }

// TouchUp ends a touch.
type TouchUp struct{ Point }

// CommitChar commits a character out of band. Char is 0 when absent.
type CommitChar struct{ Char rune }

// ActionRequest commits a named action or cancels.
type ActionRequest struct{ Action model.Action }

// UIShow reports that the overlay became visible.
type UIShow struct{}

// UIHide reports that the overlay was hidden.
type UIHide struct{}

// Unknown carries an unrecognised type; it is acked without effect.
type Unknown struct{ Name string }

func (TouchDown) Type() string     { return TypeTouchDown }
func (TouchMove) Type() string     { return TypeTouchMove }
func (TouchUp) Type() string       { return TypeTouchUp }
func (CommitChar) Type() string    { return TypeCommitChar }
func (ActionRequest) Type() string { return TypeAction }
func (UIShow) Type() string        { return TypeUIShow }
func (UIHide) Type() string        { return TypeUIHide }
func (u Unknown) Type() string     { return u.Name }

func (TouchDown) isEvent()     {}
func (TouchMove) isEvent()     {}
func (TouchUp) isEvent()       {}
func (CommitChar) isEvent()    {}
func (ActionRequest) isEvent() {}
func (UIShow) isEvent()        {}
func (UIHide) isEvent()        {}
func (Unknown) isEvent()       {}

type wireRequest struct {
	Type   string   `json:"type"`
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	T      *int64   `json:"t,omitempty"`
	Char   *string  `json:"char,omitempty"`
	Action string   `json:"action,omitempty"`
}

// Decode parses one request line. Only a line that is not a JSON object is
// rejected; mistyped fields read as zero values and coordinates are clamped.
func Decode(line []byte) (Event, error) {
	var req inboundRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	switch string(req.Type) {
	case TypeTouchDown:
		return TouchDown{req.point()}, nil
	case TypeTouchMove:
		return TouchMove{req.point()}, nil
	case TypeTouchUp:
		return TouchUp{req.point()}, nil
	case TypeCommitChar:
		var ch rune
		if req.Char != nil {
			if r, size := utf8.DecodeRuneInString(string(*req.Char)); size > 0 && r != utf8.RuneError {
				ch = r
			}
		}
		return CommitChar{Char: ch}, nil
	case TypeAction:
		return ActionRequest{Action: model.Action(req.Action)}, nil
	case TypeUIShow:
		return UIShow{}, nil
	case TypeUIHide:
		return UIHide{}, nil
	default:
		return Unknown{Name: string(req.Type)}, nil
	}
}

// inboundRequest is the lenient decoding view of wireRequest.
type inboundRequest struct {
	Type   looseString  `json:"type"`
	X      *looseNumber `json:"x"`
	Y      *looseNumber `json:"y"`
	T      *looseNumber `json:"t"`
	Char   *looseString `json:"char"`
	Action looseString  `json:"action"`
}

func (r inboundRequest) point() Point {
	p := Point{}
	if r.X != nil {
		p.X = Clamp01(float64(*r.X))
	}
	if r.Y != nil {
		p.Y = Clamp01(float64(*r.Y))
	}
	if t := float64(ptrOr(r.T)); t > 0 && t < math.MaxInt64 {
		p.TimestampMs = int64(t)
	}
	return p
}

func ptrOr(n *looseNumber) looseNumber {
	if n == nil {
		return 0
	}
	return *n
}

// looseNumber accepts any JSON value; anything but a number reads as 0.
type looseNumber float64

func (n *looseNumber) UnmarshalJSON(b []byte) error {
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		v = 0
	}
	*n = looseNumber(v)
	return nil
}

// looseString accepts any JSON value; anything but a string reads as "".
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		v = ""
	}
	*s = looseString(v)
	return nil
}

// Encode renders an event as a request line without the trailing newline.
func Encode(ev Event) ([]byte, error) {
	req := wireRequest{Type: ev.Type()}
	switch e := ev.(type) {
	case TouchDown:
		req.setPoint(e.Point)
	case TouchMove:
		req.setPoint(e.Point)
	case TouchUp:
		req.setPoint(e.Point)
	case CommitChar:
		if e.Char != 0 {
			s := string(e.Char)
			req.Char = &s
		}
	case ActionRequest:
		req.Action = string(e.Action)
	case UIShow, UIHide, Unknown:
	}
	return json.Marshal(req)
}

func (r *wireRequest) setPoint(p Point) {
	x, y := p.X, p.Y
	r.X, r.Y = &x, &y
	if p.TimestampMs > 0 {
		t := p.TimestampMs
		r.T = &t
	}
}

// Clamp01 clamps v into [0, 1]; NaN maps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
