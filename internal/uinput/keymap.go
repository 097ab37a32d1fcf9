package uinput

import (
	"unicode"

	"github.com/verte-zerg/radialkb/internal/evdev"
	"github.com/verte-zerg/radialkb/internal/model"
)

// Stroke is one key press, optionally with shift held.
type Stroke struct {
	Code  uint16
	Shift bool
}

var letterCodes = map[rune]uint16{
	'a': evdev.KeyA, 'b': evdev.KeyB, 'c': evdev.KeyC, 'd': evdev.KeyD,
	'e': evdev.KeyE, 'f': evdev.KeyF, 'g': evdev.KeyG, 'h': evdev.KeyH,
	'i': evdev.KeyI, 'j': evdev.KeyJ, 'k': evdev.KeyK, 'l': evdev.KeyL,
	'm': evdev.KeyM, 'n': evdev.KeyN, 'o': evdev.KeyO, 'p': evdev.KeyP,
	'q': evdev.KeyQ, 'r': evdev.KeyR, 's': evdev.KeyS, 't': evdev.KeyT,
	'u': evdev.KeyU, 'v': evdev.KeyV, 'w': evdev.KeyW, 'x': evdev.KeyX,
	'y': evdev.KeyY, 'z': evdev.KeyZ,
}

// US layout symbols.
var symbolStrokes = map[rune]Stroke{
	'1': {evdev.Key1, false}, '2': {evdev.Key2, false}, '3': {evdev.Key3, false},
	'4': {evdev.Key4, false}, '5': {evdev.Key5, false}, '6': {evdev.Key6, false},
	'7': {evdev.Key7, false}, '8': {evdev.Key8, false}, '9': {evdev.Key9, false},
	'0': {evdev.Key0, false},
	'!': {evdev.Key1, true}, '@': {evdev.Key2, true}, '#': {evdev.Key3, true},
	'$': {evdev.Key4, true}, '%': {evdev.Key5, true}, '^': {evdev.Key6, true},
	'&': {evdev.Key7, true}, '*': {evdev.Key8, true}, '(': {evdev.Key9, true},
	')': {evdev.Key0, true},
	'-': {evdev.KeyMinus, false}, '_': {evdev.KeyMinus, true},
	'=': {evdev.KeyEqual, false}, '+': {evdev.KeyEqual, true},
	'[': {evdev.KeyLeftBrace, false}, '{': {evdev.KeyLeftBrace, true},
	']': {evdev.KeyRightBrace, false}, '}': {evdev.KeyRightBrace, true},
	';': {evdev.KeySemicolon, false}, ':': {evdev.KeySemicolon, true},
	'\'': {evdev.KeyApostrophe, false}, '"': {evdev.KeyApostrophe, true},
	'`': {evdev.KeyGrave, false}, '~': {evdev.KeyGrave, true},
	'\\': {evdev.KeyBackslash, false}, '|': {evdev.KeyBackslash, true},
	',': {evdev.KeyComma, false}, '<': {evdev.KeyComma, true},
	'.': {evdev.KeyDot, false}, '>': {evdev.KeyDot, true},
	'/': {evdev.KeySlash, false}, '?': {evdev.KeySlash, true},
	' ': {evdev.KeySpace, false},
	'\n': {evdev.KeyEnter, false},
	'\t': {evdev.KeyTab, false},
}

var actionStrokes = map[model.Action]Stroke{
	model.ActionSpace:     {Code: evdev.KeySpace},
	model.ActionBackspace: {Code: evdev.KeyBackspace},
	model.ActionEnter:     {Code: evdev.KeyEnter},
	model.ActionTab:       {Code: evdev.KeyTab},
	model.ActionEscape:    {Code: evdev.KeyEsc},
}

// StrokeForRune maps a character to a key press on a US layout.
func StrokeForRune(r rune) (Stroke, bool) {
	if code, ok := letterCodes[r]; ok {
		return Stroke{Code: code}, true
	}
	if unicode.IsUpper(r) {
		if code, ok := letterCodes[unicode.ToLower(r)]; ok {
			return Stroke{Code: code, Shift: true}, true
		}
	}
	s, ok := symbolStrokes[r]
	return s, ok
}

// StrokeForAction maps a named action to a key press.
func StrokeForAction(a model.Action) (Stroke, bool) {
	s, ok := actionStrokes[a]
	return s, ok
}

// Codes lists every key code the virtual keyboard may press.
func Codes() []uint16 {
	seen := map[uint16]bool{evdev.KeyLeftShift: true}
	out := []uint16{evdev.KeyLeftShift}
	add := func(code uint16) {
		if !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	for _, code := range letterCodes {
		add(code)
	}
	for _, s := range symbolStrokes {
		add(s.Code)
	}
	for _, s := range actionStrokes {
		add(s.Code)
	}
	return out
}

// strokeEvents renders a press and release, wrapped in shift when needed.
func strokeEvents(s Stroke) []evdev.Event {
	key := func(code uint16, v int32) evdev.Event {
		return evdev.Event{Type: evdev.EvKey, Code: code, Value: v}
	}
	var out []evdev.Event
	if s.Shift {
		out = append(out, key(evdev.KeyLeftShift, evdev.KeyValuePress), evdev.Sync())
	}
	out = append(out,
		key(s.Code, evdev.KeyValuePress), evdev.Sync(),
		key(s.Code, evdev.KeyValueRelease), evdev.Sync(),
	)
	if s.Shift {
		out = append(out, key(evdev.KeyLeftShift, evdev.KeyValueRelease), evdev.Sync())
	}
	return out
}
