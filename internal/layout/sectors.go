package layout

import (
	"fmt"
	"strings"

	"github.com/verte-zerg/radialkb/internal/model"
)

// DefaultSectors returns the frequency-ordered English layout. The last
// sector carries punctuation and the enter action.
func DefaultSectors() []model.Sector {
	return []model.Sector{
		charSector("ETA"),
		charSector("OIN"),
		charSector("SHR"),
		charSector("LDU"),
		charSector("CMWF"),
		charSector("GYPB"),
		charSector("VKJX"),
		{
			Label: "QZ.,",
			Keys: []model.KeyOption{
				model.CharKey('q'),
				model.CharKey('z'),
				model.CharKey('.'),
				model.CharKey(','),
				model.CharKey('?'),
				model.ActionKey(model.ActionEnter),
			},
		},
	}
}

func charSector(label string) model.Sector {
	keys := make([]model.KeyOption, 0, len(label))
	for _, r := range strings.ToLower(label) {
		keys = append(keys, model.CharKey(r))
	}
	return model.Sector{Label: label, Keys: keys}
}

// ParseKey parses a configured key: a single character, or an action name
// prefixed with '@'. "@@" is the literal '@'.
func ParseKey(spec string) (model.KeyOption, error) {
	switch {
	case spec == "":
		return model.KeyOption{}, nil
	case spec == "@@":
		return model.CharKey('@'), nil
	case strings.HasPrefix(spec, "@"):
		action := model.Action(strings.ToLower(strings.TrimPrefix(spec, "@")))
		if !KnownAction(action) {
			return model.KeyOption{}, fmt.Errorf("unknown action %q", spec)
		}
		return model.ActionKey(action), nil
	}
	runes := []rune(spec)
	if len(runes) != 1 {
		return model.KeyOption{}, fmt.Errorf("key %q must be a single character or @action", spec)
	}
	return model.CharKey(runes[0]), nil
}

// ParseSector builds a sector from configured key strings.
func ParseSector(label string, keys []string) (model.Sector, error) {
	sector := model.Sector{Label: label, Keys: make([]model.KeyOption, 0, len(keys))}
	for _, spec := range keys {
		key, err := ParseKey(spec)
		if err != nil {
			return model.Sector{}, fmt.Errorf("sector %q: %w", label, err)
		}
		sector.Keys = append(sector.Keys, key)
	}
	return sector, nil
}

// KnownAction reports whether an action can be emitted.
func KnownAction(action model.Action) bool {
	switch action {
	case model.ActionSpace, model.ActionBackspace, model.ActionEnter, model.ActionTab, model.ActionEscape:
		return true
	default:
		return false
	}
}

// Alphabet returns the literal characters of a layout in sector order.
func (l *Layout) Alphabet() []rune {
	var out []rune
	for _, s := range l.sectors {
		for _, k := range s.Keys {
			if k.Char != 0 {
				out = append(out, k.Char)
			}
		}
	}
	return out
}

// Locate finds the sector and key index holding a value, as stored in the
// usage journal (a character or an action name).
func (l *Layout) Locate(value string) (sector, key int, ok bool) {
	for si, s := range l.sectors {
		for ki, k := range s.Keys {
			if KeyValue(k) == value {
				return si, ki, true
			}
		}
	}
	return model.None, model.None, false
}

// KeyValue renders a key as a journal value.
func KeyValue(k model.KeyOption) string {
	if k.IsAction() {
		return string(k.Action)
	}
	if k.Char == 0 {
		return ""
	}
	return string(k.Char)
}
