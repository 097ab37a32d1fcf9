package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// styledRune is one drill rune, already rendered.
type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// styleDrill renders target against input. The word under the cursor is
// highlighted and a missed space shows as a red dot.
func styleDrill(target, input []rune, cursor int) []styledRune {
	wordStart, wordEnd := currentWord(target, cursor)
	out := make([]styledRune, 0, len(target))
	for i, want := range target {
		shown := want
		style := pendingStyle
		switch {
		case i < len(input) && input[i] == want:
			style = correctStyle
		case i < len(input):
			style = incorrectStyle
			if want == ' ' {
				shown = '•'
			}
		case want != ' ' && i >= wordStart && i < wordEnd:
			style = currentWordStyle
		}
		if i == cursor && i >= len(input) {
			style = style.Underline(true)
		}
		out = append(out, styledRune{
			s:       style.Render(string(shown)),
			width:   runewidth.RuneWidth(shown),
			isSpace: want == ' ',
		})
	}
	return out
}

// currentWord returns the bounds of the word holding cursor, or the next word
// when the cursor sits on a space. A negative cursor selects the first word.
func currentWord(target []rune, cursor int) (int, int) {
	if cursor < 0 {
		cursor = 0
	}
	start := cursor
	for start < len(target) && target[start] == ' ' {
		start++
	}
	if start >= len(target) {
		// Past the end: last word.
		end := len(target)
		for end > 0 && target[end-1] == ' ' {
			end--
		}
		start = end
		for start > 0 && target[start-1] != ' ' {
			start--
		}
		return start, end
	}
	for start > 0 && target[start-1] != ' ' {
		start--
	}
	end := start
	for end < len(target) && target[end] != ' ' {
		end++
	}
	return start, end
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes breaks lines at the last space that fits, or mid-word when
// a word is wider than the line.
func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var lines []string
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	for _, item := range runes {
		if lineWidth+item.width > width && len(line) > 0 {
			cut := lastSpace(line)
			if cut < 0 {
				lines = append(lines, renderStyledRunes(line))
				line = line[:0]
			} else {
				lines = append(lines, renderStyledRunes(line[:cut]))
				line = append([]styledRune{}, line[cut+1:]...)
			}
			lineWidth = widthOf(line)
		}
		line = append(line, item)
		lineWidth += item.width
	}
	lines = append(lines, renderStyledRunes(line))
	return strings.Join(lines, "\n")
}

func widthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpace(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
