package wordlist

import "unicode"

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// FilterForAlphabet keeps words whose lowercased runes all appear in
// alphabet, so every word can be entered on the layout.
func FilterForAlphabet(alphabet []rune) FilterFunc {
	set := make(map[rune]struct{}, len(alphabet))
	for _, r := range alphabet {
		set[unicode.ToLower(r)] = struct{}{}
	}
	return func(word string) bool {
		if word == "" {
			return false
		}
		for _, r := range word {
			if _, ok := set[unicode.ToLower(r)]; !ok {
				return false
			}
		}
		return true
	}
}

// Filter returns the words kept by keep, preserving order.
func Filter(words []string, keep FilterFunc) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if keep(w) {
			out = append(out, w)
		}
	}
	return out
}
