// Package generator builds drill text for the radial layout.
package generator

import (
	"math/rand"
	"time"
)

// Generator produces randomized drill words.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate selects words uniformly and applies punctuation rules.
func (g *Generator) Generate(words []string, count int, punctPct float64, punctSet []rune) []string {
	if len(words) == 0 {
		return nil
	}
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		word := words[g.rnd.Intn(len(words))]
		result = append(result, applyPunct(g.rnd, word, punctPct, punctSet))
	}
	return result
}

// GenerateWeighted selects words with a bias toward rarely used characters.
func (g *Generator) GenerateWeighted(words []string, count int, punctPct float64, punctSet []rune, rareSet map[rune]struct{}, factor float64) []string {
	if len(words) == 0 {
		return nil
	}
	weights := make([]float64, len(words))
	total := 0.0
	for i, word := range words {
		rareCount := 0
		for _, r := range word {
			if _, ok := rareSet[r]; ok {
				rareCount++
			}
		}
		weights[i] = 1.0 + float64(rareCount)*factor
		total += weights[i]
	}

	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		idx := pick(g.rnd, weights, total)
		result = append(result, applyPunct(g.rnd, words[idx], punctPct, punctSet))
	}
	return result
}

// Synthesize builds pseudo-words of minLen..maxLen runes drawn from alphabet.
// Runes in rareSet are drawn 1+factor times as often. It is the fallback
// when no word list is configured.
func (g *Generator) Synthesize(alphabet []rune, count, minLen, maxLen int, rareSet map[rune]struct{}, factor float64) []string {
	if len(alphabet) == 0 || count <= 0 {
		return nil
	}
	minLen = max(minLen, 1)
	maxLen = max(maxLen, minLen)
	weights := make([]float64, len(alphabet))
	total := 0.0
	for i, r := range alphabet {
		weights[i] = 1.0
		if _, ok := rareSet[r]; ok {
			weights[i] += factor
		}
		total += weights[i]
	}
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		n := minLen + g.rnd.Intn(maxLen-minLen+1)
		word := make([]rune, n)
		for j := range word {
			word[j] = alphabet[pick(g.rnd, weights, total)]
		}
		result = append(result, string(word))
	}
	return result
}

func pick(rnd *rand.Rand, weights []float64, total float64) int {
	r := rnd.Float64() * total
	acc := 0.0
	for j, w := range weights {
		acc += w
		if r <= acc {
			return j
		}
	}
	return len(weights) - 1
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 {
		return word
	}
	if rnd.Float64() > punctPct {
		return word
	}
	return word + string(punctSet[rnd.Intn(len(punctSet))])
}
