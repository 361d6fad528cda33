package navigate

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/mj1618/desktop-extract/internal/model"
)

// Similarity is the minimum normalized edit similarity for a fuzzy match.
const Similarity = 0.8

// Candidate is one activatable entry offered by a CandidateSource.
type Candidate struct {
	Name string
	Node model.Node
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Resolve matches target against candidates: by index when set, else by
// exact name (case-insensitive, trimmed), else by a whole-word run inside
// the candidate name, else by the highest edit similarity of at least
// Similarity. Names that differ only in a short or numbered word never
// match by similarity.
func Resolve(cands []Candidate, target model.NavigationTarget) (Candidate, model.Resolution, error) {
	if target.Index != nil {
		i := *target.Index
		if i < 0 || i >= len(cands) {
			return Candidate{}, "", fmt.Errorf("index %d out of range (%d candidates): %w", i, len(cands), model.ErrTargetNotFound)
		}
		return cands[i], model.ResolveIndex, nil
	}

	want := normalize(target.Name)
	if want == "" {
		return Candidate{}, "", fmt.Errorf("target has no name or index: %w", model.ErrTargetNotFound)
	}
	for _, c := range cands {
		if normalize(c.Name) == want {
			return c, model.ResolveExact, nil
		}
	}
	for _, c := range cands {
		if containsWords(normalize(c.Name), want) {
			return c, model.ResolveFuzzy, nil
		}
	}
	best, bestScore := -1, 0.0
	for i, c := range cands {
		name := normalize(c.Name)
		if s := similarity(name, want); s >= Similarity && s > bestScore && !differsInShortToken(name, want) {
			best, bestScore = i, s
		}
	}
	if best >= 0 {
		return cands[best], model.ResolveFuzzy, nil
	}
	return Candidate{}, "", notFound(target.Name, cands)
}

// notFound lists what was available, the way element lookups report misses.
func notFound(name string, cands []Candidate) error {
	names := make([]string, 0, len(cands))
	for i, c := range cands {
		if i == 10 {
			names = append(names, fmt.Sprintf("... and %d more", len(cands)-10))
			break
		}
		names = append(names, fmt.Sprintf("%q", c.Name))
	}
	if len(names) == 0 {
		return fmt.Errorf("no candidate matches %q (none available): %w", name, model.ErrTargetNotFound)
	}
	return fmt.Errorf("no candidate matches %q; available: %s: %w", name, strings.Join(names, ", "), model.ErrTargetNotFound)
}

// Consistent reports whether a page title plausibly belongs to the named
// target: equal, one containing the other's words, or similar enough.
func Consistent(title, name string) bool {
	t, n := normalize(title), normalize(name)
	if t == "" || n == "" {
		return false
	}
	if t == n || containsWords(t, n) || containsWords(n, t) {
		return true
	}
	return similarity(t, n) >= Similarity && !differsInShortToken(t, n)
}

// containsWords reports whether the words of needle appear as a contiguous
// run of whole words in hay. "weekly" is in "weekly plan"; "recipe 1" is
// not in "recipe 10".
func containsWords(hay, needle string) bool {
	h, n := strings.Fields(hay), strings.Fields(needle)
	if len(n) == 0 || len(n) > len(h) {
		return false
	}
	for i := 0; i+len(n) <= len(h); i++ {
		match := true
		for j := range n {
			if h[i+j] != n[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// differsInShortToken reports whether two names with the same number of
// words differ in a word of at most two runes or a word with a digit, like
// "Recipe X" and "Recipe Y" or "Recipe 100" and "Recipe 1000". Such names
// are distinct items, not typos of each other.
func differsInShortToken(a, b string) bool {
	wa, wb := strings.Fields(a), strings.Fields(b)
	if len(wa) != len(wb) {
		return false
	}
	for i := range wa {
		if wa[i] == wb[i] {
			continue
		}
		if len([]rune(wa[i])) <= 2 || len([]rune(wb[i])) <= 2 || hasDigit(wa[i]) || hasDigit(wb[i]) {
			return true
		}
	}
	return false
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// similarity is 1 - levenshtein(a, b) / max(len(a), len(b)), over runes.
func similarity(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
