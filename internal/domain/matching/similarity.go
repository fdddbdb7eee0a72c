package matching

import (
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/xrash/smetrics"
)

// DefaultThreshold is the similarity a candidate must exceed to match.
const DefaultThreshold = 0.8

var (
	parenthesized = regexp.MustCompile(`\([^)]*\)\s*`)
	nameSuffixes  = map[string]struct{}{"jr": {}, "sr": {}, "ii": {}, "iii": {}}
)

// Normalize lowercases a name, drops parenthesized parts and suffixes, and
// turns "Last, First" into "First Last".
func Normalize(name string) string {
	n := strings.Join(strings.Fields(strings.ToLower(name)), " ")
	n = parenthesized.ReplaceAllString(n, "")

	if strings.Contains(n, ",") {
		parts := strings.Split(n, ",")
		if len(parts) == 2 {
			n = strings.TrimSpace(parts[1]) + " " + strings.TrimSpace(parts[0])
		}
	}

	words := strings.Fields(n)
	kept := words[:0]
	for _, w := range words {
		if _, ok := nameSuffixes[w]; !ok {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// Ratio is the Ratcliff/Obershelp similarity of a and b in [0, 1],
// compared rune by rune.
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(splitRunes(a), splitRunes(b)).Ratio()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// Similarity compares two rider names after normalization. Shared surnames
// and shared words raise the raw ratio.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return 1
	}

	score := Ratio(na, nb)
	wa, wb := strings.Fields(na), strings.Fields(nb)
	if len(wa) > 0 && len(wb) > 0 {
		if wa[len(wa)-1] == wb[len(wb)-1] {
			score += 0.2
		}
		if sharesWord(wa, wb) {
			score += 0.1
		}
	}
	if score > 1 {
		score = 1
	}
	return score
}

func sharesWord(a, b []string) bool {
	set := make(map[string]struct{}, len(b))
	for _, w := range b {
		set[w] = struct{}{}
	}
	for _, w := range a {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}

// Match is the result of BestMatch.
type Match struct {
	Candidate string
	Score     float64
}

// BestMatch returns the candidate most similar to name when its score
// exceeds threshold. Equal scores are settled by Jaro-Winkler distance,
// then by candidate order.
func BestMatch(name string, candidates []string, threshold float64) (Match, bool) {
	var (
		best   Match
		bestJW float64
		found  bool
	)
	for _, c := range candidates {
		if strings.TrimSpace(c) == "" {
			continue
		}
		score := Similarity(name, c)
		jw := smetrics.JaroWinkler(Normalize(name), Normalize(c), 0.7, 4)
		if !found || score > best.Score || (score == best.Score && jw > bestJW) {
			best, bestJW, found = Match{Candidate: c, Score: score}, jw, true
		}
	}
	if !found || best.Score <= threshold {
		return Match{Score: best.Score}, false
	}
	return best, true
}
