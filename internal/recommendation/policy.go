// Package recommendation generates, deduplicates and tracks recommendations
// built from profile, peer, document and answer signals.
package recommendation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jonathan/profiler/internal/types"
)

// Policy names accepted by NewPolicy
const (
	PolicyContainment  = "containment"
	PolicyTokenOverlap = "token_overlap"
)

// DefaultOverlapThreshold is the Jaccard threshold of TokenOverlapPolicy
const DefaultOverlapThreshold = 0.7

// SimilarityPolicy decides whether two recommendation titles say the same thing
type SimilarityPolicy interface {
	Similar(a, b string) bool
}

// ContainmentPolicy treats titles as similar when one contains the other,
// either as a substring or as a subset of its words. Case is ignored.
type ContainmentPolicy struct{}

// Similar implements SimilarityPolicy
func (ContainmentPolicy) Similar(a, b string) bool {
	a, b = normalizeTitle(a), normalizeTitle(b)
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	ta, tb := tokenSet(a), tokenSet(b)
	return subset(ta, tb) || subset(tb, ta)
}

// TokenOverlapPolicy treats titles as similar when the Jaccard overlap of
// their words reaches Threshold
type TokenOverlapPolicy struct {
	Threshold float64
}

// Similar implements SimilarityPolicy
func (p TokenOverlapPolicy) Similar(a, b string) bool {
	ta, tb := tokenSet(normalizeTitle(a)), tokenSet(normalizeTitle(b))
	if len(ta) == 0 || len(tb) == 0 {
		return false
	}
	inter := 0
	for t := range ta {
		if tb[t] {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter)/float64(union) >= p.Threshold
}

// NewPolicy builds a policy by name. An empty name selects containment; a
// non-positive threshold selects DefaultOverlapThreshold.
func NewPolicy(name string, threshold float64) (SimilarityPolicy, error) {
	switch name {
	case "", PolicyContainment:
		return ContainmentPolicy{}, nil
	case PolicyTokenOverlap:
		if threshold <= 0 {
			threshold = DefaultOverlapThreshold
		}
		return TokenOverlapPolicy{Threshold: threshold}, nil
	default:
		return nil, fmt.Errorf("unknown similarity policy %q", name)
	}
}

// FilterDuplicates drops candidates whose title exactly matches a seen title,
// or is similar to a seen title of the same category. Seen titles start as
// existing and grow as candidates are accepted, so the first candidate wins.
func FilterDuplicates(candidates, existing []types.Recommendation, policy SimilarityPolicy) []types.Recommendation {
	if policy == nil {
		policy = ContainmentPolicy{}
	}

	seen := make([]types.Recommendation, 0, len(existing)+len(candidates))
	seen = append(seen, existing...)

	var out []types.Recommendation
	for _, c := range candidates {
		if isDuplicate(c, seen, policy) {
			continue
		}
		out = append(out, c)
		seen = append(seen, c)
	}
	return out
}

func isDuplicate(c types.Recommendation, seen []types.Recommendation, policy SimilarityPolicy) bool {
	for _, s := range seen {
		if s.Title == c.Title {
			return true
		}
		if s.Category == c.Category && policy.Similar(s.Title, c.Title) {
			return true
		}
	}
	return false
}

func normalizeTitle(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	}), " ")
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range strings.Fields(s) {
		set[f] = true
	}
	return set
}

// subset reports whether every token of a is in b
func subset(a, b map[string]bool) bool {
	if len(a) == 0 {
		return false
	}
	for t := range a {
		if !b[t] {
			return false
		}
	}
	return true
}
