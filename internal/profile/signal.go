package profile

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/profiler/internal/types"
)

// Keys searched in section data when collecting skills and certifications
var (
	skillKeys         = []string{"skills", "technical_skills", "languages"}
	certificationKeys = []string{"certifications", "certificates"}
)

// Signal summarizes a user's profile for recommendation generators
func (s *Service) Signal(ctx context.Context, userID uuid.UUID) (*types.ProfileSignal, error) {
	p, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sig := s.signalFor(p)
	return &sig, nil
}

// SimilarProfiles returns up to limit peer signals ordered by skill overlap
// with userID's profile. Peers with no overlap are left out.
func (s *Service) SimilarProfiles(ctx context.Context, userID uuid.UUID, limit int) ([]types.ProfileSignal, error) {
	if limit <= 0 {
		return nil, nil
	}
	self, err := s.Signal(ctx, userID)
	if err != nil {
		return nil, err
	}

	peers, err := s.store.ListPeerProfiles(ctx, userID, peerScanLimit)
	if err != nil {
		return nil, err
	}

	type scored struct {
		signal  types.ProfileSignal
		overlap float64
	}
	mine := append(append([]string{}, self.Skills...), self.Certifications...)
	var candidates []scored
	for _, peer := range peers {
		sig := s.signalFor(peer)
		theirs := append(append([]string{}, sig.Skills...), sig.Certifications...)
		if overlap := Jaccard(mine, theirs); overlap > 0 {
			candidates = append(candidates, scored{signal: sig, overlap: overlap})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].overlap > candidates[j].overlap
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]types.ProfileSignal, len(candidates))
	for i, c := range candidates {
		out[i] = c.signal
	}
	return out, nil
}

func (s *Service) signalFor(p *types.Profile) types.ProfileSignal {
	data := p.CategoryData()
	var missing []string
	for _, id := range p.Config.RequiredSections {
		if !isCompleted(p, id) {
			missing = append(missing, id)
		}
	}
	return types.ProfileSignal{
		UserID:          p.UserID,
		ProfileID:       p.ID,
		Quality:         s.scorer.QualityScore(data),
		Categories:      s.scorer.CategoryScores(data),
		MissingSections: missing,
		Skills:          collectStrings(p, p.Config.Sections, skillKeys),
		Certifications:  collectStrings(p, p.Config.Sections, certificationKeys),
		Titles:          p.Config.Titles,
	}
}

// collectStrings gathers distinct string values under keys across sections,
// in section order
func collectStrings(p *types.Profile, sections []string, keys []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range sections {
		section := p.Sections[id]
		if section == nil {
			continue
		}
		for _, key := range keys {
			for _, v := range stringValues(section.Data[key]) {
				norm := strings.ToLower(v)
				if !seen[norm] {
					seen[norm] = true
					out = append(out, v)
				}
			}
		}
	}
	return out
}

func stringValues(v any) []string {
	var out []string
	switch t := v.(type) {
	case string:
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range t {
			switch it := item.(type) {
			case string:
				if it = strings.TrimSpace(it); it != "" {
					out = append(out, it)
				}
			case map[string]any:
				if name, ok := it["name"].(string); ok && strings.TrimSpace(name) != "" {
					out = append(out, strings.TrimSpace(name))
				}
			}
		}
	}
	return out
}

// Jaccard is the case-insensitive overlap of two string sets
func Jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(a))
	for _, s := range a {
		setA[strings.ToLower(s)] = true
	}
	setB := make(map[string]bool, len(b))
	for _, s := range b {
		setB[strings.ToLower(s)] = true
	}

	intersection := 0
	for s := range setA {
		if setB[s] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}
