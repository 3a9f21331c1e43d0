package service

import (
	"context"
	"sort"
	"strings"

	"github.com/fortuna/services/player-stats-service/pkg/models"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

const (
	// suggestionThreshold is the minimum name similarity for a suggestion
	suggestionThreshold = 0.6

	maxSuggestions = 5
)

// SearchPlayers returns players whose name fuzzily contains query, best
// matches first. An empty query lists everyone.
func (s *StatsService) SearchPlayers(ctx context.Context, query string) ([]models.PlayerSummary, error) {
	players, err := s.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return players, nil
	}

	byName := make(map[string]models.PlayerSummary, len(players))
	names := make([]string, len(players))
	for i, p := range players {
		byName[p.Name] = p
		names[i] = p.Name
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)

	out := make([]models.PlayerSummary, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, byName[r.Target])
	}
	return out, nil
}

// Suggest returns registered names close to name, most similar first
func (s *StatsService) Suggest(ctx context.Context, name string) []string {
	players, err := s.store.ListPlayers(ctx)
	if err != nil {
		s.log.Warn("listing players for suggestions failed", "error", err)
		return nil
	}

	type candidate struct {
		name       string
		similarity float64
	}

	wanted := strings.ToLower(strings.TrimSpace(name))
	var candidates []candidate
	for _, p := range players {
		similarity := nameSimilarity(wanted, strings.ToLower(p.Name))
		if similarity >= suggestionThreshold || (wanted != "" && fuzzy.MatchNormalizedFold(wanted, p.Name)) {
			candidates = append(candidates, candidate{p.Name, similarity})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].similarity != candidates[j].similarity {
			return candidates[i].similarity > candidates[j].similarity
		}
		return candidates[i].name < candidates[j].name
	})

	if len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.name
	}
	return out
}

// nameSimilarity is 1 minus the Levenshtein distance over the longer length
func nameSimilarity(a, b string) float64 {
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 0
	}
	distance := fuzzy.LevenshteinDistance(a, b)
	return 1 - float64(distance)/float64(maxLen)
}
