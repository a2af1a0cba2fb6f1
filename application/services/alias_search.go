package services

import (
	"sort"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"wayfinder/application/ports"
	"wayfinder/domain/core/entities"
	"wayfinder/domain/core/valueobjects"
)

// rankAliases scores every alias against a normalized query with a
// token set ratio and keeps the best limit hits scoring at least minScore.
// Shared words count fully, so "thu vien" matches "toa a thu vien" at 100.
func rankAliases(query string, aliases []*entities.Alias, limit, minScore int) []ports.AliasMatch {
	if query == "" || limit <= 0 {
		return []ports.AliasMatch{}
	}

	matches := make([]ports.AliasMatch, 0, len(aliases))
	for _, a := range aliases {
		norm := a.NormName()
		if norm == "" {
			norm = valueobjects.NormalizeName(a.Name())
		}
		score := fuzzy.TokenSetRatio(query, norm)
		if score < minScore {
			continue
		}
		matches = append(matches, ports.AliasMatch{
			NodeID:  a.NodeID(),
			AliasID: a.ID(),
			Name:    a.Name(),
			Score:   float64(score),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
