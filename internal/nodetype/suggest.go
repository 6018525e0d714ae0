package nodetype

import (
	"sort"
	"strings"
)

// Suggestion is one node search hit.
type Suggestion struct {
	Type     string
	Category string
	Score    int
}

// Suggest ranks node types against a free-text query the way a node search
// box does: exact type first, then type prefixes, then substring matches on
// the type, category, keywords and description. limit <= 0 means no limit.
func (r *Registry) Suggest(query string, limit int) []Suggestion {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Suggestion
	for _, name := range r.Types() {
		k, _ := r.Kind(name)
		score := matchScore(q, strings.ToLower(name), k.Category, k.Keywords, k.Description)
		if score > 0 {
			out = append(out, Suggestion{Type: name, Category: k.Category, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func matchScore(q, typeName, category string, keywords []string, description string) int {
	if q == "" {
		return 1
	}
	short := typeName
	if i := strings.LastIndex(short, "."); i >= 0 {
		short = short[i+1:]
	}
	switch {
	case typeName == q || short == q:
		return 100
	case strings.HasPrefix(short, q) || strings.HasPrefix(typeName, q):
		return 80
	case strings.Contains(typeName, q):
		return 60
	}
	for _, kw := range keywords {
		if strings.EqualFold(kw, q) {
			return 50
		}
		if strings.HasPrefix(strings.ToLower(kw), q) {
			return 40
		}
	}
	if strings.EqualFold(category, q) {
		return 30
	}
	if strings.Contains(strings.ToLower(description), q) {
		return 10
	}
	return 0
}
