package geofilter

import (
	"strings"
	"time"
)

// Where renders e as a GraphQL "where" argument in the Hasura boolean
// expression dialect, e.g. {"venue": {"geo": {"_st_d_within": {...}}}}.
func Where(e Expr) map[string]any {
	switch n := e.(type) {
	case And:
		return map[string]any{"_and": whereList(n)}
	case Or:
		return map[string]any{"_or": whereList(n)}
	case Eq:
		return nest(n.Field, map[string]any{"_eq": n.Value})
	case ILike:
		return nest(n.Field, map[string]any{"_ilike": n.Pattern})
	case Range:
		ops := map[string]any{}
		if n.Gte != nil {
			ops["_gte"] = n.Gte.Format(time.RFC3339)
		}
		if n.Lte != nil {
			ops["_lte"] = n.Lte.Format(time.RFC3339)
		}
		return nest(n.Field, ops)
	case DWithin:
		return nest(n.Field, map[string]any{
			"_st_d_within": map[string]any{
				"distance": n.Meters,
				"from": map[string]any{
					"type":        "Point",
					"coordinates": n.From.Coordinates(),
				},
			},
		})
	}
	return map[string]any{}
}

func whereList(list []Expr) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, e := range list {
		out = append(out, Where(e))
	}
	return out
}

func nest(path string, leaf map[string]any) map[string]any {
	parts := strings.Split(path, ".")
	out := map[string]any{parts[len(parts)-1]: leaf}
	for i := len(parts) - 2; i >= 0; i-- {
		out = map[string]any{parts[i]: out}
	}
	return out
}
