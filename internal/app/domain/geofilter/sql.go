package geofilter

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Columns maps expression field paths to SQL column expressions.
type Columns map[string]string

// ToSql translates e into a squirrel condition against PostGIS columns.
// Unknown field paths are an error so a schema typo never silently widens a query.
func ToSql(e Expr, cols Columns) (sq.Sqlizer, error) {
	switch n := e.(type) {
	case And:
		out := sq.And{}
		for _, c := range n {
			s, err := ToSql(c, cols)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	case Or:
		out := sq.Or{}
		for _, c := range n {
			s, err := ToSql(c, cols)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	case Eq:
		col, err := cols.lookup(n.Field)
		if err != nil {
			return nil, err
		}
		return sq.Eq{col: n.Value}, nil
	case ILike:
		col, err := cols.lookup(n.Field)
		if err != nil {
			return nil, err
		}
		return sq.ILike{col: n.Pattern}, nil
	case Range:
		col, err := cols.lookup(n.Field)
		if err != nil {
			return nil, err
		}
		out := sq.And{}
		if n.Gte != nil {
			out = append(out, sq.GtOrEq{col: *n.Gte})
		}
		if n.Lte != nil {
			out = append(out, sq.LtOrEq{col: *n.Lte})
		}
		return out, nil
	case DWithin:
		col, err := cols.lookup(n.Field)
		if err != nil {
			return nil, err
		}
		return sq.Expr(
			fmt.Sprintf("ST_DWithin(%s, ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography, ?)", col),
			n.From.Lng, n.From.Lat, n.Meters,
		), nil
	}
	return nil, fmt.Errorf("geofilter: unsupported expression %T", e)
}

func (c Columns) lookup(field string) (string, error) {
	col, ok := c[field]
	if !ok {
		return "", fmt.Errorf("geofilter: no column for field %q", field)
	}
	return col, nil
}
