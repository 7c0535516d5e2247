package geofilter

import (
	"time"

	"github.com/FACorreiaa/loci-discovery/internal/app/models"
)

// Expr is one node of a backend filter expression. Field paths are dotted and
// walk relations, so "venue.geo" addresses the location of the linked venue.
type Expr interface {
	isExpr()
}

// And holds conditions that must all match.
type And []Expr

// Or holds conditions of which at least one must match.
type Or []Expr

// Eq is an equality condition.
type Eq struct {
	Field string
	Value any
}

// ILike is a case-insensitive pattern match.
type ILike struct {
	Field   string
	Pattern string
}

// Range bounds a time field on one or both sides. Nil bounds are open.
type Range struct {
	Field string
	Gte   *time.Time
	Lte   *time.Time
}

// DWithin matches when the geography in Field is within Meters of From.
type DWithin struct {
	Field  string
	From   models.GeoPoint
	Meters int
}

func (And) isExpr()     {}
func (Or) isExpr()      {}
func (Eq) isExpr()      {}
func (ILike) isExpr()   {}
func (Range) isExpr()   {}
func (DWithin) isExpr() {}

// Walk calls fn for every node of e in depth-first order.
func Walk(e Expr, fn func(Expr)) {
	fn(e)
	switch n := e.(type) {
	case And:
		for _, c := range n {
			Walk(c, fn)
		}
	case Or:
		for _, c := range n {
			Walk(c, fn)
		}
	}
}
