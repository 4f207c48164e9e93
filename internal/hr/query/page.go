// Package query implements the filter, sort, and pagination layer of
// the HR core. Filters are fixed, enumerable sets per entity that
// compose into a single predicate applied to the store; cross-entity
// searches resolve the qualifying ids on the secondary entity first
// and fold them into the primary predicate.
package query

import (
	"fmt"

	e "github.com/gartstein/hr/internal/hr/errors"
	"gorm.io/gorm"
)

const (
	// DefaultLimit is applied when the caller does not set a page size.
	DefaultLimit = 10
	// MaxLimit bounds page size to keep result sets cheap.
	MaxLimit = 100
)

// Page holds offset/limit pagination parameters.
type Page struct {
	Offset int
	Limit  int
}

// Normalize clamps the page to sane bounds: non-negative offset,
// limit in [1, MaxLimit], defaulting when unset.
func (p Page) Normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Apply adds offset/limit to the query.
func (p Page) Apply(tx *gorm.DB) *gorm.DB {
	return tx.Offset(p.Offset).Limit(p.Limit)
}

// Sort specifies an ordering over one of the entity's sortable fields.
// The zero value means creation order.
type Sort struct {
	Field string
	Desc  bool
}

// OrderClause renders the ORDER BY expression, validating Field
// against the entity's allowlist. Creation order is always the
// tie-breaker so repeated queries page stably.
func (s Sort) OrderClause(allowed map[string]bool) (string, error) {
	if s.Field == "" {
		return "created_at ASC", nil
	}
	if !allowed[s.Field] {
		return "", e.InvalidInput("sort", fmt.Sprintf("field %q is not sortable", s.Field))
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, created_at ASC", s.Field, dir), nil
}

// Result is one page of entities plus the total match count, so
// callers can compute page counts without a second round trip.
type Result[T any] struct {
	Items  []T
	Total  int64
	Offset int
	Limit  int
}
