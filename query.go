package crm

import (
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Pagination defaults. Limits outside the range are clamped, never rejected.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// SortOrder is the direction of a sort expression.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder normalizes a raw direction, defaulting to descending.
func ParseSortOrder(raw string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(raw), string(SortAsc)) {
		return SortAsc
	}
	return SortDesc
}

// Pagination carries the requested page window.
type Pagination struct {
	Page  int
	Limit int
}

// Normalize clamps the window to valid bounds.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset is the row offset for the normalized window.
func (p Pagination) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// PageMeta describes a result page.
type PageMeta struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"total_pages"`
	HasNextPage bool `json:"has_next_page"`
	HasPrevPage bool `json:"has_prev_page"`
}

// NewPageMeta derives page metadata from a total row count.
func NewPageMeta(p Pagination, total int) PageMeta {
	n := p.Normalize()

	totalPages := 0
	if total > 0 {
		totalPages = (total + n.Limit - 1) / n.Limit
	}

	return PageMeta{
		Page:        n.Page,
		Limit:       n.Limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: n.Page < totalPages,
		HasPrevPage: n.Page > 1 && total > 0,
	}
}

// clientSortColumns whitelists sortable client fields.
var clientSortColumns = map[string]string{
	"name":       "name",
	"company":    "company",
	"created_at": "created_at",
	"createdAt":  "created_at",
}

// projectSortColumns whitelists sortable project fields.
var projectSortColumns = map[string]string{
	"title":      "title",
	"start_date": "start_date",
	"startDate":  "start_date",
	"end_date":   "end_date",
	"endDate":    "end_date",
	"budget":     "budget",
	"created_at": "created_at",
	"createdAt":  "created_at",
}

// ClientQuery captures list filters for clients.
type ClientQuery struct {
	Status ClientStatus
	Search string
	SortBy string
	Order  SortOrder
	Pagination
}

// Filters returns the WHERE-level criteria, excluding sorting and paging,
// so the same conditions drive both the page query and the total count.
func (q ClientQuery) Filters() []repository.SelectCriteria {
	criteria := []repository.SelectCriteria{}

	if q.Status != "" {
		criteria = append(criteria, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Where("?TableAlias.status = ?", q.Status)
		})
	}

	if term := strings.TrimSpace(q.Search); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		criteria = append(criteria, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.WhereGroup(" AND ", func(g *bun.SelectQuery) *bun.SelectQuery {
				return g.
					Where("lower(?TableAlias.name) LIKE ?", pattern).
					WhereOr("lower(?TableAlias.company) LIKE ?", pattern)
			})
		})
	}

	return criteria
}

// Apply layers filters, ordering, and the page window onto a select.
func (q ClientQuery) Apply(sq *bun.SelectQuery) *bun.SelectQuery {
	for _, c := range q.Filters() {
		sq = c(sq)
	}

	sq = sq.Order(sortExpr(clientSortColumns, q.SortBy, q.Order, "created_at"))

	n := q.Normalize()
	return sq.Limit(n.Limit).Offset(q.Offset())
}

// ProjectQuery captures list filters for projects.
type ProjectQuery struct {
	Status    ProjectStatus
	ClientID  uuid.UUID
	StartFrom *time.Time
	StartTo   *time.Time
	EndFrom   *time.Time
	EndTo     *time.Time
	MinBudget *float64
	MaxBudget *float64
	Search    string
	SortBy    string
	Order     SortOrder
	Pagination
}

// Filters returns the WHERE-level criteria shared by page and count queries.
func (q ProjectQuery) Filters() []repository.SelectCriteria {
	criteria := []repository.SelectCriteria{}

	if q.Status != "" {
		criteria = append(criteria, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Where("?TableAlias.status = ?", q.Status)
		})
	}

	if q.ClientID != uuid.Nil {
		criteria = append(criteria, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Where("?TableAlias.client_id = ?", q.ClientID)
		})
	}

	if q.StartFrom != nil {
		criteria = append(criteria, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Where("?TableAlias.start_date >= ?", *q.StartFrom)
		})
	}

	if q.StartTo != nil {
		criteria = append(criteria, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Where("?TableAlias.start_date <= ?", *q.StartTo)
		})
	}

	if q.EndFrom != nil {
		criteria = append(criteria, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Where("?TableAlias.end_date >= ?", *q.EndFrom)
		})
	}

	if q.EndTo != nil {
		criteria = append(criteria, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Where("?TableAlias.end_date <= ?", *q.EndTo)
		})
	}

	if q.MinBudget != nil {
		criteria = append(criteria, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Where("?TableAlias.budget >= ?", *q.MinBudget)
		})
	}

	if q.MaxBudget != nil {
		criteria = append(criteria, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Where("?TableAlias.budget <= ?", *q.MaxBudget)
		})
	}

	if term := strings.TrimSpace(q.Search); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		criteria = append(criteria, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.WhereGroup(" AND ", func(g *bun.SelectQuery) *bun.SelectQuery {
				return g.
					Where("lower(?TableAlias.title) LIKE ?", pattern).
					WhereOr("lower(?TableAlias.description) LIKE ?", pattern)
			})
		})
	}

	return criteria
}

// Apply layers filters, ordering, and the page window onto a select.
func (q ProjectQuery) Apply(sq *bun.SelectQuery) *bun.SelectQuery {
	for _, c := range q.Filters() {
		sq = c(sq)
	}

	sq = sq.Order(sortExpr(projectSortColumns, q.SortBy, q.Order, "created_at"))

	n := q.Normalize()
	return sq.Limit(n.Limit).Offset(q.Offset())
}

// sortExpr maps a requested sort field through the whitelist, falling
// back to the default column when the field is unknown. Descending is
// the default direction.
func sortExpr(columns map[string]string, sortBy string, order SortOrder, fallback string) string {
	column, ok := columns[strings.TrimSpace(sortBy)]
	if !ok {
		column = fallback
	}

	if order != SortAsc {
		order = SortDesc
	}

	return fmt.Sprintf("%s %s", column, strings.ToUpper(string(order)))
}
