package admin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"productcatalog/internal/apperr"
	"productcatalog/internal/db"
	"productcatalog/internal/respond"
)

// ListParams is a parsed changelist query string.
type ListParams struct {
	Search  string
	Order   []string
	Page    int
	PerPage int

	conds []condition
}

type condition struct {
	sql  string
	args []any
}

var reservedParams = map[string]bool{"q": true, "o": true, "page": true, "per_page": true}

// ParseList reads q, o, page, per_page and the registered filters from values.
// Unknown parameters are rejected.
func (m *ModelAdmin) ParseList(values url.Values, now time.Time) (ListParams, error) {
	p := ListParams{
		Search:  strings.TrimSpace(values.Get("q")),
		Page:    1,
		PerPage: m.ListPerPage,
	}
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if o := strings.TrimSpace(values.Get("o")); o != "" {
		p.Order = strings.Split(o, ",")
	}
	if raw := values.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, invalidParam("page", "must be a positive integer")
		}
		p.Page = n
	}
	if raw := values.Get("per_page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, invalidParam("per_page", "must be a positive integer")
		}
		p.PerPage = min(n, MaxPerPage)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		if !reservedParams[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		cond, err := m.filterCondition(key, values.Get(key), now)
		if err != nil {
			return p, err
		}
		p.conds = append(p.conds, cond)
	}
	return p, nil
}

func (m *ModelAdmin) filterCondition(key, value string, now time.Time) (condition, error) {
	for _, f := range m.ListFilter {
		col := m.Table + "." + f.Field
		switch f.Kind {
		case FilterDate:
			switch key {
			case f.Field:
				from, to, ok := datePreset(value, now)
				if !ok {
					return condition{}, invalidParam(key, "unknown date range")
				}
				return condition{sql: col + " >= ? AND " + col + " < ?", args: []any{from, to}}, nil
			case f.Field + "__gte", f.Field + "__lt":
				t, err := parseDate(value, now.Location())
				if err != nil {
					return condition{}, invalidParam(key, "must be a date (YYYY-MM-DD) or RFC 3339 time")
				}
				op := ">="
				if strings.HasSuffix(key, "__lt") {
					op = "<"
				}
				return condition{sql: col + " " + op + " ?", args: []any{t}}, nil
			}
		case FilterRelation:
			if key == f.Field || key == f.Field+"__id__exact" {
				id, err := strconv.ParseUint(value, 10, 64)
				if err != nil {
					return condition{}, invalidParam(key, "must be an id")
				}
				return condition{sql: col + "_id = ?", args: []any{uint(id)}}, nil
			}
		case FilterExact:
			if key == f.Field {
				return condition{sql: col + " = ?", args: []any{value}}, nil
			}
		}
	}
	return condition{}, invalidParam(key, "unknown filter")
}

func datePreset(name string, now time.Time) (from, to time.Time, ok bool) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch name {
	case "today":
		return day, day.AddDate(0, 0, 1), true
	case "past_7_days":
		return day.AddDate(0, 0, -7), day.AddDate(0, 0, 1), true
	case "this_month":
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return first, first.AddDate(0, 1, 0), true
	case "this_year":
		first := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return first, first.AddDate(1, 0, 0), true
	}
	return time.Time{}, time.Time{}, false
}

func parseDate(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(time.DateOnly, value, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

func invalidParam(name, msg string) error {
	return apperr.New(apperr.CodeValidation, "invalid changelist query").WithDetails(map[string]string{name: msg})
}

// searchColumn resolves "field" or "relation__field" to a qualified column
// and, for relations, the join that makes it reachable.
func (m *ModelAdmin) searchColumn(field string) (col, join string, err error) {
	rel, name, ok := strings.Cut(field, "__")
	if !ok {
		return m.Table + "." + field, "", nil
	}
	table, found := m.Relations[rel]
	if !found {
		return "", "", apperr.New(apperr.CodeInternal, fmt.Sprintf("%s: unknown relation %q", m.Name, rel))
	}
	join = fmt.Sprintf("JOIN %s ON %s.id = %s.%s_id", table, table, m.Table, rel)
	return table + "." + name, join, nil
}

func (m *ModelAdmin) sortColumn(field string) string {
	if _, ok := m.Relations[field]; ok {
		return m.Table + "." + field + "_id"
	}
	return m.Table + "." + field
}

// orderBy turns requested (or default) ordering into ORDER BY terms. The
// primary key is appended last so pages are stable.
func (m *ModelAdmin) orderBy(requested []string) ([]string, error) {
	fields := m.Ordering
	if len(requested) > 0 {
		fields = requested
	}
	terms := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		f = strings.TrimSpace(f)
		name := strings.TrimPrefix(f, "-")
		if len(requested) > 0 && !slices.Contains(m.ListDisplay, name) {
			return nil, invalidParam("o", fmt.Sprintf("cannot order by %q", name))
		}
		dir := " ASC"
		if strings.HasPrefix(f, "-") {
			dir = " DESC"
		}
		terms = append(terms, m.sortColumn(name)+dir)
	}
	return append(terms, m.Table+".id DESC"), nil
}

func (m *ModelAdmin) apply(q *gorm.DB, p ListParams) (*gorm.DB, error) {
	if terms := strings.Fields(p.Search); len(terms) > 0 && len(m.SearchFields) > 0 {
		var joins []string
		cols := make([]string, 0, len(m.SearchFields))
		for _, field := range m.SearchFields {
			col, join, err := m.searchColumn(field)
			if err != nil {
				return nil, err
			}
			if join != "" && !slices.Contains(joins, join) {
				joins = append(joins, join)
			}
			cols = append(cols, col)
		}
		for _, join := range joins {
			q = q.Joins(join)
		}
		for _, term := range terms {
			pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
			parts := make([]string, len(cols))
			args := make([]any, len(cols))
			for i, col := range cols {
				parts[i] = "LOWER(" + col + ") LIKE ? ESCAPE '\\'"
				args[i] = pattern
			}
			q = q.Where("("+strings.Join(parts, " OR ")+")", args...)
		}
	}
	for _, c := range p.conds {
		q = q.Where(c.sql, c.args...)
	}
	return q, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Page is one changelist page; Count is the total across all pages.
type Page[T any] struct {
	Rows  []T
	Count int64
}

// Changelist runs the registration's search, filters, ordering and paging
// against the table of T.
func Changelist[T any](ctx context.Context, client *db.Client, m *ModelAdmin, p ListParams, preload ...string) (*Page[T], error) {
	order, err := m.orderBy(p.Order)
	if err != nil {
		return nil, err
	}
	base, err := m.apply(client.DB(ctx).Model(new(T)), p)
	if err != nil {
		return nil, err
	}
	base = base.Session(&gorm.Session{})

	page := &Page[T]{}
	if err := base.Count(&page.Count).Error; err != nil {
		return nil, db.Translate(err, "count "+m.Name)
	}

	q := base.Select(m.Table + ".*")
	for _, rel := range preload {
		q = q.Preload(rel)
	}
	for _, term := range order {
		q = q.Order(term)
	}
	if err := q.Limit(p.PerPage).Offset((p.Page - 1) * p.PerPage).Find(&page.Rows).Error; err != nil {
		return nil, db.Translate(err, "list "+m.Name)
	}
	return page, nil
}

func serveChangelist[T any](c *gin.Context, s *Site, m *ModelAdmin, row func(*T) gin.H, preload ...string) {
	p, err := m.ParseList(c.Request.URL.Query(), s.deps.Now())
	if err != nil {
		s.fail(c, err)
		return
	}
	page, err := Changelist[T](c.Request.Context(), s.deps.DB, m, p, preload...)
	if err != nil {
		s.fail(c, err)
		return
	}
	results := make([]gin.H, 0, len(page.Rows))
	for i := range page.Rows {
		results = append(results, row(&page.Rows[i]))
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"model":    m.Name,
		"columns":  m.ListDisplay,
		"search":   p.Search,
		"count":    page.Count,
		"page":     p.Page,
		"per_page": p.PerPage,
		"results":  results,
	})
}
