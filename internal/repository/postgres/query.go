package postgres

import (
	"fmt"
	"strings"

	"github.com/ispbilling/ispbilling/internal/types"
)

// whereBuilder accumulates AND-ed predicates with positional arguments
type whereBuilder struct {
	clauses []string
	args    []interface{}
}

func newWhere(tenantID string) *whereBuilder {
	w := &whereBuilder{}
	w.eq("tenant_id", tenantID)
	return w
}

func (w *whereBuilder) next() string {
	return fmt.Sprintf("$%d", len(w.args)+1)
}

func (w *whereBuilder) eq(column string, value interface{}) *whereBuilder {
	w.clauses = append(w.clauses, column+" = "+w.next())
	w.args = append(w.args, value)
	return w
}

func (w *whereBuilder) in(column string, values []string) *whereBuilder {
	if len(values) == 0 {
		return w
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = w.next()
		w.args = append(w.args, v)
	}
	w.clauses = append(w.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
	return w
}

func (w *whereBuilder) raw(clause string) *whereBuilder {
	w.clauses = append(w.clauses, clause)
	return w
}

func (w *whereBuilder) String() string {
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// paginate appends ORDER BY and, unless the filter is unlimited, LIMIT/OFFSET
func (w *whereBuilder) paginate(orderBy string, filter types.BaseFilter) string {
	clause := " ORDER BY " + orderBy
	if filter == nil || filter.IsUnlimited() {
		if filter != nil && filter.GetOffset() > 0 {
			clause += " OFFSET " + w.next()
			w.args = append(w.args, filter.GetOffset())
		}
		return clause
	}
	clause += " LIMIT " + w.next()
	w.args = append(w.args, filter.GetLimit())
	clause += " OFFSET " + w.next()
	w.args = append(w.args, filter.GetOffset())
	return clause
}
