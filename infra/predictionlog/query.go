package predictionlog

import (
	"strings"
	"time"

	corelog "github.com/kilianp07/deliveryeta/core/predictionlog"
)

const selectColumns = "id, features_json, predicted_time, model_version, created_at"

// buildSelect renders the filtered SELECT for q. placeholder returns the
// bind marker for the n-th argument (1-based).
func buildSelect(columns, table string, q corelog.Query, placeholder func(n int) string, ts func(time.Time) any) (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	b.WriteString("SELECT " + columns + " FROM ")
	b.WriteString(table)
	var where []string
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, cond+placeholder(len(args)))
	}
	if !q.Start.IsZero() {
		add("created_at >= ", ts(q.Start))
	}
	if !q.End.IsZero() {
		add("created_at <= ", ts(q.End))
	}
	if q.ModelVersion != "" {
		add("model_version = ", q.ModelVersion)
	}
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at")
	if q.Limit > 0 {
		args = append(args, q.Limit)
		b.WriteString(" LIMIT " + placeholder(len(args)))
	}
	return b.String(), args
}
