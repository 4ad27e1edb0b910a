// Package predictionlog exposes the prediction log over HTTP.
package predictionlog

import (
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/deliveryeta/api/internal/respond"
	corelog "github.com/kilianp07/deliveryeta/core/predictionlog"
)

const maxLimit = 10000

// NewLogHandler returns an HTTP handler exposing prediction logs via
// GET /api/predictions/logs. Requests must include an Authorization header
// with "Bearer <token>" when token is non-empty.
func NewLogHandler(store corelog.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if !respond.Authorized(r, token) {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		q, err := parseQuery(r)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		entries, err := store.Query(r.Context(), q)
		if err != nil {
			respond.Error(w, http.StatusInternalServerError, "query failed")
			return
		}
		if entries == nil {
			entries = []corelog.Entry{}
		}
		respond.JSON(w, http.StatusOK, entries)
	})
}

func parseQuery(r *http.Request) (corelog.Query, error) {
	v := r.URL.Query()
	q := corelog.Query{ModelVersion: v.Get("model_version"), Limit: 1000}
	if s := v.Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, err
		}
		q.Start = t
	}
	if s := v.Get("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, err
		}
		q.End = t
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return q, strconv.ErrSyntax
		}
		q.Limit = min(n, maxLimit)
	}
	return q, nil
}
