//go:build integration

package predictionlog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corelog "github.com/kilianp07/deliveryeta/core/predictionlog"
	"github.com/kilianp07/deliveryeta/internal/testutil"
)

func TestPostgresStore_AppendQuery(t *testing.T) {
	ctx := context.Background()
	dsn, cleanup, err := testutil.StartPostgres(ctx)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	defer cleanup()

	s, err := NewPostgresStore(ctx, dsn)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	var want []corelog.Entry
	for i := 0; i < 3; i++ {
		e, err := corelog.NewEntry(testutil.SampleRequest(), 7.3861+float64(i), "v1", base.Add(time.Duration(2-i)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, s.Append(ctx, e))
		want = append(want, e)
	}

	got, err := s.Query(ctx, corelog.Query{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, want[2].ID, got[0].ID)
	assert.Equal(t, 7.3861, got[2].PredictedTime)

	req, err := got[0].Request()
	require.NoError(t, err)
	assert.Equal(t, testutil.SampleRequest(), req)

	got, err = s.Query(ctx, corelog.Query{Start: base.Add(time.Minute), Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want[1].ID, got[0].ID)

	more := []corelog.Entry{}
	for i := 0; i < 4; i++ {
		e, err := corelog.NewEntry(testutil.SampleRequest(), 1, "v2", base.Add(time.Hour))
		require.NoError(t, err)
		more = append(more, e)
	}
	require.NoError(t, s.AppendBatch(ctx, more))
	got, err = s.Query(ctx, corelog.Query{ModelVersion: "v2"})
	require.NoError(t, err)
	assert.Len(t, got, 4)
}
