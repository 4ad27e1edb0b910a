package predictionlog

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/deliveryeta/core/model"
)

func sampleRequest() model.PredictionRequest {
	return model.PredictionRequest{
		TrafficLevel:              "Low",
		DeliveryPersonID:          3,
		WeatherDescription:        "clear sky",
		TypeOfPackage:             "Documents",
		TypeOfVehicle:             "Bike",
		DeliveryPersonAge:         30,
		DeliveryPersonRatings:     4.5,
		POLatitude:                10,
		POLongitude:               20,
		DeliveryLocationLatitude:  10.5,
		DeliveryLocationLongitude: 20.5,
		Temperature:               28,
		Humidity:                  60,
		Precipitation:             0,
		Distance:                  5,
	}
}

func entryAt(t *testing.T, ts time.Time, predicted float64, version string) Entry {
	t.Helper()
	e, err := NewEntry(sampleRequest(), predicted, version, ts)
	require.NoError(t, err)
	return e
}

func TestNewEntry_Snapshot(t *testing.T) {
	e := entryAt(t, time.Unix(100, 0), 7.3861, "v1")
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, 7.3861, e.PredictedTime)
	req, err := e.Request()
	require.NoError(t, err)
	assert.Equal(t, sampleRequest(), req)

	data, err := json.Marshal(e)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, k := range []string{"id", "raw_request_snapshot", "predicted_time", "model_version", "created_at"} {
		_, ok := m[k]
		assert.True(t, ok, "missing key %s", k)
	}
	snap, ok := m["raw_request_snapshot"].(map[string]any)
	require.True(t, ok, "snapshot must be embedded as an object")
	assert.Equal(t, "Bike", snap["type_of_vehicle"])
}

func TestQuery_Match(t *testing.T) {
	now := time.Now()
	e := entryAt(t, now, 1, "v1")
	assert.True(t, Query{}.Match(e))
	assert.True(t, Query{Start: now.Add(-time.Minute), End: now.Add(time.Minute)}.Match(e))
	assert.False(t, Query{Start: now.Add(time.Minute)}.Match(e))
	assert.False(t, Query{End: now.Add(-time.Minute)}.Match(e))
	assert.False(t, Query{ModelVersion: "v2"}.Match(e))
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	jsonl, err := NewJSONLStore(filepath.Join(dir, "log.jsonl"))
	require.NoError(t, err)
	rotating, err := NewRotatingJSONLStore(filepath.Join(dir, "rot", "log.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	sqlite, err := NewSQLiteStore(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	return map[string]Store{
		"memory":   NewMemoryStore(),
		"jsonl":    jsonl,
		"rotating": rotating,
		"sqlite":   sqlite,
	}
}

func TestStores_AppendQuery(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			defer func() { _ = store.Close() }()
			ctx := context.Background()
			// appended out of order; created_at is authoritative
			require.NoError(t, store.Append(ctx, entryAt(t, base.Add(2*time.Minute), 3.3, "v2")))
			require.NoError(t, store.Append(ctx, entryAt(t, base, 1.1, "v1")))
			require.NoError(t, store.Append(ctx, entryAt(t, base.Add(time.Minute), 2.2, "v1")))

			all, err := store.Query(ctx, Query{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, []float64{1.1, 2.2, 3.3}, []float64{all[0].PredictedTime, all[1].PredictedTime, all[2].PredictedTime})
			assert.True(t, all[0].CreatedAt.Equal(base))

			req, err := all[0].Request()
			require.NoError(t, err)
			assert.Equal(t, sampleRequest(), req)

			v1, err := store.Query(ctx, Query{ModelVersion: "v1"})
			require.NoError(t, err)
			assert.Len(t, v1, 2)

			window, err := store.Query(ctx, Query{Start: base.Add(30 * time.Second), End: base.Add(90 * time.Second)})
			require.NoError(t, err)
			require.Len(t, window, 1)
			assert.Equal(t, 2.2, window[0].PredictedTime)

			limited, err := store.Query(ctx, Query{Limit: 2})
			require.NoError(t, err)
			assert.Len(t, limited, 2)
		})
	}
}

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 3, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	e := entryAt(t, time.Now(), 1, "v1")
	// ~1.2MB of entries forces at least one rotation at 1MB
	for i := 0; i < 4000; i++ {
		require.NoError(t, store.Append(context.Background(), e))
	}
	files, _ := filepath.Glob(filepath.Join(dir, "log*.jsonl"))
	assert.GreaterOrEqual(t, len(files), 2, "expected rotated files")
	out, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, out, 4000)
}
