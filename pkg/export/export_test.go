package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/deliveryeta/core/predictionlog"
	"github.com/kilianp07/deliveryeta/internal/testutil"
)

func entries(t *testing.T) []predictionlog.Entry {
	t.Helper()
	e, err := predictionlog.NewEntry(testutil.SampleRequest(), 7.3861, "v1", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	return []predictionlog.Entry{e}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, entries(t)))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, CSVHeader, rows[0])

	row := map[string]string{}
	for i, h := range rows[0] {
		row[h] = rows[1][i]
	}
	assert.Equal(t, "2025-01-02T03:04:05Z", row["created_at"])
	assert.Equal(t, "7.3861", row["predicted_time"])
	assert.Equal(t, "v1", row["model_version"])
	assert.Equal(t, "7", row["delivery_person_id"])
	assert.Equal(t, testutil.SampleRequest().TypeOfVehicle, row["type_of_vehicle"])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, entries(t)))
	var out []predictionlog.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, 7.3861, out[0].PredictedTime)

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.JSONEq(t, "[]", buf.String())
}
