package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/deliveryeta/core/predictionlog"
	"github.com/kilianp07/deliveryeta/internal/testutil"
)

func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	manifest := testutil.WriteBundle(t, dir)
	logPath := filepath.Join(dir, "predictions.jsonl")
	yaml := fmt.Sprintf(`artifacts:
  manifest: %s
prediction_log:
  store:
    type: jsonl
    conf:
      path: %s
deliveries:
  store:
    type: sqlite
    conf:
      path: %s
`, manifest, logPath, filepath.Join(dir, "deliveries.db"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	return path, dir
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	predictInput, predictNoLog = "-", false
	logsFormat, logsStart, logsEnd, logsVersion, logsLimit = "json", "", "", "", 0
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestPredictThenExport(t *testing.T) {
	cfgFile, dir := writeConfig(t)
	req, err := json.Marshal(testutil.SampleRequest())
	require.NoError(t, err)
	input := filepath.Join(dir, "req.json")
	require.NoError(t, os.WriteFile(input, req, 0o600))

	out := execute(t, "predict", "--config", cfgFile, "--input", input)
	assert.Contains(t, out, `"predicted_delivery_time": 2.5`)

	csv := execute(t, "logs", "export", "--config", cfgFile, "--format", "csv")
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id,created_at,model_version,predicted_time"))

	stats := execute(t, "logs", "stats", "--config", cfgFile)
	var st predictionlog.Stats
	require.NoError(t, json.Unmarshal([]byte(stats), &st))
	assert.Equal(t, 1, st.Count)
	assert.Equal(t, 2.5, st.Mean)

	dst := filepath.Join(dir, "copy.db")
	out = execute(t, "logs", "copy", "--config", cfgFile, "--to", "sqlite", "--to-path", dst)
	assert.Contains(t, out, "copied 1 entries")
}

func TestSeed(t *testing.T) {
	cfgFile, _ := writeConfig(t)
	out := execute(t, "seed", "--config", cfgFile, "--count", "25", "--seed", "7")
	var res struct {
		Deliveries      int  `json:"deliveries"`
		ReferenceSeeded bool `json:"reference_seeded"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 25, res.Deliveries)
	assert.True(t, res.ReferenceSeeded)
}

func TestPredict_YAMLInput(t *testing.T) {
	cfgFile, dir := writeConfig(t)
	input := filepath.Join(dir, "req.yaml")
	require.NoError(t, os.WriteFile(input, []byte(`traffic_level: Low
delivery_person_id: 7
weather_description: clear sky
type_of_package: Documents
type_of_vehicle: Bike
delivery_person_age: 30
delivery_person_ratings: 4.5
po_latitude: 10
po_longitude: 20
delivery_location_latitude: 10.5
delivery_location_longitude: 20.5
temperature: 28
humidity: 60
precipitation: 0
distance: 12
`), 0o600))

	out := execute(t, "predict", "--config", cfgFile, "--input", input, "--no-log")
	assert.Contains(t, out, `"predicted_delivery_time": 7.5`)
}
