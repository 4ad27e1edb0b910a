package testutil

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/kilianp07/deliveryeta/core/encoding"
	"github.com/kilianp07/deliveryeta/core/features"
	"github.com/kilianp07/deliveryeta/infra/estimator/forest"
)

// WriteBundle writes a forest model, encoders and manifest for ArtifactVersion
// into dir and returns the manifest path. The single tree predicts 2.5 for
// distances up to 10 and 7.5 beyond.
func WriteBundle(t testing.TB, dir string) string {
	t.Helper()
	var enc bytes.Buffer
	if err := encoding.WriteArtifact(&enc, ArtifactVersion, Vocabulary()); err != nil {
		t.Fatalf("write encoders: %v", err)
	}
	var model bytes.Buffer
	err := forest.Write(&model, forest.Model{
		Version:   ArtifactVersion,
		NFeatures: features.Size,
		Trees: []forest.Tree{{
			ChildrenLeft:  []int{1, -1, -1},
			ChildrenRight: []int{2, -1, -1},
			Feature:       []int{10, -2, -2}, // distance
			Threshold:     []float64{10, -2, -2},
			Value:         []float64{0, 2.5, 7.5},
		}},
	})
	if err != nil {
		t.Fatalf("write model: %v", err)
	}
	manifest, _ := json.Marshal(map[string]string{
		"version":  ArtifactVersion,
		"model":    "model.json",
		"encoders": "encoders.json",
		"format":   "forest",
	})
	files := map[string][]byte{
		"encoders.json": enc.Bytes(),
		"model.json":    model.Bytes(),
		"manifest.json": manifest,
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return filepath.Join(dir, "manifest.json")
}
