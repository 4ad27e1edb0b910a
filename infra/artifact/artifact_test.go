package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/deliveryeta/core/encoding"
	"github.com/kilianp07/deliveryeta/core/features"
	"github.com/kilianp07/deliveryeta/infra/estimator/forest"
	"github.com/kilianp07/deliveryeta/internal/testutil"
)

func forestModel(version string) forest.Model {
	return forest.Model{
		Version:   version,
		NFeatures: features.Size,
		Trees: []forest.Tree{{
			ChildrenLeft:  []int{1, -1, -1},
			ChildrenRight: []int{2, -1, -1},
			Feature:       []int{10, -2, -2},
			Threshold:     []float64{10, -2, -2},
			Value:         []float64{0, 2.5, 7.5},
		}},
	}
}

func writeBundle(t *testing.T, dir, manifestVersion, encVersion, modelVersion string) string {
	t.Helper()
	var enc bytes.Buffer
	require.NoError(t, encoding.WriteArtifact(&enc, encVersion, testutil.Vocabulary()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "encoders.json"), enc.Bytes(), 0o644))

	var model bytes.Buffer
	require.NoError(t, forest.Write(&model, forestModel(modelVersion)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.json"), model.Bytes(), 0o644))

	m, err := json.Marshal(Manifest{Version: manifestVersion, Model: "model.json", Encoders: "encoders.json", Format: FormatForest})
	require.NoError(t, err)
	p := filepath.Join(dir, "manifest.json")
	require.NoError(t, os.WriteFile(p, m, 0o644))
	return p
}

func TestLoad_LocalBundle(t *testing.T) {
	p := writeBundle(t, t.TempDir(), "v3", "v3", "v3")
	l, err := Load(context.Background(), NewFetcher(""), p, LoadOptions{})
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	assert.Equal(t, "v3", l.Artifacts.Version)
	require.NoError(t, l.Artifacts.Validate())
	v, err := features.Build(testutil.SampleRequest(), l.Artifacts.Encoders)
	require.NoError(t, err)
	got, err := l.Artifacts.Estimator.Predict(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, 2.5, got)
}

func TestLoad_VersionMismatch(t *testing.T) {
	p := writeBundle(t, t.TempDir(), "v3", "v2", "v3")
	_, err := Load(context.Background(), NewFetcher(""), p, LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoder artifact version")

	p = writeBundle(t, t.TempDir(), "v3", "v3", "v1")
	_, err = Load(context.Background(), NewFetcher(""), p, LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model artifact version")
}

func TestLoad_HTTPBundleIsCached(t *testing.T) {
	src := t.TempDir()
	writeBundle(t, src, "v5", "v5", "v5")
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.ServeFile(w, r, filepath.Join(src, filepath.Base(r.URL.Path)))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	_, err := Load(context.Background(), f, srv.URL+"/bundle/manifest.json", LoadOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, hits.Load())

	_, err = Load(context.Background(), f, srv.URL+"/bundle/manifest.json", LoadOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, hits.Load(), "second load must use the cache")
}

func TestFetch_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	_, err := NewFetcher(t.TempDir()).Fetch(context.Background(), srv.URL+"/missing.json")
	assert.Error(t, err)
}

type fakeS3 struct {
	objects map[string]string
	calls   int
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.calls++
	body, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestFetch_S3(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{"models/eta/v1/model.json": `{"a":1}`}}
	cache := t.TempDir()
	f := NewFetcher(cache, WithS3Client(fake))

	p, err := f.Fetch(context.Background(), "s3://models/eta/v1/model.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cache, "s3", "models", "eta", "v1", "model.json"), p)
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	_, err = f.Fetch(context.Background(), "s3://models/eta/v1/model.json")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.calls)

	_, err = f.Fetch(context.Background(), "s3://models/eta/v1/missing.json")
	assert.Error(t, err)
}

func TestFetch_UnsupportedScheme(t *testing.T) {
	_, err := NewFetcher(t.TempDir()).Fetch(context.Background(), "gs://bucket/model.json")
	assert.Error(t, err)
}

func TestReadManifest_Validation(t *testing.T) {
	_, err := ReadManifest(strings.NewReader(`{"version":"v1","model":"m","encoders":"e","format":"xgboost"}`))
	assert.Error(t, err)
	_, err = ReadManifest(strings.NewReader(`{"model":"m","encoders":"e"}`))
	assert.Error(t, err)
	m, err := ReadManifest(strings.NewReader(`{"version":"v1","model":"m","encoders":"e"}`))
	require.NoError(t, err)
	assert.Equal(t, FormatForest, m.Format)
}

func TestResolve(t *testing.T) {
	cases := []struct{ base, ref, want string }{
		{"/srv/art/manifest.json", "model.json", "/srv/art/model.json"},
		{"file:///srv/art/manifest.json", "model.json", "file:///srv/art/model.json"},
		{"s3://bucket/v1/manifest.json", "model.json", "s3://bucket/v1/model.json"},
		{"https://h/x/manifest.json", "enc.json", "https://h/x/enc.json"},
		{"/srv/art/manifest.json", "s3://b/k.json", "s3://b/k.json"},
	}
	for _, c := range cases {
		got, err := resolve(c.base, c.ref)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}
