package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/kilianp07/deliveryeta/core/encoding"
	"github.com/kilianp07/deliveryeta/core/prediction"
	"github.com/kilianp07/deliveryeta/core/service"
	"github.com/kilianp07/deliveryeta/infra/estimator/forest"
	"github.com/kilianp07/deliveryeta/infra/estimator/onnx"
)

// Model formats understood by Load.
const (
	FormatForest = "forest"
	FormatONNX   = "onnx"
)

// Manifest ties a model artifact to the encoder artifact it was trained with.
// Model and Encoders are URIs; relative ones resolve against the manifest.
type Manifest struct {
	Version  string `json:"version"`
	Model    string `json:"model"`
	Encoders string `json:"encoders"`
	Format   string `json:"format"`
}

// Validate checks required fields.
func (m Manifest) Validate() error {
	if m.Version == "" {
		return errors.New("manifest: version is required")
	}
	if m.Model == "" || m.Encoders == "" {
		return errors.New("manifest: model and encoders are required")
	}
	switch m.Format {
	case FormatForest, FormatONNX:
	default:
		return fmt.Errorf("manifest: unknown model format %q", m.Format)
	}
	return nil
}

// ReadManifest decodes a manifest document.
func ReadManifest(r io.Reader) (Manifest, error) {
	var m Manifest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return m, fmt.Errorf("decode manifest: %w", err)
	}
	if m.Format == "" {
		m.Format = FormatForest
	}
	return m, m.Validate()
}

// LoadOptions tune how the estimator is built.
type LoadOptions struct {
	// ONNXLibrary is the path of the ONNX Runtime shared library.
	ONNXLibrary string
	ONNXThreads int
}

// Loaded is the result of Load. Close releases estimator resources.
type Loaded struct {
	Manifest  Manifest
	Artifacts service.Artifacts
	closer    io.Closer
}

// Close releases the estimator session, if any.
func (l *Loaded) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Load fetches the manifest at manifestURI and the artifacts it names, and
// checks that their versions agree.
func Load(ctx context.Context, f *Fetcher, manifestURI string, opts LoadOptions) (*Loaded, error) {
	mp, err := f.Fetch(ctx, manifestURI)
	if err != nil {
		return nil, err
	}
	mf, err := os.Open(mp)
	if err != nil {
		return nil, err
	}
	m, err := ReadManifest(mf)
	_ = mf.Close()
	if err != nil {
		return nil, err
	}

	encURI, err := resolve(manifestURI, m.Encoders)
	if err != nil {
		return nil, err
	}
	modelURI, err := resolve(manifestURI, m.Model)
	if err != nil {
		return nil, err
	}

	encPath, err := f.Fetch(ctx, encURI)
	if err != nil {
		return nil, err
	}
	enc, err := encoding.Load(encPath)
	if err != nil {
		return nil, err
	}
	if v := enc.Version(); v != "" && v != m.Version {
		return nil, fmt.Errorf("encoder artifact version %q does not match manifest version %q", v, m.Version)
	}

	modelPath, err := f.Fetch(ctx, modelURI)
	if err != nil {
		return nil, err
	}
	var (
		est    prediction.TimeEstimator
		closer io.Closer
	)
	switch m.Format {
	case FormatForest:
		fe, err := forest.Load(modelPath)
		if err != nil {
			return nil, err
		}
		if v := fe.Version(); v != "" && v != m.Version {
			return nil, fmt.Errorf("model artifact version %q does not match manifest version %q", v, m.Version)
		}
		est = fe
	case FormatONNX:
		oe, err := onnx.New(onnx.Config{ModelPath: modelPath, LibraryPath: opts.ONNXLibrary, Threads: opts.ONNXThreads})
		if err != nil {
			return nil, err
		}
		est, closer = oe, oe
	}

	return &Loaded{
		Manifest:  m,
		Artifacts: service.Artifacts{Version: m.Version, Encoders: enc, Estimator: est},
		closer:    closer,
	}, nil
}

// resolve interprets ref relative to the manifest location.
func resolve(base, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse artifact uri %q: %w", ref, err)
	}
	if r.Scheme != "" || filepath.IsAbs(ref) {
		return ref, nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch b.Scheme {
	case "":
		return filepath.Join(filepath.Dir(base), ref), nil
	case "file":
		b.Path = path.Join(path.Dir(b.Path), ref)
		return b.String(), nil
	default:
		return b.ResolveReference(r).String(), nil
	}
}
