package encoding

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// artifact is the on-disk form of an encoder set. Each vocabulary lists the
// fitted classes in code order.
type artifact struct {
	Version  string              `json:"version"`
	Encoders map[string][]string `json:"encoders"`
}

// Load reads an encoder set artifact from path.
func Load(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open encoders: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse decodes an encoder set artifact.
func Parse(r io.Reader) (*Set, error) {
	var a artifact
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("decode encoders: %w", err)
	}
	return NewSet(a.Version, a.Encoders)
}

// WriteArtifact serialises vocabularies in the artifact format.
func WriteArtifact(w io.Writer, version string, vocab map[string][]string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(artifact{Version: version, Encoders: vocab})
}
