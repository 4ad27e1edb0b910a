package encoding

import (
	"errors"
	"fmt"
	"sort"
)

// Categorical feature names. The same lowercase names are used in requests,
// encoder artifacts and log snapshots.
const (
	TrafficLevel       = "traffic_level"
	WeatherDescription = "weather_description"
	TypeOfPackage      = "type_of_package"
	TypeOfVehicle      = "type_of_vehicle"
)

// Features lists the categorical features every encoder set must cover.
var Features = []string{TrafficLevel, WeatherDescription, TypeOfPackage, TypeOfVehicle}

// ErrUnknownFeature is returned when a feature has no encoder.
var ErrUnknownFeature = errors.New("unknown categorical feature")

// ErrNoEncoders is returned by a nil *Set.
var ErrNoEncoders = errors.New("no encoder set loaded")

// UnknownCategoryError reports a label outside the trained vocabulary.
type UnknownCategoryError struct {
	Feature string
	Label   string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q for feature %s", e.Label, e.Feature)
}

// Encoder is a closed vocabulary mapping labels to dense codes 0..k-1.
type Encoder struct {
	codes  map[string]int
	labels []string
}

// NewEncoder builds an encoder where each label's code is its index.
func NewEncoder(labels []string) (*Encoder, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("empty vocabulary")
	}
	codes := make(map[string]int, len(labels))
	for i, l := range labels {
		if _, dup := codes[l]; dup {
			return nil, fmt.Errorf("duplicate label %q", l)
		}
		codes[l] = i
	}
	cp := make([]string, len(labels))
	copy(cp, labels)
	return &Encoder{codes: codes, labels: cp}, nil
}

// Encode returns the code for label. Matching is exact and case-sensitive.
func (e *Encoder) Encode(label string) (int, bool) {
	c, ok := e.codes[label]
	return c, ok
}

// Decode returns the label for code.
func (e *Encoder) Decode(code int) (string, bool) {
	if code < 0 || code >= len(e.labels) {
		return "", false
	}
	return e.labels[code], true
}

// Len returns the vocabulary size.
func (e *Encoder) Len() int { return len(e.labels) }

// Labels returns a copy of the vocabulary ordered by code.
func (e *Encoder) Labels() []string {
	cp := make([]string, len(e.labels))
	copy(cp, e.labels)
	return cp
}

// Set holds one encoder per categorical feature. It is immutable after
// construction and safe for concurrent use without locking.
type Set struct {
	version  string
	encoders map[string]*Encoder
}

// NewSet builds a Set from per-feature vocabularies. All features in Features
// must be present and no other feature is accepted.
func NewSet(version string, vocab map[string][]string) (*Set, error) {
	encoders := make(map[string]*Encoder, len(vocab))
	for _, f := range Features {
		labels, ok := vocab[f]
		if !ok {
			return nil, fmt.Errorf("encoder for %s missing", f)
		}
		enc, err := NewEncoder(labels)
		if err != nil {
			return nil, fmt.Errorf("encoder %s: %w", f, err)
		}
		encoders[f] = enc
	}
	if len(vocab) != len(Features) {
		var extra []string
		for f := range vocab {
			if _, ok := encoders[f]; !ok {
				extra = append(extra, f)
			}
		}
		sort.Strings(extra)
		return nil, fmt.Errorf("%w: %v", ErrUnknownFeature, extra)
	}
	return &Set{version: version, encoders: encoders}, nil
}

// Version returns the artifact version the set was loaded from.
func (s *Set) Version() string {
	if s == nil {
		return ""
	}
	return s.version
}

// Encode maps label to its trained code for feature.
func (s *Set) Encode(feature, label string) (int, error) {
	if s == nil {
		return 0, ErrNoEncoders
	}
	enc, ok := s.encoders[feature]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownFeature, feature)
	}
	code, ok := enc.Encode(label)
	if !ok {
		return 0, &UnknownCategoryError{Feature: feature, Label: label}
	}
	return code, nil
}

// Decode maps a code back to its label.
func (s *Set) Decode(feature string, code int) (string, error) {
	if s == nil {
		return "", ErrNoEncoders
	}
	enc, ok := s.encoders[feature]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFeature, feature)
	}
	label, ok := enc.Decode(code)
	if !ok {
		return "", fmt.Errorf("code %d out of range for %s", code, feature)
	}
	return label, nil
}

// Vocabulary returns the labels known for feature, ordered by code.
func (s *Set) Vocabulary(feature string) []string {
	if s == nil {
		return nil
	}
	enc, ok := s.encoders[feature]
	if !ok {
		return nil
	}
	return enc.Labels()
}
