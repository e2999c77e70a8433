package model

import "fmt"

// TestDefinition is one entry of the declarative test matrix.
//
// Checksum, BaseRecon and Sequence are filled in by the job that ran the test.
type TestDefinition struct {
	Name              string       `json:"name" yaml:"name"`
	Version           int          `json:"version" yaml:"version"`
	Description       string       `json:"description" yaml:"description"`
	Parameters        ParameterSet `json:"parameters,omitempty" yaml:"parameters"`
	Sets              []string     `json:"sets,omitempty" yaml:"sets"`
	IncludeParameters string       `json:"include-parameters,omitempty" yaml:"include-parameters"`
	Limit             *int         `json:"limit,omitempty" yaml:"limit"`
	GenerateBase      bool         `json:"generate_base,omitempty" yaml:"generate_base"`
	Input             string       `json:"input" yaml:"input"`
	Base              string       `json:"base" yaml:"base"`
	// ExpectedMD5 is the MD5 the encoder reconstruction must have, if known.
	ExpectedMD5 string `json:"expected_md5,omitempty" yaml:"expected_md5"`

	Checksum  string `json:"checksum,omitempty" yaml:"-"`
	BaseRecon string `json:"base_recon,omitempty" yaml:"-"`
	Sequence  string `json:"sequence,omitempty" yaml:"-"`
}

// Category is the per-test directory and output suffix, e.g. "tool_v-nova_v03".
func (t TestDefinition) Category() string {
	return fmt.Sprintf("%s_v-nova_v%02d", t.Name, t.Version)
}

// OutputName is the canonical artifact prefix for the test run against sequence.
func (t TestDefinition) OutputName(sequence string) string {
	return sequence + "_" + t.Category()
}

// InSet reports whether the test declares membership of set.
func (t TestDefinition) InSet(set string) bool {
	for _, s := range t.Sets {
		if s == set {
			return true
		}
	}

	return false
}

// Clone returns a copy that can be mutated without touching the original.
func (t TestDefinition) Clone() TestDefinition {
	out := t
	out.Parameters = t.Parameters.Clone()
	out.Sets = append([]string(nil), t.Sets...)

	if t.Limit != nil {
		limit := *t.Limit
		out.Limit = &limit
	}

	return out
}

// CodecSpec describes one base codec entry of the codec capability file.
type CodecSpec struct {
	Name      string   `json:"name"`
	Width     int      `json:"width"`
	Height    int      `json:"height"`
	Sequences []string `json:"sequences"`
}

// SequenceTable maps a logical type to per-sequence filename stems.
type SequenceTable map[string]map[string]string

// Lookup returns the filename stem for the logical type and sequence.
func (s SequenceTable) Lookup(logicalType, sequence string) (string, bool) {
	bySequence, ok := s[logicalType]
	if !ok {
		return "", false
	}

	name, ok := bySequence[sequence]

	return name, ok
}

// Batch is everything loaded from the batch-level input files.
type Batch struct {
	Tests  []TestDefinition
	Codecs []CodecSpec
	Inputs SequenceTable
	Bases  SequenceTable
}
