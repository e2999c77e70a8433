package adapter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
	m "lcevc.dev/pkg/conformance/internal/model"
)

// ErrInvalidManifest marks batch input files that are missing or malformed.
var ErrInvalidManifest = errors.New("invalid manifest")

// BatchFiles names the batch-level input files.
type BatchFiles struct {
	Tests  m.Path
	Codecs m.Path
	Inputs m.Path
	Bases  m.Path
}

// ManifestStore loads the declarative batch description from disk.
type ManifestStore interface {
	LoadBatch(ctx context.Context, files BatchFiles) (m.Batch, error)
	LoadTests(ctx context.Context, path m.Path) ([]m.TestDefinition, error)
	LoadCodecs(ctx context.Context, path m.Path) ([]m.CodecSpec, error)
	LoadSequenceTable(ctx context.Context, path m.Path) (m.SequenceTable, error)
	LoadParameters(ctx context.Context, path m.Path) (m.ParameterSet, error)
}

type manifestStore struct{}

// NewManifestStore returns a ManifestStore reading JSON, YAML and CSV files.
func NewManifestStore() ManifestStore {
	return &manifestStore{}
}

// csvColumns are consumed by the test definition itself; every other column is a parameter.
var csvColumns = map[string]bool{
	"name": true, "version": true, "description": true, "input": true, "base": true,
	"sets": true, "limit": true, "generate_base": true, "include-parameters": true,
	"checksum": true,
}

func (s *manifestStore) LoadBatch(ctx context.Context, files BatchFiles) (m.Batch, error) {
	tests, err := s.LoadTests(ctx, files.Tests)
	if err != nil {
		return m.Batch{}, err
	}

	codecs, err := s.LoadCodecs(ctx, files.Codecs)
	if err != nil {
		return m.Batch{}, err
	}

	inputs, err := s.LoadSequenceTable(ctx, files.Inputs)
	if err != nil {
		return m.Batch{}, err
	}

	bases, err := s.LoadSequenceTable(ctx, files.Bases)
	if err != nil {
		return m.Batch{}, err
	}

	return m.Batch{Tests: tests, Codecs: codecs, Inputs: inputs, Bases: bases}, nil
}

func (s *manifestStore) LoadTests(ctx context.Context, path m.Path) ([]m.TestDefinition, error) {
	data, err := s.read(ctx, path)
	if err != nil {
		return nil, err
	}

	var tests []m.TestDefinition

	switch manifestKind(path) {
	case kindCSV:
		tests, err = decodeCSVTests(data)
	case kindYAML:
		tests, err = decodeYAMLTests(data)
	default:
		err = json.Unmarshal(data, &tests)
		if err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) && typeErr.Field == "" {
				err = errors.New("top level of tests must be an array")
			}
		}
	}

	if err != nil {
		slog.Error("Failed to decode tests", "path", path, "error", err)
		return nil, fmt.Errorf("%w: tests %s: %v", ErrInvalidManifest, path, err)
	}

	for i, test := range tests {
		if test.Name == "" || test.Input == "" || test.Base == "" {
			return nil, fmt.Errorf("%w: tests %s: entry %d needs name, input and base", ErrInvalidManifest, path, i)
		}
	}

	slog.Debug("Loaded tests", "path", path, "count", len(tests))

	return tests, nil
}

// LoadCodecs keeps the key order of the codec object since it fixes job numbering.
func (s *manifestStore) LoadCodecs(ctx context.Context, path m.Path) ([]m.CodecSpec, error) {
	data, err := s.read(ctx, path)
	if err != nil {
		return nil, err
	}

	var codecs []m.CodecSpec

	if manifestKind(path) == kindYAML {
		codecs, err = decodeYAMLCodecs(data)
	} else {
		codecs, err = decodeJSONCodecs(data)
	}

	if err != nil {
		slog.Error("Failed to decode codecs", "path", path, "error", err)
		return nil, fmt.Errorf("%w: codecs %s: %v", ErrInvalidManifest, path, err)
	}

	return codecs, nil
}

func (s *manifestStore) LoadSequenceTable(ctx context.Context, path m.Path) (m.SequenceTable, error) {
	data, err := s.read(ctx, path)
	if err != nil {
		return nil, err
	}

	table := m.SequenceTable{}

	if manifestKind(path) == kindYAML {
		err = yaml.Unmarshal(data, &table)
	} else {
		err = json.Unmarshal(data, &table)
	}

	if err != nil {
		slog.Error("Failed to decode sequence table", "path", path, "error", err)
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidManifest, path, err)
	}

	return table, nil
}

// LoadParameters reads an include-parameters file, which must be a JSON object.
func (s *manifestStore) LoadParameters(ctx context.Context, path m.Path) (m.ParameterSet, error) {
	data, err := s.read(ctx, path)
	if err != nil {
		return nil, err
	}

	var params m.ParameterSet
	if err := json.Unmarshal(data, &params); err != nil {
		slog.Error("Failed to decode parameter file", "path", path, "error", err)
		return nil, fmt.Errorf("%w: parameters %s: %v", ErrInvalidManifest, path, err)
	}

	return params, nil
}

func (s *manifestStore) read(ctx context.Context, path m.Path) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// #nosec G304 - manifest paths are supplied by the operator
	data, err := os.ReadFile(string(path))
	if err != nil {
		slog.Error("Failed to read manifest", "path", path, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	return data, nil
}

type kind int

const (
	kindJSON kind = iota
	kindYAML
	kindCSV
)

func manifestKind(path m.Path) kind {
	switch strings.ToLower(filepath.Ext(string(path))) {
	case ".yaml", ".yml":
		return kindYAML
	case ".csv":
		return kindCSV
	default:
		return kindJSON
	}
}

func decodeYAMLTests(data []byte) ([]m.TestDefinition, error) {
	var tests []m.TestDefinition
	if err := yaml.Unmarshal(data, &tests); err != nil {
		return nil, err
	}

	for i := range tests {
		params, err := m.NewParameterSet(tests[i].Parameters)
		if err != nil {
			return nil, fmt.Errorf("test %q: %w", tests[i].Name, err)
		}

		tests[i].Parameters = params
	}

	return tests, nil
}

func decodeCSVTests(data []byte) ([]m.TestDefinition, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var tests []m.TestDefinition

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}

		test, err := csvTest(header, record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", len(tests)+2, err)
		}

		tests = append(tests, test)
	}

	return tests, nil
}

func csvTest(header, record []string) (m.TestDefinition, error) {
	test := m.TestDefinition{Parameters: m.ParameterSet{}}

	for i, column := range header {
		if i >= len(record) || record[i] == "" {
			continue
		}

		value := record[i]

		if !csvColumns[column] {
			test.Parameters[column] = csvValue(value)
			continue
		}

		switch column {
		case "name":
			test.Name = value
		case "description":
			test.Description = value
		case "input":
			test.Input = value
		case "base":
			test.Base = value
		case "include-parameters":
			test.IncludeParameters = value
		case "checksum":
			test.ExpectedMD5 = strings.ToLower(value)
		case "sets":
			test.Sets = strings.Split(value, ";")
		case "version":
			version, err := strconv.Atoi(value)
			if err != nil {
				return test, fmt.Errorf("version %q: %w", value, err)
			}

			test.Version = version
		case "limit":
			limit, err := strconv.Atoi(value)
			if err != nil {
				return test, fmt.Errorf("limit %q: %w", value, err)
			}

			test.Limit = &limit
		case "generate_base":
			generate, err := strconv.ParseBool(value)
			if err != nil {
				return test, fmt.Errorf("generate_base %q: %w", value, err)
			}

			test.GenerateBase = generate
		}
	}

	return test, nil
}

// csvValue keeps numeric cells numeric so the written config matches a JSON matrix.
func csvValue(value string) any {
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		normalized, _ := m.NormalizeValue(f)
		return normalized
	}

	return value
}

type codecFields struct {
	Width     int      `json:"width" yaml:"width"`
	Height    int      `json:"height" yaml:"height"`
	Sequences []string `json:"sequences" yaml:"sequences"`
}

func decodeJSONCodecs(data []byte) ([]m.CodecSpec, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))

	tok, err := decoder.Token()
	if err != nil {
		return nil, err
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("top level of codecs must be an object")
	}

	var codecs []m.CodecSpec

	for decoder.More() {
		keyTok, err := decoder.Token()
		if err != nil {
			return nil, err
		}

		name, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key %v", keyTok)
		}

		var fields codecFields
		if err := decoder.Decode(&fields); err != nil {
			return nil, fmt.Errorf("codec %q: %w", name, err)
		}

		codecs = append(codecs, codecSpec(name, fields))
	}

	if _, err := decoder.Token(); err != nil {
		return nil, err
	}

	return codecs, nil
}

func decodeYAMLCodecs(data []byte) ([]m.CodecSpec, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("top level of codecs must be a mapping")
	}

	mapping := doc.Content[0]
	codecs := make([]m.CodecSpec, 0, len(mapping.Content)/2)

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		name := mapping.Content[i].Value

		var fields codecFields
		if err := mapping.Content[i+1].Decode(&fields); err != nil {
			return nil, fmt.Errorf("codec %q: %w", name, err)
		}

		codecs = append(codecs, codecSpec(name, fields))
	}

	return codecs, nil
}

func codecSpec(name string, fields codecFields) m.CodecSpec {
	return m.CodecSpec{
		Name:      name,
		Width:     fields.Width,
		Height:    fields.Height,
		Sequences: fields.Sequences,
	}
}
