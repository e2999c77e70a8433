package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-multierror"
	"lcevc.dev/pkg/conformance/internal/adapter"
	m "lcevc.dev/pkg/conformance/internal/model"
)

var bitDepthPattern = regexp.MustCompile(`([0-9]+)bit`)

const (
	inputSuffix = ".yuv"
	baseSuffix  = ".bit"
	reconSuffix = ".yuv"
	lumaMarker  = "luma"
)

// BuildArgs are the batch-wide settings copied into every job.
type BuildArgs struct {
	Tools      m.Executables
	InputDir   m.Path
	BaseDir    m.Path
	WorkDir    m.Path
	Sets       []string
	Display    m.DisplayMode
	DecodeOnly bool
	Manifest   m.ManifestInfo
}

// JobBuilder expands a batch into its ordered list of jobs.
type JobBuilder interface {
	Build(batch m.Batch, args BuildArgs) ([]m.JobDescriptor, error)
}

type jobBuilder struct {
	fs adapter.WorkspaceFSAdapter
}

// NewJobBuilder constructs a JobBuilder.
func NewJobBuilder(fs adapter.WorkspaceFSAdapter) JobBuilder {
	return &jobBuilder{fs: fs}
}

// ParseSets splits a comma separated set filter. Empty names are dropped.
func ParseSets(value string) []string {
	var sets []string

	for _, set := range strings.Split(value, ",") {
		if set = strings.TrimSpace(set); set != "" {
			sets = append(sets, set)
		}
	}

	return sets
}

// Build iterates codecs, then their sequences, then tests, and numbers the
// selected combinations densely from zero. Every configuration error found
// is reported, not only the first.
func (b *jobBuilder) Build(batch m.Batch, args BuildArgs) ([]m.JobDescriptor, error) {
	tools, err := b.absoluteTools(args.Tools)
	if err != nil {
		return nil, err
	}

	var (
		jobs   []m.JobDescriptor
		result *multierror.Error
	)

	for _, codec := range batch.Codecs {
		for _, sequence := range codec.Sequences {
			for _, test := range batch.Tests {
				if !selected(test, codec.Name, args.Sets) {
					continue
				}

				defaults, err := jobDefaults(batch, codec, sequence, test)
				if err != nil {
					result = multierror.Append(result, err)
					continue
				}

				jobs = append(jobs, m.JobDescriptor{
					Number:     len(jobs),
					Codec:      codec.Name,
					Sequence:   sequence,
					Test:       test.Clone(),
					Tools:      tools,
					InputDir:   args.InputDir,
					BaseDir:    args.BaseDir,
					WorkDir:    args.WorkDir,
					Defaults:   defaults,
					Display:    args.Display,
					DecodeOnly: args.DecodeOnly,
					Manifest:   args.Manifest,
				})
			}
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	return jobs, nil
}

func selected(test m.TestDefinition, codec string, filters []string) bool {
	if len(filters) > 0 {
		matched := false

		for _, set := range filters {
			if test.InSet(set) {
				matched = true
				break
			}
		}

		if !matched {
			return false
		}
	}

	return test.InSet(codec)
}

func jobDefaults(batch m.Batch, codec m.CodecSpec, sequence string, test m.TestDefinition) (m.ParameterSet, error) {
	input, ok := batch.Inputs.Lookup(test.Input, sequence)
	if !ok {
		return nil, fmt.Errorf("%w: no %q input for sequence %q (test %s)", adapter.ErrInvalidManifest, test.Input, sequence, test.Name)
	}

	base, ok := batch.Bases.Lookup(test.Base, sequence)
	if !ok {
		return nil, fmt.Errorf("%w: no %q base for sequence %q (test %s)", adapter.ErrInvalidManifest, test.Base, sequence, test.Name)
	}

	inputFile := input + inputSuffix

	depth := bitDepthPattern.FindStringSubmatch(inputFile)
	if depth == nil {
		return nil, fmt.Errorf("%w: input %q carries no bit depth", adapter.ErrInvalidManifest, inputFile)
	}

	format := "yuv420p" + depth[1]
	if strings.Contains(inputFile, lumaMarker) {
		format = "y" + depth[1]
	}

	return m.ParameterSet{
		m.KeyBaseEncoder: codec.Name,
		m.KeyWidth:       int64(codec.Width),
		m.KeyHeight:      int64(codec.Height),
		m.KeyInputFile:   inputFile,
		m.KeyBase:        base + baseSuffix,
		m.KeyBaseRecon:   base + reconSuffix,
		m.KeyFormat:      format,
	}, nil
}

func (b *jobBuilder) absoluteTools(tools m.Executables) (m.Executables, error) {
	paths := []*m.Path{&tools.Encoder, &tools.Decoder, &tools.Validator, &tools.Harness}

	for _, path := range paths {
		if *path == "" {
			continue
		}

		abs, err := b.fs.AbsPath(string(*path))
		if err != nil {
			return m.Executables{}, fmt.Errorf("resolve tool %s: %w", *path, err)
		}

		*path = m.Path(abs)
	}

	return tools, nil
}
