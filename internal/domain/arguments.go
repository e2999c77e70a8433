package domain

import (
	"fmt"
	"strings"

	m "lcevc.dev/pkg/conformance/internal/model"
)

// Artifact suffixes appended to a job's output name.
const (
	SuffixConfig     = ".cfg"
	SuffixBitstream  = ".bit"
	SuffixRecon      = "_recon.yuv"
	SuffixDecoded    = "_decoded.yuv"
	SuffixSDK        = "_sdk.bit"
	SuffixOPL        = ".opl"
	SuffixManifest   = ".txt"
	SuffixUserData   = "_userdata.bin"
	SuffixEncoderLog = "_encoder.log"
	SuffixDecoderLog = "_decoder.log"
	SuffixValidLog   = "_validator.log"
	SuffixHarnessLog = "_harness.log"
	SuffixMD5        = ".md5"
	SuffixReconMD5   = ".yuv.md5"
	SuffixStatus     = "_status.txt"
	UserDataEncoded  = "userdata_enc.bin"
	UserDataDecoded  = "userdata_dec.bin"
)

// BaseType maps a base encoder name onto the validator's base type vocabulary.
func BaseType(baseEncoder string) string {
	if baseEncoder == "avc" {
		return "h264"
	}

	return baseEncoder
}

// BaseExternal reports whether the decoder must be told the base layer is
// external: any non-yuv format, and the 12 and 14 bit yuv formats.
func BaseExternal(format string) bool {
	return !strings.HasPrefix(format, "yuv") ||
		strings.HasSuffix(format, "12") ||
		strings.HasSuffix(format, "14")
}

// EncoderArgs is the encoder command line for a job.
func EncoderArgs(exe m.Path, p m.EncoderParameters, output string, limit *int) []string {
	args := []string{
		string(exe),
		fmt.Sprintf("--width=%d", p.Width),
		fmt.Sprintf("--height=%d", p.Height),
		"--format=" + p.Format,
		"--base_encoder=" + p.BaseEncoder,
		"--encapsulation=" + p.Encapsulation,
		"--parameters=" + output + SuffixConfig,
		"--output_file=" + output + SuffixBitstream,
		"--output_recon=" + output + SuffixRecon,
		"--keep_base=false",
		"--parameter_config=conformance",
		"--qp=" + p.QP,
	}

	if limit != nil {
		args = append(args, fmt.Sprintf("--limit=%d", *limit))
	}

	return args
}

// DecoderArgs is the decoder command line for a job.
func DecoderArgs(exe m.Path, p m.EncoderParameters, output string) []string {
	args := []string{
		string(exe),
		"--base_encoder=" + p.BaseEncoder,
		"--encapsulation=" + p.Encapsulation,
		"--input_file=" + output + SuffixBitstream,
		"--output_file=" + output + SuffixDecoded,
	}

	if BaseExternal(p.Format) {
		args = append(args, "--base_external=true")
	}

	return args
}

// ValidatorArgs is the bitstream validator command line for a job.
func ValidatorArgs(exe m.Path, p m.EncoderParameters, output string) []string {
	return []string{
		string(exe),
		"-i", output + SuffixBitstream,
		"-t", "nal",
		"-o", output + SuffixSDK,
		"-u", "bin",
		"-b", BaseType(p.BaseEncoder),
	}
}

// HarnessArgs is the reference decoder harness command line for a job.
// The base reconstruction is omitted when the encoder generated the base itself.
func HarnessArgs(exe m.Path, p m.EncoderParameters, output, tmpDir string) []string {
	args := []string{string(exe), "-p", output + SuffixSDK}

	if p.BaseRecon != "" {
		args = append(args, "-b", p.BaseRecon)
	}

	return append(args,
		"-o", tmpDir+"/",
		"--format-filenames", "0",
		"--pipeline-mode", "1",
	)
}

// StandaloneDecoderArgs decodes a published bitstream outside of a batch job.
func StandaloneDecoderArgs(exe m.Path, baseEncoder, input, output string, external bool) []string {
	args := []string{
		string(exe),
		"--base_encoder=" + baseEncoder,
		"--encapsulation=" + m.DefaultEncapsulation,
		"--input_file=" + input,
		"--output_file=" + output,
	}

	if external {
		args = append(args, "--base_external=true")
	}

	return args
}
