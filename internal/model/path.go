// Package model defines the data structures for conformance test batches.
package model

// Path represents a file system path.
type Path string

// DisplayMode selects how a supervised process reports progress on the status stream.
type DisplayMode string

const (
	// DisplayNone prints only start and finish lines for each process.
	DisplayNone DisplayMode = "none"
	// DisplaySpinner rotates a glyph for every line the process writes.
	DisplaySpinner DisplayMode = "spinner"
	// DisplayVerbose echoes every line the process writes.
	DisplayVerbose DisplayMode = "verbose"
)

// ParseDisplayMode maps a user supplied value onto a DisplayMode.
// Unknown and empty values fall back to DisplayNone.
func ParseDisplayMode(value string) DisplayMode {
	switch DisplayMode(value) {
	case DisplaySpinner:
		return DisplaySpinner
	case DisplayVerbose:
		return DisplayVerbose
	default:
		return DisplayNone
	}
}
