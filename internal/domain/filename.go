package domain

import (
	"regexp"
	"strconv"
	"strings"

	m "lcevc.dev/pkg/conformance/internal/model"
)

// imageNameParams are matched against every underscore-delimited token of a
// vooya-style raw video filename. Later tokens win.
var imageNameParams = []struct {
	key     string
	pattern *regexp.Regexp
}{
	{m.KeyWidth, regexp.MustCompile(`^([0-9]+)x[0-9]+`)},
	{m.KeyHeight, regexp.MustCompile(`^[0-9]+x([0-9]+)`)},
	{m.KeyFPS, regexp.MustCompile(`^([0-9]+)(fps|hz)`)},
	{m.KeyBitDepth, regexp.MustCompile(`^([0-9]+)(bits?|bpp)`)},
	{m.KeyFormat, regexp.MustCompile(`^(420p|422p|yuv|yuyv|y|)$`)},
}

const defaultPlanarFormat = "420p"

// ParseFilenameMetadata extracts image geometry and pixel format from a raw
// video filename, e.g. "foo_1920x1080_50fps_10bit_420p.yuv" gives width 1920,
// height 1080, fps 50 and format "yuv420p10". Unmatched tokens are ignored.
func ParseFilenameMetadata(name string) m.ParameterSet {
	found := map[string]string{}

	for _, token := range strings.Split(name, "_") {
		for _, param := range imageNameParams {
			if match := param.pattern.FindStringSubmatch(token); match != nil {
				found[param.key] = match[1]
			}
		}
	}

	if depth, ok := found[m.KeyBitDepth]; ok {
		if _, hasFormat := found[m.KeyFormat]; !hasFormat {
			found[m.KeyFormat] = defaultPlanarFormat
		}

		found[m.KeyFormat] += depth
		delete(found, m.KeyBitDepth)
	}

	if format, ok := found[m.KeyFormat]; ok && strings.HasPrefix(format, "4") {
		found[m.KeyFormat] = "yuv" + format
	}

	params := m.ParameterSet{}

	for key, value := range found {
		switch key {
		case m.KeyWidth, m.KeyHeight, m.KeyFPS:
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				continue
			}

			params[key] = n
		default:
			params[key] = value
		}
	}

	return params
}
