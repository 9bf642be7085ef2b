package diff

import "strings"

// ApplyMode selects how a matched region is rewritten.
type ApplyMode int

const (
	// ModeFinal splices the replacement directly into the content.
	ModeFinal ApplyMode = iota
	// ModePreview keeps the original region alongside the replacement,
	// wrapped in merge markers, so a host can render the pending edit.
	ModePreview
)

// Markers wrapping a pending edit in preview mode.
const (
	PreviewOriginalMarker = "<<<<<<< ORIGINAL"
	PreviewUpdatedMarker  = ">>>>>>> UPDATED"
)

// Apply replaces the matched line range of content with the replacement
// text, reconciling indentation: the replacement keeps its internal shape
// but is re-based onto the matched region's minimal indent. Content outside
// the range is untouched.
func Apply(content string, res MatchResult, replacement string, mode ApplyMode) string {
	lines := SplitLines(content)
	if res.StartLine < 0 || res.EndLine >= len(lines) || res.StartLine > res.EndLine {
		return content
	}

	original := lines[res.StartLine : res.EndLine+1]
	adjusted := reindent(SplitLines(replacement), minIndent(original))

	var region []string
	switch mode {
	case ModePreview:
		region = append(region, PreviewOriginalMarker)
		region = append(region, original...)
		region = append(region, SeparatorMarker)
		region = append(region, adjusted...)
		region = append(region, PreviewUpdatedMarker)
	default:
		region = adjusted
	}

	result := make([]string, 0, len(lines)-len(original)+len(region))
	result = append(result, lines[:res.StartLine]...)
	result = append(result, region...)
	result = append(result, lines[res.EndLine+1:]...)
	return joinLike(result, content)
}

// joinLike joins lines, carrying over the trailing-newline state of the
// source content so untouched bytes stay untouched.
func joinLike(lines []string, source string) string {
	if len(lines) == 0 {
		return ""
	}
	joined := strings.Join(lines, "\n")
	if strings.HasSuffix(source, "\n") {
		joined += "\n"
	}
	return joined
}

// reindent strips the replacement's own minimal indent from each line and
// prepends the target indent. Blank lines stay blank.
func reindent(lines []string, indent string) []string {
	if len(lines) == 0 {
		return nil
	}
	own := minIndent(lines)
	adjusted := make([]string, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			adjusted[i] = ""
			continue
		}
		stripped := strings.TrimPrefix(line, own)
		adjusted[i] = indent + stripped
	}
	return adjusted
}

// StripPreviewMarkers removes preview regions from content, keeping the
// replacement side of each pending edit.
func StripPreviewMarkers(content string) string {
	lines := SplitLines(content)
	var out []string
	const (
		stPass = iota
		stOriginal
		stUpdated
	)
	state := stPass
	for _, line := range lines {
		switch state {
		case stPass:
			if line == PreviewOriginalMarker {
				state = stOriginal
			} else {
				out = append(out, line)
			}
		case stOriginal:
			if line == SeparatorMarker {
				state = stUpdated
			}
		case stUpdated:
			if line == PreviewUpdatedMarker {
				state = stPass
			} else {
				out = append(out, line)
			}
		}
	}
	return joinLike(out, content)
}
