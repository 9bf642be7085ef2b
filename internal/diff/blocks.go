package diff

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Markers of the search/replace wire grammar. Each appears alone on a line.
const (
	SearchMarker    = "SEARCH"
	SeparatorMarker = "======="
	ReplaceMarker   = "REPLACE"
)

// EditBlock is one search/replace unit parsed from a diff parameter.
// The id is derived from the search text so re-parses of a growing stream
// address the same block.
type EditBlock struct {
	ID      string
	Search  string
	Replace string
	Delete  bool // replacement trims to empty
	Final   bool // closing REPLACE marker was seen

	// Matcher bookkeeping.
	matched    bool
	matchStart int
	matchEnd   int
	fuzzyTried bool
}

// BlockID returns a stable short id for a search text.
func BlockID(search string) string {
	sum := sha256.Sum256([]byte(search))
	return hex.EncodeToString(sum[:])[:8]
}

// ParseBlocks parses SEARCH/REPLACE blocks out of a diff parameter value.
// The value may be a prefix of the final text: a trailing block whose
// separator has been seen is returned with Final=false and whatever
// replacement lines have arrived so far. A trailing block still inside its
// search section is dropped, as is any malformed block.
func ParseBlocks(text string) []EditBlock {
	const (
		stIdle = iota
		stSearch
		stReplace
	)

	var blocks []EditBlock
	var search, replace []string
	state := stIdle

	flush := func(final bool) {
		searchText := trimTrailingBlank(search)
		if searchText == "" {
			return
		}
		replaceText := trimTrailingBlank(replace)
		blocks = append(blocks, EditBlock{
			ID:      BlockID(searchText),
			Search:  searchText,
			Replace: replaceText,
			Delete:  strings.TrimSpace(replaceText) == "",
			Final:   final,
		})
	}

	for _, line := range SplitLines(text) {
		switch state {
		case stIdle:
			if line == SearchMarker {
				search, replace = nil, nil
				state = stSearch
			}
		case stSearch:
			if line == SeparatorMarker {
				state = stReplace
			} else {
				search = append(search, line)
			}
		case stReplace:
			if line == ReplaceMarker {
				flush(true)
				state = stIdle
			} else {
				replace = append(replace, line)
			}
		}
	}

	// End of input with both sections seen: the block is kept but not final.
	if state == stReplace {
		flush(false)
	}

	return blocks
}

// trimTrailingBlank joins lines after dropping trailing blank lines.
func trimTrailingBlank(lines []string) string {
	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[:end], "\n")
}
