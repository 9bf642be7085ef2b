package diff

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// fuzzyThreshold is the minimum fraction of the search text that the
// longest equal span of a fuzzy match must cover.
const fuzzyThreshold = 0.9

// MatchResult reports where a search block was found in the content.
type MatchResult struct {
	Found     bool
	StartLine int // 0-indexed first line of the matched region
	EndLine   int // 0-indexed last line of the matched region (inclusive)
	Strategy  string
	Reason    string // set on failure
}

// Match locates block's search text inside content, trying strategies in
// order: cached range, exact, whitespace-normalized, trailing-insensitive,
// then a one-shot fuzzy pass. A successful match is cached on the block;
// the fuzzy pass is attempted at most once per block.
func Match(content string, block *EditBlock) MatchResult {
	if block.matched {
		return MatchResult{Found: true, StartLine: block.matchStart, EndLine: block.matchEnd, Strategy: "cached"}
	}

	lines := SplitLines(content)
	searchLines := SplitLines(block.Search)
	if len(searchLines) == 0 {
		return MatchResult{Reason: "empty search text"}
	}

	type pass struct {
		name string
		eq   func(a, b string) bool
	}
	passes := []pass{
		{"exact", func(a, b string) bool { return a == b }},
		{"whitespace", func(a, b string) bool { return normalizeLine(a) == normalizeLine(b) }},
		{"trailing", func(a, b string) bool {
			return strings.TrimRight(a, " \t\r") == strings.TrimRight(b, " \t\r")
		}},
	}

	for _, p := range passes {
		if pos, ok := findConsecutive(lines, searchLines, p.eq); ok {
			return cacheMatch(block, pos, pos+len(searchLines)-1, p.name)
		}
	}

	if !block.fuzzyTried {
		block.fuzzyTried = true
		if start, end, ok := fuzzyMatch(lines, searchLines, block.Search); ok {
			return cacheMatch(block, start, end, "fuzzy")
		}
	}

	return MatchResult{Reason: fmt.Sprintf("search text not found (%d lines, id %s)", len(searchLines), block.ID)}
}

func cacheMatch(block *EditBlock, start, end int, strategy string) MatchResult {
	block.matched = true
	block.matchStart = start
	block.matchEnd = end
	return MatchResult{Found: true, StartLine: start, EndLine: end, Strategy: strategy}
}

// InvalidateMatch drops a block's cached range so the next Match starts the
// cascade over. The fuzzy pass stays spent.
func InvalidateMatch(block *EditBlock) {
	block.matched = false
}

// findConsecutive finds the first position where search lines match
// consecutively in lines under the given comparison.
func findConsecutive(lines, search []string, eq func(a, b string) bool) (int, bool) {
	limit := len(lines) - len(search) + 1
	for i := 0; i < limit; i++ {
		found := true
		for j, s := range search {
			if !eq(lines[i+j], s) {
				found = false
				break
			}
		}
		if found {
			return i, true
		}
	}
	return 0, false
}

// normalizeLine collapses internal whitespace runs to single spaces.
// Leading and trailing whitespace are preserved so this pass does not
// subsume the trailing-insensitive one.
func normalizeLine(line string) string {
	mid := strings.Join(strings.Fields(line), " ")
	if mid == "" {
		return line
	}
	lead := leadingWhitespace(line)
	trimmed := strings.TrimRight(line, " \t")
	trail := line[len(trimmed):]
	return lead + mid + trail
}

// fuzzyMatch runs an LCS-style diff between the content and the search
// text and takes the longest exactly-equal span of lines. The span is
// accepted when it covers at least fuzzyThreshold of the search text's
// length in characters.
func fuzzyMatch(lines, searchLines []string, searchText string) (start, end int, ok bool) {
	if len(lines) == 0 {
		return 0, 0, false
	}

	m := difflib.NewMatcher(lines, searchLines)

	best := difflib.Match{}
	bestChars := 0
	for _, mb := range m.GetMatchingBlocks() {
		if mb.Size == 0 {
			continue
		}
		chars := spanChars(lines[mb.A : mb.A+mb.Size])
		if chars > bestChars {
			best = mb
			bestChars = chars
		}
	}

	if bestChars == 0 {
		return 0, 0, false
	}
	if float64(bestChars) < fuzzyThreshold*float64(len(searchText)) {
		return 0, 0, false
	}
	return best.A, best.A + best.Size - 1, true
}

// spanChars counts the characters in a span of lines, newlines included.
func spanChars(lines []string) int {
	n := 0
	for _, line := range lines {
		n += len(line) + 1
	}
	return n - 1
}
