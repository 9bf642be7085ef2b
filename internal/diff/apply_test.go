package diff

import (
	"strings"
	"testing"
)

func mustMatch(t *testing.T, content string, block *EditBlock) MatchResult {
	t.Helper()
	res := Match(content, block)
	if !res.Found {
		t.Fatalf("no match: %s", res.Reason)
	}
	return res
}

func TestApply_Basic(t *testing.T) {
	content := "foo\nbaz"
	block := &EditBlock{Search: "foo", Replace: "bar"}
	res := mustMatch(t, content, block)
	got := Apply(content, res, block.Replace, ModeFinal)
	want := "bar\nbaz"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestApply_RoundTrip(t *testing.T) {
	content := "a\nb\nc\nd\ne\n"
	diffText := "SEARCH\nb\nc\n=======\nB\nC2\nC3\nREPLACE"
	blocks := ParseBlocks(diffText)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks", len(blocks))
	}
	res := mustMatch(t, content, &blocks[0])
	got := Apply(content, res, blocks[0].Replace, ModeFinal)
	want := "a\nB\nC2\nC3\nd\ne\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestApply_Deletion(t *testing.T) {
	content := "keep\ndrop me\nkeep too\n"
	block := &EditBlock{Search: "drop me", Replace: "", Delete: true}
	res := mustMatch(t, content, block)
	got := Apply(content, res, block.Replace, ModeFinal)
	want := "keep\nkeep too\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestApply_IndentationLaw(t *testing.T) {
	// Search region at indent I=4 spaces; replacement block's own minimal
	// indent M=2, one line at J=4. Output indents: I and I+(J-M).
	content := "func f() {\n    old()\n}\n"
	replacement := "  if ok {\n    new()\n  }"
	block := &EditBlock{Search: "    old()", Replace: replacement}
	res := mustMatch(t, content, block)
	got := Apply(content, res, replacement, ModeFinal)
	want := "func f() {\n    if ok {\n      new()\n    }\n}\n"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestApply_BlankLinesNeverIndented(t *testing.T) {
	content := "    a\n    b\n"
	block := &EditBlock{Search: "    a", Replace: "x\n\ny"}
	res := mustMatch(t, content, block)
	got := Apply(content, res, block.Replace, ModeFinal)
	want := "    x\n\n    y\n    b\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestApply_MixedIndentKeepsLines(t *testing.T) {
	// Tab-indented and space-indented lines share no indent prefix, so the
	// replacement must come through byte-for-byte instead of gaining a
	// stray tab.
	content := "\tfoo\n  bar\nend\n"
	replacement := "\tnew1\n  new2"
	block := &EditBlock{Search: "\tfoo\n  bar", Replace: replacement}
	res := mustMatch(t, content, block)
	got := Apply(content, res, replacement, ModeFinal)
	want := "\tnew1\n  new2\nend\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestApply_OutsideRegionUntouched(t *testing.T) {
	content := "p\t \nq\ntarget\nr  \n"
	block := &EditBlock{Search: "target", Replace: "hit"}
	res := mustMatch(t, content, block)
	got := Apply(content, res, block.Replace, ModeFinal)
	want := "p\t \nq\nhit\nr  \n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestApply_PreviewMarkers(t *testing.T) {
	content := "a\nold\nz\n"
	block := &EditBlock{Search: "old", Replace: "new"}
	res := mustMatch(t, content, block)
	got := Apply(content, res, block.Replace, ModePreview)
	want := strings.Join([]string{
		"a",
		PreviewOriginalMarker,
		"old",
		SeparatorMarker,
		"new",
		PreviewUpdatedMarker,
		"z",
	}, "\n") + "\n"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestStripPreviewMarkers(t *testing.T) {
	content := strings.Join([]string{
		"a",
		PreviewOriginalMarker,
		"old",
		SeparatorMarker,
		"new",
		PreviewUpdatedMarker,
		"z",
	}, "\n") + "\n"
	got := StripPreviewMarkers(content)
	want := "a\nnew\nz\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStripPreviewMarkers_NoMarkers(t *testing.T) {
	content := "plain\ncontent\n"
	if got := StripPreviewMarkers(content); got != content {
		t.Errorf("got %q, want unchanged", got)
	}
}
