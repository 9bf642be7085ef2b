package diff

import "testing"

func TestParseBlocks_Single(t *testing.T) {
	text := "SEARCH\nfoo\n=======\nbar\nREPLACE"
	blocks := ParseBlocks(text)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	b := blocks[0]
	if b.Search != "foo" || b.Replace != "bar" {
		t.Errorf("block = %q -> %q", b.Search, b.Replace)
	}
	if !b.Final {
		t.Error("block should be final")
	}
	if b.Delete {
		t.Error("block should not be a deletion")
	}
}

func TestParseBlocks_Multiple(t *testing.T) {
	text := "SEARCH\na\n=======\nb\nREPLACE\nSEARCH\nc\nd\n=======\ne\nREPLACE\n"
	blocks := ParseBlocks(text)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if blocks[1].Search != "c\nd" || blocks[1].Replace != "e" {
		t.Errorf("second block = %q -> %q", blocks[1].Search, blocks[1].Replace)
	}
}

func TestParseBlocks_Deletion(t *testing.T) {
	text := "SEARCH\nstale line\n=======\nREPLACE"
	blocks := ParseBlocks(text)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if !blocks[0].Delete {
		t.Error("empty replacement should flag deletion")
	}
}

func TestParseBlocks_TrailingPartialReplacement(t *testing.T) {
	// Stream cut off mid-replacement: separator seen, REPLACE marker not yet.
	text := "SEARCH\nfoo\n=======\nba"
	blocks := ParseBlocks(text)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if blocks[0].Final {
		t.Error("partial block must not be final")
	}
	if blocks[0].Replace != "ba" {
		t.Errorf("Replace = %q, want %q", blocks[0].Replace, "ba")
	}
}

func TestParseBlocks_UnterminatedSearchDropped(t *testing.T) {
	text := "SEARCH\nfoo\nbar"
	if blocks := ParseBlocks(text); len(blocks) != 0 {
		t.Errorf("got %d blocks, want 0", len(blocks))
	}
}

func TestParseBlocks_TrailingBlankTrimmed(t *testing.T) {
	text := "SEARCH\nfoo\n\n\n=======\nbar\n\n\nREPLACE"
	blocks := ParseBlocks(text)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if blocks[0].Search != "foo" || blocks[0].Replace != "bar" {
		t.Errorf("block = %q -> %q", blocks[0].Search, blocks[0].Replace)
	}
}

func TestParseBlocks_StableID(t *testing.T) {
	a := ParseBlocks("SEARCH\nfoo\n=======\nbar\nREPLACE")
	b := ParseBlocks("SEARCH\nfoo\n=======\nbaz quux\nREPLACE")
	if a[0].ID != b[0].ID {
		t.Error("id must depend only on the search text")
	}
	c := ParseBlocks("SEARCH\nother\n=======\nbar\nREPLACE")
	if a[0].ID == c[0].ID {
		t.Error("different search text must yield a different id")
	}
}
