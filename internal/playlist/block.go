package playlist

import (
	"regexp"
	"strings"
)

const (
	// GenreSeparator separates genre blocks in a canonical document.
	GenreSeparator = "\n\n"
	// GenreNameSeparator marks the end of the genre name on a block header.
	GenreNameSeparator = ",#"
	// GenreFlag is the header suffix following the genre name.
	GenreFlag = "#genre#"

	byteOrderMark = "\ufeff"
)

var groupTitleRegex = regexp.MustCompile(`group-title="([^"]*)"`)

// Block is one genre block of a canonical document: a header line
// "<name>,#genre#" followed by zero or more "<channel>,<url>" lines.
type Block string

// SplitBlocks splits a canonical document into its genre blocks, in order.
func SplitBlocks(doc string) []Block {
	parts := strings.Split(doc, GenreSeparator)
	blocks := make([]Block, len(parts))
	for i, p := range parts {
		blocks[i] = Block(p)
	}
	return blocks
}

// JoinBlocks is the inverse of SplitBlocks.
func JoinBlocks(blocks []Block) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = string(b)
	}
	return strings.Join(parts, GenreSeparator)
}

// Header returns the first line of the block.
func (b Block) Header() string {
	header, _, _ := strings.Cut(string(b), "\n")
	return header
}

// Name returns the genre name of the block. See GenreName.
func (b Block) Name() string {
	return GenreName(string(b))
}

// Rename replaces the genre name portion of the header, keeping the marker,
// the rest of the header and every channel line untouched. A block without
// the marker is returned as is.
func (b Block) Rename(name string) Block {
	idx := strings.Index(string(b), GenreNameSeparator)
	if idx < 0 || idx+len(GenreNameSeparator) > len(b.Header()) {
		return b
	}
	return Block(name + string(b)[idx:])
}

// GenreName extracts the genre name of a block. A quoted group-title
// attribute anywhere in the block wins; otherwise the name is the header
// text before the first ",#". Returns "" when neither is present.
func GenreName(block string) string {
	if matches := groupTitleRegex.FindStringSubmatch(block); len(matches) > 1 {
		return matches[1]
	}

	header, _, _ := strings.Cut(block, "\n")
	name, _, found := strings.Cut(header, GenreNameSeparator)
	if !found {
		return ""
	}
	return strings.TrimPrefix(name, byteOrderMark)
}

// genreHeader builds a canonical header line for name.
func genreHeader(name string) string {
	return name + "," + GenreFlag
}
