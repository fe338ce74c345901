package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// Calculator is an interface for computing file checksums.
// This abstraction allows for different checksum strategies and algorithms.
type Calculator interface {
	// CalculateRaw computes a checksum of the raw, unmodified content.
	CalculateRaw(content []byte) string

	// CalculateNormalized computes a checksum of normalized content.
	// Normalization makes checksums resilient to formatting changes.
	CalculateNormalized(content []byte) string
}

// SHA256 implements checksum calculation using SHA-256. Normalization:
//  1. Convert to lowercase
//  2. Remove SQL comments (-- and /* */) while preserving string literals
//  3. Collapse whitespace to single spaces
//
// SHA256 is a zero-size type and is safe for concurrent use by multiple
// goroutines.
type SHA256 struct{}

// New creates a new SHA-256 based calculator.
func New() SHA256 {
	return SHA256{}
}

// CalculateRaw computes SHA-256 of raw content.
func (c SHA256) CalculateRaw(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// CalculateNormalized computes SHA-256 of normalized content.
func (c SHA256) CalculateNormalized(content []byte) string {
	normalized := c.normalize(string(content))
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:])
}

func (c SHA256) normalize(content string) string {
	cleaned := c.removeComments(content)

	var b strings.Builder
	b.Grow(len(cleaned))

	lastWasSpace := false
	for _, r := range cleaned {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			b.WriteRune(unicode.ToLower(r))
			lastWasSpace = false
		}
	}

	return strings.TrimSpace(b.String())
}

type commentState int

const (
	csNormal commentState = iota
	csLineComment
	csBlockComment
	csSingleQuote
)

// removeComments removes SQL comments while preserving single-quoted
// string literals. Block comments do not nest in SQLite.
func (c SHA256) removeComments(content string) string {
	var b strings.Builder
	b.Grow(len(content))

	state := csNormal
	i := 0

	for i < len(content) {
		ch := content[i]
		var next byte
		if i+1 < len(content) {
			next = content[i+1]
		}

		switch state {
		case csNormal:
			switch {
			case ch == '-' && next == '-':
				state = csLineComment
				b.WriteByte(' ')
				i += 2
			case ch == '/' && next == '*':
				state = csBlockComment
				b.WriteByte(' ')
				i += 2
			case ch == '\'':
				state = csSingleQuote
				b.WriteByte(ch)
				i++
			default:
				b.WriteByte(ch)
				i++
			}

		case csLineComment:
			if ch == '\n' {
				b.WriteByte(ch)
				state = csNormal
			}
			i++

		case csBlockComment:
			if ch == '*' && next == '/' {
				state = csNormal
				i += 2
			} else {
				i++
			}

		case csSingleQuote:
			if ch == '\'' && next == '\'' {
				// escaped quote inside the literal
				b.WriteByte(ch)
				b.WriteByte(next)
				i += 2
			} else {
				if ch == '\'' {
					state = csNormal
				}
				b.WriteByte(ch)
				i++
			}
		}
	}

	return b.String()
}
