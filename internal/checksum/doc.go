// Package checksum provides file content hashing with normalization support.
//
// Two digests are offered:
//
//   - Raw checksum: hash of the exact file content. Used to verify
//     downloaded archives against their published digest.
//   - Normalized checksum: hash after removing SQL comments and collapsing
//     whitespace. Used to detect drift in applied migration files while
//     ignoring pure reformatting.
//
// SHA256 is safe for concurrent use by multiple goroutines.
package checksum
