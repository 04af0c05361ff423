// Package identity derives the two identifier spaces used by the pipelines:
// content-derived hex document IDs for the document store and fixed-width
// integer vector IDs for the vector store.
package identity

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrEmptyTitle is returned when an article carries no title to hash.
var ErrEmptyTitle = errors.New("article title is empty")

// vectorIDBytes is how many leading digest bytes fill an int64 key.
const vectorIDBytes = 8

// Hash derives the document ID for a title: the md5 digest of its raw
// bytes as lowercase hex. No whitespace or case normalization is applied,
// so identity is byte-exact. The digest is an identity key, not a
// security boundary.
func Hash(title string) (string, error) {
	if title == "" {
		return "", ErrEmptyTitle
	}
	sum := md5.Sum([]byte(title))
	return hex.EncodeToString(sum[:]), nil
}

// VectorID maps a document ID into the vector store's int64 key space by
// interpreting the digest's leading 8 bytes as a big-endian integer. The
// truncation is lossy in theory; across a working set of recent articles
// collisions are negligible in practice.
func VectorID(documentID string) (int64, error) {
	raw, err := hex.DecodeString(documentID)
	if err != nil {
		return 0, fmt.Errorf("decode document id %q: %w", documentID, err)
	}
	if len(raw) < vectorIDBytes {
		return 0, fmt.Errorf("document id %q is %d bytes, need at least %d", documentID, len(raw), vectorIDBytes)
	}
	return int64(binary.BigEndian.Uint64(raw[:vectorIDBytes])), nil
}
