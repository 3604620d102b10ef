package signature

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"strings"

	"github.com/workplace/workplace/internal/domain/opinion"
)

// CanonicalDigest computes the SHA-256 content hash of an opinion document.
//
// The serialization is canonical: sections are walked in the fixed document
// order and every field is length-prefixed, so the digest depends only on
// the document's content — never on map iteration order, JSON whitespace or
// key ordering. Semantically identical documents always hash identically.
func CanonicalDigest(sections opinion.Sections) string {
	h := sha256.New()
	for _, key := range opinion.SectionOrder() {
		sec, ok := sections[key]
		if !ok {
			continue
		}
		writeField(h, key)
		writeField(h, sec.Title)
		writeField(h, sec.Content)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(h hash.Hash, s string) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(s)))
	h.Write(n[:])
	h.Write([]byte(s))
}

// RenderDocument produces the plain-text signature document shown to the
// signer for confirmation. Display only; the digest is authoritative.
func RenderDocument(sections opinion.Sections) string {
	var b strings.Builder
	for _, key := range opinion.SectionOrder() {
		sec, ok := sections[key]
		if !ok || strings.TrimSpace(sec.Content) == "" {
			continue
		}
		b.WriteString(sec.Title)
		b.WriteString("\n")
		b.WriteString(strings.Repeat("-", len(sec.Title)))
		b.WriteString("\n")
		b.WriteString(sec.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

// DigestEqual compares two hex digests byte for byte, rejecting any case
// or length variation.
func DigestEqual(a, b string) bool {
	return a != "" && a == b
}
