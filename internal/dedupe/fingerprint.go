// Package dedupe fingerprints card content so repeated imports of the
// same source recognise cards they have already created.
package dedupe

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/studylog/internal/domain"
)

// Normalize concatenates the card's content after cleaning each part.
// It trims whitespace, lowercases, and normalizes line endings for
// each field before joining them.
func Normalize(content domain.CardContent) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}

	q := normalizePart(content.Question)
	a := normalizePart(content.Answer)
	m := normalizePart(content.MediaRef)

	// Joined with newlines so adjacent fields can never run together
	// and collide, e.g. "question" + "answer" as "questionanswer".
	return strings.Join([]string{q, a, m}, "\n")
}

// Fingerprint returns the SHA-256 of the normalized content as a hex
// string.
func Fingerprint(content domain.CardContent) string {
	normalized := Normalize(content)
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", sum)
}

// CardFingerprint fingerprints an existing flashcard's content, for
// matching stored cards against parsed source cards.
func CardFingerprint(card domain.Flashcard) string {
	return Fingerprint(domain.CardContent{
		Question: card.Question,
		Answer:   card.Answer,
		MediaRef: card.MediaRef,
	})
}
