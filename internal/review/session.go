package review

import (
	"errors"

	"github.com/conorfennell/studylog/internal/domain"
)

// PolicyKind selects which review policy a session runs under.
type PolicyKind string

const (
	PolicyGraduated PolicyKind = "graduated"
	PolicyBinary    PolicyKind = "binary"
)

// ErrNotInFocus rejects an answer for a card that is not at the head
// of the session queue. Sessions are strictly sequential.
var ErrNotInFocus = errors.New("card is not the one in focus")

// Session is the transient work queue of one review sitting. It holds
// card ids plus a cursor and is never persisted; only the committed
// card state written back by the caller survives the session.
type Session struct {
	ID        string
	Policy    PolicyKind
	ErrorDeck bool

	queue  []string
	cursor int

	// Tally shown in the session summary.
	Correct int
	Wrong   int
}

// NewSession builds a session over an already-shuffled set of card ids.
func NewSession(policy PolicyKind, errorDeck bool, cardIDs []string) *Session {
	return &Session{
		ID:        domain.NewID(),
		Policy:    policy,
		ErrorDeck: errorDeck,
		queue:     append([]string(nil), cardIDs...),
	}
}

// Current returns the id of the card in focus, or false when the
// session is exhausted.
func (s *Session) Current() (string, bool) {
	if s.cursor >= len(s.queue) {
		return "", false
	}
	return s.queue[s.cursor], true
}

// Advance moves focus to the next card.
func (s *Session) Advance() {
	if s.cursor < len(s.queue) {
		s.cursor++
	}
}

// Requeue moves the card in focus to the tail of the queue so it comes
// around again this sitting, then advances.
func (s *Session) Requeue() {
	id, ok := s.Current()
	if !ok {
		return
	}
	s.queue = append(s.queue, id)
	s.cursor++
}

// Done reports whether every queued card has been answered.
func (s *Session) Done() bool {
	return s.cursor >= len(s.queue)
}

// Remaining returns how many cards are still ahead of the cursor.
func (s *Session) Remaining() int {
	return len(s.queue) - s.cursor
}

// Total returns the current queue length including requeued cards.
func (s *Session) Total() int {
	return len(s.queue)
}

// CheckFocus validates that cardID is the card in focus.
func (s *Session) CheckFocus(cardID string) error {
	id, ok := s.Current()
	if !ok {
		return domain.ErrNothingDue
	}
	if id != cardID {
		return ErrNotInFocus
	}
	return nil
}
