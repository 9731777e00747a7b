package review

import (
	"errors"
	"testing"

	"github.com/conorfennell/studylog/internal/domain"
)

func TestSessionQueue(t *testing.T) {
	t.Run("walks the queue in order", func(t *testing.T) {
		s := NewSession(PolicyGraduated, false, []string{"a", "b", "c"})

		for _, want := range []string{"a", "b", "c"} {
			id, ok := s.Current()
			if !ok || id != want {
				t.Fatalf("Expected %s in focus, but got (%s, %v)", want, id, ok)
			}
			s.Advance()
		}
		if !s.Done() {
			t.Error("Expected the session to be done")
		}
	})

	t.Run("requeue sends the card to the tail", func(t *testing.T) {
		s := NewSession(PolicyGraduated, false, []string{"a", "b"})

		s.Requeue() // "a" comes around again
		if id, _ := s.Current(); id != "b" {
			t.Fatalf("Expected b in focus, but got %s", id)
		}
		s.Advance()
		id, ok := s.Current()
		if !ok || id != "a" {
			t.Errorf("Expected the requeued a at the tail, but got (%s, %v)", id, ok)
		}
		if s.Total() != 3 {
			t.Errorf("Expected queue length 3 after a requeue, but got %d", s.Total())
		}
	})

	t.Run("answering out of focus is rejected", func(t *testing.T) {
		s := NewSession(PolicyBinary, false, []string{"a", "b"})

		if err := s.CheckFocus("b"); !errors.Is(err, ErrNotInFocus) {
			t.Errorf("Expected ErrNotInFocus, but got %v", err)
		}
		if err := s.CheckFocus("a"); err != nil {
			t.Errorf("Expected the head card to pass, but got %v", err)
		}
	})

	t.Run("exhausted session reports nothing due", func(t *testing.T) {
		s := NewSession(PolicyBinary, false, []string{"a"})
		s.Advance()

		if err := s.CheckFocus("a"); !errors.Is(err, domain.ErrNothingDue) {
			t.Errorf("Expected ErrNothingDue, but got %v", err)
		}
	})
}
