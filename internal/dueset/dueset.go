// Package dueset selects what is up for review: due flashcards within
// a deck scope and pending revisions across a plan's subjects.
package dueset

import (
	"math/rand/v2"
	"time"

	"github.com/samber/lo"

	"github.com/conorfennell/studylog/internal/datemath"
	"github.com/conorfennell/studylog/internal/domain"
)

// Scope narrows card selection to one deck, one sub-deck, or the
// global error deck.
type Scope struct {
	DeckID    string
	SubDeckID string
	ErrorDeck bool
}

// IsDue reports whether a card belongs in today's queue: new cards
// always, otherwise anything due up to the end of today, so a card due
// earlier in the day is not skipped.
func IsDue(card domain.Flashcard, today time.Time) bool {
	return card.State == domain.CardStateNew || !card.DueDate.After(datemath.EndOfDay(today))
}

// DueCards returns the shuffled due queue for a scope. The result is a
// fresh slice of card copies; an empty queue is returned as an empty
// slice, not an error. Scope lookups that name unknown ids fail with
// the matching not-found sentinel.
func DueCards(plan *domain.Plan, scope Scope, today time.Time) ([]domain.Flashcard, error) {
	cards, err := collect(plan, scope)
	if err != nil {
		return nil, err
	}

	due := lo.Filter(cards, func(c domain.Flashcard, _ int) bool {
		if scope.ErrorDeck {
			// The error deck is its own remediation queue; membership,
			// not the calendar, decides inclusion.
			return true
		}
		return IsDue(c, today)
	})

	rand.Shuffle(len(due), func(i, j int) {
		due[i], due[j] = due[j], due[i]
	})
	return due, nil
}

func collect(plan *domain.Plan, scope Scope) ([]domain.Flashcard, error) {
	if scope.ErrorDeck {
		all := lo.FlatMap(plan.Decks, func(d domain.FlashcardDeck, _ int) []domain.Flashcard {
			return lo.FlatMap(d.SubDecks, func(sd domain.FlashcardSubDeck, _ int) []domain.Flashcard {
				return sd.Cards
			})
		})
		return lo.Filter(all, func(c domain.Flashcard, _ int) bool { return c.IsError }), nil
	}

	deck := plan.FindDeck(scope.DeckID)
	if deck == nil {
		return nil, domain.ErrDeckNotFound
	}
	if scope.SubDeckID != "" {
		sd := deck.FindSubDeck(scope.SubDeckID)
		if sd == nil {
			return nil, domain.ErrSubDeckNotFound
		}
		return append([]domain.Flashcard(nil), sd.Cards...), nil
	}
	return lo.FlatMap(deck.SubDecks, func(sd domain.FlashcardSubDeck, _ int) []domain.Flashcard {
		return sd.Cards
	}), nil
}

// PendingRevision is one not-yet-completed revision with enough
// context to act on it.
type PendingRevision struct {
	SubjectID   string          `json:"subjectId"`
	SubjectName string          `json:"subjectName"`
	TopicID     string          `json:"topicId"`
	TopicName   string          `json:"topicName"`
	Revision    domain.Revision `json:"revision"`
	Bucket      string          `json:"bucket"`
}

// Revision display buckets. Selection ignores the date entirely; the
// bucket only drives presentation.
const (
	BucketLate   = "late"
	BucketToday  = "today"
	BucketFuture = "future"
)

// Bucket classifies a scheduled date against today for display.
func Bucket(scheduled, today time.Time) string {
	switch {
	case datemath.SameDay(scheduled, today):
		return BucketToday
	case scheduled.Before(today):
		return BucketLate
	default:
		return BucketFuture
	}
}

// PendingRevisions flattens every pending revision in the plan. All
// pending revisions are selected regardless of date.
func PendingRevisions(plan *domain.Plan, today time.Time) []PendingRevision {
	out := []PendingRevision{}
	for _, subject := range plan.Subjects {
		for _, topic := range subject.Topics {
			for _, rev := range topic.Revisions {
				if rev.IsCompleted {
					continue
				}
				out = append(out, PendingRevision{
					SubjectID:   subject.ID,
					SubjectName: subject.Name,
					TopicID:     topic.ID,
					TopicName:   topic.Name,
					Revision:    rev,
					Bucket:      Bucket(rev.ScheduledDate, today),
				})
			}
		}
	}
	return out
}
