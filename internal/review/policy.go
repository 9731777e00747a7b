// Package review implements the flashcard review engine: the graduated
// interval policy, the binary correct/wrong policy with error-deck
// routing, and the in-memory queue of an active study session.
package review

import (
	"errors"
	"math"
	"time"

	"github.com/conorfennell/studylog/internal/datemath"
	"github.com/conorfennell/studylog/internal/domain"
)

// ErrUnknownRating rejects a graduated answer outside again..easy.
var ErrUnknownRating = errors.New("unknown rating")

// Rating is the user's response under the graduated policy.
type Rating int

const (
	Again Rating = 1
	Hard  Rating = 2
	Good  Rating = 3
	Easy  Rating = 4
)

// Outcome is the user's response under the binary policy.
type Outcome int

const (
	Wrong Outcome = iota
	Correct
)

// ApplyGraded returns the card's next scheduling state for a rating.
// Pure: the input card is not modified. A rating outside again..easy
// returns the card unchanged with ErrUnknownRating.
func ApplyGraded(card domain.Flashcard, rating Rating, now time.Time) (domain.Flashcard, error) {
	switch rating {
	case Again:
		card.Interval = 0
		card.Reps = 0
		card.State = domain.CardStateLearning
	case Hard:
		card.Interval = max(1, int(math.Floor(float64(card.Interval)*1.2)))
		card.EaseFactor = math.Max(domain.MinEaseFactor, card.EaseFactor-0.15)
		card.State = domain.CardStateReview
	case Good:
		switch card.Reps {
		case 0:
			card.Interval = 1
		case 1:
			card.Interval = 6
		default:
			card.Interval = int(math.Ceil(float64(card.Interval) * card.EaseFactor))
		}
		card.Reps++
		card.State = domain.CardStateReview
	case Easy:
		if card.Reps == 0 {
			card.Interval = 4
		} else {
			card.Interval = int(math.Ceil(float64(card.Interval) * card.EaseFactor * 1.3))
		}
		card.EaseFactor += 0.15
		card.Reps++
		card.State = domain.CardStateReview
	default:
		return card, ErrUnknownRating
	}

	card.DueDate = datemath.AddDays(now, card.Interval)
	return card, nil
}

// ApplyBinary returns the card's next state for the simplified
// correct/wrong mode. Reviewing from the normal queue pushes the card
// to tomorrow and flags a miss into the error deck; reviewing from the
// error deck only clears the flag on a hit. The graduated fields are
// left untouched.
func ApplyBinary(card domain.Flashcard, outcome Outcome, fromErrorDeck bool, now time.Time) domain.Flashcard {
	if fromErrorDeck {
		if outcome == Correct {
			card.IsError = false
		}
		return card
	}

	if outcome == Wrong {
		card.IsError = true
	}
	card.DueDate = datemath.AddDays(now, 1)
	return card
}
