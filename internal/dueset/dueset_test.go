package dueset

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/conorfennell/studylog/internal/datemath"
	"github.com/conorfennell/studylog/internal/domain"
)

var today = time.Date(2026, time.March, 20, 14, 0, 0, 0, time.UTC)

func card(id string, state domain.CardState, due time.Time, isErr bool) domain.Flashcard {
	return domain.Flashcard{ID: id, State: state, DueDate: due, EaseFactor: 2.5, IsError: isErr}
}

func testPlan() *domain.Plan {
	yesterday := datemath.AddDays(today, -1)
	tomorrow := datemath.AddDays(today, 1)
	thisMorning := time.Date(2026, time.March, 20, 6, 0, 0, 0, time.UTC)

	return &domain.Plan{
		ID: "plan-1",
		Decks: []domain.FlashcardDeck{
			{
				ID: "deck-1",
				SubDecks: []domain.FlashcardSubDeck{
					{
						ID: "sub-1",
						Cards: []domain.Flashcard{
							card("new", domain.CardStateNew, tomorrow, false),
							card("late", domain.CardStateReview, yesterday, false),
							card("today", domain.CardStateReview, thisMorning, true),
						},
					},
					{
						ID: "sub-2",
						Cards: []domain.Flashcard{
							card("future", domain.CardStateReview, tomorrow, false),
						},
					},
				},
			},
			{
				ID: "deck-2",
				SubDecks: []domain.FlashcardSubDeck{
					{
						ID: "sub-3",
						Cards: []domain.Flashcard{
							card("other-error", domain.CardStateReview, tomorrow, true),
						},
					},
				},
			},
		},
	}
}

func ids(cards []domain.Flashcard) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	sort.Strings(out)
	return out
}

func expectIDs(t *testing.T, got []domain.Flashcard, want ...string) {
	t.Helper()
	sort.Strings(want)
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("Expected cards %v, but got %v", want, gotIDs)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("Expected cards %v, but got %v", want, gotIDs)
		}
	}
}

func TestDueCards(t *testing.T) {
	t.Run("deck scope selects new plus due as a set", func(t *testing.T) {
		got, err := DueCards(testPlan(), Scope{DeckID: "deck-1"}, today)
		if err != nil {
			t.Fatalf("DueCards failed: %v", err)
		}
		// "future" is tomorrow and not new, so it stays out; "today"
		// was due this morning and stays in.
		expectIDs(t, got, "new", "late", "today")
	})

	t.Run("sub-deck scope narrows the set", func(t *testing.T) {
		got, err := DueCards(testPlan(), Scope{DeckID: "deck-1", SubDeckID: "sub-2"}, today)
		if err != nil {
			t.Fatalf("DueCards failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Expected nothing due in sub-2, but got %v", ids(got))
		}
	})

	t.Run("error deck spans all decks and ignores dates", func(t *testing.T) {
		got, err := DueCards(testPlan(), Scope{ErrorDeck: true}, today)
		if err != nil {
			t.Fatalf("DueCards failed: %v", err)
		}
		expectIDs(t, got, "today", "other-error")
	})

	t.Run("unknown deck", func(t *testing.T) {
		_, err := DueCards(testPlan(), Scope{DeckID: "missing"}, today)
		if !errors.Is(err, domain.ErrDeckNotFound) {
			t.Errorf("Expected ErrDeckNotFound, but got %v", err)
		}
	})

	t.Run("unknown sub-deck", func(t *testing.T) {
		_, err := DueCards(testPlan(), Scope{DeckID: "deck-1", SubDeckID: "missing"}, today)
		if !errors.Is(err, domain.ErrSubDeckNotFound) {
			t.Errorf("Expected ErrSubDeckNotFound, but got %v", err)
		}
	})

	t.Run("shuffle is a permutation of the due set", func(t *testing.T) {
		plan := testPlan()
		want, err := DueCards(plan, Scope{DeckID: "deck-1"}, today)
		if err != nil {
			t.Fatalf("DueCards failed: %v", err)
		}
		for range 10 {
			again, err := DueCards(plan, Scope{DeckID: "deck-1"}, today)
			if err != nil {
				t.Fatalf("DueCards failed: %v", err)
			}
			expectIDs(t, again, ids(want)...)
		}
	})

	t.Run("selection does not mutate the plan", func(t *testing.T) {
		plan := testPlan()
		got, err := DueCards(plan, Scope{DeckID: "deck-1", SubDeckID: "sub-1"}, today)
		if err != nil {
			t.Fatalf("DueCards failed: %v", err)
		}
		got[0].Question = "mutated"
		for _, c := range plan.Decks[0].SubDecks[0].Cards {
			if c.Question == "mutated" {
				t.Error("Expected DueCards to return copies")
			}
		}
	})
}

func TestPendingRevisions(t *testing.T) {
	yesterday := datemath.AddDays(today, -3)
	tomorrow := datemath.AddDays(today, 2)
	plan := &domain.Plan{
		Subjects: []domain.Subject{
			{
				ID: "subj-1", Name: "Cardiology",
				Topics: []domain.Topic{
					{
						ID: "topic-1", Name: "Arrhythmias",
						Revisions: []domain.Revision{
							{ID: "r1", ScheduledDate: yesterday},
							{ID: "r2", ScheduledDate: today},
							{ID: "r3", ScheduledDate: tomorrow},
							{ID: "r4", ScheduledDate: yesterday, IsCompleted: true},
						},
					},
				},
			},
		},
	}

	got := PendingRevisions(plan, today)
	if len(got) != 3 {
		t.Fatalf("Expected 3 pending revisions, but got %d", len(got))
	}
	buckets := map[string]string{}
	for _, pr := range got {
		buckets[pr.Revision.ID] = pr.Bucket
	}
	if buckets["r1"] != BucketLate || buckets["r2"] != BucketToday || buckets["r3"] != BucketFuture {
		t.Errorf("Expected buckets late/today/future, but got %v", buckets)
	}
}

func TestBucket(t *testing.T) {
	if got := Bucket(today, today); got != BucketToday {
		t.Errorf("Expected today, but got %s", got)
	}
	earlier := time.Date(2026, time.March, 20, 2, 0, 0, 0, time.UTC)
	if got := Bucket(earlier, today); got != BucketToday {
		t.Errorf("Expected same-day to bucket as today, but got %s", got)
	}
}
