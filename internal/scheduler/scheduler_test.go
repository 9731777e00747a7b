package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/conorfennell/studylog/internal/datemath"
	"github.com/conorfennell/studylog/internal/domain"
)

var testNow = time.Date(2026, time.February, 2, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func newTestPlan() *domain.Plan {
	return &domain.Plan{
		ID:   "plan-1",
		Name: "Residency",
		Subjects: []domain.Subject{
			{
				ID:   "subj-1",
				Name: "Cardiology",
				Topics: []domain.Topic{
					{ID: "topic-1", Name: "Arrhythmias", Revisions: []domain.Revision{}},
				},
			},
		},
		StudySessions: []domain.StudySession{},
	}
}

func topic(t *testing.T, plan *domain.Plan) *domain.Topic {
	t.Helper()
	tp := plan.FindSubject("subj-1").FindTopic("topic-1")
	if tp == nil {
		t.Fatal("test topic missing")
	}
	return tp
}

func TestRegisterSession(t *testing.T) {
	t.Run("creates one pending revision per offset", func(t *testing.T) {
		s := New(WithClock(fixedClock), WithDayZero(false))
		plan := newTestPlan()

		err := s.RegisterSession(plan, "subj-1", "topic-1", 10, 7, []int{7, 14}, true)
		if err != nil {
			t.Fatalf("RegisterSession failed: %v", err)
		}

		tp := topic(t, plan)
		if tp.QuestionsTotal != 10 || tp.QuestionsCorrect != 7 {
			t.Errorf("Expected aggregates (10, 7), but got (%d, %d)", tp.QuestionsTotal, tp.QuestionsCorrect)
		}
		if !tp.IsTheoryCompleted {
			t.Error("Expected theory-completed flag to be set")
		}
		if len(tp.Revisions) != 2 {
			t.Fatalf("Expected 2 revisions, but got %d", len(tp.Revisions))
		}
		for i, days := range []int{7, 14} {
			rev := tp.Revisions[i]
			if rev.IsCompleted {
				t.Errorf("Expected revision %s to be pending", rev.Label)
			}
			want := datemath.AddDays(testNow, days)
			if !rev.ScheduledDate.Equal(want) {
				t.Errorf("Expected revision %s scheduled at %v, but got %v", rev.Label, want, rev.ScheduledDate)
			}
		}
		if len(plan.StudySessions) != 1 {
			t.Fatalf("Expected 1 study session, but got %d", len(plan.StudySessions))
		}
	})

	t.Run("discards duplicate and non-positive offsets", func(t *testing.T) {
		s := New(WithClock(fixedClock), WithDayZero(false))
		plan := newTestPlan()

		if err := s.RegisterSession(plan, "subj-1", "topic-1", 5, 5, []int{7, 7, 0, -3, 14}, false); err != nil {
			t.Fatalf("RegisterSession failed: %v", err)
		}
		if got := len(topic(t, plan).Revisions); got != 2 {
			t.Errorf("Expected 2 revisions from offsets [7 7 0 -3 14], but got %d", got)
		}
	})

	t.Run("empty offsets schedule nothing", func(t *testing.T) {
		s := New(WithClock(fixedClock), WithDayZero(false))
		plan := newTestPlan()

		if err := s.RegisterSession(plan, "subj-1", "topic-1", 3, 1, nil, false); err != nil {
			t.Fatalf("RegisterSession failed: %v", err)
		}
		if got := len(topic(t, plan).Revisions); got != 0 {
			t.Errorf("Expected no revisions, but got %d", got)
		}
	})

	t.Run("day zero records a completed revision", func(t *testing.T) {
		s := New(WithClock(fixedClock), WithDayZero(true))
		plan := newTestPlan()

		if err := s.RegisterSession(plan, "subj-1", "topic-1", 10, 7, []int{7}, false); err != nil {
			t.Fatalf("RegisterSession failed: %v", err)
		}
		tp := topic(t, plan)
		if len(tp.Revisions) != 2 {
			t.Fatalf("Expected D0 plus D7, but got %d revisions", len(tp.Revisions))
		}
		d0 := tp.Revisions[0]
		if d0.Label != "D0" || !d0.IsCompleted {
			t.Errorf("Expected completed D0 revision, but got %+v", d0)
		}
		if d0.QuestionsTotal != 10 || d0.QuestionsCorrect != 7 {
			t.Errorf("Expected D0 to carry the session score (10, 7), but got (%d, %d)", d0.QuestionsTotal, d0.QuestionsCorrect)
		}
	})

	t.Run("overwrites theory flag rather than OR-ing it", func(t *testing.T) {
		s := New(WithClock(fixedClock), WithDayZero(false))
		plan := newTestPlan()
		topic(t, plan).IsTheoryCompleted = true

		if err := s.RegisterSession(plan, "subj-1", "topic-1", 1, 1, nil, false); err != nil {
			t.Fatalf("RegisterSession failed: %v", err)
		}
		if topic(t, plan).IsTheoryCompleted {
			t.Error("Expected theory flag to be overwritten to false")
		}
	})

	t.Run("rejects correct above total", func(t *testing.T) {
		s := New(WithClock(fixedClock))
		plan := newTestPlan()

		err := s.RegisterSession(plan, "subj-1", "topic-1", 5, 6, nil, false)
		if !errors.Is(err, domain.ErrInvalidScore) {
			t.Errorf("Expected ErrInvalidScore, but got %v", err)
		}
	})

	t.Run("unknown topic", func(t *testing.T) {
		s := New(WithClock(fixedClock))
		plan := newTestPlan()

		err := s.RegisterSession(plan, "subj-1", "missing", 1, 1, nil, false)
		if !errors.Is(err, domain.ErrTopicNotFound) {
			t.Errorf("Expected ErrTopicNotFound, but got %v", err)
		}
	})
}

// Scenario A→B→C from the revision lifecycle: register, complete one
// revision, then delete it again.
func TestRevisionLifecycle(t *testing.T) {
	s := New(WithClock(fixedClock), WithDayZero(false))
	plan := newTestPlan()

	if err := s.RegisterSession(plan, "subj-1", "topic-1", 10, 7, []int{7, 14}, true); err != nil {
		t.Fatalf("RegisterSession failed: %v", err)
	}
	tp := topic(t, plan)
	revID := tp.Revisions[0].ID

	if err := s.CompleteRevision(plan, "subj-1", "topic-1", revID, 5, 3); err != nil {
		t.Fatalf("CompleteRevision failed: %v", err)
	}
	if tp.QuestionsTotal != 15 || tp.QuestionsCorrect != 10 {
		t.Errorf("Expected aggregates (15, 10) after completion, but got (%d, %d)", tp.QuestionsTotal, tp.QuestionsCorrect)
	}
	rev := tp.Revisions[0]
	if !rev.IsCompleted || rev.QuestionsTotal != 5 || rev.QuestionsCorrect != 3 {
		t.Errorf("Expected completed revision with score (5, 3), but got %+v", rev)
	}
	if rev.CompletedDate == nil || !rev.CompletedDate.Equal(testNow) {
		t.Errorf("Expected completedDate %v, but got %v", testNow, rev.CompletedDate)
	}
	if len(plan.StudySessions) != 2 {
		t.Errorf("Expected 2 study sessions, but got %d", len(plan.StudySessions))
	}

	if err := s.DeleteRevision(plan, "subj-1", "topic-1", revID); err != nil {
		t.Fatalf("DeleteRevision failed: %v", err)
	}
	if tp.QuestionsTotal != 10 || tp.QuestionsCorrect != 7 {
		t.Errorf("Expected aggregates to revert to (10, 7), but got (%d, %d)", tp.QuestionsTotal, tp.QuestionsCorrect)
	}
	if len(tp.Revisions) != 1 {
		t.Errorf("Expected 1 remaining revision, but got %d", len(tp.Revisions))
	}
}

func TestCompleteRevision(t *testing.T) {
	t.Run("completing twice is rejected", func(t *testing.T) {
		s := New(WithClock(fixedClock), WithDayZero(false))
		plan := newTestPlan()
		if err := s.RegisterSession(plan, "subj-1", "topic-1", 0, 0, []int{7}, false); err != nil {
			t.Fatalf("RegisterSession failed: %v", err)
		}
		revID := topic(t, plan).Revisions[0].ID

		if err := s.CompleteRevision(plan, "subj-1", "topic-1", revID, 2, 2); err != nil {
			t.Fatalf("first CompleteRevision failed: %v", err)
		}
		err := s.CompleteRevision(plan, "subj-1", "topic-1", revID, 2, 2)
		if !errors.Is(err, domain.ErrRevisionCompleted) {
			t.Errorf("Expected ErrRevisionCompleted, but got %v", err)
		}
	})

	t.Run("unknown revision is a reported no-op", func(t *testing.T) {
		s := New(WithClock(fixedClock))
		plan := newTestPlan()

		err := s.CompleteRevision(plan, "subj-1", "topic-1", "missing", 1, 1)
		if !errors.Is(err, domain.ErrRevisionNotFound) {
			t.Errorf("Expected ErrRevisionNotFound, but got %v", err)
		}
		tp := topic(t, plan)
		if tp.QuestionsTotal != 0 || len(plan.StudySessions) != 0 {
			t.Error("Expected no mutation on not-found")
		}
	})
}

func TestDeleteRevision(t *testing.T) {
	t.Run("pending deletion leaves aggregates alone", func(t *testing.T) {
		s := New(WithClock(fixedClock), WithDayZero(false))
		plan := newTestPlan()
		if err := s.RegisterSession(plan, "subj-1", "topic-1", 10, 7, []int{7}, false); err != nil {
			t.Fatalf("RegisterSession failed: %v", err)
		}
		revID := topic(t, plan).Revisions[0].ID

		if err := s.DeleteRevision(plan, "subj-1", "topic-1", revID); err != nil {
			t.Fatalf("DeleteRevision failed: %v", err)
		}
		tp := topic(t, plan)
		if tp.QuestionsTotal != 10 || tp.QuestionsCorrect != 7 {
			t.Errorf("Expected aggregates (10, 7), but got (%d, %d)", tp.QuestionsTotal, tp.QuestionsCorrect)
		}
	})

	t.Run("subtraction clamps at zero", func(t *testing.T) {
		s := New(WithClock(fixedClock))
		plan := newTestPlan()
		tp := topic(t, plan)
		// An inconsistent record: the revision claims more questions
		// than the topic aggregate holds.
		tp.QuestionsTotal = 3
		tp.QuestionsCorrect = 1
		tp.Revisions = append(tp.Revisions, domain.Revision{
			ID:               "rev-x",
			IsCompleted:      true,
			QuestionsTotal:   10,
			QuestionsCorrect: 8,
		})

		if err := s.DeleteRevision(plan, "subj-1", "topic-1", "rev-x"); err != nil {
			t.Fatalf("DeleteRevision failed: %v", err)
		}
		if tp.QuestionsTotal != 0 || tp.QuestionsCorrect != 0 {
			t.Errorf("Expected aggregates clamped to (0, 0), but got (%d, %d)", tp.QuestionsTotal, tp.QuestionsCorrect)
		}
	})
}

func TestTopicFinishedClassification(t *testing.T) {
	s := New(WithClock(fixedClock), WithDayZero(true))
	plan := newTestPlan()
	tp := topic(t, plan)

	if tp.IsFinished() {
		t.Error("Expected a topic with no revisions to be unfinished")
	}

	// Day-zero only: the single revision is completed, so the topic
	// classifies as finished immediately.
	if err := s.RegisterSession(plan, "subj-1", "topic-1", 4, 4, nil, true); err != nil {
		t.Fatalf("RegisterSession failed: %v", err)
	}
	if !tp.IsFinished() {
		t.Error("Expected a topic with only the completed D0 revision to be finished")
	}

	// A follow-up session adds pending revisions; classification flips
	// back until they complete.
	if err := s.RegisterSession(plan, "subj-1", "topic-1", 4, 2, []int{7}, true); err != nil {
		t.Fatalf("RegisterSession failed: %v", err)
	}
	if tp.IsFinished() {
		t.Error("Expected pending revisions to unfinish the topic")
	}
	for _, rev := range tp.Revisions {
		if !rev.IsCompleted {
			if err := s.CompleteRevision(plan, "subj-1", "topic-1", rev.ID, 1, 1); err != nil {
				t.Fatalf("CompleteRevision failed: %v", err)
			}
		}
	}
	if !tp.IsFinished() {
		t.Error("Expected the topic to be finished once every revision completed")
	}
}

func TestDefaultOffsets(t *testing.T) {
	s := New(WithClock(fixedClock), WithDefaultOffsets([]int{1, 7}))
	plan := newTestPlan()

	if err := s.RegisterSession(plan, "subj-1", "topic-1", 0, 0, nil, false); err != nil {
		t.Fatalf("RegisterSession: %v", err)
	}
	got := topic(t, plan)
	// D0 plus the two configured fallback offsets.
	if len(got.Revisions) != 3 {
		t.Fatalf("revisions = %d, want 3", len(got.Revisions))
	}

	// Explicit offsets win over the configured fallback.
	plan2 := newTestPlan()
	if err := s.RegisterSession(plan2, "subj-1", "topic-1", 0, 0, []int{30}, false); err != nil {
		t.Fatalf("RegisterSession: %v", err)
	}
	got2 := topic(t, plan2)
	if len(got2.Revisions) != 2 {
		t.Fatalf("revisions = %d, want 2", len(got2.Revisions))
	}
	if got2.Revisions[1].Label != "D30" {
		t.Errorf("label = %q, want D30", got2.Revisions[1].Label)
	}
}
