// Package scheduler implements the topic revision scheduler: studying
// a topic registers a session and produces pending revisions at fixed
// day offsets; completing or deleting a revision keeps the topic's
// aggregate question counters consistent with its history.
package scheduler

import (
	"fmt"
	"slices"
	"time"

	"github.com/conorfennell/studylog/internal/datemath"
	"github.com/conorfennell/studylog/internal/domain"
)

// Scheduler applies revision scheduling operations to a plan.
type Scheduler struct {
	clock func() time.Time

	// dayZero, when set, records the study session itself as an
	// already-completed "D0" revision carrying the session's score.
	dayZero bool

	// defaultOffsets is used when a session names no offsets of its
	// own. Empty means schedule nothing in that case.
	defaultOffsets []int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the time source, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) { s.clock = clock }
}

// WithDayZero toggles the completed same-day revision record.
func WithDayZero(enabled bool) Option {
	return func(s *Scheduler) { s.dayZero = enabled }
}

// WithDefaultOffsets sets the offsets applied when a session passes
// none.
func WithDefaultOffsets(offsets []int) Option {
	return func(s *Scheduler) { s.defaultOffsets = slices.Clone(offsets) }
}

// New returns a Scheduler with the real clock and day-zero enabled.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{clock: time.Now, dayZero: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Label derives the human-readable revision label for a day offset.
func Label(days int) string {
	return fmt.Sprintf("D%d", days)
}

// sanitizeOffsets drops non-positive and duplicate offsets, keeping
// the result sorted. Invalid entries are discarded silently; an empty
// result just schedules nothing.
func sanitizeOffsets(offsets []int) []int {
	var out []int
	for _, d := range offsets {
		if d <= 0 {
			continue
		}
		if !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	slices.Sort(out)
	return out
}

// RegisterSession records a completed study session on a topic:
// appends a StudySession entry, creates one pending revision per valid
// offset, adds the score into the topic's aggregate counters and
// overwrites the theory-completed flag.
func (s *Scheduler) RegisterSession(plan *domain.Plan, subjectID, topicID string, total, correct int, offsets []int, theoryFinished bool) error {
	topic, err := lookupTopic(plan, subjectID, topicID)
	if err != nil {
		return err
	}
	if err := validateScore(total, correct); err != nil {
		return err
	}

	now := s.clock()
	plan.StudySessions = append(plan.StudySessions, domain.StudySession{
		Date:             now,
		QuestionsTotal:   total,
		QuestionsCorrect: correct,
	})

	if s.dayZero {
		completed := now
		topic.Revisions = append(topic.Revisions, domain.Revision{
			ID:               domain.NewID(),
			Label:            Label(0),
			ScheduledDate:    now,
			IsCompleted:      true,
			CompletedDate:    &completed,
			QuestionsTotal:   total,
			QuestionsCorrect: correct,
		})
	}
	if len(offsets) == 0 {
		offsets = s.defaultOffsets
	}
	for _, days := range sanitizeOffsets(offsets) {
		topic.Revisions = append(topic.Revisions, domain.Revision{
			ID:            domain.NewID(),
			Label:         Label(days),
			ScheduledDate: datemath.AddDays(now, days),
		})
	}

	topic.QuestionsTotal += total
	topic.QuestionsCorrect += correct
	topic.IsTheoryCompleted = theoryFinished
	topic.LastRevision = &now
	return nil
}

// CompleteRevision marks a pending revision completed with the given
// score, records a session entry and folds the score into the topic
// aggregates.
func (s *Scheduler) CompleteRevision(plan *domain.Plan, subjectID, topicID, revisionID string, total, correct int) error {
	topic, err := lookupTopic(plan, subjectID, topicID)
	if err != nil {
		return err
	}
	if err := validateScore(total, correct); err != nil {
		return err
	}

	i := topic.FindRevision(revisionID)
	if i < 0 {
		return domain.ErrRevisionNotFound
	}
	if topic.Revisions[i].IsCompleted {
		return domain.ErrRevisionCompleted
	}

	now := s.clock()
	rev := &topic.Revisions[i]
	rev.IsCompleted = true
	rev.CompletedDate = &now
	rev.QuestionsTotal = total
	rev.QuestionsCorrect = correct

	plan.StudySessions = append(plan.StudySessions, domain.StudySession{
		Date:             now,
		QuestionsTotal:   total,
		QuestionsCorrect: correct,
	})
	topic.QuestionsTotal += total
	topic.QuestionsCorrect += correct
	topic.LastRevision = &now
	return nil
}

// DeleteRevision removes a revision. A completed revision's stored
// score is subtracted from the topic aggregates, clamped at zero so an
// inconsistent record can never drive the counters negative. Deleting
// a pending revision leaves the aggregates untouched.
func (s *Scheduler) DeleteRevision(plan *domain.Plan, subjectID, topicID, revisionID string) error {
	topic, err := lookupTopic(plan, subjectID, topicID)
	if err != nil {
		return err
	}

	i := topic.FindRevision(revisionID)
	if i < 0 {
		return domain.ErrRevisionNotFound
	}

	rev := topic.Revisions[i]
	if rev.IsCompleted {
		topic.QuestionsTotal = max(0, topic.QuestionsTotal-rev.QuestionsTotal)
		topic.QuestionsCorrect = max(0, topic.QuestionsCorrect-rev.QuestionsCorrect)
	}
	topic.Revisions = slices.Delete(topic.Revisions, i, i+1)
	return nil
}

func lookupTopic(plan *domain.Plan, subjectID, topicID string) (*domain.Topic, error) {
	subject := plan.FindSubject(subjectID)
	if subject == nil {
		return nil, domain.ErrSubjectNotFound
	}
	topic := subject.FindTopic(topicID)
	if topic == nil {
		return nil, domain.ErrTopicNotFound
	}
	return topic, nil
}

func validateScore(total, correct int) error {
	if total < 0 || correct < 0 || correct > total {
		return domain.ErrInvalidScore
	}
	return nil
}
