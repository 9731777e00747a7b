// Package service owns the in-memory set of plans. All scheduling
// operations run synchronously against the in-memory state, which is
// the source of truth for the running process; every mutation is then
// persisted in the background, and a failed save is logged rather
// than surfaced, leaving the database eventually consistent with
// memory.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/conorfennell/studylog/internal/domain"
	"github.com/conorfennell/studylog/internal/dueset"
	"github.com/conorfennell/studylog/internal/importer"
	"github.com/conorfennell/studylog/internal/review"
	"github.com/conorfennell/studylog/internal/scheduler"
	"github.com/conorfennell/studylog/internal/stats"
)

// Store is the persistence collaborator contract.
type Store interface {
	GetPlans(ctx context.Context) ([]domain.Plan, error)
	SavePlan(ctx context.Context, plan domain.Plan) error
	DeletePlan(ctx context.Context, planID string) error
}

// PlanService coordinates the scheduling core over the in-memory
// plans.
type PlanService struct {
	mu sync.Mutex

	store Store
	sched *scheduler.Scheduler
	imp   *importer.Importer
	clock func() time.Time

	plans map[string]*domain.Plan
	order []string

	sessions map[string]*studySession

	// ops feeds the persistence worker. A single worker keeps writes
	// in mutation order so an older snapshot never lands on top of a
	// newer one.
	ops  chan persistOp
	done chan struct{}
}

type persistOp struct {
	plan     domain.Plan
	deleteID string
}

type studySession struct {
	planID  string
	session *review.Session
}

// Option configures a PlanService.
type Option func(*PlanService)

// WithClock overrides the time source, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *PlanService) { s.clock = clock }
}

// WithImporter attaches the deck importer.
func WithImporter(imp *importer.Importer) Option {
	return func(s *PlanService) { s.imp = imp }
}

// New loads every stored plan into memory and returns the service.
func New(ctx context.Context, store Store, sched *scheduler.Scheduler, opts ...Option) (*PlanService, error) {
	s := &PlanService{
		store:    store,
		sched:    sched,
		clock:    time.Now,
		plans:    make(map[string]*domain.Plan),
		sessions: make(map[string]*studySession),
		ops:      make(chan persistOp, 64),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	plans, err := store.GetPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load plans: %w", err)
	}
	for i := range plans {
		plan := plans[i]
		s.plans[plan.ID] = &plan
		s.order = append(s.order, plan.ID)
	}

	go s.persistLoop()
	return s, nil
}

// Close drains the persistence queue and stops the worker.
func (s *PlanService) Close() {
	close(s.ops)
	<-s.done
}

// persistLoop applies queued saves and deletes one at a time. The
// in-memory state has already moved on and stands regardless of the
// outcome; a failed write is logged and storage catches up on the
// next successful one.
func (s *PlanService) persistLoop() {
	defer close(s.done)
	for op := range s.ops {
		if op.deleteID != "" {
			if err := s.store.DeletePlan(context.Background(), op.deleteID); err != nil {
				slog.Error("failed to delete plan from storage", "plan_id", op.deleteID, "error", err)
			}
			continue
		}
		if err := s.store.SavePlan(context.Background(), op.plan); err != nil {
			slog.Error("failed to persist plan", "plan_id", op.plan.ID, "error", err)
		}
	}
}

// persist snapshots the plan and queues the save.
func (s *PlanService) persist(plan *domain.Plan) {
	s.ops <- persistOp{plan: plan.Clone()}
}

func (s *PlanService) plan(id string) (*domain.Plan, error) {
	plan, ok := s.plans[id]
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	return plan, nil
}

// ListPlans returns copies of every plan in creation order.
func (s *PlanService) ListPlans() []domain.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Plan, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.plans[id].Clone())
	}
	return out
}

// GetPlan returns a copy of one plan.
func (s *PlanService) GetPlan(id string) (domain.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(id)
	if err != nil {
		return domain.Plan{}, err
	}
	return plan.Clone(), nil
}

// CreatePlan registers a new empty plan.
func (s *PlanService) CreatePlan(name string) domain.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan := &domain.Plan{
		ID:        domain.NewID(),
		Name:      name,
		CreatedAt: s.clock(),
	}
	plan.Normalize(plan.CreatedAt)
	s.plans[plan.ID] = plan
	s.order = append(s.order, plan.ID)
	s.persist(plan)
	return plan.Clone()
}

// DeletePlan removes a plan from memory and storage.
func (s *PlanService) DeletePlan(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.plan(id); err != nil {
		return err
	}
	delete(s.plans, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	s.ops <- persistOp{deleteID: id}
	return nil
}

// AddSubject appends a subject to a plan.
func (s *PlanService) AddSubject(planID, name string) (domain.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return domain.Subject{}, err
	}
	subject := domain.Subject{ID: domain.NewID(), Name: name, Topics: []domain.Topic{}}
	plan.Subjects = append(plan.Subjects, subject)
	s.persist(plan)
	return subject, nil
}

// DeleteSubject removes a subject and everything it owns.
func (s *PlanService) DeleteSubject(planID, subjectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return err
	}
	for i := range plan.Subjects {
		if plan.Subjects[i].ID == subjectID {
			plan.Subjects = append(plan.Subjects[:i], plan.Subjects[i+1:]...)
			s.persist(plan)
			return nil
		}
	}
	return domain.ErrSubjectNotFound
}

// AddTopic appends a topic to a subject.
func (s *PlanService) AddTopic(planID, subjectID, name string) (domain.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return domain.Topic{}, err
	}
	subject := plan.FindSubject(subjectID)
	if subject == nil {
		return domain.Topic{}, domain.ErrSubjectNotFound
	}
	topic := domain.Topic{ID: domain.NewID(), Name: name, Revisions: []domain.Revision{}}
	subject.Topics = append(subject.Topics, topic)
	s.persist(plan)
	return topic, nil
}

// DeleteTopic removes a topic and its revisions.
func (s *PlanService) DeleteTopic(planID, subjectID, topicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return err
	}
	subject := plan.FindSubject(subjectID)
	if subject == nil {
		return domain.ErrSubjectNotFound
	}
	for i := range subject.Topics {
		if subject.Topics[i].ID == topicID {
			subject.Topics = append(subject.Topics[:i], subject.Topics[i+1:]...)
			s.persist(plan)
			return nil
		}
	}
	return domain.ErrTopicNotFound
}

// RegisterSession records a study session on a topic and schedules
// its revisions.
func (s *PlanService) RegisterSession(planID, subjectID, topicID string, total, correct int, offsets []int, theoryFinished bool) (domain.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return domain.Topic{}, err
	}
	if err := s.sched.RegisterSession(plan, subjectID, topicID, total, correct, offsets, theoryFinished); err != nil {
		return domain.Topic{}, err
	}
	s.persist(plan)
	return plan.FindSubject(subjectID).FindTopic(topicID).Clone(), nil
}

// CompleteRevision marks a pending revision completed with its score.
func (s *PlanService) CompleteRevision(planID, subjectID, topicID, revisionID string, total, correct int) (domain.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return domain.Topic{}, err
	}
	if err := s.sched.CompleteRevision(plan, subjectID, topicID, revisionID, total, correct); err != nil {
		return domain.Topic{}, err
	}
	s.persist(plan)
	return plan.FindSubject(subjectID).FindTopic(topicID).Clone(), nil
}

// DeleteRevision removes a revision, reversing its aggregate
// contribution when it was completed.
func (s *PlanService) DeleteRevision(planID, subjectID, topicID, revisionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return err
	}
	if err := s.sched.DeleteRevision(plan, subjectID, topicID, revisionID); err != nil {
		return err
	}
	s.persist(plan)
	return nil
}

// PendingRevisions lists every pending revision across the plan.
func (s *PlanService) PendingRevisions(planID string) ([]dueset.PendingRevision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return nil, err
	}
	return dueset.PendingRevisions(plan, s.clock()), nil
}

// AddMockExam records a practice exam on the plan.
func (s *PlanService) AddMockExam(planID string, exam domain.MockExam) (domain.MockExam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return domain.MockExam{}, err
	}
	if exam.QuestionsCorrect > exam.QuestionsTotal || exam.QuestionsTotal < 0 || exam.QuestionsCorrect < 0 {
		return domain.MockExam{}, domain.ErrInvalidScore
	}
	exam.ID = domain.NewID()
	if exam.Date.IsZero() {
		exam.Date = s.clock()
	}
	plan.MockExams = append(plan.MockExams, exam)
	s.persist(plan)
	return exam, nil
}

// DeleteMockExam removes one mock exam entry.
func (s *PlanService) DeleteMockExam(planID, examID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return err
	}
	for i := range plan.MockExams {
		if plan.MockExams[i].ID == examID {
			plan.MockExams = append(plan.MockExams[:i], plan.MockExams[i+1:]...)
			s.persist(plan)
			return nil
		}
	}
	return domain.ErrExamNotFound
}

// ResetHistory bulk-clears the plan's study session log. Individual
// entries are immutable; this is the only way they go away.
func (s *PlanService) ResetHistory(planID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return err
	}
	plan.StudySessions = []domain.StudySession{}
	s.persist(plan)
	return nil
}

// Stats computes plan-level metrics.
func (s *PlanService) Stats(planID string) (stats.PlanStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return stats.PlanStats{}, err
	}
	return stats.ForPlan(plan), nil
}

// SubjectStats ranks the plan's subjects by accuracy.
func (s *PlanService) SubjectStats(planID string) ([]stats.SubjectAccuracy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return nil, err
	}
	return stats.BySubject(plan), nil
}

// Timeline emits the cumulative accuracy series.
func (s *PlanService) Timeline(planID string) ([]stats.TimelinePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return nil, err
	}
	return stats.Timeline(plan), nil
}
