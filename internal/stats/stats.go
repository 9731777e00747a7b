// Package stats derives read-side accuracy and progress metrics from
// a plan's topic counters, mock exams and session history. Nothing in
// here mutates the plan.
package stats

import (
	"sort"

	"github.com/samber/lo"

	"github.com/conorfennell/studylog/internal/domain"
)

// PlanStats is the dashboard headline for one plan.
type PlanStats struct {
	TotalSubjects      int     `json:"totalSubjects"`
	TotalTopics        int     `json:"totalTopics"`
	FinishedTheory     int     `json:"finishedTheory"`
	TheoryPercentage   float64 `json:"theoryPercentage"`
	TotalQuestions     int     `json:"totalQuestions"`
	TotalCorrect       int     `json:"totalCorrect"`
	Accuracy           float64 `json:"accuracy"`
	CompletedRevisions int     `json:"completedRevisions"`
	FinishedTopics     int     `json:"finishedTopics"`
}

// SubjectAccuracy ranks one subject by its accuracy.
type SubjectAccuracy struct {
	SubjectID string  `json:"subjectId"`
	Name      string  `json:"name"`
	Total     int     `json:"total"`
	Correct   int     `json:"correct"`
	Accuracy  float64 `json:"accuracy"`
}

// TimelinePoint is one cumulative accuracy sample, emitted per study
// session in date order.
type TimelinePoint struct {
	Date     string  `json:"date"`
	Accuracy float64 `json:"accuracy"`
}

func accuracy(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// ForPlan computes the plan-level metrics. Mock exam counters join the
// topic counters in the accuracy ratio; an empty plan reports accuracy
// zero rather than dividing by zero.
func ForPlan(plan *domain.Plan) PlanStats {
	s := PlanStats{TotalSubjects: len(plan.Subjects)}

	for _, subject := range plan.Subjects {
		for _, topic := range subject.Topics {
			s.TotalTopics++
			if topic.IsTheoryCompleted {
				s.FinishedTheory++
			}
			if topic.IsFinished() {
				s.FinishedTopics++
			}
			s.TotalQuestions += topic.QuestionsTotal
			s.TotalCorrect += topic.QuestionsCorrect
			s.CompletedRevisions += lo.CountBy(topic.Revisions, func(r domain.Revision) bool {
				return r.IsCompleted
			})
		}
	}
	for _, exam := range plan.MockExams {
		s.TotalQuestions += exam.QuestionsTotal
		s.TotalCorrect += exam.QuestionsCorrect
	}

	s.Accuracy = accuracy(s.TotalCorrect, s.TotalQuestions)
	if s.TotalTopics > 0 {
		s.TheoryPercentage = float64(s.FinishedTheory) / float64(s.TotalTopics) * 100
	}
	return s
}

// BySubject ranks subjects by accuracy, highest first. The sort is
// stable so tied subjects keep their plan order.
func BySubject(plan *domain.Plan) []SubjectAccuracy {
	out := lo.Map(plan.Subjects, func(subject domain.Subject, _ int) SubjectAccuracy {
		total := lo.SumBy(subject.Topics, func(t domain.Topic) int { return t.QuestionsTotal })
		correct := lo.SumBy(subject.Topics, func(t domain.Topic) int { return t.QuestionsCorrect })
		return SubjectAccuracy{
			SubjectID: subject.ID,
			Name:      subject.Name,
			Total:     total,
			Correct:   correct,
			Accuracy:  accuracy(correct, total),
		}
	})

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Accuracy > out[j].Accuracy
	})
	return out
}

// Timeline emits one cumulative accuracy point per study session,
// sessions sorted ascending by date. Each point is the running ratio
// over everything studied so far, not the per-session ratio.
func Timeline(plan *domain.Plan) []TimelinePoint {
	sessions := append([]domain.StudySession(nil), plan.StudySessions...)
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Date.Before(sessions[j].Date)
	})

	out := make([]TimelinePoint, 0, len(sessions))
	var total, correct int
	for _, session := range sessions {
		total += session.QuestionsTotal
		correct += session.QuestionsCorrect
		out = append(out, TimelinePoint{
			Date:     session.Date.Format("2006-01-02"),
			Accuracy: accuracy(correct, total),
		})
	}
	return out
}
