package domain

import "time"

// Plan is the root aggregate: a named study plan owning subjects, the
// append-only session history, mock exams and flashcard decks. Every
// scheduling operation reads one Plan and produces the updated Plan.
type Plan struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	CreatedAt     time.Time       `json:"createdAt"`
	Subjects      []Subject       `json:"subjects"`
	StudySessions []StudySession  `json:"studySessions"`
	MockExams     []MockExam      `json:"mockExams"`
	Decks         []FlashcardDeck `json:"flashcardDecks"`
}

// Subject groups topics under a display name.
type Subject struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Topics []Topic `json:"topics"`
}

// Topic is a unit of study content with its revision history and the
// running question counters maintained by the revision scheduler.
type Topic struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	QuestionsTotal    int        `json:"questionsTotal"`
	QuestionsCorrect  int        `json:"questionsCorrect"`
	IsTheoryCompleted bool       `json:"isTheoryCompleted"`
	Revisions         []Revision `json:"revisions"`
	LastRevision      *time.Time `json:"lastRevision,omitempty"`
}

// Revision is one scheduled or completed spaced-review instance.
// A completed revision carries the score of that instance only.
type Revision struct {
	ID               string     `json:"id"`
	Label            string     `json:"label"`
	ScheduledDate    time.Time  `json:"scheduledDate"`
	IsCompleted      bool       `json:"isCompleted"`
	CompletedDate    *time.Time `json:"completedDate,omitempty"`
	QuestionsTotal   int        `json:"questionsTotal,omitempty"`
	QuestionsCorrect int        `json:"questionsCorrect,omitempty"`
}

// StudySession is an immutable history entry used for the accuracy
// timeline. Entries are only ever appended, never edited.
type StudySession struct {
	Date             time.Time `json:"date"`
	QuestionsTotal   int       `json:"questionsTotal"`
	QuestionsCorrect int       `json:"questionsCorrect"`
}

// MockExam records one practice exam. Its counters feed plan-level
// accuracy alongside the topic counters.
type MockExam struct {
	ID               string    `json:"id"`
	Institution      string    `json:"institution"`
	Year             int       `json:"year"`
	QuestionsTotal   int       `json:"questionsTotal"`
	QuestionsCorrect int       `json:"questionsCorrect"`
	Duration         string    `json:"duration"`
	Date             time.Time `json:"date"`
}

// IsFinished reports whether every revision on the topic is completed.
// A topic with no revisions is never finished. Recomputed on every
// read; the flag is intentionally not stored.
func (t Topic) IsFinished() bool {
	if len(t.Revisions) == 0 {
		return false
	}
	for _, r := range t.Revisions {
		if !r.IsCompleted {
			return false
		}
	}
	return true
}

// FindRevision returns the index of a revision by id, or -1.
func (t Topic) FindRevision(id string) int {
	for i, r := range t.Revisions {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// FindSubject returns a pointer into the plan's subject slice, or nil.
func (p *Plan) FindSubject(id string) *Subject {
	for i := range p.Subjects {
		if p.Subjects[i].ID == id {
			return &p.Subjects[i]
		}
	}
	return nil
}

// FindTopic returns a pointer into a subject's topic slice, or nil.
func (s *Subject) FindTopic(id string) *Topic {
	for i := range s.Topics {
		if s.Topics[i].ID == id {
			return &s.Topics[i]
		}
	}
	return nil
}

// Normalize defaults nil collections and the creation timestamp before
// persistence or after loading older plan records that predate the
// studySessions and flashcard fields.
func (p *Plan) Normalize(now time.Time) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.Subjects == nil {
		p.Subjects = []Subject{}
	}
	if p.StudySessions == nil {
		p.StudySessions = []StudySession{}
	}
	if p.MockExams == nil {
		p.MockExams = []MockExam{}
	}
	if p.Decks == nil {
		p.Decks = []FlashcardDeck{}
	}
	for i := range p.Subjects {
		if p.Subjects[i].Topics == nil {
			p.Subjects[i].Topics = []Topic{}
		}
		for j := range p.Subjects[i].Topics {
			if p.Subjects[i].Topics[j].Revisions == nil {
				p.Subjects[i].Topics[j].Revisions = []Revision{}
			}
		}
	}
	for i := range p.Decks {
		p.Decks[i].Normalize()
	}
}

// Clone returns a deep copy of the topic, detaching its revisions
// slice and date pointers from the original.
func (t Topic) Clone() Topic {
	out := t
	out.Revisions = append([]Revision(nil), t.Revisions...)
	if t.LastRevision != nil {
		lr := *t.LastRevision
		out.LastRevision = &lr
	}
	for k, rev := range out.Revisions {
		if rev.CompletedDate != nil {
			cd := *rev.CompletedDate
			out.Revisions[k].CompletedDate = &cd
		}
	}
	return out
}

// Clone returns a deep copy of the plan, used to snapshot the
// in-memory state for asynchronous persistence and for read-side
// callers that outlive the service lock.
func (p *Plan) Clone() Plan {
	out := *p
	out.Subjects = make([]Subject, len(p.Subjects))
	for i, subject := range p.Subjects {
		cs := subject
		cs.Topics = make([]Topic, len(subject.Topics))
		for j, topic := range subject.Topics {
			cs.Topics[j] = topic.Clone()
		}
		out.Subjects[i] = cs
	}
	out.StudySessions = append([]StudySession(nil), p.StudySessions...)
	out.MockExams = append([]MockExam(nil), p.MockExams...)
	out.Decks = make([]FlashcardDeck, len(p.Decks))
	for i, deck := range p.Decks {
		cd := deck
		cd.SubDecks = make([]FlashcardSubDeck, len(deck.SubDecks))
		for j, sd := range deck.SubDecks {
			csd := sd
			csd.Cards = append([]Flashcard(nil), sd.Cards...)
			cd.SubDecks[j] = csd
		}
		cd.Sources = make([]CardSource, len(deck.Sources))
		for j, src := range deck.Sources {
			if src.LastSynced != nil {
				ls := *src.LastSynced
				src.LastSynced = &ls
			}
			cd.Sources[j] = src
		}
		out.Decks[i] = cd
	}
	return out
}
