package domain

import "time"

// CardState tracks where a flashcard sits in the graduated review
// lifecycle. The binary review policy leaves it untouched.
type CardState string

const (
	CardStateNew        CardState = "new"
	CardStateLearning   CardState = "learning"
	CardStateReview     CardState = "review"
	CardStateRelearning CardState = "relearning"
)

// MediaSide selects which face of the card shows the attached media.
type MediaSide string

const (
	MediaSideQuestion MediaSide = "question"
	MediaSideAnswer   MediaSide = "answer"
)

// MinEaseFactor is the floor the graduated policy clamps ease to.
const MinEaseFactor = 1.3

// DefaultEaseFactor is assigned to freshly created cards.
const DefaultEaseFactor = 2.5

// Flashcard is a spaced-repetition review unit. It carries the
// superset of fields both review policies need; each policy ignores
// the fields it does not use.
type Flashcard struct {
	ID       string    `json:"id"`
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	MediaRef string    `json:"mediaRef,omitempty"`
	MediaOn  MediaSide `json:"mediaSide,omitempty"`

	State      CardState `json:"state"`
	Interval   int       `json:"interval"`
	EaseFactor float64   `json:"easeFactor"`
	Reps       int       `json:"repetitions"`
	DueDate    time.Time `json:"dueDate"`

	IsError bool `json:"isError,omitempty"`
}

// FlashcardSubDeck owns a flat list of cards.
type FlashcardSubDeck struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Cards []Flashcard `json:"cards"`
}

// CardSource is a registered card location for a deck, either a local
// directory or a git URL. Syncs re-read every registered source.
type CardSource struct {
	ID         string     `json:"id"`
	Location   string     `json:"location"`
	LastSynced *time.Time `json:"lastSynced,omitempty"`
}

// FlashcardDeck owns sub-decks and the sources its cards are pulled
// from. Decks carry no scheduling state of their own; they only scope
// due-set selection.
type FlashcardDeck struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	SubDecks []FlashcardSubDeck `json:"subDecks"`
	Sources  []CardSource       `json:"sources"`
}

// NewFlashcard returns a card in the new state, due immediately.
func NewFlashcard(question, answer string, now time.Time) Flashcard {
	return Flashcard{
		ID:         NewID(),
		Question:   question,
		Answer:     answer,
		State:      CardStateNew,
		Interval:   0,
		EaseFactor: DefaultEaseFactor,
		Reps:       0,
		DueDate:    now,
	}
}

// Normalize defaults nil sub-deck and card slices and repairs cards
// loaded from records that predate the scheduling fields.
func (d *FlashcardDeck) Normalize() {
	if d.SubDecks == nil {
		d.SubDecks = []FlashcardSubDeck{}
	}
	if d.Sources == nil {
		d.Sources = []CardSource{}
	}
	for i := range d.SubDecks {
		sd := &d.SubDecks[i]
		if sd.Cards == nil {
			sd.Cards = []Flashcard{}
		}
		for j := range sd.Cards {
			c := &sd.Cards[j]
			if c.State == "" {
				c.State = CardStateNew
			}
			if c.EaseFactor < MinEaseFactor {
				c.EaseFactor = DefaultEaseFactor
			}
			if c.Interval < 0 {
				c.Interval = 0
			}
		}
	}
}

// FindSource returns a pointer into the deck's source slice, or nil.
func (d *FlashcardDeck) FindSource(id string) *CardSource {
	for i := range d.Sources {
		if d.Sources[i].ID == id {
			return &d.Sources[i]
		}
	}
	return nil
}

// FindSubDeck returns a pointer into the deck's sub-deck slice, or nil.
func (d *FlashcardDeck) FindSubDeck(id string) *FlashcardSubDeck {
	for i := range d.SubDecks {
		if d.SubDecks[i].ID == id {
			return &d.SubDecks[i]
		}
	}
	return nil
}

// FindDeck returns a pointer into the plan's deck slice, or nil.
func (p *Plan) FindDeck(id string) *FlashcardDeck {
	for i := range p.Decks {
		if p.Decks[i].ID == id {
			return &p.Decks[i]
		}
	}
	return nil
}

// FindCard locates a card anywhere in the plan's decks and returns a
// pointer to it, or nil when the id is unknown.
func (p *Plan) FindCard(id string) *Flashcard {
	for i := range p.Decks {
		for j := range p.Decks[i].SubDecks {
			cards := p.Decks[i].SubDecks[j].Cards
			for k := range cards {
				if cards[k].ID == id {
					return &cards[k]
				}
			}
		}
	}
	return nil
}
