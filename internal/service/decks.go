package service

import (
	"github.com/conorfennell/studylog/internal/domain"
	"github.com/conorfennell/studylog/internal/dueset"
	"github.com/conorfennell/studylog/internal/review"
)

// AddDeck creates an empty flashcard deck on the plan.
func (s *PlanService) AddDeck(planID, name string) (domain.FlashcardDeck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return domain.FlashcardDeck{}, err
	}
	deck := domain.FlashcardDeck{ID: domain.NewID(), Name: name, SubDecks: []domain.FlashcardSubDeck{}, Sources: []domain.CardSource{}}
	plan.Decks = append(plan.Decks, deck)
	s.persist(plan)
	return deck, nil
}

// DeleteDeck removes a deck and all its cards.
func (s *PlanService) DeleteDeck(planID, deckID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return err
	}
	for i := range plan.Decks {
		if plan.Decks[i].ID == deckID {
			plan.Decks = append(plan.Decks[:i], plan.Decks[i+1:]...)
			s.persist(plan)
			return nil
		}
	}
	return domain.ErrDeckNotFound
}

// AddSubDeck creates a sub-deck inside a deck.
func (s *PlanService) AddSubDeck(planID, deckID, name string) (domain.FlashcardSubDeck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return domain.FlashcardSubDeck{}, err
	}
	deck := plan.FindDeck(deckID)
	if deck == nil {
		return domain.FlashcardSubDeck{}, domain.ErrDeckNotFound
	}
	sub := domain.FlashcardSubDeck{ID: domain.NewID(), Name: name, Cards: []domain.Flashcard{}}
	deck.SubDecks = append(deck.SubDecks, sub)
	s.persist(plan)
	return sub, nil
}

// DeleteSubDeck removes a sub-deck from a deck.
func (s *PlanService) DeleteSubDeck(planID, deckID, subDeckID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return err
	}
	deck := plan.FindDeck(deckID)
	if deck == nil {
		return domain.ErrDeckNotFound
	}
	for i := range deck.SubDecks {
		if deck.SubDecks[i].ID == subDeckID {
			deck.SubDecks = append(deck.SubDecks[:i], deck.SubDecks[i+1:]...)
			s.persist(plan)
			return nil
		}
	}
	return domain.ErrSubDeckNotFound
}

// AddCard creates a flashcard in a sub-deck, starting in the new
// state and due immediately.
func (s *PlanService) AddCard(planID, deckID, subDeckID string, content domain.CardContent) (domain.Flashcard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return domain.Flashcard{}, err
	}
	deck := plan.FindDeck(deckID)
	if deck == nil {
		return domain.Flashcard{}, domain.ErrDeckNotFound
	}
	sub := deck.FindSubDeck(subDeckID)
	if sub == nil {
		return domain.Flashcard{}, domain.ErrSubDeckNotFound
	}
	card := domain.NewFlashcard(content.Question, content.Answer, s.clock())
	card.MediaRef = content.MediaRef
	if card.MediaRef != "" {
		card.MediaOn = content.MediaOn
		if card.MediaOn == "" {
			card.MediaOn = domain.MediaSideQuestion
		}
	}
	sub.Cards = append(sub.Cards, card)
	s.persist(plan)
	return card, nil
}

// DeleteCard removes a flashcard.
func (s *PlanService) DeleteCard(planID, deckID, subDeckID, cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return err
	}
	deck := plan.FindDeck(deckID)
	if deck == nil {
		return domain.ErrDeckNotFound
	}
	sub := deck.FindSubDeck(subDeckID)
	if sub == nil {
		return domain.ErrSubDeckNotFound
	}
	for i := range sub.Cards {
		if sub.Cards[i].ID == cardID {
			sub.Cards = append(sub.Cards[:i], sub.Cards[i+1:]...)
			s.persist(plan)
			return nil
		}
	}
	return domain.ErrCardNotFound
}

// DueCounts reports how many cards are currently due in each scope.
func (s *PlanService) DueCounts(planID string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	counts := make(map[string]int, len(plan.Decks)+1)
	for i := range plan.Decks {
		deck := &plan.Decks[i]
		due, err := dueset.DueCards(plan, dueset.Scope{DeckID: deck.ID}, now)
		if err != nil {
			return nil, err
		}
		counts[deck.ID] = len(due)
	}
	errCards, err := dueset.DueCards(plan, dueset.Scope{ErrorDeck: true}, now)
	if err != nil {
		return nil, err
	}
	counts["errors"] = len(errCards)
	return counts, nil
}

// StartReview opens a review session over the due cards in scope.
func (s *PlanService) StartReview(planID string, scope dueset.Scope, policy review.PolicyKind) (ReviewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return ReviewState{}, err
	}
	due, err := dueset.DueCards(plan, scope, s.clock())
	if err != nil {
		return ReviewState{}, err
	}
	if len(due) == 0 {
		return ReviewState{}, domain.ErrNothingDue
	}
	ids := make([]string, len(due))
	for i, card := range due {
		ids[i] = card.ID
	}
	session := review.NewSession(policy, scope.ErrorDeck, ids)
	s.sessions[session.ID] = &studySession{planID: planID, session: session}
	return s.reviewState(plan, session), nil
}

// CurrentCard returns the card in focus for a review session.
func (s *PlanService) CurrentCard(sessionID string) (ReviewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	held, ok := s.sessions[sessionID]
	if !ok {
		return ReviewState{}, domain.ErrSessionNotFound
	}
	plan, err := s.plan(held.planID)
	if err != nil {
		return ReviewState{}, err
	}
	return s.reviewState(plan, held.session), nil
}

// AnswerCard records an answer for the in-focus card, reschedules it
// and advances the session. Finished sessions are discarded.
func (s *PlanService) AnswerCard(sessionID, cardID string, rating review.Rating, outcome review.Outcome) (ReviewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	held, ok := s.sessions[sessionID]
	if !ok {
		return ReviewState{}, domain.ErrSessionNotFound
	}
	session := held.session
	if err := session.CheckFocus(cardID); err != nil {
		return ReviewState{}, err
	}
	plan, err := s.plan(held.planID)
	if err != nil {
		return ReviewState{}, err
	}
	card := plan.FindCard(cardID)
	if card == nil {
		return ReviewState{}, domain.ErrCardNotFound
	}

	now := s.clock()
	switch session.Policy {
	case review.PolicyGraduated:
		next, err := review.ApplyGraded(*card, rating, now)
		if err != nil {
			return ReviewState{}, err
		}
		*card = next
		if rating == review.Again {
			session.Wrong++
			session.Requeue()
		} else {
			session.Correct++
			session.Advance()
		}
	case review.PolicyBinary:
		*card = review.ApplyBinary(*card, outcome, session.ErrorDeck, now)
		if outcome == review.Wrong {
			session.Wrong++
		} else {
			session.Correct++
		}
		session.Advance()
	}
	s.persist(plan)

	state := s.reviewState(plan, session)
	if session.Done() {
		delete(s.sessions, sessionID)
	}
	return state, nil
}

// ReviewState is the view of a running review session handed to
// callers.
type ReviewState struct {
	SessionID string           `json:"sessionId"`
	Done      bool             `json:"done"`
	Remaining int              `json:"remaining"`
	Total     int              `json:"total"`
	Correct   int              `json:"correct"`
	Wrong     int              `json:"wrong"`
	Card      *domain.Flashcard `json:"card,omitempty"`
}

func (s *PlanService) reviewState(plan *domain.Plan, session *review.Session) ReviewState {
	state := ReviewState{
		SessionID: session.ID,
		Done:      session.Done(),
		Remaining: session.Remaining(),
		Total:     session.Total(),
		Correct:   session.Correct,
		Wrong:     session.Wrong,
	}
	if id, ok := session.Current(); ok {
		if card := plan.FindCard(id); card != nil {
			copied := *card
			state.Card = &copied
		}
	}
	return state
}
