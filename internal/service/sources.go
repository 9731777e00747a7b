package service

import (
	"fmt"

	"github.com/conorfennell/studylog/internal/domain"
	"github.com/conorfennell/studylog/internal/importer"
)

// AddSource registers a card location on a deck. The source is not
// read until the next sync.
func (s *PlanService) AddSource(planID, deckID, location string) (domain.CardSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return domain.CardSource{}, err
	}
	deck := plan.FindDeck(deckID)
	if deck == nil {
		return domain.CardSource{}, domain.ErrDeckNotFound
	}
	for _, src := range deck.Sources {
		if src.Location == location {
			return domain.CardSource{}, domain.ErrSourceExists
		}
	}
	source := domain.CardSource{ID: domain.NewID(), Location: location}
	deck.Sources = append(deck.Sources, source)
	s.persist(plan)
	return source, nil
}

// Sources lists the locations registered on a deck.
func (s *PlanService) Sources(planID, deckID string) ([]domain.CardSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return nil, err
	}
	deck := plan.FindDeck(deckID)
	if deck == nil {
		return nil, domain.ErrDeckNotFound
	}
	out := make([]domain.CardSource, len(deck.Sources))
	for i, src := range deck.Sources {
		if src.LastSynced != nil {
			ls := *src.LastSynced
			src.LastSynced = &ls
		}
		out[i] = src
	}
	return out, nil
}

// DeleteSource unregisters a source. Cards already imported from it
// stay in the deck until a later sync orphans them.
func (s *PlanService) DeleteSource(planID, deckID, sourceID string) error {
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
	for i := range deck.Sources {
		if deck.Sources[i].ID == sourceID {
			deck.Sources = append(deck.Sources[:i], deck.Sources[i+1:]...)
			s.persist(plan)
			return nil
		}
	}
	return domain.ErrSourceNotFound
}

// SyncSources re-reads every source registered on the plan's decks.
// Individual source failures are recorded in the report and do not
// stop the rest of the sync.
func (s *PlanService) SyncSources(planID string) (importer.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.plan(planID)
	if err != nil {
		return importer.Report{}, err
	}
	var total importer.Report
	registered := 0
	for i := range plan.Decks {
		registered += len(plan.Decks[i].Sources)
	}
	if registered == 0 {
		return total, nil
	}
	if s.imp == nil {
		return importer.Report{}, fmt.Errorf("deck import is not configured")
	}
	now := s.clock()
	for i := range plan.Decks {
		deck := &plan.Decks[i]
		for j := range deck.Sources {
			src := &deck.Sources[j]
			report, err := s.imp.ImportSource(deck, src.Location)
			if err != nil {
				total.Errors = append(total.Errors, fmt.Sprintf("%s: %v", src.Location, err))
				continue
			}
			total.FilesScanned += report.FilesScanned
			total.CardsAdded += report.CardsAdded
			total.CardsRemoved += report.CardsRemoved
			total.Errors = append(total.Errors, report.Errors...)
			synced := now
			src.LastSynced = &synced
		}
	}
	s.persist(plan)
	return total, nil
}
