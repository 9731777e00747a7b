// Package importer reconciles flashcard source files into a plan's
// deck. Each ".md" file maps to a sub-deck named after the file; cards
// are matched by content fingerprint so re-importing is idempotent and
// existing cards keep their scheduling state.
package importer

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/conorfennell/studylog/internal/dedupe"
	"github.com/conorfennell/studylog/internal/domain"
	"github.com/conorfennell/studylog/internal/gitsource"
	"github.com/conorfennell/studylog/internal/parser"
)

// Importer pulls card sources into decks.
type Importer struct {
	reposDir string
	clock    func() time.Time
}

// New returns an Importer that checks git sources out under reposDir.
func New(reposDir string) *Importer {
	return &Importer{reposDir: reposDir, clock: time.Now}
}

// Report summarises one import run.
type Report struct {
	FilesScanned int      `json:"filesScanned"`
	CardsAdded   int      `json:"cardsAdded"`
	CardsRemoved int      `json:"cardsRemoved"`
	Errors       []string `json:"errors,omitempty"`
}

// ImportSource reconciles a source (local directory or git URL) into
// the deck. New cards enter in the new state, due immediately; cards
// whose content vanished from the source are removed from the
// sub-decks this source owns. Parse failures of individual files are
// collected in the report, not fatal.
func (imp *Importer) ImportSource(deck *domain.FlashcardDeck, source string) (Report, error) {
	var report Report

	root := source
	if gitsource.IsGitURL(source) {
		if err := os.MkdirAll(imp.reposDir, 0o755); err != nil {
			return report, fmt.Errorf("failed to create repos directory: %w", err)
		}
		localPath, err := gitsource.LocalPath(imp.reposDir, source)
		if err != nil {
			return report, err
		}
		if err := gitsource.Mirror(source, localPath); err != nil {
			return report, err
		}
		root = localPath
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		report.FilesScanned++
		contents, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("parsing %s: %v", path, parseErr))
			return nil
		}

		added, removed := imp.reconcileSubDeck(deck, subDeckName(path), contents)
		report.CardsAdded += added
		report.CardsRemoved += removed
		return nil
	})
	if walkErr != nil {
		return report, fmt.Errorf("failed to walk source %s: %w", root, walkErr)
	}

	slog.Info("import complete",
		"source", source,
		"files", report.FilesScanned,
		"added", report.CardsAdded,
		"removed", report.CardsRemoved,
		"errors", len(report.Errors),
	)
	return report, nil
}

// reconcileSubDeck syncs one source file's cards into the sub-deck of
// the same name, creating it on first import.
func (imp *Importer) reconcileSubDeck(deck *domain.FlashcardDeck, name string, contents []domain.CardContent) (added, removed int) {
	sd := findSubDeckByName(deck, name)
	if sd == nil {
		deck.SubDecks = append(deck.SubDecks, domain.FlashcardSubDeck{
			ID:    domain.NewID(),
			Name:  name,
			Cards: []domain.Flashcard{},
		})
		sd = &deck.SubDecks[len(deck.SubDecks)-1]
	}

	existing := make(map[string]bool, len(sd.Cards))
	for _, card := range sd.Cards {
		existing[dedupe.CardFingerprint(card)] = true
	}

	wanted := make(map[string]bool, len(contents))
	now := imp.clock()
	for _, content := range contents {
		fp := dedupe.Fingerprint(content)
		wanted[fp] = true
		if existing[fp] {
			continue
		}
		card := domain.NewFlashcard(content.Question, content.Answer, now)
		if content.MediaRef != "" {
			card.MediaRef = content.MediaRef
			card.MediaOn = domain.MediaSideQuestion
		}
		sd.Cards = append(sd.Cards, card)
		added++
	}

	kept := sd.Cards[:0]
	for _, card := range sd.Cards {
		if wanted[dedupe.CardFingerprint(card)] {
			kept = append(kept, card)
		} else {
			removed++
		}
	}
	sd.Cards = kept
	return added, removed
}

func findSubDeckByName(deck *domain.FlashcardDeck, name string) *domain.FlashcardSubDeck {
	for i := range deck.SubDecks {
		if deck.SubDecks[i].Name == name {
			return &deck.SubDecks[i]
		}
	}
	return nil
}

func subDeckName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
