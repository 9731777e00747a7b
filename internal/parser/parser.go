// Package parser reads flashcard source files. A card is a block of
// "Q:" question lines, "A:" answer lines and an optional "M:" media
// reference; "---" separates cards explicitly, a new "Q:" implicitly.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/studylog/internal/domain"
)

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
	mediaPrefix    = "M:"
)

type state int

const (
	seeking state = iota
	readingQuestion
	readingAnswer
	readingMedia
)

// ParseFile reads a file from the given path and extracts all cards.
func ParseFile(path string) ([]domain.CardContent, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all cards.
func Parse(r io.Reader) ([]domain.CardContent, error) {
	scanner := bufio.NewScanner(r)
	var cards []domain.CardContent
	var current domain.CardContent
	var block []string
	currentState := seeking

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.Join(block, "\n")
		switch currentState {
		case readingQuestion:
			current.Question = content
		case readingAnswer:
			current.Answer = content
		case readingMedia:
			// A media reference is a single location; collapse any
			// stray continuation lines.
			current.MediaRef = strings.TrimSpace(content)
		}
		block = nil
	}

	finishCard := func() {
		flushBlock()
		if current.Question != "" {
			cards = append(cards, current)
		}
		current = domain.CardContent{}
		currentState = seeking
	}

	stripPrefix := func(line, prefix string) string {
		content := line[len(prefix):]
		if strings.HasPrefix(content, " ") {
			content = content[1:]
		}
		return content
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "---":
			finishCard()
		case strings.HasPrefix(line, questionPrefix):
			if currentState != seeking { // A new question always starts a new card
				finishCard()
			} else {
				flushBlock()
			}
			currentState = readingQuestion
			block = append(block, stripPrefix(line, questionPrefix))
		case strings.HasPrefix(line, answerPrefix):
			flushBlock()
			currentState = readingAnswer
			block = append(block, stripPrefix(line, answerPrefix))
		case strings.HasPrefix(line, mediaPrefix):
			flushBlock()
			currentState = readingMedia
			block = append(block, stripPrefix(line, mediaPrefix))
		default:
			if currentState != seeking {
				block = append(block, line)
			}
		}
	}

	finishCard() // Finish the very last card in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}
