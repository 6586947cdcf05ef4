// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/evidence-rag/internal/core/domain"
)

// QuestionSubmitted is sent when the user submits a question.
type QuestionSubmitted struct {
	Query string
	TopK  int
}

// AnswerCompleted carries the composed answer back to the model.
type AnswerCompleted struct {
	Answer *domain.Answer
	Err    error
}

// CountsLoaded carries the per-source row counts shown in the header.
type CountsLoaded struct {
	Counts map[domain.SourceType]int
	Err    error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
