package models

import (
	"time"

	"github.com/google/uuid"
)

// Message senders in chat history.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Response kinds for POST /api/v1/chat.
const (
	KindAnswer          = "answer"
	KindFormatSelection = "format_selection"
	KindError           = "error"
)

// ChatRequest is the payload for POST /api/v1/chat.
type ChatRequest struct {
	// SessionID identifies the chat session the message belongs to. Required.
	SessionID string `json:"session_id" binding:"required,uuid"`

	// Message is the user's chat text. Required.
	Message string `json:"message" binding:"required"`

	// SelectedFormat carries the user's answer to a previous format-selection
	// prompt ("json", "csv" or "xml"). Optional.
	SelectedFormat string `json:"selected_format,omitempty"`

	// DocumentContext is optional uploaded-document text used as answering
	// context for non-scraping questions.
	DocumentContext string `json:"document_context,omitempty"`
}

// ChatResponse is the response for POST /api/v1/chat.
//
// Kind is "answer" for a completed turn, "format_selection" when the scrape
// request is suspended waiting for an output format, and "error" otherwise.
type ChatResponse struct {
	Kind    string         `json:"type"`
	Answer  string         `json:"answer,omitempty"`
	Prompt  string         `json:"message,omitempty"`
	Options []OutputFormat `json:"options,omitempty"`
	Error   *ErrorDetail   `json:"error,omitempty"`
}

// Session is one chat session owned by a user.
type Session struct {
	ID        uuid.UUID `json:"session_id"`
	UserID    string    `json:"-"`
	Title     string    `json:"session_name"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessage is one append-only chat history row.
type ChatMessage struct {
	SessionID uuid.UUID `json:"-"`
	UserID    string    `json:"-"`
	Sender    string    `json:"sender"`
	Text      string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// OutputArtifact references a written artifact file.
type OutputArtifact struct {
	Filename    string
	Path        string
	Format      OutputFormat
	RecordCount int
	CreatedAt   time.Time
}
