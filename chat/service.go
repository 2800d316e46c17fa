package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/use-agent/scrapechat/models"
	"github.com/use-agent/scrapechat/orchestrator"
	"github.com/use-agent/scrapechat/spider"
)

// Store is the chat persistence the service needs: history rows plus the
// per-session suspended scrape request.
type Store interface {
	AppendMessage(ctx context.Context, msg models.ChatMessage) error
	PendingRequest(ctx context.Context, sessionID uuid.UUID) (string, bool, error)
	SetPendingRequest(ctx context.Context, sessionID uuid.UUID, userID, message string) error
	ClearPendingRequest(ctx context.Context, sessionID uuid.UUID) error
}

// Generator answers non-scraping questions, optionally grounded in uploaded
// document text.
type Generator interface {
	Generate(ctx context.Context, question, documentContext string) (string, error)
}

// Runner executes one extraction run for a resolved strategy.
type Runner interface {
	Run(ctx context.Context, sp spider.Spider, targetURL string) (*models.ExtractionResult, orchestrator.Outcome, error)
}

// Validator probes a target URL before a run is started.
type Validator interface {
	Validate(ctx context.Context, rawURL string) (bool, string)
}

// ArtifactWriter persists results and renders previews.
type ArtifactWriter interface {
	Write(records []models.Record, format models.OutputFormat, strategyName string) (*models.OutputArtifact, error)
	Preview(records []models.Record) string
}

// Service handles one chat turn end to end: intent resolution, URL
// validation, strategy dispatch, artifact writing and history persistence.
type Service struct {
	store     Store
	llm       Generator
	registry  *spider.Registry
	validator Validator
	runner    Runner
	writer    ArtifactWriter
}

// NewService wires the chat service.
func NewService(store Store, llm Generator, registry *spider.Registry, validator Validator, runner Runner, writer ArtifactWriter) *Service {
	return &Service{
		store:     store,
		llm:       llm,
		registry:  registry,
		validator: validator,
		runner:    runner,
		writer:    writer,
	}
}

// HandleMessage processes one inbound chat message and returns the response
// for it. The inbound message is recorded in history before any work happens,
// and the bot's reply (answers and user-visible failures alike) is recorded
// after, so a session's history always shows both sides of a turn.
func (s *Service) HandleMessage(ctx context.Context, userID string, req models.ChatRequest) models.ChatResponse {
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return errorResponse(models.ErrCodeInvalidInput, "invalid session id")
	}

	if err := s.store.AppendMessage(ctx, models.ChatMessage{
		SessionID: sessionID,
		UserID:    userID,
		Sender:    models.SenderUser,
		Text:      req.Message,
	}); err != nil {
		slog.Error("recording user message failed", "session", sessionID, "error", err)
		return errorResponse(models.ErrCodePersistence, "could not record the message")
	}

	intent := ResolveIntent(req.Message, req.SelectedFormat)

	// A bare format reply ("json") resumes the session's suspended scrape
	// request, if one exists.
	if !intent.IsScrape {
		if pendingMsg, found, perr := s.store.PendingRequest(ctx, sessionID); perr == nil && found {
			sel := req.SelectedFormat
			if sel == "" {
				sel = req.Message
			}
			if f, ok := models.ParseFormat(strings.ToLower(strings.TrimSpace(sel))); ok {
				intent = ResolveIntent(pendingMsg, string(f))
			}
		}
	}

	if !intent.IsScrape {
		return s.answerQuestion(ctx, sessionID, userID, req)
	}
	return s.runScrape(ctx, sessionID, userID, intent, req.Message)
}

func (s *Service) answerQuestion(ctx context.Context, sessionID uuid.UUID, userID string, req models.ChatRequest) models.ChatResponse {
	answer, err := s.llm.Generate(ctx, req.Message, req.DocumentContext)
	if err != nil {
		slog.Error("llm generation failed", "session", sessionID, "error", err)
		return errorResponse(models.ErrCodeLLMFailure, "Sorry, I couldn't generate a response. Please try again.")
	}
	s.recordBot(ctx, sessionID, userID, answer)
	return models.ChatResponse{Kind: models.KindAnswer, Answer: answer}
}

func (s *Service) runScrape(ctx context.Context, sessionID uuid.UUID, userID string, intent Intent, originalMessage string) models.ChatResponse {
	// Strategy resolution comes first: an unsupported site is rejected
	// without any network traffic.
	strategyName, ok := s.registry.Resolve(intent.URL)
	if !ok {
		text := "Sorry, I don't support scraping this website yet."
		s.recordBot(ctx, sessionID, userID, text)
		return models.ChatResponse{
			Kind:   models.KindError,
			Prompt: text,
			Error:  &models.ErrorDetail{Code: models.ErrCodeUnsupportedSite, Message: text},
		}
	}

	// eBay refuses probe requests it would happily answer for the real
	// fetcher, so its URLs skip validation.
	if !strings.Contains(intent.URL, "ebay") {
		if ok, reason := s.validator.Validate(ctx, intent.URL); !ok {
			text := "⚠️ " + reason + "\nPlease check the URL and try again."
			s.recordBot(ctx, sessionID, userID, text)
			return models.ChatResponse{
				Kind:   models.KindError,
				Prompt: text,
				Error:  &models.ErrorDetail{Code: models.ErrCodeInvalidURL, Message: reason},
			}
		}
	}

	// Suspend: no format known yet, so park the original message and ask.
	if !intent.HasFormat {
		if err := s.store.SetPendingRequest(ctx, sessionID, userID, originalMessage); err != nil {
			slog.Error("parking scrape request failed", "session", sessionID, "error", err)
			return errorResponse(models.ErrCodePersistence, "could not record the request")
		}
		return models.ChatResponse{
			Kind:    models.KindFormatSelection,
			Prompt:  "In which format would you like the scraped data?",
			Options: models.SupportedFormats,
		}
	}

	if err := s.store.ClearPendingRequest(ctx, sessionID); err != nil {
		slog.Warn("clearing pending request failed", "session", sessionID, "error", err)
	}

	sp, _ := s.registry.Spider(strategyName)
	result, outcome, err := s.runner.Run(ctx, sp, intent.URL)
	switch outcome {
	case orchestrator.Failed:
		slog.Error("extraction run failed", "session", sessionID, "strategy", strategyName, "error", err)
		text := "Sorry, I encountered an error while scraping the URL. Please try again later."
		s.recordBot(ctx, sessionID, userID, text)
		return models.ChatResponse{
			Kind:   models.KindError,
			Prompt: text,
			Error:  &models.ErrorDetail{Code: models.ErrCodeExtractionFailed, Message: text},
		}
	case orchestrator.EmptyResult:
		text := emptyDiagnostic()
		s.recordBot(ctx, sessionID, userID, text)
		return models.ChatResponse{Kind: models.KindAnswer, Answer: text}
	}

	artifact, err := s.writer.Write(result.Records, intent.Format, strategyName)
	if err != nil {
		code, text := models.ErrCodeInternal, "Sorry, I couldn't prepare the output file."
		if chatErr, ok := models.AsChatError(err); ok {
			code, text = chatErr.Code, "⚠️ "+chatErr.Message
		}
		s.recordBot(ctx, sessionID, userID, text)
		return models.ChatResponse{
			Kind:   models.KindError,
			Prompt: text,
			Error:  &models.ErrorDetail{Code: code, Message: text},
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I've scraped the data using the %s spider.\n\n", strategyName)
	b.WriteString(s.writer.Preview(result.Records))
	fmt.Fprintf(&b, "\n\nDownload the complete %s file: [Click Here](/api/v1/download/%s)",
		strings.ToUpper(string(artifact.Format)), artifact.Filename)

	text := b.String()
	s.recordBot(ctx, sessionID, userID, text)
	return models.ChatResponse{Kind: models.KindAnswer, Answer: text}
}

// recordBot appends the bot side of a turn. A failed append is logged but
// does not fail the turn; the user already has their answer.
func (s *Service) recordBot(ctx context.Context, sessionID uuid.UUID, userID, text string) {
	if err := s.store.AppendMessage(ctx, models.ChatMessage{
		SessionID: sessionID,
		UserID:    userID,
		Sender:    models.SenderBot,
		Text:      text,
	}); err != nil {
		slog.Warn("recording bot message failed", "session", sessionID, "error", err)
	}
}

func emptyDiagnostic() string {
	return "The scraping completed but no data was extracted. This could be because:\n" +
		"- The page structure has changed\n" +
		"- The page loads its content with JavaScript\n" +
		"- The site is blocking automated requests\n" +
		"Please double-check the URL or try a different listing page."
}

func errorResponse(code, message string) models.ChatResponse {
	return models.ChatResponse{
		Kind:   models.KindError,
		Prompt: message,
		Error:  &models.ErrorDetail{Code: code, Message: message},
	}
}
