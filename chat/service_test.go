package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/scrapechat/models"
	"github.com/use-agent/scrapechat/orchestrator"
	"github.com/use-agent/scrapechat/spider"
)

type fakeStore struct {
	messages []models.ChatMessage
	pending  map[uuid.UUID]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{pending: map[uuid.UUID]string{}}
}

func (f *fakeStore) AppendMessage(_ context.Context, msg models.ChatMessage) error {
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeStore) PendingRequest(_ context.Context, sessionID uuid.UUID) (string, bool, error) {
	msg, ok := f.pending[sessionID]
	return msg, ok, nil
}

func (f *fakeStore) SetPendingRequest(_ context.Context, sessionID uuid.UUID, _, message string) error {
	f.pending[sessionID] = message
	return nil
}

func (f *fakeStore) ClearPendingRequest(_ context.Context, sessionID uuid.UUID) error {
	delete(f.pending, sessionID)
	return nil
}

type fakeLLM struct {
	answer string
	err    error
	asked  []string
}

func (f *fakeLLM) Generate(_ context.Context, question, _ string) (string, error) {
	f.asked = append(f.asked, question)
	return f.answer, f.err
}

type fakeValidator struct {
	valid  bool
	reason string
	calls  []string
}

func (f *fakeValidator) Validate(_ context.Context, rawURL string) (bool, string) {
	f.calls = append(f.calls, rawURL)
	return f.valid, f.reason
}

type fakeRunner struct {
	result  *models.ExtractionResult
	outcome orchestrator.Outcome
	err     error
	ranWith []string
}

func (f *fakeRunner) Run(_ context.Context, sp spider.Spider, targetURL string) (*models.ExtractionResult, orchestrator.Outcome, error) {
	f.ranWith = append(f.ranWith, sp.Name()+" "+targetURL)
	return f.result, f.outcome, f.err
}

type fakeWriter struct {
	filename string
	err      error
}

func (f *fakeWriter) Write(records []models.Record, format models.OutputFormat, _ string) (*models.OutputArtifact, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.OutputArtifact{
		Filename:    f.filename,
		Format:      format,
		RecordCount: len(records),
	}, nil
}

func (f *fakeWriter) Preview(records []models.Record) string {
	return "PREVIEW"
}

type serviceFixture struct {
	svc       *Service
	store     *fakeStore
	llm       *fakeLLM
	validator *fakeValidator
	runner    *fakeRunner
	writer    *fakeWriter
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		store:     newFakeStore(),
		llm:       &fakeLLM{answer: "hello there"},
		validator: &fakeValidator{valid: true, reason: "URL is valid"},
		runner: &fakeRunner{
			result:  &models.ExtractionResult{Records: []models.Record{{"title": "one"}}},
			outcome: orchestrator.Succeeded,
		},
		writer: &fakeWriter{filename: "cars_output_20250829_120000.json"},
	}
	f.svc = NewService(f.store, f.llm, spider.NewRegistry(), f.validator, f.runner, f.writer)
	return f
}

func request(sessionID, message string) models.ChatRequest {
	return models.ChatRequest{SessionID: sessionID, Message: message}
}

func TestHandleMessagePlainQuestion(t *testing.T) {
	f := newServiceFixture()
	sessionID := uuid.NewString()

	resp := f.svc.HandleMessage(context.Background(), "u1", request(sessionID, "what is a heat pump?"))

	assert.Equal(t, models.KindAnswer, resp.Kind)
	assert.Equal(t, "hello there", resp.Answer)
	assert.Empty(t, f.runner.ranWith)

	require.Len(t, f.store.messages, 2)
	assert.Equal(t, models.SenderUser, f.store.messages[0].Sender)
	assert.Equal(t, "what is a heat pump?", f.store.messages[0].Text)
	assert.Equal(t, models.SenderBot, f.store.messages[1].Sender)
	assert.Equal(t, "hello there", f.store.messages[1].Text)
}

func TestHandleMessageScrapeWithFormat(t *testing.T) {
	f := newServiceFixture()
	sessionID := uuid.NewString()

	resp := f.svc.HandleMessage(context.Background(), "u1",
		request(sessionID, "scrape https://www.pakwheels.com/used-cars/search/-/ as json"))

	assert.Equal(t, models.KindAnswer, resp.Kind)
	assert.Contains(t, resp.Answer, "I've scraped the data using the cars spider.")
	assert.Contains(t, resp.Answer, "PREVIEW")
	assert.Contains(t, resp.Answer, "/api/v1/download/cars_output_20250829_120000.json")

	require.Len(t, f.runner.ranWith, 1)
	assert.Equal(t, "cars https://www.pakwheels.com/used-cars/search/-/", f.runner.ranWith[0])
	assert.Equal(t, []string{"https://www.pakwheels.com/used-cars/search/-/"}, f.validator.calls)
}

func TestHandleMessageSuspendsWithoutFormat(t *testing.T) {
	f := newServiceFixture()
	sessionID := uuid.NewString()
	message := "scrape https://edition.cnn.com/world"

	resp := f.svc.HandleMessage(context.Background(), "u1", request(sessionID, message))

	assert.Equal(t, models.KindFormatSelection, resp.Kind)
	assert.Equal(t, models.SupportedFormats, resp.Options)
	assert.Empty(t, f.runner.ranWith)

	// The original message is parked and already in history.
	parsed := uuid.MustParse(sessionID)
	assert.Equal(t, message, f.store.pending[parsed])
	require.Len(t, f.store.messages, 1)
	assert.Equal(t, message, f.store.messages[0].Text)
}

func TestHandleMessageResumesSuspendedRequest(t *testing.T) {
	f := newServiceFixture()
	sessionID := uuid.NewString()
	original := "scrape https://edition.cnn.com/world"

	first := f.svc.HandleMessage(context.Background(), "u1", request(sessionID, original))
	require.Equal(t, models.KindFormatSelection, first.Kind)

	second := f.svc.HandleMessage(context.Background(), "u1", request(sessionID, "json"))

	assert.Equal(t, models.KindAnswer, second.Kind)
	require.Len(t, f.runner.ranWith, 1)
	assert.Equal(t, "cnn https://edition.cnn.com/world", f.runner.ranWith[0])

	// The pending request is consumed on resumption.
	parsed := uuid.MustParse(sessionID)
	_, stillPending := f.store.pending[parsed]
	assert.False(t, stillPending)
}

func TestHandleMessageInvalidURL(t *testing.T) {
	f := newServiceFixture()
	f.validator.valid = false
	f.validator.reason = "URL returned status code 404"
	sessionID := uuid.NewString()

	resp := f.svc.HandleMessage(context.Background(), "u1",
		request(sessionID, "scrape https://edition.cnn.com/missing as json"))

	assert.Equal(t, models.KindError, resp.Kind)
	require.NotNil(t, resp.Error)
	assert.Equal(t, models.ErrCodeInvalidURL, resp.Error.Code)
	assert.Contains(t, resp.Prompt, "URL returned status code 404")
	assert.Empty(t, f.runner.ranWith)

	// Both sides of the turn are still in history.
	require.Len(t, f.store.messages, 2)
	assert.Equal(t, models.SenderBot, f.store.messages[1].Sender)
}

func TestHandleMessageEbaySkipsValidation(t *testing.T) {
	f := newServiceFixture()
	f.validator.valid = false
	sessionID := uuid.NewString()

	resp := f.svc.HandleMessage(context.Background(), "u1",
		request(sessionID, "scrape https://www.ebay.com/b/Laptops/175672 as json"))

	assert.Equal(t, models.KindAnswer, resp.Kind)
	assert.Empty(t, f.validator.calls)
	require.Len(t, f.runner.ranWith, 1)
}

func TestHandleMessageUnsupportedSite(t *testing.T) {
	f := newServiceFixture()
	sessionID := uuid.NewString()

	resp := f.svc.HandleMessage(context.Background(), "u1",
		request(sessionID, "scrape https://example.com/listing as json"))

	assert.Equal(t, models.KindError, resp.Kind)
	require.NotNil(t, resp.Error)
	assert.Equal(t, models.ErrCodeUnsupportedSite, resp.Error.Code)
	assert.Empty(t, f.runner.ranWith)
	// Rejected before any probe.
	assert.Empty(t, f.validator.calls)
}

func TestHandleMessageEmptyResult(t *testing.T) {
	f := newServiceFixture()
	f.runner.result = &models.ExtractionResult{}
	f.runner.outcome = orchestrator.EmptyResult
	sessionID := uuid.NewString()

	resp := f.svc.HandleMessage(context.Background(), "u1",
		request(sessionID, "scrape https://edition.cnn.com/world as json"))

	assert.Equal(t, models.KindAnswer, resp.Kind)
	assert.Contains(t, resp.Answer, "no data was extracted")
}

func TestHandleMessageFailedRun(t *testing.T) {
	f := newServiceFixture()
	f.runner.result = nil
	f.runner.outcome = orchestrator.Failed
	f.runner.err = errors.New("fetch: HTTP 503")
	sessionID := uuid.NewString()

	resp := f.svc.HandleMessage(context.Background(), "u1",
		request(sessionID, "scrape https://edition.cnn.com/world as json"))

	assert.Equal(t, models.KindError, resp.Kind)
	require.NotNil(t, resp.Error)
	assert.Equal(t, models.ErrCodeExtractionFailed, resp.Error.Code)
}

func TestHandleMessageFormatConversionFailure(t *testing.T) {
	f := newServiceFixture()
	f.writer.err = models.NewChatError(models.ErrCodeFormatConversion,
		"the scraped data structure is not suitable for CSV format", nil)
	sessionID := uuid.NewString()

	resp := f.svc.HandleMessage(context.Background(), "u1",
		request(sessionID, "scrape https://edition.cnn.com/world as csv"))

	assert.Equal(t, models.KindError, resp.Kind)
	require.NotNil(t, resp.Error)
	assert.Equal(t, models.ErrCodeFormatConversion, resp.Error.Code)
	assert.Contains(t, resp.Prompt, "not suitable for CSV format")
}

func TestHandleMessageInvalidSessionID(t *testing.T) {
	f := newServiceFixture()

	resp := f.svc.HandleMessage(context.Background(), "u1", request("not-a-uuid", "hello"))

	assert.Equal(t, models.KindError, resp.Kind)
	require.NotNil(t, resp.Error)
	assert.Equal(t, models.ErrCodeInvalidInput, resp.Error.Code)
	assert.Empty(t, f.store.messages)
}
