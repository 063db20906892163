package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lexvaani/formfill/catalog"
	"github.com/lexvaani/formfill/command"
	"github.com/lexvaani/formfill/extract"
	"github.com/lexvaani/formfill/langid"
	"github.com/lexvaani/formfill/question"
	"github.com/lexvaani/formfill/types"
	"github.com/lexvaani/formfill/validate"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyInput      = errors.New("empty input")
)

// AnswerStatus tells the caller how to treat one conversational turn.
type AnswerStatus string

const (
	// AnswerAccepted means the answer was normalized and stored.
	AnswerAccepted AnswerStatus = "accepted"
	// AnswerRetry means the answer could not be understood for the current
	// field. Session state is unchanged; ask the same question again.
	AnswerRetry AnswerStatus = "retry"
	// AnswerError means an upstream failure prevented processing the turn.
	// Session state is unchanged and the turn can be safely resubmitted.
	AnswerError AnswerStatus = "error"
)

type StartRequest struct {
	// FormHint pins the form type, skipping classification disagreement.
	FormHint  string
	Utterance string
	Language  string
}

type StartResponse struct {
	SessionID        string
	FormTypeID       string
	DetectedLanguage string
	Confidence       float64
	Filled           map[string]any
	NextQuestion     *types.Question
	Progress         Progress
	Status           Status
	Report           *types.ValidationReport
}

type Completed struct {
	FormTypeID string
	Filled     map[string]any
}

type AnswerResponse struct {
	Status       AnswerStatus
	Message      string
	NextQuestion *types.Question
	Progress     Progress
	Report       *types.ValidationReport
	Completed    *Completed
}

type Config struct {
	SessionTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.SessionTTL <= 0 {
		c.SessionTTL = 30 * time.Minute
	}
	return c
}

// Engine owns the collect-validate loop. All mutation happens strictly after
// the oracle call for the turn has returned, so a timed-out turn leaves the
// session exactly as it was and the caller can retry it.
type Engine struct {
	catalog    catalog.Provider
	classifier *extract.Classifier
	fields     *extract.FieldExtractor
	questions  *question.Generator
	validator  *validate.Validator
	commands   command.Parser
	sessions   Cache[*Session]
	locks      *keyedMutex
	logger     *zap.Logger
}

func NewEngine(
	cat catalog.Provider,
	classifier *extract.Classifier,
	fields *extract.FieldExtractor,
	questions *question.Generator,
	validator *validate.Validator,
	cfg Config,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	return &Engine{
		catalog:    cat,
		classifier: classifier,
		fields:     fields,
		questions:  questions,
		validator:  validator,
		commands:   command.NewLocalParser(),
		sessions:   NewTTLCache[*Session](cfg.SessionTTL),
		locks:      newKeyedMutex(),
		logger:     logger,
	}
}

// WithSessionCache swaps the session store, for shared or test-controlled
// backends. Not safe to call once sessions exist.
func (e *Engine) WithSessionCache(c Cache[*Session]) *Engine {
	e.sessions = c
	return e
}

// WithCommandParser swaps the control-intent parser, typically for a
// Failback of keyword matching and a tool-based model parser.
func (e *Engine) WithCommandParser(p command.Parser) *Engine {
	if p != nil {
		e.commands = p
	}
	return e
}

// Start opens a session from the user's first utterance. With a valid
// FormHint the hinted schema wins even when classification disagrees;
// extracted values are still harvested from the utterance.
func (e *Engine) Start(ctx context.Context, req StartRequest) (*StartResponse, error) {
	if req.Utterance == "" && req.FormHint == "" {
		return nil, ErrEmptyInput
	}

	schemaID := ""
	if req.FormHint != "" {
		if _, err := e.catalog.Schema(req.FormHint); err != nil {
			return nil, fmt.Errorf("form hint %q: %w", req.FormHint, err)
		}
		schemaID = req.FormHint
	}

	startLang := langid.Normalize(req.Language)
	if startLang == langid.Auto {
		startLang = langid.DefaultLanguage
	}
	result := &types.ExtractionResult{
		FormTypeID:       schemaID,
		Confidence:       1.0,
		DetectedLanguage: startLang,
		ExtractedFields:  map[string]any{},
	}
	if req.Utterance != "" {
		var err error
		result, err = e.classifier.ClassifyAndExtract(ctx, req.Utterance, req.Language)
		if err != nil {
			return nil, err
		}
		if schemaID != "" {
			result.FormTypeID = schemaID
		}
	}

	schema, err := e.catalog.Schema(result.FormTypeID)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		ID:             uuid.NewString(),
		FormTypeID:     schema.ID,
		Language:       result.DetectedLanguage,
		Status:         StatusCollecting,
		Filled:         map[string]any{},
		CreatedAt:      time.Now(),
		LastActivityAt: time.Now(),
	}

	ops := opsForValues(schema, sess.Filled, result.ExtractedFields)
	if err := validateOps(schema, ops); err != nil {
		return nil, err
	}
	filled, err := applyOps(sess.Filled, ops)
	if err != nil {
		return nil, err
	}
	sess.Filled = filled
	sess.Pending = pendingFor(schema, sess.Filled)

	resp := &StartResponse{
		SessionID:        sess.ID,
		FormTypeID:       schema.ID,
		DetectedLanguage: sess.Language,
		Confidence:       result.Confidence,
		Filled:           sess.Filled,
		Progress:         e.progress(schema, sess),
	}

	if len(sess.Pending) == 0 {
		report := e.finishOrRequeue(ctx, schema, sess)
		resp.Report = report
	}
	if q, ok := e.nextQuestion(ctx, schema, sess); ok {
		resp.NextQuestion = q
	}
	resp.Status = sess.Status
	resp.Progress = e.progress(schema, sess)

	if err := e.sessions.Set(ctx, sess.ID, sess); err != nil {
		return nil, err
	}
	return resp, nil
}

// Answer processes one reply to the current question. Only one Answer per
// session runs at a time; concurrent calls for the same id queue up.
func (e *Engine) Answer(ctx context.Context, sessionID, text, languageHint string) (*AnswerResponse, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	unlock := e.locks.lock(sessionID)
	defer unlock()

	sess, ok, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionNotFound
	}

	schema, err := e.catalog.Schema(sess.FormTypeID)
	if err != nil {
		return nil, err
	}

	switch sess.Status {
	case StatusComplete:
		return &AnswerResponse{
			Status:    AnswerAccepted,
			Message:   "form already complete",
			Progress:  e.progress(schema, sess),
			Completed: &Completed{FormTypeID: sess.FormTypeID, Filled: sess.Filled},
		}, nil
	case StatusCancelled:
		return &AnswerResponse{
			Status:   AnswerAccepted,
			Message:  "session was cancelled",
			Progress: e.progress(schema, sess),
		}, nil
	}

	fieldID, ok := sess.CurrentFieldID()
	if !ok {
		// Collecting with nothing pending should not happen; repair by
		// jumping straight to validation.
		return e.settle(ctx, schema, sess)
	}
	field := schema.Field(fieldID)
	if field == nil {
		sess.popPending(fieldID)
		return e.settle(ctx, schema, sess)
	}

	lang := langid.Normalize(languageHint)
	if languageHint == "" || languageHint == langid.Auto {
		lang = sess.Language
	}

	cmd, cmdErr := e.commands.ParseCommand(ctx, &command.Request{
		Question: field.Label,
		Answer:   text,
		Language: lang,
	})
	if cmdErr != nil {
		e.logger.Debug("command parse unavailable", zap.Error(cmdErr))
	}
	switch cmd {
	case command.Cancel:
		sess.Status = StatusCancelled
		sess.LastActivityAt = time.Now()
		if err := e.sessions.Set(ctx, sess.ID, sess); err != nil {
			return nil, err
		}
		return &AnswerResponse{
			Status:   AnswerAccepted,
			Message:  "form filling cancelled",
			Progress: e.progress(schema, sess),
		}, nil
	case command.Status:
		resp := &AnswerResponse{
			Status:   AnswerAccepted,
			Progress: e.progress(schema, sess),
		}
		resp.Message = fmt.Sprintf("%d of %d required fields filled", resp.Progress.Current, resp.Progress.Total)
		if q, ok := e.nextQuestion(ctx, schema, sess); ok {
			resp.NextQuestion = q
		}
		return resp, nil
	}

	value, _, err := e.fields.ExtractField(ctx, field, text, lang)
	if err != nil {
		if errors.Is(err, extract.ErrAmbiguous) {
			resp := &AnswerResponse{
				Status:   AnswerRetry,
				Message:  fmt.Sprintf("could not understand the answer for %s", field.Label),
				Progress: e.progress(schema, sess),
			}
			if q, ok := e.nextQuestion(ctx, schema, sess); ok {
				resp.NextQuestion = q
			}
			return resp, nil
		}
		e.logger.Warn("field extraction failed",
			zap.String("session", sess.ID),
			zap.String("field", fieldID),
			zap.Error(err))
		resp := &AnswerResponse{
			Status:   AnswerError,
			Message:  "temporary failure, please repeat your answer",
			Progress: e.progress(schema, sess),
		}
		if q, ok := e.nextQuestion(ctx, schema, sess); ok {
			resp.NextQuestion = q
		}
		return resp, nil
	}

	ops := opsForValues(schema, sess.Filled, map[string]any{fieldID: value})
	if err := validateOps(schema, ops); err != nil {
		return nil, err
	}
	filled, err := applyOps(sess.Filled, ops)
	if err != nil {
		return nil, err
	}
	sess.Filled = filled
	sess.popPending(fieldID)
	sess.LastActivityAt = time.Now()

	return e.settle(ctx, schema, sess)
}

// Session returns a snapshot of the stored session. The snapshot is a deep
// copy taken under the session's lock, so it never races with an in-flight
// Answer turn.
func (e *Engine) Session(ctx context.Context, sessionID string) (*Session, error) {
	unlock := e.locks.lock(sessionID)
	defer unlock()

	sess, ok, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess.clone(), nil
}

// settle persists the session and decides whether to keep collecting,
// validate, or finish.
func (e *Engine) settle(ctx context.Context, schema *types.FormSchema, sess *Session) (*AnswerResponse, error) {
	resp := &AnswerResponse{Status: AnswerAccepted}

	if len(sess.Pending) == 0 {
		resp.Report = e.finishOrRequeue(ctx, schema, sess)
	}
	if sess.Status == StatusComplete {
		resp.Completed = &Completed{FormTypeID: sess.FormTypeID, Filled: sess.Filled}
	} else if q, ok := e.nextQuestion(ctx, schema, sess); ok {
		resp.NextQuestion = q
	}
	resp.Progress = e.progress(schema, sess)

	if err := e.sessions.Set(ctx, sess.ID, sess); err != nil {
		return nil, err
	}
	return resp, nil
}

// finishOrRequeue validates the filled document. On failure the offending
// field ids go back to the head of the queue so they are re-asked first.
func (e *Engine) finishOrRequeue(ctx context.Context, schema *types.FormSchema, sess *Session) *types.ValidationReport {
	sess.Status = StatusValidating
	report := e.validator.Validate(ctx, schema, sess.Filled)
	if report.Valid {
		sess.Status = StatusComplete
		return report
	}

	requeue := make([]string, 0, len(report.MissingRequired)+len(report.Errors))
	requeue = append(requeue, report.MissingRequired...)
	for _, fe := range report.Errors {
		requeue = append(requeue, fe.FieldID)
	}
	// Reverse iteration keeps the report's order at the head of the queue.
	// Invalid optional values are dropped but never asked for.
	for i := len(requeue) - 1; i >= 0; i-- {
		def := schema.Field(requeue[i])
		if def == nil {
			continue
		}
		delete(sess.Filled, def.ID)
		if def.Required {
			sess.pushFront(def.ID)
		}
	}
	if len(sess.Pending) == 0 {
		// Validator flagged nothing actionable; accept the form rather
		// than loop forever.
		sess.Status = StatusComplete
		report.Valid = true
		return report
	}
	sess.Status = StatusCollecting
	return report
}

func (e *Engine) nextQuestion(ctx context.Context, schema *types.FormSchema, sess *Session) (*types.Question, bool) {
	fieldID, ok := sess.CurrentFieldID()
	if !ok {
		return nil, false
	}
	qs := e.questions.QuestionsFor(ctx, schema, []string{fieldID}, sess.Language)
	if len(qs) == 0 {
		return nil, false
	}
	return &qs[0], true
}

func (e *Engine) progress(schema *types.FormSchema, sess *Session) Progress {
	required := schema.RequiredIDs()
	current := 0
	for _, id := range required {
		if _, ok := sess.Filled[id]; ok {
			current++
		}
	}
	return progressOf(current, len(required))
}

// pendingFor lists required fields not yet filled, in schema order. Optional
// fields are only ever captured from what the user volunteers.
func pendingFor(schema *types.FormSchema, filled map[string]any) []string {
	pending := make([]string, 0, len(schema.Fields))
	for _, id := range schema.RequiredIDs() {
		if _, ok := filled[id]; !ok {
			pending = append(pending, id)
		}
	}
	return pending
}
