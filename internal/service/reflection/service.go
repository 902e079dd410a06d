package reflection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ubloom/ubloom/backend/internal/metrics"
	"github.com/ubloom/ubloom/backend/internal/service/ai"
)

// Completer sends one prompt to a language model and returns its raw reply.
// Failures talking to the model are reported as *ai.CommunicationError.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options configures a Service.
type Options struct {
	Policy  Policy
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Result is a reflection ready to be returned to the user.
type Result struct {
	// Reflection is the JSON object exactly as the model produced it.
	Reflection json.RawMessage
	// Fallback is set when the model reply was replaced by Fallback().
	Fallback bool
}

// Service turns journal entries into reflections.
type Service struct {
	completer Completer
	policy    Policy
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewService creates the orchestrator. A nil completer means the model could
// not be initialized; every Reflect call then fails with ErrServiceUnavailable.
func NewService(completer Completer, opts Options) *Service {
	if svc, ok := completer.(*ai.Service); ok && svc == nil {
		completer = nil
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		completer: completer,
		policy:    opts.Policy,
		logger:    logger.Named("reflection"),
		metrics:   opts.Metrics,
	}
}

// Available reports whether a model is wired in.
func (s *Service) Available() bool {
	return s.completer != nil
}

// Policy returns the schema policy applied to model output.
func (s *Service) Policy() Policy {
	return s.policy
}

// Reflect runs one journal entry through the pipeline: build the prompt, call
// the model once, strip fences and parse the reply. Unparseable replies yield
// the fallback reflection rather than an error.
func (s *Service) Reflect(ctx context.Context, journalText string) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("reflection pipeline panicked", zap.Any("panic", r))
			s.metrics.RecordReflection(metrics.OutcomeInternal)
			result, err = nil, ErrInternal
		}
	}()

	text := strings.TrimSpace(journalText)
	if text == "" {
		s.metrics.RecordReflection(metrics.OutcomeRejected)
		return nil, ErrEmptyJournal
	}

	if s.completer == nil {
		s.logger.Error("reflection requested but model is offline")
		s.metrics.RecordReflection(metrics.OutcomeUnavailable)
		return nil, ErrServiceUnavailable
	}

	start := time.Now()
	raw, err := s.completer.Complete(ctx, BuildPrompt(text))
	if err != nil {
		var commErr *ai.CommunicationError
		if errors.As(err, &commErr) {
			s.metrics.RecordModelCall("error", time.Since(start))
			s.metrics.RecordReflection(metrics.OutcomeUpstream)
			s.logger.Error("model communication error", zap.Error(err))
			return nil, &UpstreamError{Message: commErr.Error(), Err: err}
		}

		s.metrics.RecordReflection(metrics.OutcomeInternal)
		s.logger.Error("reflection failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	s.metrics.RecordModelCall("ok", time.Since(start))

	parsed, err := Parse(Sanitize(raw), s.policy)
	if err != nil {
		var parseErr *ParseError
		snippet := ""
		if errors.As(err, &parseErr) {
			snippet = parseErr.Snippet
		}
		s.logger.Warn("model did not follow the output format, using fallback reflection",
			zap.String("raw", snippet),
			zap.Stringer("policy", s.policy),
			zap.Error(err),
		)
		s.metrics.RecordReflection(metrics.OutcomeFallback)
		return &Result{Reflection: append(json.RawMessage(nil), fallbackJSON...), Fallback: true}, nil
	}

	s.metrics.RecordReflection(metrics.OutcomeSuccess)
	return &Result{Reflection: parsed}, nil
}
