package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/ubloom/ubloom/backend/internal/config"
)

// ErrEmptyCompletion is returned when the model answers without a message.
var ErrEmptyCompletion = errors.New("model returned no message")

// CommunicationError wraps any failure raised while talking to the model:
// authentication, transport, timeout or SDK errors alike.
type CommunicationError struct {
	Err error
}

func (e *CommunicationError) Error() string {
	if e.Err == nil {
		return "model communication failed"
	}
	return e.Err.Error()
}

func (e *CommunicationError) Unwrap() error { return e.Err }

// Service sends single, non-streaming completion requests to the configured model.
type Service struct {
	chatModel model.BaseChatModel
	cfg       config.AIConfig
	chain     compose.Runnable[string, *schema.Message]
	logger    *zap.Logger
}

// NewService builds the model described by cfg and wraps it.
func NewService(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel, cfg, logger)
}

// NewServiceWithModel wraps an already constructed model.
func NewServiceWithModel(ctx context.Context, chatModel model.BaseChatModel, cfg config.AIConfig, logger *zap.Logger) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// The prompt travels as one user message. A lambda keeps the literal braces
	// of the output template away from template rendering.
	toMessages := compose.InvokableLambda(func(_ context.Context, prompt string) ([]*schema.Message, error) {
		return []*schema.Message{schema.UserMessage(prompt)}, nil
	})

	chain := compose.NewChain[string, *schema.Message]()
	chain.AppendLambda(toMessages)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile completion chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		cfg:       cfg,
		chain:     runnable,
		logger:    logger.Named("ai"),
	}, nil
}

// Complete runs exactly one completion for prompt and returns the raw content
// of the returned message. An empty content is not an error.
func (s *Service) Complete(ctx context.Context, prompt string) (string, error) {
	opts := []model.Option{model.WithTemperature(config.ReflectionTemperature)}
	if s.cfg.Model != "" {
		opts = append(opts, model.WithModel(s.cfg.Model))
	}

	response, err := s.chain.Invoke(ctx, prompt, compose.WithChatModelOption(opts...))
	if err != nil {
		s.logger.Warn("completion failed", zap.String("model", s.cfg.Model), zap.Error(err))
		return "", &CommunicationError{Err: err}
	}
	if response == nil {
		return "", ErrEmptyCompletion
	}

	s.logger.Debug("completion received",
		zap.String("model", s.cfg.Model),
		zap.Int("length", len(response.Content)),
	)
	return response.Content, nil
}

// ModelName reports the configured model identifier.
func (s *Service) ModelName() string {
	return s.cfg.Model
}
