package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/greenpaw/ecobuddies/backend/internal/analysis/mood"
	"github.com/greenpaw/ecobuddies/backend/internal/config"
	"github.com/greenpaw/ecobuddies/backend/internal/model/catalog"
	chatmodel "github.com/greenpaw/ecobuddies/backend/internal/model/session"
)

// ErrUnavailable reports that no gateway was configured at startup.
var ErrUnavailable = errors.New("language model gateway unavailable")

// GatewayError wraps a failed model call. Callers must leave session
// state exactly as it was before the call.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string { return fmt.Sprintf("gateway %s: %v", e.Op, e.Err) }
func (e *GatewayError) Unwrap() error { return e.Err }

// Service is the language model gateway: in-character text generation for
// companion dialogue, task suggestions, how/why drill-downs, and the vision
// variant for trash identification.
type Service struct {
	chatModel   model.ChatModel
	visionModel model.ChatModel
	cfg         config.AIConfig
	chain       compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the gateway from Ark configuration.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	visionModel := chatModel
	if cfg.VisionModel != "" && cfg.VisionModel != cfg.Model {
		visionModel, err = cfg.NewChatModel(ctx, cfg.VisionModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create vision model: %w", err)
		}
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel:   chatModel,
		visionModel: visionModel,
		cfg:         cfg,
		chain:       runnable,
	}, nil
}

// StreamingEnabled reports whether SSE streaming output is switched on.
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// Intro generates the page-0 "meet your buddy" description.
func (s *Service) Intro(ctx context.Context, c catalog.Companion, profile *chatmodel.Profile) (string, error) {
	system := buildSystemPrompt(c, profile, nil)
	return s.invoke(ctx, "intro", system, nil, introQuery(c))
}

// OpeningLine generates the first assistant message of a chat session.
func (s *Service) OpeningLine(ctx context.Context, c catalog.Companion, profile *chatmodel.Profile, happiness int) (string, error) {
	decision := mood.Analyze(happiness, "")
	system := buildSystemPrompt(c, profile, &decision)
	return s.invoke(ctx, "opening", system, nil, openingQuery(c))
}

// Reply generates the companion's answer to a user chat message,
// conditioned on the running history and the pet's current mood.
func (s *Service) Reply(ctx context.Context, c catalog.Companion, profile *chatmodel.Profile, happiness int, history []chatmodel.ChatMessage, userMessage string) (string, error) {
	decision := mood.Analyze(happiness, userMessage)
	system := buildSystemPrompt(c, profile, &decision)

	content, err := s.invokeWithHistory(ctx, "reply", system, historyMessages(history), userMessage)
	if err != nil {
		return "", err
	}

	log.Printf("[ai] generated reply for companion=%s, length=%d", c.ID, len(content))
	return content, nil
}

// StreamReply streams the companion's answer chunk by chunk.
func (s *Service) StreamReply(ctx context.Context, c catalog.Companion, profile *chatmodel.Profile, happiness int, history []chatmodel.ChatMessage, userMessage string) (*schema.StreamReader[*schema.Message], error) {
	if !s.StreamingEnabled() {
		return nil, fmt.Errorf("streaming disabled in configuration")
	}

	decision := mood.Analyze(happiness, userMessage)
	input := map[string]any{
		"system":  buildSystemPrompt(c, profile, &decision),
		"history": historyMessages(history),
		"query":   userMessage,
	}

	stream, err := s.chain.Stream(ctx, input)
	if err != nil {
		return nil, &GatewayError{Op: "stream", Err: err}
	}
	return stream, nil
}

// SuggestSteps asks the companion for concrete steps toward a task.
func (s *Service) SuggestSteps(ctx context.Context, c catalog.Companion, profile *chatmodel.Profile, task catalog.Action) ([]string, error) {
	system := buildSystemPrompt(c, profile, nil)
	content, err := s.invoke(ctx, "suggest", system, nil, suggestQuery(task))
	if err != nil {
		return nil, err
	}

	suggestions := splitSuggestions(content)
	if len(suggestions) == 0 {
		return nil, &GatewayError{Op: "suggest", Err: fmt.Errorf("no suggestions in model output")}
	}
	return suggestions, nil
}

// Explain answers a how/why drill-down for one suggestion. Results are
// deliberately not cached: every drill-down is a fresh call.
func (s *Service) Explain(ctx context.Context, c catalog.Companion, profile *chatmodel.Profile, task catalog.Action, suggestion string, mode chatmodel.ExpandMode) (string, error) {
	system := buildSystemPrompt(c, profile, nil)
	return s.invoke(ctx, "explain", system, nil, explainQuery(task, suggestion, mode))
}

// DescribeImage runs the vision variant: trash identification narration
// for a captured photo.
func (s *Service) DescribeImage(ctx context.Context, c catalog.Companion, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", &GatewayError{Op: "identify", Err: fmt.Errorf("empty image payload")}
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))
	messages := []*schema.Message{
		schema.SystemMessage(buildSystemPrompt(c, nil, nil)),
		{
			Role: schema.User,
			MultiContent: []schema.ChatMessagePart{
				{Type: schema.ChatMessagePartTypeText, Text: identifyInstruction},
				{
					Type: schema.ChatMessagePartTypeImageURL,
					ImageURL: &schema.ChatMessageImageURL{
						URL:    dataURL,
						Detail: schema.ImageURLDetailAuto,
					},
				},
			},
		},
	}

	response, err := s.visionModel.Generate(ctx, messages)
	if err != nil {
		return "", &GatewayError{Op: "identify", Err: err}
	}

	log.Printf("[ai] identified image for companion=%s, length=%d", c.ID, len(response.Content))
	return response.Content, nil
}

func (s *Service) invoke(ctx context.Context, op, system string, history []*schema.Message, query string) (string, error) {
	return s.invokeWithHistory(ctx, op, system, history, query)
}

func (s *Service) invokeWithHistory(ctx context.Context, op, system string, history []*schema.Message, query string) (string, error) {
	input := map[string]any{
		"system":  system,
		"history": history,
		"query":   query,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", &GatewayError{Op: op, Err: err}
	}
	return strings.TrimSpace(response.Content), nil
}

// splitSuggestions extracts bullet lines from model output, stripping
// list markers and numbering.
func splitSuggestions(text string) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•0123456789.) ")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
