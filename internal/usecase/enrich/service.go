package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/calldeck-team/calldeck/internal/domain/entities"
)

// Completer is the text-generation dependency. Satisfied by ai.GroqClient.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}

// AssessmentError is stored as the assessment when the model call fails.
// A skipped assessment (no transcript) stays null instead.
const AssessmentError = "Error generating agent assessment"

const (
	namePrompt = `Extract the caller's name from this call transcript. ` +
		`Reply with only the name, nothing else. ` +
		`If no name is mentioned, reply with exactly "Unknown Caller".

Transcript:
%s`

	sentimentPrompt = `Classify the overall sentiment of this call transcript. ` +
		`Reply with exactly one word: positive, neutral, or negative.

Transcript:
%s`

	assessmentPrompt = `Assess the automated agent's performance on this call. ` +
		`Structure your answer as numbered categories:
1. Communication quality
2. Sentiment progression
3. Resolution confidence
4. Tags

Keep each category short.

Transcript:
%s`
)

// Service runs the three independent text-analysis operations on a
// transcript: name extraction, sentiment classification, and performance
// assessment. Each has its own timeout and fallback; no failure here ever
// aborts the ingestion pipeline.
type Service struct {
	completer Completer
	timeout   time.Duration
	logger    *zap.Logger
}

// NewService creates an enrichment service. timeout bounds each model call.
func NewService(completer Completer, timeout time.Duration, logger *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Service{completer: completer, timeout: timeout, logger: logger}
}

// Result carries the outcome of all three sub-operations
type Result struct {
	CallerName string
	Sentiment  entities.Sentiment
	Assessment *string
}

// Enrich runs name extraction, sentiment classification, and assessment in
// that order. The order carries no data dependency; it is fixed for
// deterministic behavior.
func (s *Service) Enrich(ctx context.Context, transcript string) Result {
	var res Result
	res.CallerName = s.ExtractName(ctx, transcript)
	res.Sentiment = s.ClassifySentiment(ctx, transcript)
	res.Assessment = s.AssessPerformance(ctx, transcript)
	return res
}

// ExtractName asks the model for the caller's proper name. Any failure or
// unusable output falls back to "Unknown Caller".
func (s *Service) ExtractName(ctx context.Context, transcript string) string {
	out, err := s.complete(ctx, fmt.Sprintf(namePrompt, transcript), 0.1, 20)
	if err != nil {
		s.warn("name extraction failed", err)
		return entities.UnknownCallerName
	}

	name := strings.TrimSpace(out)
	if name == "" || strings.ContainsAny(name, "\n\r") || len(name) > 100 {
		return entities.UnknownCallerName
	}
	return name
}

// ClassifySentiment classifies the transcript tone. The model token is
// case-folded and coerced; anything unexpected becomes neutral.
func (s *Service) ClassifySentiment(ctx context.Context, transcript string) entities.Sentiment {
	out, err := s.complete(ctx, fmt.Sprintf(sentimentPrompt, transcript), 0, 5)
	if err != nil {
		s.warn("sentiment classification failed", err)
		return entities.SentimentNeutral
	}

	token := strings.ToLower(strings.Trim(strings.TrimSpace(out), ".!\"'"))
	return entities.CoerceSentiment(token)
}

// AssessPerformance generates the numbered-category assessment block. On
// model failure it returns the error sentinel rather than nil, so a stored
// record distinguishes "skipped" (null) from "tried and failed".
func (s *Service) AssessPerformance(ctx context.Context, transcript string) *string {
	out, err := s.complete(ctx, fmt.Sprintf(assessmentPrompt, transcript), 0.4, 500)
	if err != nil {
		s.warn("assessment generation failed", err)
		sentinel := AssessmentError
		return &sentinel
	}
	return &out
}

func (s *Service) complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.completer.Complete(ctx, prompt, temperature, maxTokens)
}

func (s *Service) warn(msg string, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, zap.Error(err))
	}
}
