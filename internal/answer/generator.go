package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/lxp-platform/qna-engine/internal/event"
	"github.com/lxp-platform/qna-engine/pkg/config"
)

// Request carries the teaching context an answer is grounded on.
type Request struct {
	CourseTitle     string
	SectionTitle    string
	LectureTitle    string
	QuestionTitle   string
	QuestionContent string
}

// RequestFromEnvelope maps a buffered event to a generation request.
func RequestFromEnvelope(env *event.Envelope) Request {
	if env == nil {
		return Request{}
	}
	return Request{
		CourseTitle:     env.Payload.Course.Title,
		SectionTitle:    env.Payload.Section.Title,
		LectureTitle:    env.Payload.Lecture.Title,
		QuestionTitle:   env.Payload.Qna.Title,
		QuestionContent: env.Payload.Qna.Content,
	}
}

// Generator produces an answer for a learner question. Implementations are
// selected once at construction; callers never branch on the provider.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Model() string
}

// NewGenerator picks the provider implementation for the configured LLM.
func NewGenerator(cfg config.LLMConfig) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai":
		return NewOpenAIClient(cfg)
	case "gemini", "google", "google-genai", "googleai":
		return NewGeminiClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

const systemPromptFormat = "You are a course Q&A assistant. Answer the learner's question helpfully and concisely, grounded in the provided context. Avoid speculation; include short step-by-step explanations and examples where they help.\n\nCourse: %s\nSection: %s\nLecture: %s"

func systemPrompt(req Request) string {
	return fmt.Sprintf(systemPromptFormat, req.CourseTitle, req.SectionTitle, req.LectureTitle)
}

func userPrompt(req Request) string {
	return fmt.Sprintf("Question title: %s\nQuestion content: %s", req.QuestionTitle, req.QuestionContent)
}
