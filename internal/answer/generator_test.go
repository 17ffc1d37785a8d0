package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lxp-platform/qna-engine/internal/event"
	"github.com/lxp-platform/qna-engine/pkg/config"
)

func TestNewGeneratorSelectsProvider(t *testing.T) {
	openai, err := NewGenerator(config.LLMConfig{Provider: "openai", APIKey: "k", Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, openai)

	for _, alias := range []string{"gemini", "google", "google-genai", "googleai"} {
		gemini, err := NewGenerator(config.LLMConfig{Provider: alias, APIKey: "k", Model: "gemini-2.0-flash"})
		require.NoError(t, err)
		assert.IsType(t, &GeminiClient{}, gemini)
	}
}

func TestNewGeneratorRejectsUnknownProvider(t *testing.T) {
	_, err := NewGenerator(config.LLMConfig{Provider: "anthropic", APIKey: "k"})
	require.Error(t, err)
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	_, err := NewGenerator(config.LLMConfig{Provider: "openai"})
	require.Error(t, err)

	_, err = NewGenerator(config.LLMConfig{Provider: "gemini"})
	require.Error(t, err)
}

func TestRequestFromEnvelope(t *testing.T) {
	env := &event.Envelope{
		Payload: event.QnaCreatedPayload{
			Course:  event.Course{Title: "Intro to Go"},
			Section: event.Section{Title: "Basics"},
			Lecture: event.Lecture{Title: "Variables"},
			Qna:     event.Qna{Title: "Why zero values?", Content: "Please explain."},
		},
	}
	req := RequestFromEnvelope(env)
	assert.Equal(t, "Intro to Go", req.CourseTitle)
	assert.Equal(t, "Basics", req.SectionTitle)
	assert.Equal(t, "Variables", req.LectureTitle)
	assert.Equal(t, "Why zero values?", req.QuestionTitle)
	assert.Equal(t, "Please explain.", req.QuestionContent)

	assert.Equal(t, Request{}, RequestFromEnvelope(nil))
}

func TestPromptsCarryContext(t *testing.T) {
	req := Request{
		CourseTitle:     "Intro to Go",
		SectionTitle:    "Basics",
		LectureTitle:    "Variables",
		QuestionTitle:   "Why zero values?",
		QuestionContent: "Please explain.",
	}
	sys := systemPrompt(req)
	assert.Contains(t, sys, "Course: Intro to Go")
	assert.Contains(t, sys, "Section: Basics")
	assert.Contains(t, sys, "Lecture: Variables")

	usr := userPrompt(req)
	assert.Contains(t, usr, "Why zero values?")
	assert.Contains(t, usr, "Please explain.")
}
