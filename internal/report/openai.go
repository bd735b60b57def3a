package report

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const summarySystemPrompt = `
You are an analysis module for a PayPal sandbox acceptance test run.

Produce a concise human-readable report explaining:
- How many tests were skipped because of the sandbox and which symptoms showed up
- Which failures look like real shop defects
- Whether the sandbox looked generally unavailable
- Suggestions for the next run
`

type OpenAISummarizer struct {
	client *openai.Client
	Model  string
}

// NewOpenAISummarizer reads OPENAI_API_KEY from the environment.
func NewOpenAISummarizer() (*OpenAISummarizer, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	return NewOpenAISummarizerWithConfig(openai.DefaultConfig(apiKey)), nil
}

func NewOpenAISummarizerWithConfig(cfg openai.ClientConfig) *OpenAISummarizer {
	return &OpenAISummarizer{
		client: openai.NewClientWithConfig(cfg),
		Model:  openai.GPT4o,
	}
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, in SummaryInput) (string, error) {
	var sb strings.Builder
	sb.WriteString("RUN:\n" + in.Run + "\n\n")
	sb.WriteString("DURATION:\n" + in.Duration + "\n\n")
	if len(in.Verdicts) > 0 {
		sb.WriteString("VERDICTS:\n")
		for _, v := range in.Verdicts {
			sb.WriteString(v + "\n")
		}
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
		Temperature: 0.2,
		MaxTokens:   600,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no summary choices")
	}

	return resp.Choices[0].Message.Content, nil
}
