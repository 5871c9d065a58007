package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/cognicore/jaksense/pkg/jaksense/comment"
	"github.com/cognicore/jaksense/pkg/jaksense/internalerr"
)

// DefaultOpenAIModel is used when OpenAIOptions.Model is empty.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIOptions configures an OpenAIClassifier.
type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	// Labels restricts the answer; defaults to Positif and Negatif.
	Labels []comment.Sentiment

	HTTPClient *http.Client
}

// OpenAIClassifier asks a chat-completion model for the polarity of a
// comment and expects a small JSON object back.
type OpenAIClassifier struct {
	client openai.Client
	model  string
	labels []comment.Sentiment
}

type openAIVerdict struct {
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

// NewOpenAIClassifier builds a classifier. An empty API key is a
// configuration error.
func NewOpenAIClassifier(opts OpenAIOptions) (*OpenAIClassifier, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("%w: openai api key required", internalerr.ErrInvalidConfig)
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey), option.WithMaxRetries(0)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	model := opts.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	labels := opts.Labels
	if len(labels) == 0 {
		labels = []comment.Sentiment{comment.Positive, comment.Negative}
	}
	return &OpenAIClassifier{
		client: openai.NewClient(reqOpts...),
		model:  model,
		labels: labels,
	}, nil
}

// Classify sends one chat completion per comment.
func (c *OpenAIClassifier) Classify(ctx context.Context, text string) (Result, error) {
	response, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.systemPrompt()),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(0),
		MaxTokens:   openai.Int(60),
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: openai request failed: %v", internalerr.ErrClassifierUnavailable, err)
	}
	if len(response.Choices) == 0 {
		return Result{}, fmt.Errorf("%w: no response from openai", internalerr.ErrClassifierUnavailable)
	}
	return parseVerdict(response.Choices[0].Message.Content)
}

func (c *OpenAIClassifier) systemPrompt() string {
	names := make([]string, len(c.labels))
	for i, l := range c.labels {
		names[i] = string(l)
	}
	var sb strings.Builder
	sb.WriteString("You classify the sentiment of Indonesian public-transit comments from Jakarta.\n")
	sb.WriteString(fmt.Sprintf("Answer with one of [%s].\n", strings.Join(names, ", ")))
	sb.WriteString(`Respond with JSON only: {"sentiment": "label", "confidence": 0.0-1.0}`)
	return sb.String()
}

func parseVerdict(content string) (Result, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var verdict openAIVerdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &verdict); err != nil {
		return Result{}, fmt.Errorf("%w: failed to parse openai response: %v", internalerr.ErrClassifierUnavailable, err)
	}
	label, err := comment.ParseSentiment(verdict.Sentiment)
	if err != nil {
		return Result{}, fmt.Errorf("%w: openai label %q", internalerr.ErrClassifierUnavailable, verdict.Sentiment)
	}
	return Result{Label: label, Confidence: verdict.Confidence, Backend: BackendOpenAI}, nil
}
