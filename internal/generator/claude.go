package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/psatprep/backend/internal/domain/question"
	"github.com/psatprep/backend/internal/id"
)

// Claude generates questions by calling the Anthropic Messages API.
type Claude struct {
	url    string       // e.g. "https://api.anthropic.com"
	client *http.Client // reused across calls

	mu     sync.RWMutex
	apiKey string
	model  string
}

// Compile-time check: *Claude satisfies the Generator interface.
var _ Generator = (*Claude)(nil)

const (
	apiVersion       = "2023-06-01"
	maxTokens        = 4096
	pingMaxTokens    = 10
	maxSimilarSample = 5
)

// NewClaude creates a generator for the given endpoint and credential.
func NewClaude(url, apiKey, model string) *Claude {
	return &Claude{
		url:    url,
		apiKey: apiKey,
		model:  model,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// SetCredentials swaps the credential and model at runtime. Empty
// values keep the current setting.
func (c *Claude) SetCredentials(apiKey, model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if apiKey != "" {
		c.apiKey = apiKey
	}
	if model != "" {
		c.model = model
	}
}

// Model returns the currently configured model identifier.
func (c *Claude) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// HasCredential reports whether an API key is configured.
func (c *Claude) HasCredential() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey != ""
}

// ============================================================================
// Generator interface
// ============================================================================

// Generate creates count new questions in the given category and level.
func (c *Claude) Generate(ctx context.Context, category question.Category, level, count int) ([]question.Question, error) {
	prompt := buildGeneratePrompt(category, level, count)
	raw, err := c.callAPI(ctx, prompt, maxTokens)
	if err != nil {
		return nil, err
	}
	return parseQuestions(raw, category)
}

// GenerateSimilar creates questions shaped after the user's wrong
// answers. Up to five wrong questions in the requested category are
// embedded in the prompt together with their average level.
func (c *Claude) GenerateSimilar(ctx context.Context, wrong []question.Question, category question.Category, count int) ([]question.Question, error) {
	var samples []question.Question
	for _, q := range wrong {
		if q.ResolveCategory() == category {
			samples = append(samples, q)
			if len(samples) == maxSimilarSample {
				break
			}
		}
	}
	if len(samples) == 0 {
		return c.Generate(ctx, category, 2, count)
	}

	prompt := buildSimilarPrompt(samples, category, count)
	raw, err := c.callAPI(ctx, prompt, maxTokens)
	if err != nil {
		return nil, err
	}
	return parseQuestions(raw, category)
}

// AnalyzeReports sends the user's objections to the model and returns
// its plain-text review.
func (c *Claude) AnalyzeReports(ctx context.Context, items []ReportedQuestion) (string, error) {
	if len(items) == 0 {
		return "", &GenerateError{Kind: KindMalformedResponse, Wrapped: fmt.Errorf("no reports to analyze")}
	}
	return c.callAPI(ctx, buildAnalyzePrompt(items), maxTokens)
}

// Ping sends a minimal request to verify the credential and model.
func (c *Claude) Ping(ctx context.Context) error {
	_, err := c.callAPI(ctx, "1+1=?", pingMaxTokens)
	return err
}

// ============================================================================
// API communication
// ============================================================================

type messagesRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// callAPI sends one prompt and returns the raw text of the response.
// Failures are never retried.
func (c *Claude) callAPI(ctx context.Context, prompt string, maxTok int) (string, error) {
	c.mu.RLock()
	apiKey, model := c.apiKey, c.model
	c.mu.RUnlock()

	if apiKey == "" {
		return "", &GenerateError{Kind: KindMissingCredential}
	}

	reqBody := messagesRequest{
		Model:     model,
		MaxTokens: maxTok,
		Messages: []apiMessage{
			{Role: "user", Content: prompt},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/v1/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &GenerateError{Kind: KindHTTPStatus, Wrapped: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		var wrapped error
		if apiErr.Error.Message != "" {
			wrapped = fmt.Errorf("%s: %s", apiErr.Error.Type, apiErr.Error.Message)
		}
		return "", &GenerateError{
			Kind:    kindForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Wrapped: wrapped,
		}
	}

	var msgResp messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&msgResp); err != nil {
		return "", &GenerateError{Kind: KindMalformedResponse, Wrapped: err}
	}
	if len(msgResp.Content) == 0 || msgResp.Content[0].Text == "" {
		return "", &GenerateError{Kind: KindMalformedResponse, Wrapped: fmt.Errorf("empty response content")}
	}

	return msgResp.Content[0].Text, nil
}

// ============================================================================
// Response parsing
// ============================================================================

// generatedQuestion is the wire shape the model is instructed to emit.
type generatedQuestion struct {
	Area        string   `json:"area"`
	Category    string   `json:"category"`
	Level       int      `json:"level"`
	Stem        string   `json:"stem"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answerIndex"`
	Solution    string   `json:"solution"`
	Refs        []string `json:"refs"`
}

// parseQuestions extracts the first JSON array from the raw response,
// validates every element strictly, and stamps ids, codes, and
// timestamps. A single bad element rejects the whole batch — partial
// results are never returned.
func parseQuestions(raw string, category question.Category) ([]question.Question, error) {
	arr := extractJSONArray(raw)
	if arr == "" {
		return nil, &GenerateError{Kind: KindMalformedResponse, Wrapped: fmt.Errorf("no JSON array found in response")}
	}

	var parsed []generatedQuestion
	if err := json.Unmarshal([]byte(arr), &parsed); err != nil {
		return nil, &GenerateError{Kind: KindMalformedResponse, Wrapped: err}
	}
	if len(parsed) == 0 {
		return nil, &GenerateError{Kind: KindMalformedResponse, Wrapped: fmt.Errorf("empty question array")}
	}

	now := time.Now().UnixMilli()
	questions := make([]question.Question, len(parsed))
	for i, g := range parsed {
		area := g.Area
		if area == "" {
			area = defaultArea(category)
		}
		q := question.Question{
			ID:          fmt.Sprintf("AI_%d_%d_%s", now, i, id.Suffix(6)),
			Area:        area,
			Category:    category,
			Level:       g.Level,
			Stem:        g.Stem,
			Options:     g.Options,
			AnswerIndex: g.AnswerIndex,
			Solution:    g.Solution,
			Refs:        g.Refs,
			IsAI:        true,
			CreatedAt:   now,
			Code:        fmt.Sprintf("%s%d-AI%02d", area, g.Level, i+1),
		}
		if err := q.Validate(); err != nil {
			return nil, &GenerateError{
				Kind:    KindMalformedResponse,
				Wrapped: fmt.Errorf("element %d: %w", i, err),
			}
		}
		questions[i] = q
	}
	return questions, nil
}

func defaultArea(category question.Category) string {
	if category == question.CategoryLang {
		return "B"
	}
	return "A"
}

// extractJSONArray finds the outermost JSON array in a string. It
// handles nested brackets correctly and skips brackets inside quoted
// strings.
func extractJSONArray(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, ch := range s {
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		if ch == '[' {
			if depth == 0 {
				start = i
			}
			depth++
		} else if ch == ']' {
			depth--
			if depth == 0 && start != -1 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
