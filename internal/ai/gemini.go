package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mrz1836/testmo/internal/constants"
	testmoerrors "github.com/mrz1836/testmo/internal/errors"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// GeminiModel calls the Gemini generateContent REST endpoint with a JSON
// response schema.
type GeminiModel struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

// GeminiOption configures a GeminiModel.
type GeminiOption func(*GeminiModel)

// WithEndpoint overrides the REST base URL.
func WithEndpoint(endpoint string) GeminiOption {
	return func(g *GeminiModel) {
		if endpoint != "" {
			g.endpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) GeminiOption {
	return func(g *GeminiModel) {
		if c != nil {
			g.client = c
		}
	}
}

// NewGeminiModel creates a client for model authenticated with apiKey.
func NewGeminiModel(model, apiKey string, opts ...GeminiOption) *GeminiModel {
	if model == "" {
		model = constants.DefaultAIModel
	}
	g := &GeminiModel{
		endpoint: constants.DefaultAIEndpoint,
		model:    model,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: constants.DefaultAITimeout},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the configured model name.
func (g *GeminiModel) Name() string { return g.model }

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *geminiBlob `json:"inlineData,omitempty"`
}

type geminiBlob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
	Temperature      float64        `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Generate implements Model.
func (g *GeminiModel) Generate(ctx context.Context, req Request) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("%w: no API key configured", testmoerrors.ErrAIAuth)
	}

	payload, err := json.Marshal(g.buildRequest(req))
	if err != nil {
		return "", fmt.Errorf("failed to encode gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.endpoint, g.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	start := time.Now()
	resp, err := g.client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %w", testmoerrors.ErrAITransient, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %w", testmoerrors.ErrAITransient, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode, body)
	}

	var out geminiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: gemini envelope: %w", testmoerrors.ErrAIMalformedResponse, err)
	}
	text, reason := out.text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s after %s", testmoerrors.ErrAIEmptyResponse, reason, time.Since(start).Round(time.Millisecond))
	}
	return text, nil
}

func (g *GeminiModel) buildRequest(req Request) geminiRequest {
	parts := make([]geminiPart, 0, len(req.Parts))
	for _, p := range req.Parts {
		if len(p.Data) > 0 {
			parts = append(parts, geminiPart{InlineData: &geminiBlob{
				MIMEType: p.MIMEType,
				Data:     base64.StdEncoding.EncodeToString(p.Data),
			}})
			continue
		}
		if p.Text != "" {
			parts = append(parts, geminiPart{Text: p.Text})
		}
	}

	out := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   req.Schema,
			Temperature:      req.Temperature,
		},
	}
	if req.System != "" {
		out.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	return out
}

// text concatenates the first candidate's text parts. When there is none it
// returns the reason reported by the service.
func (r *geminiResponse) text() (string, string) {
	if len(r.Candidates) == 0 {
		if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
			return "", "prompt blocked: " + r.PromptFeedback.BlockReason
		}
		return "", "no candidates"
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	reason := r.Candidates[0].FinishReason
	if reason == "" {
		reason = "no text"
	}
	return sb.String(), "finish reason " + reason
}
