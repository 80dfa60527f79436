// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/meshintel/incident-scout/internal/httputil"
	"github.com/meshintel/incident-scout/pkg/types"
)

// extractionPromptTmpl is the prompt sent to the LLM backend for one
// document. The JSON-purity instructions target the concrete failure modes
// of small local models: markdown fences, trailing commas, `"x" or null`
// disjunctions, and trailing comments.
var extractionPromptTmpl = template.Must(template.New("extraction").Parse(`You are an incident extraction system. Read the news article below and describe the real-world incident it reports as a single JSON object.

Fields:
- event_type: exactly one of: {{.EventTypes}}. Use "other" if nothing fits.
- event_sub_type: optional free-text refinement (e.g. "ransomware", "sit-in"), or ""
- title: a short headline for the incident
- summary: what happened, in at most 800 characters
- perpetrator: the responsible actor as named in the article, or ""
- perpetrator_type: exactly one of: {{.PerpetratorTypes}}
- location: an object with "city", "region", "country", "full_text" (use "" for unknown levels; full_text is the location as written)
- event_date: when the incident occurred, as YYYY-MM-DD, or ""
- event_time: time of day as written in the article, or ""
- individuals: array of person names involved
- organizations: array of organization names involved
- casualties: an object with integer "killed" and "injured", or null if not reported
- confidence: your certainty in this extraction, a number between 0.0 and 1.0

Output rules — follow these exactly:
- Respond with ONLY the JSON object. No markdown fences, no prose before or after it.
- No trailing commas before } or ].
- Never write disjunctions like "value" or null — commit to one value.
- No comments of any kind in the JSON.

If the article does not describe a discrete incident, still respond with a valid JSON object: use event_type "other" and a low confidence.
{{if .Hints}}
Entity hints found in the text (may be incomplete or wrong, use your judgment):
{{.Hints}}
{{end}}
Article (source: {{.SourceName}}, published: {{.Published}}):
Title: {{.Title}}

{{.Body}}
`))

// renderPrompt executes the extraction prompt template for one document.
func renderPrompt(doc types.Document, body string, hints types.EntityHints) (string, error) {
	published := "unknown"
	if !doc.PublishedAt.IsZero() {
		published = doc.PublishedAt.Format("2006-01-02")
	}

	data := struct {
		EventTypes       string
		PerpetratorTypes string
		Hints            string
		SourceName       string
		Published        string
		Title            string
		Body             string
	}{
		EventTypes:       joinEventTypes(),
		PerpetratorTypes: joinPerpetratorTypes(),
		Hints:            formatHints(hints),
		SourceName:       doc.SourceName,
		Published:        published,
		Title:            doc.Title,
		Body:             body,
	}

	var buf bytes.Buffer
	if err := extractionPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func joinEventTypes() string {
	parts := make([]string, len(types.EventTypes))
	for i, t := range types.EventTypes {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

func joinPerpetratorTypes() string {
	parts := make([]string, len(types.PerpetratorTypes))
	for i, t := range types.PerpetratorTypes {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

// formatHints renders non-empty hint categories as labelled lines. Returns
// "" when there are no hints, which drops the section from the prompt.
func formatHints(h types.EntityHints) string {
	var b strings.Builder
	appendLine := func(label string, values []string) {
		if len(values) > 0 {
			fmt.Fprintf(&b, "- %s: %s\n", label, strings.Join(values, ", "))
		}
	}
	appendLine("persons", h.Persons)
	appendLine("organizations", h.Organizations)
	appendLine("locations", h.Locations)
	appendLine("dates", h.DateExpressions)
	return strings.TrimRight(b.String(), "\n")
}

// OllamaBackend calls an Ollama-compatible /api/generate endpoint. It is
// the default backend for local models.
type OllamaBackend struct {
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	APIKey      string
	MaxRetries  int
	Client      *http.Client
}

// NewOllamaBackend builds a backend from config, applying defaults.
func NewOllamaBackend(cfg types.LLMConfig) *OllamaBackend {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.1
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &OllamaBackend{
		BaseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		Model:       cfg.Model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		APIKey:      cfg.APIKey,
		MaxRetries:  cfg.MaxRetries,
		Client:      &http.Client{Timeout: timeout},
	}
}

// ollamaRequest is the request body for /api/generate.
type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

// ollamaResponse is the non-streaming response body from /api/generate.
type ollamaResponse struct {
	Response string `json:"response"`
}

// Generate sends one prompt to the inference endpoint and returns the raw
// generated text. Timeouts, 5xx, and non-JSON bodies surface as errors for
// the caller's retry loop.
func (b *OllamaBackend) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := ollamaRequest{
		Model:  b.Model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: b.Temperature,
			NumPredict:  b.MaxTokens,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+"/api/generate", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.APIKey)
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, b.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("calling inference endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("inference endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var oResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&oResp); err != nil {
		return "", fmt.Errorf("decoding inference response: %w", err)
	}

	if oResp.Response == "" {
		return "", fmt.Errorf("inference endpoint returned empty response")
	}

	return oResp.Response, nil
}
