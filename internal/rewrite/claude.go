package rewrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/template"
)

// Request carries the user's instruction and the card it applies to.
type Request struct {
	CardID string
	Prompt string
	Title  string
	Text   string // body in the plain-text convention
}

// Generator produces the raw model reply for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

var rewritePromptTmpl = template.Must(template.New("rewrite").Parse(`You edit short cards made of a title and a body.

The body uses this plain-text convention, one block per line:
- "# " to "###### " start a heading (level = number of #)
- "• " starts a bullet item, "1. ", "2. " ... start numbered items
- a blank line ends a list; any other line is a paragraph
- **double asterisks** mark bold text; no other formatting exists

Apply the instruction to the card and answer in exactly this shape:
TITLE: <new title on one line>
BODY:
<new body in the convention above>

If the instruction is harmful, unrelated to editing the card, or impossible,
answer with a single line starting with "ERROR:" followed by a short reason.

Instruction:
{{.Prompt}}

Current title:
{{.Title}}

Current body:
{{.Text}}
`))

func renderPrompt(req Request) (string, error) {
	var buf bytes.Buffer
	if err := rewritePromptTmpl.Execute(&buf, req); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const anthropicVersion = "2023-06-01"

// Claude calls the Anthropic Messages API.
type Claude struct {
	APIKey     string
	Model      string
	Endpoint   string
	MaxTokens  int
	MaxRetries int
	Client     *http.Client
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Generate sends one rewrite request and returns the first text block.
func (c *Claude) Generate(ctx context.Context, req Request) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("no API key configured")
	}

	prompt, err := renderPrompt(req)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	bodyBytes, err := json.Marshal(claudeRequest{
		Model:     c.Model,
		MaxTokens: maxTokens,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	newReq := func(ctx context.Context) (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set("x-api-key", c.APIKey)
		r.Header.Set("anthropic-version", anthropicVersion)
		return r, nil
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := doWithRetry(ctx, client, newReq, c.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Claude API response")
}
