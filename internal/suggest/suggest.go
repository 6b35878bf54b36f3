// Package suggest proposes role candidates for a contract document using
// the Gemini API. Suggestions enter the pipeline as ordinary extraction
// candidates: the resolver and rule engine treat them no differently,
// and nothing model-produced ever bypasses policy.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	genai "google.golang.org/genai"

	apperrors "github.com/agencyops/staffing-engine/internal/errors"
	"github.com/agencyops/staffing-engine/internal/retry"
	"github.com/agencyops/staffing-engine/internal/staffing"
	"github.com/agencyops/staffing-engine/internal/taxonomy"
)

// Client is a thin wrapper around the official genai client.
type Client struct {
	cli    *genai.Client
	model  string
	logger zerolog.Logger
}

// NewClient builds a Gemini-backed suggestion client.
func NewClient(ctx context.Context, apiKey, model string, logger zerolog.Logger) (*Client, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{
		cli:    cli,
		model:  model,
		logger: logger.With().Str("component", "suggest").Logger(),
	}, nil
}

// Name identifies the backing model for logs and plan provenance.
func (c *Client) Name() string { return "gemini:" + c.model }

// SuggestCandidates asks the model for staffing candidates given the
// contract text and whatever project facts are already known. The
// request demands JSON output and is retried on transient failures.
func (c *Client) SuggestCandidates(ctx context.Context, project *staffing.ProjectContext, sowText string) ([]staffing.Candidate, error) {
	prompt := buildPrompt(project, sowText)

	var raw string
	err := retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context) error {
		resp, err := c.cli.Models.GenerateContent(ctx, c.model,
			[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
			&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
		)
		if err != nil {
			return apperrors.NewAPIError("gemini", 502, err.Error())
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
			len(resp.Candidates[0].Content.Parts) == 0 {
			return fmt.Errorf("empty model response: %w", apperrors.ErrInvalidInput)
		}
		raw = resp.Candidates[0].Content.Parts[0].Text
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("suggest candidates: %w", err)
	}

	candidates, err := parseCandidates([]byte(raw))
	if err != nil {
		return nil, err
	}
	c.logger.Info().Int("candidates", len(candidates)).Msg("model suggestions received")
	return candidates, nil
}

// buildPrompt assembles the instruction block. The canonical role titles
// are included so the model anchors on resolvable names.
func buildPrompt(project *staffing.ProjectContext, sowText string) string {
	var b strings.Builder
	b.WriteString("You are a staffing analyst for a sports and entertainment marketing agency.\n")
	b.WriteString("Given the statement of work below, propose the roles needed to deliver it.\n")
	b.WriteString("Respond with a JSON array; each element has fields: ")
	b.WriteString(`"title", "allocation_hint" (e.g. "50%" or "200 hours"), "confidence" (0..1).` + "\n\n")

	b.WriteString("Preferred role titles:\n")
	for _, e := range taxonomy.Default().Entries() {
		fmt.Fprintf(&b, "- %s\n", e.Title)
	}

	fmt.Fprintf(&b, "\nProject type: %s\nComplexity: %s\n", project.Type, project.Complexity)
	if weeks, ok := project.Duration(); ok {
		fmt.Fprintf(&b, "Duration: %d weeks\n", weeks)
	}
	b.WriteString("\n[STATEMENT OF WORK]\n")
	b.WriteString(sowText)
	return b.String()
}

// parseCandidates decodes the model's JSON and drops entries without a
// title. Confidence is clamped into [0, 1]; the resolver applies its own
// defaults and caps after that.
func parseCandidates(raw []byte) ([]staffing.Candidate, error) {
	var decoded []staffing.Candidate
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode model response: %w: %v", apperrors.ErrInvalidInput, err)
	}

	out := decoded[:0]
	for _, c := range decoded {
		c.Title = strings.TrimSpace(c.Title)
		if c.Title == "" {
			continue
		}
		if c.Confidence < 0 {
			c.Confidence = 0
		}
		if c.Confidence > 1 {
			c.Confidence = 1
		}
		out = append(out, c)
	}
	return out, nil
}
