package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"google.golang.org/genai"

	"voicetask/internal/domain"
)

// Config selects the model and credentials used for enrichment.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// generator is the slice of the genai client the enricher needs.
type generator interface {
	generate(ctx context.Context, model string, prompt string) (string, error)
}

// Enricher turns a free-form transcript into a structured task by asking
// the model to fill a fixed JSON template.
type Enricher struct {
	cfg       Config
	newClient func(ctx context.Context, cfg Config) (generator, error)
}

func NewEnricher(cfg Config) *Enricher {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	return &Enricher{cfg: cfg, newClient: newGenAIClient}
}

// Enrich returns the parsed task and the cleaned model output it came from.
func (e *Enricher) Enrich(ctx context.Context, text string) (domain.Task, string, error) {
	if strings.TrimSpace(e.cfg.APIKey) == "" {
		return domain.Task{}, "", domain.MissingConfiguration("Missing GOOGLE_KEY env var")
	}

	client, err := e.newClient(ctx, e.cfg)
	if err != nil {
		return domain.Task{}, "", domain.UpstreamCallFailure("failed to create Gemini client", "", err)
	}

	output, err := client.generate(ctx, e.cfg.Model, buildPrompt(text))
	if err != nil {
		return domain.Task{}, "", domain.UpstreamCallFailure("Gemini request failed", "", err)
	}

	cleaned := stripFences(output)
	task, err := parseTask(cleaned)
	if err != nil {
		return domain.Task{}, cleaned, domain.InvalidUpstreamPayload("Gemini returned invalid JSON", cleaned)
	}
	return task, cleaned, nil
}

var (
	openingFence = regexp.MustCompile("(?i)```json")
	anyFence     = regexp.MustCompile("```")
)

// stripFences removes the first ```json marker and every remaining ```
// so fenced replies parse as plain JSON.
func stripFences(output string) string {
	if loc := openingFence.FindStringIndex(output); loc != nil {
		output = output[:loc[0]] + output[loc[1]:]
	}
	return strings.TrimSpace(anyFence.ReplaceAllString(output, ""))
}

var errEmptyTask = errors.New("reply is not a task object")

// parseTask accepts only an object with a non-empty description; null,
// arrays and {} are rejected like malformed JSON.
func parseTask(payload string) (domain.Task, error) {
	var reply *struct {
		Type        string `json:"type"`
		Priority    string `json:"priority"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(payload), &reply); err != nil {
		return domain.Task{}, err
	}
	if reply == nil || strings.TrimSpace(reply.Description) == "" {
		return domain.Task{}, errEmptyTask
	}
	return domain.Task{Type: reply.Type, Priority: reply.Priority, Description: reply.Description}, nil
}

type genaiGenerator struct {
	client *genai.Client
}

func newGenAIClient(ctx context.Context, cfg Config) (generator, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, err
	}
	return &genaiGenerator{client: client}, nil
}

func (g *genaiGenerator) generate(ctx context.Context, model string, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
