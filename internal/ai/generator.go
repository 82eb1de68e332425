// Package ai calls the generative text/image endpoints used for vow
// templates and certificate seals. Every operation degrades to a
// deterministic local fallback when the service is unconfigured or fails:
// no user-facing flow may hard-fail because a generative call failed.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fairuzakhdan/smartvowd/internal/domain/model"
	"github.com/fairuzakhdan/smartvowd/internal/metrics"
)

// Config holds the generative endpoint settings. An empty APIKey means the
// generator runs in fallback-only mode and never touches the network.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Template is the generated agreement scaffold: clauses plus category tags.
type Template struct {
	Clauses    []model.Clause `json:"clauses"`
	Categories []string       `json:"categories"`
}

type Generator struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewGenerator(cfg Config, logger *slog.Logger) *Generator {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	mdl := cfg.Model
	if mdl == "" {
		mdl = "gemini-2.0-flash"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Generator{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		model:      mdl,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "ai"),
	}
}

// Configured reports whether a live endpoint is available.
func (g *Generator) Configured() bool {
	return g.apiKey != ""
}

// GenerateVowTemplate produces clause suggestions for a comma-separated
// keyword string. The result always satisfies: at least three clauses, every
// penalty in [1,100].
func (g *Generator) GenerateVowTemplate(ctx context.Context, keywords string) (*Template, error) {
	if !g.Configured() {
		metrics.AIFallbacksTotal.WithLabelValues("template").Inc()
		return fallbackTemplate(keywords), nil
	}

	prompt := templatePrompt(keywords)
	text, err := g.generateText(ctx, prompt)
	if err != nil {
		g.logger.Warn("template generation failed, using fallback", "error", err)
		metrics.AIFallbacksTotal.WithLabelValues("template").Inc()
		return fallbackTemplate(keywords), nil
	}

	tpl, err := parseTemplate(text)
	if err != nil {
		g.logger.Warn("template response unparseable, using fallback", "error", err)
		metrics.AIFallbacksTotal.WithLabelValues("template").Inc()
		return fallbackTemplate(keywords), nil
	}
	return tpl, nil
}

// GenerateVowText produces the certificate vow prose for a couple.
func (g *Generator) GenerateVowText(ctx context.Context, partnerA, partnerB string) (string, error) {
	if !g.Configured() {
		metrics.AIFallbacksTotal.WithLabelValues("vow_text").Inc()
		return fallbackVowText(partnerA, partnerB), nil
	}

	prompt := fmt.Sprintf(
		"Write a short, heartfelt wedding vow (at most 80 words) for %s and %s. Plain text only.",
		partnerA, partnerB)
	text, err := g.generateText(ctx, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		g.logger.Warn("vow text generation failed, using fallback", "error", err)
		metrics.AIFallbacksTotal.WithLabelValues("vow_text").Inc()
		return fallbackVowText(partnerA, partnerB), nil
	}
	return strings.TrimSpace(text), nil
}

// GenerateSealImage returns an SVG seal for the certificate. The live
// endpoint is not consulted for images; seals are always rendered locally so
// the certificate flow cannot stall on image generation.
func (g *Generator) GenerateSealImage(partnerA, partnerB string) ([]byte, string) {
	return fallbackSeal(partnerA, partnerB), "image/svg+xml"
}

// generateContent request/response shapes, trimmed to the fields used.

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *Generator) generateText(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read generate response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generate endpoint returned %d", resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("generate endpoint error %d: %s", decoded.Error.Code, decoded.Error.Message)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty generate response")
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}

func templatePrompt(keywords string) string {
	return fmt.Sprintf(`Suggest prenuptial agreement clauses for these concern keywords: %s.
Respond with JSON only, shaped as {"clauses":[{"title":...,"description":...,"penaltyPercent":1-100}],"categories":[...]}.
At least three clauses.`, keywords)
}

// parseTemplate extracts the JSON template from a model response, tolerating
// a markdown code fence around it.
func parseTemplate(text string) (*Template, error) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	var tpl Template
	if err := json.Unmarshal([]byte(strings.TrimSpace(trimmed)), &tpl); err != nil {
		return nil, err
	}
	if len(tpl.Clauses) < 3 {
		return nil, fmt.Errorf("model returned %d clauses, need at least 3", len(tpl.Clauses))
	}
	for i := range tpl.Clauses {
		if tpl.Clauses[i].PenaltyPercent < 1 || tpl.Clauses[i].PenaltyPercent > 100 {
			return nil, fmt.Errorf("clause %d penalty %d out of range", i, tpl.Clauses[i].PenaltyPercent)
		}
	}
	return &tpl, nil
}
