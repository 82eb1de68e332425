package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestGenerator(t *testing.T, apiKey string, rt roundTripFunc) *Generator {
	t.Helper()
	g := NewGenerator(Config{APIKey: apiKey, BaseURL: "https://ai.test/v1", Model: "test-model", Timeout: time.Second}, slog.Default())
	if rt != nil {
		g.httpClient = &http.Client{Transport: rt}
	}
	return g
}

// Unconfigured generator: no network call, at least three clauses, every
// penalty in [1,100], same keywords give the same template.
func TestGenerateVowTemplate_UnconfiguredFallback(t *testing.T) {
	g := newTestGenerator(t, "", func(*http.Request) (*http.Response, error) {
		t.Fatal("network call attempted without an API key")
		return nil, nil
	})

	first, err := g.GenerateVowTemplate(context.Background(), "kdrt, keuangan")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(first.Clauses), 3)
	for _, c := range first.Clauses {
		assert.NotEmpty(t, c.Title)
		assert.NotEmpty(t, c.Description)
		assert.GreaterOrEqual(t, c.PenaltyPercent, 1)
		assert.LessOrEqual(t, c.PenaltyPercent, 100)
	}
	assert.Contains(t, first.Categories, "kdrt")
	assert.Contains(t, first.Categories, "keuangan")

	second, err := g.GenerateVowTemplate(context.Background(), "kdrt, keuangan")
	require.NoError(t, err)
	assert.Equal(t, first, second, "fallback must be deterministic")
}

func TestGenerateVowTemplate_UnknownKeywordsStillFillThree(t *testing.T) {
	g := newTestGenerator(t, "", nil)

	tpl, err := g.GenerateVowTemplate(context.Background(), "quantum, blockchain")
	require.NoError(t, err)
	assert.Len(t, tpl.Clauses, 3)
	assert.Equal(t, []string{"umum"}, tpl.Categories)
}

func TestGenerateVowTemplate_LiveEndpoint(t *testing.T) {
	response := map[string]interface{}{
		"candidates": []map[string]interface{}{{
			"content": map[string]interface{}{
				"parts": []map[string]string{{
					"text": "```json\n" + `{"clauses":[
						{"title":"A","description":"a","penaltyPercent":10},
						{"title":"B","description":"b","penaltyPercent":20},
						{"title":"C","description":"c","penaltyPercent":30}],
						"categories":["keuangan"]}` + "\n```",
				}},
			},
		}},
	}
	raw, err := json.Marshal(response)
	require.NoError(t, err)

	var gotURL string
	g := newTestGenerator(t, "secret", func(req *http.Request) (*http.Response, error) {
		gotURL = req.URL.String()
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader(raw)),
			Request:    req,
		}, nil
	})

	tpl, err := g.GenerateVowTemplate(context.Background(), "keuangan")
	require.NoError(t, err)
	require.Len(t, tpl.Clauses, 3)
	assert.Equal(t, "A", tpl.Clauses[0].Title)
	assert.Contains(t, gotURL, "models/test-model:generateContent")
	assert.Contains(t, gotURL, "key=secret")
}

func TestGenerateVowTemplate_EndpointFailureFallsBack(t *testing.T) {
	g := newTestGenerator(t, "secret", func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusBadGateway, Body: http.NoBody, Request: req}, nil
	})

	tpl, err := g.GenerateVowTemplate(context.Background(), "judi")
	require.NoError(t, err, "generation must not hard-fail on endpoint errors")
	assert.GreaterOrEqual(t, len(tpl.Clauses), 3)
	assert.Contains(t, tpl.Categories, "judi")
}

func TestGenerateVowText_Fallback(t *testing.T) {
	g := newTestGenerator(t, "", nil)

	text, err := g.GenerateVowText(context.Background(), "Ayu", "Budi")
	require.NoError(t, err)
	assert.Contains(t, text, "Ayu")
	assert.Contains(t, text, "Budi")
}

func TestGenerateSealImage_Deterministic(t *testing.T) {
	g := newTestGenerator(t, "", nil)

	seal1, mime := g.GenerateSealImage("Ayu", "Budi")
	seal2, _ := g.GenerateSealImage("Ayu", "Budi")
	other, _ := g.GenerateSealImage("Citra", "Dian")

	assert.Equal(t, "image/svg+xml", mime)
	assert.Equal(t, seal1, seal2)
	assert.NotEqual(t, seal1, other)
	assert.True(t, strings.HasPrefix(string(seal1), "<svg"))
	assert.Contains(t, string(seal1), "A&amp;B")
}

func TestParseTemplate_Rejections(t *testing.T) {
	_, err := parseTemplate(`{"clauses":[{"title":"A","description":"a","penaltyPercent":10}]}`)
	assert.ErrorContains(t, err, "at least 3")

	_, err = parseTemplate(`{"clauses":[
		{"title":"A","description":"a","penaltyPercent":0},
		{"title":"B","description":"b","penaltyPercent":20},
		{"title":"C","description":"c","penaltyPercent":30}]}`)
	assert.ErrorContains(t, err, "out of range")

	_, err = parseTemplate("not json at all")
	assert.Error(t, err)
}
