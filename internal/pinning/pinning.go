// Package pinning uploads images and metadata documents to the
// content-addressed storage service. Without an upload token it fabricates
// deterministic local pseudo-identifiers instead, which keeps offline and
// demo flows working; those identifiers resolve nowhere.
package pinning

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Config holds the pinning service settings. An empty Token switches the
// client to local pseudo-identifier mode.
type Config struct {
	Endpoint   string
	Token      string
	GatewayURL string
	Timeout    time.Duration
}

type Client struct {
	endpoint   string
	token      string
	gatewayURL string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = "https://api.pinata.cloud"
	}
	// GatewayURL appends /ipfs/ itself; a configured base carrying the
	// suffix would otherwise double the path segment.
	gateway := strings.TrimRight(cfg.GatewayURL, "/")
	gateway = strings.TrimSuffix(gateway, "/ipfs")
	if gateway == "" {
		gateway = "https://gateway.pinata.cloud"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		token:      cfg.Token,
		gatewayURL: gateway,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "pinning"),
	}
}

// Configured reports whether real uploads are possible.
func (c *Client) Configured() bool {
	return c.token != ""
}

// PinFile uploads a binary payload and returns its content identifier.
func (c *Client) PinFile(ctx context.Context, name string, data []byte) (string, error) {
	if !c.Configured() {
		cid := pseudoCID(data)
		c.logger.Info("no upload token, fabricated local identifier", "name", name, "cid", cid)
		return cid, nil
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close upload form: %w", err)
	}

	return c.pin(ctx, c.endpoint+"/pinning/pinFileToIPFS", &body, writer.FormDataContentType())
}

// PinJSON uploads a JSON document and returns its content identifier.
func (c *Client) PinJSON(ctx context.Context, name string, payload interface{}) (string, error) {
	content, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	if !c.Configured() {
		cid := pseudoCID(content)
		c.logger.Info("no upload token, fabricated local identifier", "name", name, "cid", cid)
		return cid, nil
	}

	wrapped, err := json.Marshal(map[string]interface{}{
		"pinataMetadata": map[string]string{"name": name},
		"pinataContent":  json.RawMessage(content),
	})
	if err != nil {
		return "", fmt.Errorf("wrap %s: %w", name, err)
	}
	return c.pin(ctx, c.endpoint+"/pinning/pinJSONToIPFS", bytes.NewReader(wrapped), "application/json")
}

// URI turns a content identifier into an ipfs:// URI for on-chain storage.
func (c *Client) URI(cid string) string {
	return "ipfs://" + cid
}

// GatewayURL resolves a content identifier or ipfs:// URI to a fetchable
// HTTP URL on the configured gateway.
func (c *Client) GatewayURL(ref string) string {
	cid := strings.TrimPrefix(ref, "ipfs://")
	if strings.HasPrefix(cid, "http://") || strings.HasPrefix(cid, "https://") {
		return cid
	}
	return c.gatewayURL + "/ipfs/" + cid
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

func (c *Client) pin(ctx context.Context, url string, body io.Reader, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("pin request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read pin response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pin endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded pinResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode pin response: %w", err)
	}
	if decoded.IpfsHash == "" {
		return "", fmt.Errorf("pin response missing content identifier")
	}
	return decoded.IpfsHash, nil
}

// pseudoCID fabricates a stable local identifier from the payload digest.
// The "local-" prefix makes it unmistakable in stored metadata.
func pseudoCID(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("local-%x", sum[:20])
}
