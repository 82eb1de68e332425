package pinning

import (
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

func newTestClient(token string, rt roundTripFunc) *Client {
	c := NewClient(Config{
		Endpoint:   "https://pin.test",
		Token:      token,
		GatewayURL: "https://gw.test",
		Timeout:    time.Second,
	}, slog.Default())
	if rt != nil {
		c.httpClient = &http.Client{Transport: rt}
	}
	return c
}

func TestPinFile_NoTokenFabricatesStableIdentifier(t *testing.T) {
	c := newTestClient("", func(*http.Request) (*http.Response, error) {
		t.Fatal("upload attempted without a token")
		return nil, nil
	})

	cid1, err := c.PinFile(context.Background(), "seal.svg", []byte("<svg/>"))
	require.NoError(t, err)
	cid2, err := c.PinFile(context.Background(), "seal.svg", []byte("<svg/>"))
	require.NoError(t, err)
	other, err := c.PinFile(context.Background(), "seal.svg", []byte("<svg>x</svg>"))
	require.NoError(t, err)

	assert.Equal(t, cid1, cid2, "same payload, same identifier")
	assert.NotEqual(t, cid1, other)
	assert.True(t, strings.HasPrefix(cid1, "local-"))
}

func TestPinJSON_Uploads(t *testing.T) {
	var gotAuth, gotURL string
	var gotBody map[string]interface{}
	c := newTestClient("tok", func(req *http.Request) (*http.Response, error) {
		gotAuth = req.Header.Get("Authorization")
		gotURL = req.URL.String()
		raw, _ := io.ReadAll(req.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"IpfsHash":"QmTest123"}`)),
			Request:    req,
		}, nil
	})

	cid, err := c.PinJSON(context.Background(), "certificate-metadata", map[string]string{"name": "x"})
	require.NoError(t, err)
	assert.Equal(t, "QmTest123", cid)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "https://pin.test/pinning/pinJSONToIPFS", gotURL)
	assert.Contains(t, gotBody, "pinataContent")
}

func TestPinFile_ErrorStatus(t *testing.T) {
	c := newTestClient("tok", func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusUnauthorized,
			Body:       io.NopCloser(strings.NewReader(`{"error":"bad token"}`)),
			Request:    req,
		}, nil
	})

	_, err := c.PinFile(context.Background(), "seal.svg", []byte("<svg/>"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestGatewayURL(t *testing.T) {
	c := newTestClient("", nil)

	assert.Equal(t, "https://gw.test/ipfs/QmX", c.GatewayURL("QmX"))
	assert.Equal(t, "https://gw.test/ipfs/QmX", c.GatewayURL("ipfs://QmX"))
	assert.Equal(t, "https://other/doc.json", c.GatewayURL("https://other/doc.json"))
	assert.Equal(t, "ipfs://QmX", c.URI("QmX"))
}

// A gateway base configured with the /ipfs suffix must not produce a doubled
// path segment.
func TestGatewayURL_SuffixedBase(t *testing.T) {
	for _, base := range []string{
		"https://gateway.pinata.cloud/ipfs",
		"https://gateway.pinata.cloud/ipfs/",
		"https://gateway.pinata.cloud",
	} {
		c := NewClient(Config{GatewayURL: base}, slog.Default())
		assert.Equal(t, "https://gateway.pinata.cloud/ipfs/QmTest123", c.GatewayURL("ipfs://QmTest123"), "base %q", base)
	}
}
