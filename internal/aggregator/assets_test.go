package aggregator

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairuzakhdan/smartvowd/internal/domain/model"
	"github.com/fairuzakhdan/smartvowd/internal/ledger"
)

type fakeAssetLedger struct {
	assets []model.Asset
	minted []string
}

func (f *fakeAssetLedger) ListVisibleAssets(context.Context, string) ([]model.Asset, error) {
	return append([]model.Asset(nil), f.assets...), nil
}

func (f *fakeAssetLedger) MintAsset(_ context.Context, _, name, _, _ string, _ model.OwnershipType, metadataURI string) (*ledger.MintResult, error) {
	f.minted = append(f.minted, name+"|"+metadataURI)
	return &ledger.MintResult{TokenID: int64(len(f.minted)), TxHash: "0xmint"}, nil
}

type fakePinner struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakePinner) PinFile(_ context.Context, name string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "file:"+name)
	return "QmFile", nil
}

func (f *fakePinner) PinJSON(_ context.Context, name string, _ interface{}) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "json:"+name)
	return "QmMeta", nil
}

func (f *fakePinner) URI(cid string) string { return "ipfs://" + cid }

func (f *fakePinner) GatewayURL(ref string) string {
	return "https://gw.test/ipfs/" + strings.TrimPrefix(ref, "ipfs://")
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(req *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}
}

func newTestAssets(l *fakeAssetLedger, pins *fakePinner, rt roundTripFunc) *Assets {
	a := NewAssets(l, pins, &memHistory{}, slog.Default())
	if rt != nil {
		a.httpClient = &http.Client{Transport: rt}
	}
	return a
}

func TestList_MergesMetadata(t *testing.T) {
	l := &fakeAssetLedger{assets: []model.Asset{
		{TokenID: 1, Name: "House", Symbol: "HSE", Class: "property", MetadataURI: "ipfs://QmHouse"},
	}}
	a := newTestAssets(l, &fakePinner{}, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "https://gw.test/ipfs/QmHouse", req.URL.String())
		return jsonResponse(req, http.StatusOK, `{
			"name":"House","image":"ipfs://QmImg",
			"attributes":[{"trait_type":"category","value":"properti"}]
		}`), nil
	})

	assets, err := a.List(context.Background(), account)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "properti", assets[0].Category)
	assert.Equal(t, "https://gw.test/ipfs/QmImg", assets[0].ImageURL)
}

// A dead metadata gateway degrades to contract-only fields and never drops
// the asset or fails the list.
func TestList_MetadataFailureDegrades(t *testing.T) {
	l := &fakeAssetLedger{assets: []model.Asset{
		{TokenID: 1, Name: "House", Symbol: "HSE", Class: "property", MetadataURI: "ipfs://QmHouse"},
		{TokenID: 2, Name: "Car", Symbol: "CAR", Class: "vehicle", MetadataURI: "ipfs://QmCar"},
	}}
	a := newTestAssets(l, &fakePinner{}, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(req, http.StatusBadGateway, "gateway down"), nil
	})

	assets, err := a.List(context.Background(), account)
	require.NoError(t, err, "metadata failures must not fail the list")
	require.Len(t, assets, 2)
	for _, asset := range assets {
		assert.NotEmpty(t, asset.Name)
		assert.NotEmpty(t, asset.Symbol)
		assert.NotEmpty(t, asset.Class)
		assert.Empty(t, asset.Category)
		assert.Empty(t, asset.ImageURL)
	}
}

func TestList_CachesMetadataAcrossCalls(t *testing.T) {
	var fetches int
	l := &fakeAssetLedger{assets: []model.Asset{
		{TokenID: 1, Name: "House", Symbol: "HSE", MetadataURI: "ipfs://QmHouse"},
	}}
	a := newTestAssets(l, &fakePinner{}, func(req *http.Request) (*http.Response, error) {
		fetches++
		return jsonResponse(req, http.StatusOK, `{"attributes":[{"trait_type":"category","value":"properti"}]}`), nil
	})

	_, err := a.List(context.Background(), account)
	require.NoError(t, err)
	_, err = a.List(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, 1, fetches)
}

func TestMint_PinsImageBeforeMetadata(t *testing.T) {
	l := &fakeAssetLedger{}
	pins := &fakePinner{}
	a := newTestAssets(l, pins, nil)

	asset, err := a.Mint(context.Background(), account, MintAssetRequest{
		Name:      "House",
		Symbol:    "HSE",
		Class:     "property",
		Ownership: model.OwnershipJoint,
		Category:  "properti",
		Image:     []byte("img-bytes"),
	})
	require.NoError(t, err)

	require.Len(t, pins.calls, 2)
	assert.Equal(t, "file:House-image", pins.calls[0], "image pinned first")
	assert.Equal(t, "json:House-metadata", pins.calls[1])

	assert.Equal(t, "ipfs://QmMeta", asset.MetadataURI)
	assert.Equal(t, model.OwnershipJoint, asset.Ownership)
	require.Len(t, l.minted, 1)
	assert.Equal(t, "House|ipfs://QmMeta", l.minted[0])
}

func TestMint_Validation(t *testing.T) {
	a := newTestAssets(&fakeAssetLedger{}, &fakePinner{}, nil)

	_, err := a.Mint(context.Background(), account, MintAssetRequest{Symbol: "X"})
	assert.ErrorContains(t, err, "name and symbol required")
}
