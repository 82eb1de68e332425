package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fairuzakhdan/smartvowd/internal/cache"
	"github.com/fairuzakhdan/smartvowd/internal/domain/model"
	"github.com/fairuzakhdan/smartvowd/internal/ledger"
	"github.com/fairuzakhdan/smartvowd/internal/metrics"
	"github.com/fairuzakhdan/smartvowd/internal/store"
)

const (
	metadataCacheSize = 256
	metadataCacheTTL  = 15 * time.Minute
	metadataFetchCap  = 4
)

// AssetLedger is the gateway slice the asset aggregator depends on.
type AssetLedger interface {
	ListVisibleAssets(ctx context.Context, account string) ([]model.Asset, error)
	MintAsset(ctx context.Context, from, name, symbol, class string, ownership model.OwnershipType, metadataURI string) (*ledger.MintResult, error)
}

// Pinner is the content-addressed storage surface used for mints and
// metadata resolution.
type Pinner interface {
	PinFile(ctx context.Context, name string, data []byte) (string, error)
	PinJSON(ctx context.Context, name string, payload interface{}) (string, error)
	URI(cid string) string
	GatewayURL(ref string) string
}

// MintAssetRequest describes a new asset NFT. Image is optional raw bytes;
// when present it is pinned before the metadata that references it.
type MintAssetRequest struct {
	Name        string              `json:"name"`
	Symbol      string              `json:"symbol"`
	Class       string              `json:"class"`
	Ownership   model.OwnershipType `json:"ownership"`
	Category    string              `json:"category"`
	Description string              `json:"description"`
	Image       []byte              `json:"image,omitempty"`
}

type Assets struct {
	ledger     AssetLedger
	pins       Pinner
	history    store.HistoryRepository
	metadata   *cache.LRU[string, model.AssetMetadata]
	httpClient *http.Client
	logger     *slog.Logger
}

func NewAssets(l AssetLedger, pins Pinner, history store.HistoryRepository, logger *slog.Logger) *Assets {
	return &Assets{
		ledger:     l,
		pins:       pins,
		history:    history,
		metadata:   cache.NewLRU[string, model.AssetMetadata](metadataCacheSize, metadataCacheTTL),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.With("component", "assets"),
	}
}

// List enumerates the assets visible to the account and decorates each with
// off-chain metadata. A failing metadata gateway never blocks the list:
// affected assets simply keep their contract-only fields.
func (a *Assets) List(ctx context.Context, account string) ([]model.Asset, error) {
	assets, err := a.ledger.ListVisibleAssets(ctx, account)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(metadataFetchCap)
	for i := range assets {
		g.Go(func() error {
			a.decorate(gctx, &assets[i])
			return nil
		})
	}
	_ = g.Wait() // decorate never returns an error

	return assets, nil
}

// decorate merges off-chain metadata into the asset, best effort.
func (a *Assets) decorate(ctx context.Context, asset *model.Asset) {
	if asset.MetadataURI == "" {
		return
	}

	meta, err := a.metadata.GetOrLoad(asset.MetadataURI, func() (model.AssetMetadata, error) {
		return a.fetchMetadata(ctx, asset.MetadataURI)
	})
	if err != nil {
		metrics.MetadataFetchesTotal.WithLabelValues("error").Inc()
		a.logger.Warn("metadata fetch failed, serving contract fields only",
			"token_id", asset.TokenID, "uri", asset.MetadataURI, "error", err)
		return
	}

	metrics.MetadataFetchesTotal.WithLabelValues("ok").Inc()
	asset.Category = meta.Attribute("category")
	if meta.Image != "" {
		asset.ImageURL = a.pins.GatewayURL(meta.Image)
	}
}

func (a *Assets) fetchMetadata(ctx context.Context, uri string) (model.AssetMetadata, error) {
	var meta model.AssetMetadata

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.pins.GatewayURL(uri), nil)
	if err != nil {
		return meta, err
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return meta, fmt.Errorf("metadata request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return meta, fmt.Errorf("metadata gateway returned %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return meta, fmt.Errorf("read metadata: %w", err)
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return meta, fmt.Errorf("decode metadata: %w", err)
	}
	return meta, nil
}

// Mint pins the asset's image and metadata (image first, so the metadata can
// reference it), then mints the NFT and records the activity.
func (a *Assets) Mint(ctx context.Context, from string, req MintAssetRequest) (*model.Asset, error) {
	if req.Name == "" || req.Symbol == "" {
		return nil, fmt.Errorf("asset name and symbol required")
	}
	if req.Ownership == "" {
		req.Ownership = model.OwnershipPersonal
	}

	var imageRef string
	if len(req.Image) > 0 {
		cid, err := a.pins.PinFile(ctx, req.Name+"-image", req.Image)
		if err != nil {
			return nil, fmt.Errorf("pin asset image: %w", err)
		}
		imageRef = a.pins.URI(cid)
	}

	metadata := model.AssetMetadata{
		Name:        req.Name,
		Description: req.Description,
		Image:       imageRef,
		Attributes: []model.MetadataAttribute{
			{TraitType: "category", Value: req.Category},
			{TraitType: "ownership", Value: string(req.Ownership)},
			{TraitType: "class", Value: req.Class},
		},
	}
	metaCID, err := a.pins.PinJSON(ctx, req.Name+"-metadata", metadata)
	if err != nil {
		return nil, fmt.Errorf("pin asset metadata: %w", err)
	}
	metadataURI := a.pins.URI(metaCID)

	result, err := a.ledger.MintAsset(ctx, from, req.Name, req.Symbol, req.Class, req.Ownership, metadataURI)
	if err != nil {
		return nil, err
	}

	recordHistory(ctx, a.history, a.logger, model.HistoryEntry{
		TxHash:  result.TxHash,
		Kind:    model.HistoryMintAsset,
		Account: from,
	})

	asset := &model.Asset{
		TokenID:     result.TokenID,
		Name:        req.Name,
		Symbol:      req.Symbol,
		Class:       req.Class,
		Ownership:   req.Ownership,
		Creator:     from,
		MetadataURI: metadataURI,
		Category:    req.Category,
	}
	if imageRef != "" {
		asset.ImageURL = a.pins.GatewayURL(imageRef)
	}
	return asset, nil
}
