package ledger

import (
	"context"
	"fmt"

	"github.com/fairuzakhdan/smartvowd/internal/domain/model"
	"github.com/fairuzakhdan/smartvowd/internal/ledger/abi"
	"github.com/fairuzakhdan/smartvowd/internal/ledger/rpc"
)

// Certificate and asset contract method signatures.
const (
	sigMintCertificate = "mintCertificate(address,string)"
	sigMintAsset       = "mintAsset(string,string,string,uint8,string)"
	sigVisibleAssets   = "visibleAssets(address)"
	sigAssetInfo       = "assetInfo(uint256)"
)

var (
	certificateMintedTopic = abi.EventTopic("CertificateMinted(uint256,address,address)")
	assetMintedTopic       = abi.EventTopic("AssetMinted(uint256,address)")
)

// MintResult is the confirmed outcome of an NFT mint.
type MintResult struct {
	TokenID int64
	TxHash  string
}

// MintCertificate mints the marriage certificate NFT for the two partners.
func (g *Gateway) MintCertificate(ctx context.Context, from, partnerB, metadataURI string) (*MintResult, error) {
	data, err := abi.EncodeCall(sigMintCertificate, abi.Address(partnerB), abi.String(metadataURI))
	if err != nil {
		return nil, err
	}
	receipt, err := g.submitAndWait(ctx, "mint_certificate", rpc.TxParams{
		From: from,
		To:   g.addrs.Certificate,
		Data: data,
	})
	if err != nil {
		return nil, err
	}

	tokenID, err := tokenIDFromReceipt(receipt, certificateMintedTopic)
	if err != nil {
		return nil, fmt.Errorf("mint certificate confirmed but token id not decodable: %w", err)
	}
	return &MintResult{TokenID: tokenID, TxHash: receipt.TransactionHash}, nil
}

// MintAsset mints an asset NFT with personal or joint ownership.
func (g *Gateway) MintAsset(ctx context.Context, from, name, symbol, class string, ownership model.OwnershipType, metadataURI string) (*MintResult, error) {
	ownershipCode := uint64(0)
	if ownership == model.OwnershipJoint {
		ownershipCode = 1
	}

	data, err := abi.EncodeCall(sigMintAsset,
		abi.String(name),
		abi.String(symbol),
		abi.String(class),
		abi.Uint64(ownershipCode),
		abi.String(metadataURI),
	)
	if err != nil {
		return nil, err
	}
	receipt, err := g.submitAndWait(ctx, "mint_asset", rpc.TxParams{
		From: from,
		To:   g.addrs.Asset,
		Data: data,
	})
	if err != nil {
		return nil, err
	}

	tokenID, err := tokenIDFromReceipt(receipt, assetMintedTopic)
	if err != nil {
		return nil, fmt.Errorf("mint asset confirmed but token id not decodable: %w", err)
	}
	return &MintResult{TokenID: tokenID, TxHash: receipt.TransactionHash}, nil
}

func tokenIDFromReceipt(receipt *rpc.TransactionReceipt, topic string) (int64, error) {
	for _, log := range receipt.Logs {
		if len(log.Topics) >= 2 && log.Topics[0] == topic {
			return abi.TopicInt64(log.Topics[1])
		}
	}
	return 0, fmt.Errorf("no mint event in receipt %s", receipt.TransactionHash)
}

// ListVisibleAssets enumerates the asset NFTs visible to an account. The
// contract already performs the own-plus-partner-shared visibility union.
func (g *Gateway) ListVisibleAssets(ctx context.Context, account string) ([]model.Asset, error) {
	data, err := abi.EncodeCall(sigVisibleAssets, abi.Address(account))
	if err != nil {
		return nil, err
	}
	d, err := g.read(ctx, g.addrs.Asset, data)
	if err != nil {
		return nil, fmt.Errorf("list visible assets: %w", err)
	}

	ids, err := d.BigIntSlice(0)
	if err != nil {
		return nil, fmt.Errorf("decode visible assets: %w", err)
	}

	assets := make([]model.Asset, 0, len(ids))
	for _, id := range ids {
		asset, err := g.readAssetInfo(ctx, id.Int64())
		if err != nil {
			return nil, err
		}
		assets = append(assets, *asset)
	}
	return assets, nil
}

func (g *Gateway) readAssetInfo(ctx context.Context, tokenID int64) (*model.Asset, error) {
	data, err := abi.EncodeCall(sigAssetInfo, abi.Uint64(uint64(tokenID)))
	if err != nil {
		return nil, err
	}
	d, err := g.read(ctx, g.addrs.Asset, data)
	if err != nil {
		return nil, fmt.Errorf("read asset %d: %w", tokenID, err)
	}

	name, err := d.String(0)
	if err != nil {
		return nil, fmt.Errorf("decode asset %d: %w", tokenID, err)
	}
	symbol, err := d.String(1)
	if err != nil {
		return nil, fmt.Errorf("decode asset %d: %w", tokenID, err)
	}
	class, err := d.String(2)
	if err != nil {
		return nil, fmt.Errorf("decode asset %d: %w", tokenID, err)
	}
	ownershipCode, err := d.Uint8(3)
	if err != nil {
		return nil, fmt.Errorf("decode asset %d: %w", tokenID, err)
	}
	creator, err := d.Address(4)
	if err != nil {
		return nil, fmt.Errorf("decode asset %d: %w", tokenID, err)
	}
	mintedAt, err := d.Int64(5)
	if err != nil {
		return nil, fmt.Errorf("decode asset %d: %w", tokenID, err)
	}
	metadataURI, err := d.String(6)
	if err != nil {
		return nil, fmt.Errorf("decode asset %d: %w", tokenID, err)
	}

	ownership := model.OwnershipPersonal
	if ownershipCode == 1 {
		ownership = model.OwnershipJoint
	}

	return &model.Asset{
		TokenID:     tokenID,
		Name:        name,
		Symbol:      symbol,
		Class:       class,
		Ownership:   ownership,
		Creator:     creator,
		MintedAt:    mintedAt,
		MetadataURI: metadataURI,
	}, nil
}
