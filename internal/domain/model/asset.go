package model

// OwnershipType labels an asset NFT as held by one partner or jointly.
type OwnershipType string

const (
	OwnershipPersonal OwnershipType = "personal"
	OwnershipJoint    OwnershipType = "joint"
)

// Asset is an asset NFT visible to an account. Name, Symbol and Class come
// from the contract; Category and ImageURL come from off-chain metadata and
// stay empty when the metadata gateway is unreachable.
type Asset struct {
	TokenID     int64         `json:"tokenId"`
	Name        string        `json:"name"`
	Symbol      string        `json:"symbol"`
	Class       string        `json:"class"`
	Ownership   OwnershipType `json:"ownership"`
	Creator     string        `json:"creator"`
	MintedAt    int64         `json:"mintedAt"`
	MetadataURI string        `json:"metadataURI"`
	Category    string        `json:"category,omitempty"`
	ImageURL    string        `json:"imageURL,omitempty"`
}

// AssetMetadata is the off-chain JSON document a metadata URI resolves to.
type AssetMetadata struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Image       string              `json:"image"`
	Attributes  []MetadataAttribute `json:"attributes"`
}

type MetadataAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// Attribute returns the value of the named trait, or "" when absent.
func (m *AssetMetadata) Attribute(traitType string) string {
	for _, attr := range m.Attributes {
		if attr.TraitType == traitType {
			return attr.Value
		}
	}
	return ""
}
