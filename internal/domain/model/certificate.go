package model

import "time"

// CertificateStatus is a superset of on-chain status: the idle → pending-sign
// range tracks the off-chain negotiation phase that exists only in the local
// store before the certificate NFT is minted.
type CertificateStatus string

const (
	CertificateIdle           CertificateStatus = "idle"
	CertificateCreating       CertificateStatus = "creating"
	CertificatePendingPartner CertificateStatus = "pending_partner"
	CertificatePendingSign    CertificateStatus = "pending_sign"
	CertificateActive         CertificateStatus = "active"
	CertificateDisputed       CertificateStatus = "disputed"
	CertificateDivorced       CertificateStatus = "divorced"
)

type Certificate struct {
	ID              string            `json:"id"`
	PartnerAName    string            `json:"partnerAName"`
	PartnerAAddress string            `json:"partnerAAddress"`
	PartnerBName    string            `json:"partnerBName"`
	PartnerBAddress string            `json:"partnerBAddress"`
	VowText         string            `json:"vowText"`
	SealImageURI    string            `json:"sealImageURI,omitempty"`
	Status          CertificateStatus `json:"status"`
	TokenID         *int64            `json:"tokenId,omitempty"`
	TxHash          *string           `json:"txHash,omitempty"`
	MetadataURI     *string           `json:"metadataURI,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}
