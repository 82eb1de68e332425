package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fairuzakhdan/smartvowd/internal/domain/model"
	"github.com/fairuzakhdan/smartvowd/internal/ledger"
	"github.com/fairuzakhdan/smartvowd/internal/store"
)

// CertificateLedger is the gateway slice the certificate flow depends on.
type CertificateLedger interface {
	MintCertificate(ctx context.Context, from, partnerB, metadataURI string) (*ledger.MintResult, error)
}

// VowWriter produces the vow text and seal art for a certificate.
type VowWriter interface {
	GenerateVowText(ctx context.Context, partnerA, partnerB string) (string, error)
	GenerateSealImage(partnerA, partnerB string) ([]byte, string)
}

// DraftRequest starts a certificate negotiation.
type DraftRequest struct {
	PartnerAName    string `json:"partnerAName"`
	PartnerAAddress string `json:"partnerAAddress"`
	PartnerBName    string `json:"partnerBName"`
	PartnerBAddress string `json:"partnerBAddress"`
	VowText         string `json:"vowText,omitempty"`
}

type Certificates struct {
	ledger  CertificateLedger
	pins    Pinner
	writer  VowWriter
	certs   store.CertificateRepository
	history store.HistoryRepository
	logger  *slog.Logger
	nowFn   func() time.Time
}

func NewCertificates(l CertificateLedger, pins Pinner, writer VowWriter, certs store.CertificateRepository, history store.HistoryRepository, logger *slog.Logger) *Certificates {
	return &Certificates{
		ledger:  l,
		pins:    pins,
		writer:  writer,
		certs:   certs,
		history: history,
		logger:  logger.With("component", "certificates"),
		nowFn:   time.Now,
	}
}

// Draft starts the negotiation. The draft lives only in this device's local
// store: the invited partner cannot see it from another device until the
// certificate is minted on chain. Known gap, surfaced in the log rather
// than papered over.
func (c *Certificates) Draft(ctx context.Context, req DraftRequest) (*model.Certificate, error) {
	if req.PartnerAAddress == "" || req.PartnerBAddress == "" {
		return nil, fmt.Errorf("both partner addresses required")
	}
	if model.EqualAddress(req.PartnerAAddress, req.PartnerBAddress) {
		return nil, fmt.Errorf("partners must be distinct addresses")
	}

	vowText := req.VowText
	if vowText == "" {
		generated, err := c.writer.GenerateVowText(ctx, req.PartnerAName, req.PartnerBName)
		if err != nil {
			return nil, fmt.Errorf("generate vow text: %w", err)
		}
		vowText = generated
	}

	now := c.nowFn()
	cert := model.Certificate{
		ID:              uuid.NewString(),
		PartnerAName:    req.PartnerAName,
		PartnerAAddress: model.NormalizeAddress(req.PartnerAAddress),
		PartnerBName:    req.PartnerBName,
		PartnerBAddress: model.NormalizeAddress(req.PartnerBAddress),
		VowText:         vowText,
		Status:          model.CertificatePendingPartner,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := c.certs.SaveCertificate(ctx, cert); err != nil {
		return nil, err
	}

	c.logger.Warn("certificate draft is local to this device until minted; the invited partner cannot see it elsewhere",
		"certificate_id", cert.ID)
	return &cert, nil
}

// Accept records the invited partner's agreement, moving the draft to the
// ready-to-sign stage.
func (c *Certificates) Accept(ctx context.Context, id, partnerAddress string) (*model.Certificate, error) {
	cert, ok := c.certs.Certificate(id)
	if !ok {
		return nil, fmt.Errorf("certificate %s not found", id)
	}
	if cert.Status != model.CertificatePendingPartner {
		return nil, fmt.Errorf("certificate %s is %s, expected %s", id, cert.Status, model.CertificatePendingPartner)
	}
	if !model.EqualAddress(partnerAddress, cert.PartnerBAddress) {
		return nil, fmt.Errorf("only the invited partner can accept")
	}

	cert.Status = model.CertificatePendingSign
	cert.UpdatedAt = c.nowFn()
	if err := c.certs.SaveCertificate(ctx, cert); err != nil {
		return nil, err
	}
	return &cert, nil
}

// certificateMetadata is the pinned JSON document the NFT points at.
type certificateMetadata struct {
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	Image       string                    `json:"image"`
	Attributes  []model.MetadataAttribute `json:"attributes"`
}

// Mint renders the seal, pins image then metadata in that order, mints the
// NFT, and promotes the certificate to active with its on-chain references.
func (c *Certificates) Mint(ctx context.Context, id, from string) (*model.Certificate, error) {
	cert, ok := c.certs.Certificate(id)
	if !ok {
		return nil, fmt.Errorf("certificate %s not found", id)
	}
	if cert.Status != model.CertificatePendingSign {
		return nil, fmt.Errorf("certificate %s is %s, expected %s", id, cert.Status, model.CertificatePendingSign)
	}
	if !model.EqualAddress(from, cert.PartnerAAddress) && !model.EqualAddress(from, cert.PartnerBAddress) {
		return nil, fmt.Errorf("caller is not a partner on this certificate")
	}

	seal, _ := c.writer.GenerateSealImage(cert.PartnerAName, cert.PartnerBName)
	sealCID, err := c.pins.PinFile(ctx, "seal-"+cert.ID+".svg", seal)
	if err != nil {
		return nil, fmt.Errorf("pin seal: %w", err)
	}
	sealURI := c.pins.URI(sealCID)

	metaCID, err := c.pins.PinJSON(ctx, "certificate-"+cert.ID, certificateMetadata{
		Name:        fmt.Sprintf("Marriage Certificate: %s & %s", cert.PartnerAName, cert.PartnerBName),
		Description: cert.VowText,
		Image:       sealURI,
		Attributes: []model.MetadataAttribute{
			{TraitType: "partner_a", Value: cert.PartnerAAddress},
			{TraitType: "partner_b", Value: cert.PartnerBAddress},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("pin certificate metadata: %w", err)
	}
	metadataURI := c.pins.URI(metaCID)

	counterparty := cert.PartnerBAddress
	if model.EqualAddress(from, cert.PartnerBAddress) {
		counterparty = cert.PartnerAAddress
	}
	result, err := c.ledger.MintCertificate(ctx, from, counterparty, metadataURI)
	if err != nil {
		return nil, err
	}

	cert.Status = model.CertificateActive
	cert.SealImageURI = sealURI
	cert.TokenID = &result.TokenID
	cert.TxHash = &result.TxHash
	cert.MetadataURI = &metadataURI
	cert.UpdatedAt = c.nowFn()
	if err := c.certs.SaveCertificate(ctx, cert); err != nil {
		c.logger.Warn("certificate record update failed after confirmed mint",
			"certificate_id", cert.ID, "token_id", result.TokenID, "error", err)
	}

	recordHistory(ctx, c.history, c.logger, model.HistoryEntry{
		TxHash:       result.TxHash,
		Kind:         model.HistoryMintCertificate,
		Account:      from,
		Counterparty: counterparty,
	})
	return &cert, nil
}

// SetStatus handles the post-mint transitions (disputed, divorced).
func (c *Certificates) SetStatus(ctx context.Context, id string, status model.CertificateStatus) (*model.Certificate, error) {
	if status != model.CertificateDisputed && status != model.CertificateDivorced {
		return nil, fmt.Errorf("unsupported status transition to %s", status)
	}
	cert, ok := c.certs.Certificate(id)
	if !ok {
		return nil, fmt.Errorf("certificate %s not found", id)
	}
	if cert.Status != model.CertificateActive && cert.Status != model.CertificateDisputed {
		return nil, fmt.Errorf("certificate %s is %s, cannot move to %s", id, cert.Status, status)
	}

	cert.Status = status
	cert.UpdatedAt = c.nowFn()
	if err := c.certs.SaveCertificate(ctx, cert); err != nil {
		return nil, err
	}
	return &cert, nil
}

// List returns all locally known certificates.
func (c *Certificates) List() []model.Certificate {
	return c.certs.Certificates()
}

// Get returns one certificate by id.
func (c *Certificates) Get(id string) (*model.Certificate, bool) {
	cert, ok := c.certs.Certificate(id)
	if !ok {
		return nil, false
	}
	return &cert, true
}
