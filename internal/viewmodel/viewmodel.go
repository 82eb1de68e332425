// Package viewmodel reconciles ledger truth with locally stored enrichments
// into per-agreement display records and the actions available to the
// viewing account. It never trusts the local store for action decisions and
// re-reads the ledger after every confirmed write.
package viewmodel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/fairuzakhdan/smartvowd/internal/domain/model"
	"github.com/fairuzakhdan/smartvowd/internal/ledger"
	"github.com/fairuzakhdan/smartvowd/internal/ledger/amount"
	"github.com/fairuzakhdan/smartvowd/internal/ledger/revert"
	"github.com/fairuzakhdan/smartvowd/internal/metrics"
	"github.com/fairuzakhdan/smartvowd/internal/store"
)

// readConcurrency bounds parallel per-vow ledger reads during a list.
const readConcurrency = 4

// Ledger is the slice of the gateway surface the view-model depends on.
type Ledger interface {
	ReadVow(ctx context.Context, id int64) (*model.Vow, error)
	ReadConditions(ctx context.Context, id int64) ([]model.Clause, error)
	ReadUserVows(ctx context.Context, account string) ([]int64, error)
	HasClaim(ctx context.Context, id int64) (bool, error)
	CreateAndLock(ctx context.Context, from, partnerB, metadataURI string, clauses []model.Clause, escrowETH string) (*ledger.CreateResult, error)
	Sign(ctx context.Context, from string, id int64) (string, error)
	SignAndActivate(ctx context.Context, from string, id int64) (string, error)
	SubmitInternalClaim(ctx context.Context, from string, id int64, penaltyPercent int) (string, error)
	SubmitAIClaim(ctx context.Context, from string, id int64, reason, evidence string, timestamp int64) (string, error)
}

// AgreementView is the display record for one agreement as seen by one
// account. EscrowETH is decimal; everything else keeps ledger conventions.
type AgreementView struct {
	Vow           model.Vow                `json:"vow"`
	Clauses       []model.Clause           `json:"clauses"`
	Categories    []string                 `json:"categories,omitempty"`
	Verification  model.VerificationMethod `json:"verification,omitempty"`
	Partner       string                   `json:"partner"`
	EscrowETH     string                   `json:"escrowEth"`
	Bucket        Bucket                   `json:"bucket"`
	Actions       []Action                 `json:"actions,omitempty"`
	ClaimAllowed  bool                     `json:"claimAllowed"`
	Pending       bool                     `json:"pending"`
	PendingAction Action                   `json:"pendingAction,omitempty"`
}

// CreateRequest carries everything needed to create and fund an agreement.
type CreateRequest struct {
	PartnerB     string                   `json:"partnerB"`
	MetadataURI  string                   `json:"metadataURI"`
	Clauses      []model.Clause           `json:"clauses"`
	Categories   []string                 `json:"categories"`
	Verification model.VerificationMethod `json:"verification"`
	EscrowETH    string                   `json:"escrowEth"`
}

// ClaimRequest starts a breach claim against an active agreement.
type ClaimRequest struct {
	Reason         string                   `json:"reason"`
	Evidence       string                   `json:"evidence"`
	PenaltyPercent int                      `json:"penaltyPercent"`
	Verification   model.VerificationMethod `json:"verification"`
}

type ViewModel struct {
	ledger      Ledger
	enrichments store.EnrichmentRepository
	claims      store.ClaimRepository
	history     store.HistoryRepository
	logger      *slog.Logger
	nowFn       func() time.Time

	mu      sync.Mutex
	pending map[int64]Action
}

func New(l Ledger, enrichments store.EnrichmentRepository, claims store.ClaimRepository, history store.HistoryRepository, logger *slog.Logger) *ViewModel {
	return &ViewModel{
		ledger:      l,
		enrichments: enrichments,
		claims:      claims,
		history:     history,
		logger:      logger.With("component", "viewmodel"),
		nowFn:       time.Now,
		pending:     map[int64]Action{},
	}
}

// ListAgreements projects every agreement the viewer participates in.
// Per-vow reads run concurrently; order follows the ledger's id list.
func (vm *ViewModel) ListAgreements(ctx context.Context, viewer string) ([]AgreementView, error) {
	ids, err := vm.ledger.ReadUserVows(ctx, viewer)
	if err != nil {
		return nil, err
	}

	views := make([]*AgreementView, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(readConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			view, err := vm.Agreement(gctx, viewer, id)
			if err != nil {
				return err
			}
			views[i] = view
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]AgreementView, 0, len(views))
	for _, v := range views {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out, nil
}

// Agreement projects a single agreement. Returns nil when the ledger does
// not know the id.
func (vm *ViewModel) Agreement(ctx context.Context, viewer string, id int64) (*AgreementView, error) {
	vow, err := vm.ledger.ReadVow(ctx, id)
	if err != nil {
		return nil, err
	}
	if vow == nil {
		return nil, nil
	}
	return vm.project(ctx, viewer, vow)
}

func (vm *ViewModel) project(ctx context.Context, viewer string, vow *model.Vow) (*AgreementView, error) {
	view := &AgreementView{
		Vow:          *vow,
		Partner:      vow.PartnerOf(viewer),
		EscrowETH:    escrowDecimal(vow.EscrowBalance),
		Bucket:       Classify(vow, viewer),
		ClaimAllowed: ClaimAllowed(vow),
	}
	view.Actions = AvailableActions(view.Bucket, vow, viewer)

	// Enrichment is best effort: titles, categories and the verification
	// choice live only locally. The ledger projection of the clauses is the
	// fallback when this device has no cached copy.
	if e, ok := vm.enrichments.Enrichment(vow.ID); ok {
		view.Clauses = e.Clauses
		view.Categories = e.Categories
		view.Verification = e.Verification
	} else {
		clauses, err := vm.ledger.ReadConditions(ctx, vow.ID)
		if err != nil {
			return nil, err
		}
		view.Clauses = clauses
	}

	vm.mu.Lock()
	if action, ok := vm.pending[vow.ID]; ok {
		view.Pending = true
		view.PendingAction = action
	}
	vm.mu.Unlock()
	return view, nil
}

// CreateAgreement creates and funds a new agreement in one ledger
// transaction, then stores the enrichment and re-reads the confirmed state.
func (vm *ViewModel) CreateAgreement(ctx context.Context, viewer string, req CreateRequest) (*AgreementView, error) {
	if req.PartnerB == "" {
		return nil, fmt.Errorf("partner address required")
	}
	if model.EqualAddress(viewer, req.PartnerB) {
		return nil, fmt.Errorf("cannot create an agreement with yourself")
	}
	for _, c := range req.Clauses {
		if c.PenaltyPercent < 1 || c.PenaltyPercent > 100 {
			return nil, fmt.Errorf("clause %q: penalty percent %d out of range [1,100]", c.Title, c.PenaltyPercent)
		}
	}

	result, err := vm.ledger.CreateAndLock(ctx, viewer, req.PartnerB, req.MetadataURI, req.Clauses, req.EscrowETH)
	if err != nil {
		return nil, err
	}

	if err := vm.enrichments.SaveEnrichment(ctx, model.AgreementEnrichment{
		VowID:        result.VowID,
		Clauses:      req.Clauses,
		Verification: req.Verification,
		Categories:   req.Categories,
		CreateTxHash: result.TxHash,
	}); err != nil {
		vm.logger.Warn("enrichment save failed after confirmed create", "vow_id", result.VowID, "error", err)
	}
	vm.record(ctx, model.HistoryEntry{
		TxHash:       result.TxHash,
		Kind:         model.HistoryCreateVow,
		Account:      viewer,
		Counterparty: req.PartnerB,
		Amount:       req.EscrowETH,
		VowID:        &result.VowID,
	})

	return vm.Agreement(ctx, viewer, result.VowID)
}

// Sign signs the agreement as the viewer.
func (vm *ViewModel) Sign(ctx context.Context, viewer string, id int64) (*AgreementView, error) {
	return vm.mutate(ctx, viewer, id, ActionSign, model.HistorySign, func() (string, error) {
		return vm.ledger.Sign(ctx, viewer, id)
	})
}

// SignAndActivate signs as partner B and activates; the matching escrow is
// drawn from the shared vault by the contract.
func (vm *ViewModel) SignAndActivate(ctx context.Context, viewer string, id int64) (*AgreementView, error) {
	return vm.mutate(ctx, viewer, id, ActionSignAndActivate, model.HistoryActivate, func() (string, error) {
		return vm.ledger.SignAndActivate(ctx, viewer, id)
	})
}

// Activate moves a fully signed agreement to active.
func (vm *ViewModel) Activate(ctx context.Context, viewer string, id int64) (*AgreementView, error) {
	return vm.mutate(ctx, viewer, id, ActionActivate, model.HistoryActivate, func() (string, error) {
		return vm.ledger.SignAndActivate(ctx, viewer, id)
	})
}

// mutate guards an action against the current ledger state, marks the
// agreement pending for the duration of the write, and re-reads the
// confirmed state afterwards. Nothing is updated optimistically.
func (vm *ViewModel) mutate(ctx context.Context, viewer string, id int64, action Action, kind model.HistoryKind, write func() (string, error)) (*AgreementView, error) {
	vow, err := vm.ledger.ReadVow(ctx, id)
	if err != nil {
		return nil, err
	}
	if vow == nil {
		return nil, fmt.Errorf("agreement %d not found", id)
	}

	bucket := Classify(vow, viewer)
	if !actionOffered(AvailableActions(bucket, vow, viewer), action) {
		return nil, &revert.Error{
			Code:   revert.CodeInvalidStatus,
			Reason: fmt.Sprintf("action %s not available in state %s", action, bucket),
		}
	}

	if err := vm.setPending(id, action); err != nil {
		return nil, err
	}
	defer vm.clearPending(id)

	hash, err := write()
	if err != nil {
		return nil, err
	}

	vm.record(ctx, model.HistoryEntry{
		TxHash:       hash,
		Kind:         kind,
		Account:      viewer,
		Counterparty: vow.PartnerOf(viewer),
		VowID:        &id,
	})
	return vm.Agreement(ctx, viewer, id)
}

// SubmitClaim checks eligibility against fresh ledger state, submits the
// claim, and documents the computed split locally.
func (vm *ViewModel) SubmitClaim(ctx context.Context, viewer string, id int64, req ClaimRequest) (*AgreementView, error) {
	vow, err := vm.ledger.ReadVow(ctx, id)
	if err != nil {
		return nil, err
	}
	if vow == nil {
		return nil, fmt.Errorf("agreement %d not found", id)
	}
	if vow.PartnerOf(viewer) == "" {
		return nil, &revert.Error{Code: revert.CodeWrongPartner, Reason: "caller is not a party to this agreement"}
	}
	if !ClaimAllowed(vow) {
		return nil, &revert.Error{Code: revert.CodeInvalidStatus, Reason: "agreement is not claimable in its current state"}
	}

	// The locally cached claim flag can be stale; only a fresh ledger read
	// immediately before submission counts.
	claimed, err := vm.ledger.HasClaim(ctx, id)
	if err != nil {
		return nil, err
	}
	if claimed {
		return nil, &revert.Error{Code: revert.CodeAlreadyClaimed, Reason: "a claim was already settled for this agreement"}
	}

	claimantShare, counterpartyShare, err := ComputeClaimSplit(vow.EscrowBalance, req.PenaltyPercent)
	if err != nil {
		return nil, err
	}

	if err := vm.setPending(id, ActionSubmitClaim); err != nil {
		return nil, err
	}
	defer vm.clearPending(id)

	var hash string
	if req.Verification == model.VerificationAI {
		hash, err = vm.ledger.SubmitAIClaim(ctx, viewer, id, req.Reason, req.Evidence, vm.nowFn().Unix())
	} else {
		hash, err = vm.ledger.SubmitInternalClaim(ctx, viewer, id, req.PenaltyPercent)
	}
	if err != nil {
		return nil, err
	}

	if err := vm.claims.SaveClaim(ctx, model.Claim{
		ID:                uuid.NewString(),
		VowID:             id,
		Claimant:          viewer,
		Reason:            req.Reason,
		Evidence:          req.Evidence,
		PenaltyPercent:    req.PenaltyPercent,
		ClaimantShare:     claimantShare,
		CounterpartyShare: counterpartyShare,
		Verification:      req.Verification,
		TxHash:            hash,
		CreatedAt:         vm.nowFn(),
	}); err != nil {
		vm.logger.Warn("claim record save failed after confirmed submission", "vow_id", id, "error", err)
	}
	vm.record(ctx, model.HistoryEntry{
		TxHash:       hash,
		Kind:         model.HistoryClaim,
		Account:      viewer,
		Counterparty: vow.PartnerOf(viewer),
		VowID:        &id,
	})
	return vm.Agreement(ctx, viewer, id)
}

// Claims returns the locally documented claims for an agreement.
func (vm *ViewModel) Claims(id int64) []model.Claim {
	return vm.claims.Claims(id)
}

func (vm *ViewModel) setPending(id int64, action Action) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if existing, ok := vm.pending[id]; ok {
		return fmt.Errorf("agreement %d already has a pending %s", id, existing)
	}
	vm.pending[id] = action
	metrics.PendingWrites.Inc()
	return nil
}

func (vm *ViewModel) clearPending(id int64) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if _, ok := vm.pending[id]; !ok {
		return
	}
	delete(vm.pending, id)
	metrics.PendingWrites.Dec()
}

func (vm *ViewModel) record(ctx context.Context, entry model.HistoryEntry) {
	entry.ID = uuid.NewString()
	entry.Timestamp = vm.nowFn()
	if err := vm.history.AppendHistory(ctx, entry); err != nil {
		vm.logger.Warn("history append failed", "kind", entry.Kind, "error", err)
	}
}

func actionOffered(actions []Action, want Action) bool {
	for _, a := range actions {
		if a == want {
			return true
		}
	}
	return false
}

func escrowDecimal(base string) string {
	dec, err := amount.FromBaseString(base)
	if err != nil {
		return "0"
	}
	return dec
}
