// Package api exposes the daemon's HTTP surface: agreements, vault, assets,
// certificates, templates, and wallet session management, plus health and
// metrics endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fairuzakhdan/smartvowd/internal/aggregator"
	"github.com/fairuzakhdan/smartvowd/internal/ai"
	"github.com/fairuzakhdan/smartvowd/internal/domain/model"
	"github.com/fairuzakhdan/smartvowd/internal/ledger/revert"
	"github.com/fairuzakhdan/smartvowd/internal/metrics"
	"github.com/fairuzakhdan/smartvowd/internal/store"
	"github.com/fairuzakhdan/smartvowd/internal/viewmodel"
	"github.com/fairuzakhdan/smartvowd/internal/wallet"
)

// AgreementService is the view-model surface the API serves.
type AgreementService interface {
	ListAgreements(ctx context.Context, viewer string) ([]viewmodel.AgreementView, error)
	Agreement(ctx context.Context, viewer string, id int64) (*viewmodel.AgreementView, error)
	CreateAgreement(ctx context.Context, viewer string, req viewmodel.CreateRequest) (*viewmodel.AgreementView, error)
	Sign(ctx context.Context, viewer string, id int64) (*viewmodel.AgreementView, error)
	SignAndActivate(ctx context.Context, viewer string, id int64) (*viewmodel.AgreementView, error)
	Activate(ctx context.Context, viewer string, id int64) (*viewmodel.AgreementView, error)
	SubmitClaim(ctx context.Context, viewer string, id int64, req viewmodel.ClaimRequest) (*viewmodel.AgreementView, error)
	Claims(id int64) []model.Claim
}

type VaultService interface {
	Balances(ctx context.Context, account string) (*model.VaultBalance, error)
	Deposit(ctx context.Context, account, amountETH string) (*model.VaultBalance, error)
	TransferToShared(ctx context.Context, account, amountETH string) (*model.VaultBalance, error)
	Withdraw(ctx context.Context, account, amountETH string) (*model.VaultBalance, error)
}

type AssetService interface {
	List(ctx context.Context, account string) ([]model.Asset, error)
	Mint(ctx context.Context, from string, req aggregator.MintAssetRequest) (*model.Asset, error)
}

type CertificateService interface {
	Draft(ctx context.Context, req aggregator.DraftRequest) (*model.Certificate, error)
	Accept(ctx context.Context, id, partnerAddress string) (*model.Certificate, error)
	Mint(ctx context.Context, id, from string) (*model.Certificate, error)
	SetStatus(ctx context.Context, id string, status model.CertificateStatus) (*model.Certificate, error)
	List() []model.Certificate
	Get(id string) (*model.Certificate, bool)
}

type TemplateService interface {
	GenerateVowTemplate(ctx context.Context, keywords string) (*ai.Template, error)
}

// WalletSession is the wallet provider surface the API needs.
type WalletSession interface {
	Connect(ctx context.Context) (string, error)
	Account() (string, error)
	Connected() bool
}

type Server struct {
	wallet       WalletSession
	agreements   AgreementService
	vault        VaultService
	assets       AssetService
	certificates CertificateService
	templates    TemplateService
	history      store.HistoryRepository
	logger       *slog.Logger
}

func NewServer(
	walletSession WalletSession,
	agreements AgreementService,
	vault VaultService,
	assets AssetService,
	certificates CertificateService,
	templates TemplateService,
	history store.HistoryRepository,
	logger *slog.Logger,
) *Server {
	return &Server{
		wallet:       walletSession,
		agreements:   agreements,
		vault:        vault,
		assets:       assets,
		certificates: certificates,
		templates:    templates,
		history:      history,
		logger:       logger.With("component", "api"),
	}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.instrument)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/wallet/connect", s.handleWalletConnect)
		api.Get("/wallet", s.handleWalletStatus)

		api.Get("/agreements", s.handleListAgreements)
		api.Post("/agreements", s.handleCreateAgreement)
		api.Get("/agreements/{id}", s.handleGetAgreement)
		api.Post("/agreements/{id}/sign", s.handleSign)
		api.Post("/agreements/{id}/sign-and-activate", s.handleSignAndActivate)
		api.Post("/agreements/{id}/activate", s.handleActivate)
		api.Get("/agreements/{id}/claims", s.handleListClaims)
		api.Post("/agreements/{id}/claims", s.handleSubmitClaim)

		api.Get("/vault", s.handleVaultBalances)
		api.Post("/vault/deposit", s.handleVaultDeposit)
		api.Post("/vault/transfer", s.handleVaultTransfer)
		api.Post("/vault/withdraw", s.handleVaultWithdraw)

		api.Get("/assets", s.handleListAssets)
		api.Post("/assets", s.handleMintAsset)

		api.Get("/certificates", s.handleListCertificates)
		api.Post("/certificates", s.handleDraftCertificate)
		api.Get("/certificates/{id}", s.handleGetCertificate)
		api.Post("/certificates/{id}/accept", s.handleAcceptCertificate)
		api.Post("/certificates/{id}/mint", s.handleMintCertificate)
		api.Post("/certificates/{id}/status", s.handleCertificateStatus)

		api.Post("/templates/vow", s.handleVowTemplate)
		api.Get("/history", s.handleHistory)
	})
	return r
}

// instrument counts requests per route pattern and status code.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
		s.logger.Debug("request handled",
			"method", r.Method, "route", route, "status", ww.Status(), "duration", time.Since(start))
	})
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("response encode failed", "error", err)
	}
}

// writeError maps classified ledger errors onto HTTP statuses and a stable
// error payload; everything else becomes a 400 for caller mistakes or 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, wallet.ErrNotConnected) {
		s.writeJSON(w, http.StatusUnauthorized, map[string]errorBody{"error": {
			Code:    "wallet_not_connected",
			Message: "Connect a wallet first",
		}})
		return
	}

	var classified *revert.Error
	if errors.As(err, &classified) {
		s.writeJSON(w, statusForCode(classified.Code), map[string]errorBody{"error": {
			Code:    string(classified.Code),
			Message: classified.Friendly(),
			Reason:  classified.Reason,
		}})
		return
	}

	s.writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {
		Code:    "bad_request",
		Message: err.Error(),
	}})
}

func statusForCode(code revert.Code) int {
	switch code {
	case revert.CodeWrongPartner:
		return http.StatusForbidden
	case revert.CodeInsufficientBalance, revert.CodeAlreadySigned,
		revert.CodeInvalidStatus, revert.CodeAlreadyClaimed, revert.CodeUserRejected:
		return http.StatusConflict
	case revert.CodeWalletUnavailable, revert.CodeWrongChain, revert.CodeNotDeployed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) readJSON(r *http.Request, into interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(into); err != nil {
		return fmt.Errorf("malformed request body: %w", err)
	}
	return nil
}

// viewer resolves the active wallet account for a request.
func (s *Server) viewer() (string, error) {
	return s.wallet.Account()
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed agreement id %q", raw)
	}
	return id, nil
}
