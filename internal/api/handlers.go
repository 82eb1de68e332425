package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fairuzakhdan/smartvowd/internal/aggregator"
	"github.com/fairuzakhdan/smartvowd/internal/domain/model"
	"github.com/fairuzakhdan/smartvowd/internal/viewmodel"
)

func (s *Server) handleWalletConnect(w http.ResponseWriter, r *http.Request) {
	account, err := s.wallet.Connect(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"account": account})
}

func (s *Server) handleWalletStatus(w http.ResponseWriter, _ *http.Request) {
	account, err := s.wallet.Account()
	if err != nil {
		s.writeJSON(w, http.StatusOK, map[string]interface{}{"connected": false})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"connected": true, "account": account})
}

func (s *Server) handleListAgreements(w http.ResponseWriter, r *http.Request) {
	viewer, err := s.viewer()
	if err != nil {
		s.writeError(w, err)
		return
	}
	views, err := s.agreements.ListAgreements(r.Context(), viewer)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"agreements": views})
}

func (s *Server) handleCreateAgreement(w http.ResponseWriter, r *http.Request) {
	viewer, err := s.viewer()
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req viewmodel.CreateRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	view, err := s.agreements.CreateAgreement(r.Context(), viewer, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleGetAgreement(w http.ResponseWriter, r *http.Request) {
	viewer, err := s.viewer()
	if err != nil {
		s.writeError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	view, err := s.agreements.Agreement(r.Context(), viewer, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if view == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]errorBody{"error": {
			Code:    "not_found",
			Message: "No such agreement",
		}})
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSign(w http.ResponseWriter, r *http.Request) {
	s.agreementMutation(w, r, s.agreements.Sign)
}

func (s *Server) handleSignAndActivate(w http.ResponseWriter, r *http.Request) {
	s.agreementMutation(w, r, s.agreements.SignAndActivate)
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	s.agreementMutation(w, r, s.agreements.Activate)
}

func (s *Server) agreementMutation(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, viewer string, id int64) (*viewmodel.AgreementView, error)) {
	viewer, err := s.viewer()
	if err != nil {
		s.writeError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	view, err := op(r.Context(), viewer, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleListClaims(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"claims": s.agreements.Claims(id)})
}

func (s *Server) handleSubmitClaim(w http.ResponseWriter, r *http.Request) {
	viewer, err := s.viewer()
	if err != nil {
		s.writeError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req viewmodel.ClaimRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	view, err := s.agreements.SubmitClaim(r.Context(), viewer, id, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleVaultBalances(w http.ResponseWriter, r *http.Request) {
	viewer, err := s.viewer()
	if err != nil {
		s.writeError(w, err)
		return
	}
	balance, err := s.vault.Balances(r.Context(), viewer)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, balance)
}

type amountRequest struct {
	AmountETH string `json:"amountEth"`
}

func (s *Server) handleVaultDeposit(w http.ResponseWriter, r *http.Request) {
	s.vaultMutation(w, r, s.vault.Deposit)
}

func (s *Server) handleVaultTransfer(w http.ResponseWriter, r *http.Request) {
	s.vaultMutation(w, r, s.vault.TransferToShared)
}

func (s *Server) handleVaultWithdraw(w http.ResponseWriter, r *http.Request) {
	s.vaultMutation(w, r, s.vault.Withdraw)
}

func (s *Server) vaultMutation(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, account, amountETH string) (*model.VaultBalance, error)) {
	viewer, err := s.viewer()
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req amountRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	balance, err := op(r.Context(), viewer, req.AmountETH)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, balance)
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	viewer, err := s.viewer()
	if err != nil {
		s.writeError(w, err)
		return
	}
	assets, err := s.assets.List(r.Context(), viewer)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"assets": assets})
}

func (s *Server) handleMintAsset(w http.ResponseWriter, r *http.Request) {
	viewer, err := s.viewer()
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req aggregator.MintAssetRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	asset, err := s.assets.Mint(r.Context(), viewer, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, asset)
}

func (s *Server) handleListCertificates(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"certificates": s.certificates.List()})
}

func (s *Server) handleDraftCertificate(w http.ResponseWriter, r *http.Request) {
	var req aggregator.DraftRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	cert, err := s.certificates.Draft(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, cert)
}

func (s *Server) handleGetCertificate(w http.ResponseWriter, r *http.Request) {
	cert, ok := s.certificates.Get(chi.URLParam(r, "id"))
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]errorBody{"error": {
			Code:    "not_found",
			Message: "No such certificate",
		}})
		return
	}
	s.writeJSON(w, http.StatusOK, cert)
}

func (s *Server) handleAcceptCertificate(w http.ResponseWriter, r *http.Request) {
	viewer, err := s.viewer()
	if err != nil {
		s.writeError(w, err)
		return
	}
	cert, err := s.certificates.Accept(r.Context(), chi.URLParam(r, "id"), viewer)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cert)
}

func (s *Server) handleMintCertificate(w http.ResponseWriter, r *http.Request) {
	viewer, err := s.viewer()
	if err != nil {
		s.writeError(w, err)
		return
	}
	cert, err := s.certificates.Mint(r.Context(), chi.URLParam(r, "id"), viewer)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cert)
}

func (s *Server) handleCertificateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status model.CertificateStatus `json:"status"`
	}
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	cert, err := s.certificates.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cert)
}

func (s *Server) handleVowTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Keywords string `json:"keywords"`
	}
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	template, err := s.templates.GenerateVowTemplate(r.Context(), req.Keywords)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, template)
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	viewer, err := s.viewer()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"history": aggregator.History(s.history, viewer),
	})
}
