package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	capabilityregistry "tradepost/contexts/identity-access/capability-registry"
	registryerrors "tradepost/contexts/identity-access/capability-registry/domain/errors"
	registryhttp "tradepost/contexts/identity-access/capability-registry/transport/http"
	salesettlement "tradepost/contexts/settlement-core/sale-settlement-service"
	"tradepost/contexts/settlement-core/sale-settlement-service/application/queries"
	settlementerrors "tradepost/contexts/settlement-core/sale-settlement-service/domain/errors"
	settlementhttp "tradepost/contexts/settlement-core/sale-settlement-service/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "tradepost/internal/platform/httpserver/docs"
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	settlement salesettlement.Module
	registry   capabilityregistry.Module
}

func New(
	settlement salesettlement.Module,
	registry capabilityregistry.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		settlement: settlement,
		registry:   registry,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routed mux, for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/settlement/v1/purchases", s.handleExecutePurchase)
	s.mux.HandleFunc("POST /api/settlement/v1/cancellations", s.handleCancelSale)
	s.mux.HandleFunc("PUT /api/settlement/v1/royalties", s.handleSetRoyalty)
	s.mux.HandleFunc("GET /api/settlement/v1/sales/{sale_id}", s.handleGetSaleState)
	s.mux.HandleFunc("GET /api/settlement/v1/sales/{sale_id}/cancellation", s.handleGetCancellation)
	s.mux.HandleFunc("GET /api/settlement/v1/settlements", s.handleListSettlements)

	s.mux.HandleFunc("POST /api/registry/v1/capabilities", s.handleGrantCapability)
	s.mux.HandleFunc("DELETE /api/registry/v1/capabilities", s.handleRevokeCapability)
	s.mux.HandleFunc("GET /api/registry/v1/capabilities/check", s.handleCheckCapability)
	s.mux.HandleFunc("GET /api/registry/v1/config", s.handleRegistrySnapshot)
	s.mux.HandleFunc("PUT /api/registry/v1/config/commission-rate", s.handleSetCommissionRate)
	s.mux.HandleFunc("PUT /api/registry/v1/config/treasury", s.handleSetTreasury)
	s.mux.HandleFunc("PUT /api/registry/v1/config/payment-assets", s.handleSetAcceptedAsset)
	s.mux.HandleFunc("PUT /api/registry/v1/config/asset-contracts", s.handleSetSupportedContract)
}

// --- settlement routes -----------------------------------------------------

func (s *Server) handleExecutePurchase(w http.ResponseWriter, r *http.Request) {
	var req settlementhttp.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSettlementError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.settlement.Handler.ExecutePurchaseHandler(r.Context(), req)
	if err != nil {
		writeSettlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelSale(w http.ResponseWriter, r *http.Request) {
	var req settlementhttp.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSettlementError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.settlement.Handler.CancelSaleHandler(r.Context(), req)
	if err != nil {
		writeSettlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetRoyalty(w http.ResponseWriter, r *http.Request) {
	var req settlementhttp.SetRoyaltyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSettlementError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.settlement.Handler.SetRoyaltyHandler(r.Context(), req)
	if err != nil {
		writeSettlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSaleState(w http.ResponseWriter, r *http.Request) {
	resp, err := s.settlement.Handler.GetSaleStateHandler(r.Context(), r.PathValue("sale_id"))
	if err != nil {
		writeSettlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCancellation(w http.ResponseWriter, r *http.Request) {
	resp, err := s.settlement.Handler.GetCancellationHandler(r.Context(), r.PathValue("sale_id"))
	if err != nil {
		writeSettlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSettlements(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	request := queries.ListSettlementsQuery{
		SaleID: query.Get("sale_id"),
		Buyer:  query.Get("buyer"),
		Seller: query.Get("seller"),
	}
	if limitRaw := query.Get("limit"); limitRaw != "" {
		limit, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeSettlementError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		request.Limit = limit
	}
	resp, err := s.settlement.Handler.ListSettlementsHandler(r.Context(), request)
	if err != nil {
		writeSettlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- registry routes -------------------------------------------------------

func (s *Server) handleGrantCapability(w http.ResponseWriter, r *http.Request) {
	var req registryhttp.GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.registry.Handler.GrantCapabilityHandler(r.Context(), req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRevokeCapability(w http.ResponseWriter, r *http.Request) {
	var req registryhttp.RevokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.registry.Handler.RevokeCapabilityHandler(r.Context(), req); err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCheckCapability(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.registry.Handler.CheckCapabilityHandler(r.Context(), query.Get("role"), query.Get("identity"))
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegistrySnapshot(w http.ResponseWriter, r *http.Request) {
	resp, err := s.registry.Handler.SnapshotHandler(r.Context())
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetCommissionRate(w http.ResponseWriter, r *http.Request) {
	var req registryhttp.SetCommissionRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.registry.Handler.SetCommissionRateHandler(r.Context(), req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetTreasury(w http.ResponseWriter, r *http.Request) {
	var req registryhttp.SetTreasuryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.registry.Handler.SetTreasuryHandler(r.Context(), req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetAcceptedAsset(w http.ResponseWriter, r *http.Request) {
	var req registryhttp.SetAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.registry.Handler.SetAcceptedAssetHandler(r.Context(), req); err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetSupportedContract(w http.ResponseWriter, r *http.Request) {
	var req registryhttp.SetContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.registry.Handler.SetSupportedContractHandler(r.Context(), req); err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- error mapping ---------------------------------------------------------

func writeSettlementDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, settlementerrors.ErrSaleNotFound):
		writeSettlementError(w, http.StatusNotFound, "sale_not_found", err.Error())
	case errors.Is(err, settlementerrors.ErrSaleCanceled):
		writeSettlementError(w, http.StatusConflict, "sale_canceled", err.Error())
	case errors.Is(err, settlementerrors.ErrAlreadyCanceled):
		writeSettlementError(w, http.StatusConflict, "already_canceled", err.Error())
	case errors.Is(err, settlementerrors.ErrReentrantCall):
		writeSettlementError(w, http.StatusConflict, "reentrant_call", err.Error())
	case errors.Is(err, settlementerrors.ErrInsufficientSupply):
		writeSettlementError(w, http.StatusConflict, "insufficient_supply", err.Error())
	case errors.Is(err, settlementerrors.ErrAuthorizationExpired):
		writeSettlementError(w, http.StatusForbidden, "authorization_expired", err.Error())
	case errors.Is(err, settlementerrors.ErrInvalidSellerSignature),
		errors.Is(err, settlementerrors.ErrInvalidAuthorizerSignature):
		writeSettlementError(w, http.StatusForbidden, "invalid_signature", err.Error())
	case errors.Is(err, settlementerrors.ErrCapabilityDenied):
		writeSettlementError(w, http.StatusForbidden, "capability_denied", err.Error())
	case errors.Is(err, settlementerrors.ErrInsufficientPayment),
		errors.Is(err, settlementerrors.ErrInsufficientAllowance):
		writeSettlementError(w, http.StatusPaymentRequired, "insufficient_payment", err.Error())
	case errors.Is(err, settlementerrors.ErrTransferFailed):
		writeSettlementError(w, http.StatusConflict, "transfer_failed", err.Error())
	case errors.Is(err, settlementerrors.ErrUnsupportedPaymentAsset),
		errors.Is(err, settlementerrors.ErrCollectionNotSupported):
		writeSettlementError(w, http.StatusUnprocessableEntity, "unsupported_asset", err.Error())
	case errors.Is(err, settlementerrors.ErrInvalidAssetKind),
		errors.Is(err, settlementerrors.ErrInvalidOfferedQuantity),
		errors.Is(err, settlementerrors.ErrInvalidRoyaltySetting),
		errors.Is(err, settlementerrors.ErrZeroAddressRejected),
		errors.Is(err, settlementerrors.ErrInvalidPurchaseRequest),
		errors.Is(err, settlementerrors.ErrInvalidCancelRequest),
		errors.Is(err, settlementerrors.ErrOverflowDetected):
		writeSettlementError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeSettlementError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeRegistryDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registryerrors.ErrCapabilityDenied):
		writeRegistryError(w, http.StatusForbidden, "capability_denied", err.Error())
	case errors.Is(err, registryerrors.ErrUnknownRole),
		errors.Is(err, registryerrors.ErrInvalidCommissionRate),
		errors.Is(err, registryerrors.ErrTreasuryRequired),
		errors.Is(err, registryerrors.ErrZeroAddressRejected),
		errors.Is(err, registryerrors.ErrInvalidRequest):
		writeRegistryError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeRegistryError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeSettlementError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, settlementhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeRegistryError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, registryhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
