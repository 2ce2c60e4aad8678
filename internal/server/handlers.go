package server

import (
	_ "embed"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/skinvault/skinport-api/pkg/prices"
	"github.com/skinvault/skinport-api/pkg/purchase"
)

//go:embed openapi.json
var openAPIDocument []byte

type errorResponse struct {
	Error string `json:"error"`
}

type purchaseRequest struct {
	UserID    *int64 `json:"userId"`
	ProductID *int64 `json:"productId"`
}

type purchaseResponse struct {
	UserID  int64   `json:"userId"`
	Balance float64 `json:"balance"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// handleItems serves the aggregated Skinport min-price summaries.
func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	summaries, err := s.prices.GetPrices(r.Context())
	if err != nil {
		if errors.Is(err, prices.ErrUpstreamUnavailable) {
			s.logger.Error().Err(err).Msg("Item prices unavailable")
			writeError(w, http.StatusBadGateway, "Unable to fetch item prices")
			return
		}
		s.logger.Error().Err(err).Msg("Unexpected item price failure")
		writeError(w, http.StatusInternalServerError, "Unable to fetch item prices")
		return
	}

	if summaries == nil {
		summaries = []prices.Summary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

// handlePurchase executes a purchase and maps each failure kind to its
// HTTP status.
func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}

	userID, ok := s.resolveUserID(w, r, req)
	if !ok {
		return
	}

	if userID <= 0 || req.ProductID == nil || *req.ProductID <= 0 {
		writeError(w, http.StatusBadRequest, "userId and productId must be positive integers")
		return
	}

	receipt, err := s.purchases.Purchase(r.Context(), userID, *req.ProductID)
	if err != nil {
		s.writePurchaseError(w, err)
		return
	}

	balance, _ := receipt.Balance.Float64()
	writeJSON(w, http.StatusOK, purchaseResponse{UserID: receipt.UserID, Balance: balance})
}

// resolveUserID takes the user id from the request body when present, and
// otherwise from the API-key mapping. Writes the error response itself
// when no user can be resolved.
func (s *Server) resolveUserID(w http.ResponseWriter, r *http.Request, req purchaseRequest) (int64, bool) {
	if req.UserID != nil {
		return *req.UserID, true
	}

	token := apiToken(r)
	if token == "" {
		writeError(w, http.StatusBadRequest, "userId and productId must be positive integers")
		return 0, false
	}

	userID, ok := s.apiKeys[token]
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid API key")
		return 0, false
	}

	return userID, true
}

// apiToken extracts the API token from the Authorization bearer header or
// the X-Api-Key header.
func apiToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get("X-Api-Key"))
}

// writePurchaseError maps the closed set of purchase failure kinds to
// HTTP statuses. Unknown errors are internal.
func (s *Server) writePurchaseError(w http.ResponseWriter, err error) {
	switch purchase.KindOf(err) {
	case purchase.KindUserNotFound:
		writeError(w, http.StatusNotFound, "User not found")
	case purchase.KindProductNotFound:
		writeError(w, http.StatusNotFound, "Product not found")
	case purchase.KindInsufficientFunds:
		writeError(w, http.StatusBadRequest, "Insufficient balance")
	case purchase.KindInvalidPrice:
		writeError(w, http.StatusBadRequest, "Product price must be positive")
	case purchase.KindInvalidData:
		s.logger.Error().Err(err).Msg("Purchase hit corrupt data")
		writeError(w, http.StatusInternalServerError, "Unable to process data from database")
	default:
		s.logger.Error().Err(err).Msg("Purchase failed")
		writeError(w, http.StatusInternalServerError, "Unable to process purchase")
	}
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleOpenAPI serves the static OpenAPI document.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPIDocument)
}
