package memory

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/sablepay/coffee-pos/pkg/sablepay"
)

// Handler serves the SablePay HTTP API on top of an in memory Client, so the
// real HTTP client can be exercised without the network.
type Handler struct {
	client     *Client
	apiKey     string
	merchantId string
}

// NewHandler returns an http.Handler that requires the provided credentials.
func NewHandler(client *Client, apiKey, merchantId string) *Handler {
	return &Handler{
		client:     client,
		apiKey:     apiKey,
		merchantId: merchantId,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+h.apiKey || r.Header.Get("X-Merchant-Id") != h.merchantId {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
		return
	}

	path := strings.Trim(r.URL.Path, "/")
	parts := strings.Split(path, "/")

	switch {
	case r.Method == http.MethodPost && path == "v1/payments":
		h.createPayment(w, r)
	case r.Method == http.MethodGet && len(parts) == 4 && parts[0] == "v1" && parts[1] == "payments" && parts[3] == "status":
		h.getPaymentStatus(w, r, parts[2])
	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	}
}

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	var req sablepay.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}

	resp, err := h.client.CreatePayment(r.Context(), &req)
	if err != nil {
		writeClientError(w, err)
		return
	}

	writeJson(w, http.StatusCreated, resp)
}

func (h *Handler) getPaymentStatus(w http.ResponseWriter, r *http.Request, paymentId string) {
	resp, err := h.client.GetPaymentStatus(r.Context(), paymentId)
	if err != nil {
		writeClientError(w, err)
		return
	}

	writeJson(w, http.StatusOK, resp)
}

func writeClientError(w http.ResponseWriter, err error) {
	var apiErr *sablepay.APIError
	switch {
	case errors.As(err, &apiErr):
		writeError(w, apiErr.StatusCode, apiErr.Code, apiErr.Message)
	case errors.Is(err, sablepay.ErrPaymentNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, sablepay.ErrInvalidAmount),
		errors.Is(err, sablepay.ErrInvalidItem),
		errors.Is(err, sablepay.ErrInvalidPaymentId):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJson(w, statusCode, map[string]string{
		"code":    code,
		"message": message,
	})
}

func writeJson(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
