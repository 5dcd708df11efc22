package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rl1809/cart-sync/internal/adapter/notify"
	"github.com/rl1809/cart-sync/internal/core/domain"
	"github.com/rl1809/cart-sync/internal/core/service"
	"github.com/rl1809/cart-sync/internal/port"
	"github.com/rl1809/cart-sync/pkg/metrics"
)

const IdempotencyHeader = "Idempotency-Key"

type HTTPHandler struct {
	cartService *service.CartService
	idempotency port.IdempotencyRepository
	metrics     *metrics.Metrics
}

type AddItemHTTPRequest struct {
	ProductID int64 `json:"product_id"`
}

type UpdateAmountHTTPRequest struct {
	Delta int `json:"delta"`
}

type CartHTTPResponse struct {
	Success     bool        `json:"success"`
	Outcome     string      `json:"outcome,omitempty"`
	Message     string      `json:"message,omitempty"`
	Items       domain.Cart `json:"items"`
	TotalAmount int         `json:"total_amount"`
}

// NewHTTPHandler builds the REST surface. idempotency and m may be nil.
func NewHTTPHandler(cartService *service.CartService, idempotency port.IdempotencyRepository, m *metrics.Metrics) *HTTPHandler {
	return &HTTPHandler{cartService: cartService, idempotency: idempotency, metrics: m}
}

func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if h.metrics != nil {
		r.Use(h.instrument)
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Get("/health", h.HealthCheck)
	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/items", h.AddItem)
		r.Delete("/items/{productID}", h.RemoveItem)
		r.Patch("/items/{productID}", h.UpdateAmount)
	})
	return r
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart := h.cartService.Cart()
	writeJSON(w, http.StatusOK, CartHTTPResponse{
		Success:     true,
		Items:       cart,
		TotalAmount: cart.TotalAmount(),
	})
}

func (h *HTTPHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	key, ok := h.claim(w, r)
	if !ok {
		return
	}

	outcome, err := h.cartService.AddItem(r.Context(), req.ProductID)
	h.release(r, key, outcome)
	h.writeOutcome(w, domain.OperationAddItem, outcome, err)
}

func (h *HTTPHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	key, ok := h.claim(w, r)
	if !ok {
		return
	}

	outcome, err := h.cartService.RemoveItem(r.Context(), productID)
	h.release(r, key, outcome)
	h.writeOutcome(w, domain.OperationRemoveItem, outcome, err)
}

func (h *HTTPHandler) UpdateAmount(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateAmountHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	key, ok := h.claim(w, r)
	if !ok {
		return
	}

	outcome, err := h.cartService.UpdateAmount(r.Context(), productID, req.Delta)
	h.release(r, key, outcome)
	h.writeOutcome(w, domain.OperationUpdateAmount, outcome, err)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// claim reserves the request's idempotency key, if it carries one, and
// returns the reserved key. It writes the response and returns false when
// the request must not run.
func (h *HTTPHandler) claim(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := r.Header.Get(IdempotencyHeader)
	if key == "" || h.idempotency == nil {
		return "", true
	}

	ok, err := h.idempotency.SetIdempotency(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return "", false
	}
	if !ok {
		writeError(w, http.StatusConflict, "duplicate request")
		return "", false
	}
	return key, true
}

// release frees a claimed key when the operation failed and committed
// nothing, so the caller can retry with the same key.
func (h *HTTPHandler) release(r *http.Request, key string, outcome domain.Outcome) {
	if key == "" || outcome != domain.OutcomeFailed {
		return
	}
	ctx := context.WithoutCancel(r.Context())
	if err := h.idempotency.ReleaseIdempotency(ctx, key); err != nil {
		slog.WarnContext(ctx, "release idempotency key", slog.String("key", key), slog.Any("err", err))
	}
}

func (h *HTTPHandler) writeOutcome(w http.ResponseWriter, op domain.Operation, outcome domain.Outcome, err error) {
	cart := h.cartService.Cart()
	resp := CartHTTPResponse{
		Success:     !outcome.Rejected(),
		Outcome:     string(outcome),
		Message:     notify.Message(op, outcome),
		Items:       cart,
		TotalAmount: cart.TotalAmount(),
	}

	status := http.StatusOK
	switch {
	case errors.Is(err, service.ErrStockExceeded):
		status = http.StatusGone
	case errors.Is(err, service.ErrInvalidProduct), errors.Is(err, service.ErrInvalidAmount):
		status = http.StatusBadRequest
	case err != nil:
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, resp)
}

func (h *HTTPHandler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		h.metrics.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		h.metrics.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
	})
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return 0, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, CartHTTPResponse{Success: false, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
