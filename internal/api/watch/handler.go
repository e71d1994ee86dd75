// Package watch exposes watch registration over HTTP.
package watch

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"stockwatch/internal/domain/watch"
	"stockwatch/internal/metrics"
	"stockwatch/pkg/errors"
	"stockwatch/pkg/logger"
)

const (
	msgRegistered   = "Stock registered successfully"
	msgUnregistered = "Stock unregistered successfully"

	// Bodies are a few short fields
	maxBodyBytes = 1 << 16
)

// Service is the watch use-case surface the handler depends on
type Service interface {
	Register(ctx context.Context, deviceToken, stockCode string, targetPrice float64) (*watch.Watch, error)
	Unregister(ctx context.Context, deviceToken, stockCode string) (int64, error)
	List(ctx context.Context) ([]*watch.Watch, error)
	ListByDevice(ctx context.Context, deviceToken string) ([]*watch.Watch, error)
}

// Handler serves the register, unregister and list routes
type Handler struct {
	service Service
	log     *logger.Logger
}

func NewHandler(service Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With("component", "watch_api"),
	}
}

// Register mounts the routes on mux. Other methods on these paths get 405.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("POST /register_stock", h.instrument("register_stock", h.HandleRegister))
	mux.Handle("POST /unregister_stock", h.instrument("unregister_stock", h.HandleUnregister))
	mux.Handle("GET /list_stocks", h.instrument("list_stocks", h.HandleList))
}

// Pointer fields tell an absent field apart from an empty string.
// Empty strings are valid opaque values.
type registerRequest struct {
	DeviceToken *string  `json:"device_token"`
	StockCode   *string  `json:"stock_code"`
	TargetPrice *float64 `json:"target_price"`
}

type unregisterRequest struct {
	DeviceToken *string `json:"device_token"`
	StockCode   *string `json:"stock_code"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type listResponse struct {
	Stocks [][]interface{} `json:"stocks"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := requireFields(
		field{"device_token", req.DeviceToken != nil},
		field{"stock_code", req.StockCode != nil},
		field{"target_price", req.TargetPrice != nil},
	); err != nil {
		h.writeError(w, err)
		return
	}

	if _, err := h.service.Register(r.Context(), *req.DeviceToken, *req.StockCode, *req.TargetPrice); err != nil {
		h.writeError(w, err)
		return
	}

	metrics.WatchesRegistered.Inc()
	writeJSON(w, http.StatusOK, messageResponse{Message: msgRegistered})
}

func (h *Handler) HandleUnregister(w http.ResponseWriter, r *http.Request) {
	var req unregisterRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := requireFields(
		field{"device_token", req.DeviceToken != nil},
		field{"stock_code", req.StockCode != nil},
	); err != nil {
		h.writeError(w, err)
		return
	}

	if _, err := h.service.Unregister(r.Context(), *req.DeviceToken, *req.StockCode); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: msgUnregistered})
}

// HandleList returns every watch, or one device's watches when
// ?device_token= is given.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	var (
		watches []*watch.Watch
		err     error
	)
	if token := r.URL.Query().Get("device_token"); token != "" {
		watches, err = h.service.ListByDevice(r.Context(), token)
	} else {
		watches, err = h.service.List(r.Context())
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := listResponse{Stocks: make([][]interface{}, 0, len(watches))}
	for _, wt := range watches {
		resp.Stocks = append(resp.Stocks, wt.Tuple())
	}
	writeJSON(w, http.StatusOK, resp)
}

type field struct {
	name    string
	present bool
}

// requireFields reports the first absent field as a validation error
func requireFields(fields ...field) error {
	for _, f := range fields {
		if !f.present {
			return errors.NewValidationError(f.name, "is required", nil)
		}
	}
	return nil
}

// decode reads a JSON body into dst. Syntax errors are 400, type mismatches
// 422 and oversized bodies 413.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	var sizeErr *http.MaxBytesError
	if errors.As(err, &sizeErr) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
			Detail: "request body exceeds " + strconv.FormatInt(sizeErr.Limit, 10) + " bytes",
		})
		return false
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		h.writeError(w, errors.NewValidationError(typeErr.Field, "has the wrong type", typeErr.Value))
		return false
	}

	writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "malformed JSON body: " + err.Error()})
	return false
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errors.ErrInvalidInput) {
		detail := err.Error()
		var vErr *errors.ValidationError
		if errors.As(err, &vErr) {
			detail = vErr.Field + " " + vErr.Message
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: detail})
		return
	}

	h.log.Errorw("Watch request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// statusRecorder captures the response code for request metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) instrument(route string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}
