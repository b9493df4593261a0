package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tournevent/fancourier/pkg/fanbox"
	"github.com/tournevent/fancourier/pkg/order"
	"github.com/tournevent/fancourier/pkg/selection"
	"github.com/tournevent/fancourier/pkg/shipper"
	"go.uber.org/zap"
)

// SessionCookie identifies a checkout session for one-off notices.
const SessionCookie = "fc_session"

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}

func (s *Server) jar(w http.ResponseWriter, r *http.Request) selection.HTTPJar {
	return selection.HTTPJar{Request: r, Writer: w, Secure: s.cookieSecure}
}

// session returns the checkout session id, issuing one when absent.
func (s *Server) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (s *Server) observe(op string, start time.Time, status int) {
	s.metrics.RecordRequest(op, strconv.Itoa(status), time.Since(start))
}

// ============================================================================
// Services and rates
// ============================================================================

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"services":       s.catalog.All(),
		"pickup_enabled": s.catalog.HasPickupService(),
	})
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var req shipper.RateRequest
	if err := decode(w, r, &req); err != nil {
		s.observe("rates", start, http.StatusBadRequest)
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON: "+err.Error())
		return
	}
	req.SessionID = s.session(w, r)
	req.Selection = selection.Load(s.jar(w, r))

	result, err := s.calculator.Calculate(ctx, &req)
	if err != nil {
		s.logger.Ctx(ctx).Error("Rate calculation failed", zap.Error(err))
		s.observe("rates", start, http.StatusInternalServerError)
		writeError(w, http.StatusInternalServerError, "RATE_ERROR", err.Error())
		return
	}

	s.observe("rates", start, http.StatusOK)
	writeJSON(w, http.StatusOK, result)
}

// ============================================================================
// FANBox selection
// ============================================================================

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var p selection.PickupPoint
	if err := decode(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON: "+err.Error())
		return
	}

	rec := selection.FromPickupPoint(p)
	selection.Save(s.jar(w, r), rec)

	s.logger.Ctx(r.Context()).Info("FANBox selected",
		zap.String("name", rec.Name),
		zap.String("address", rec.Address),
	)
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	selection.Clear(s.jar(w, r))
	w.WriteHeader(http.StatusNoContent)
}

type methodRequest struct {
	MethodID string          `json:"method_id"`
	Shipping shipper.Address `json:"shipping"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req methodRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON: "+err.Error())
		return
	}

	if fanbox.IsFanboxMethod(req.MethodID) && selection.Load(s.jar(w, r)).Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "FANBOX_REQUIRED", fanbox.ValidationError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

// ============================================================================
// Orders
// ============================================================================

type orderResponse struct {
	Order          *order.Order `json:"order,omitempty"`
	Meta           *order.Meta  `json:"fanbox,omitempty"`
	DisplayAddress string       `json:"display_address,omitempty"`
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := strings.TrimSpace(chi.URLParam(r, "orderID"))

	var req methodRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON: "+err.Error())
		return
	}
	if id == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "order id is required")
		return
	}

	o := &order.Order{ID: id, MethodID: req.MethodID, Shipping: req.Shipping}
	meta, err := order.Place(ctx, s.orders, o, selection.Load(s.jar(w, r)))
	switch {
	case errors.Is(err, order.ErrNoSelection):
		writeError(w, http.StatusUnprocessableEntity, "FANBOX_REQUIRED", fanbox.ValidationError)
		return
	case errors.Is(err, order.ErrAlreadyPlaced):
		writeError(w, http.StatusConflict, "ORDER_EXISTS", err.Error())
		return
	case err != nil:
		s.logger.Ctx(ctx).Error("Saving order failed", zap.String("order_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "ORDER_ERROR", err.Error())
		return
	}

	resp := orderResponse{Order: o, Meta: meta}
	if meta != nil {
		resp.DisplayAddress = meta.DisplayAddress()
		s.logger.Ctx(ctx).Info("FANBox selection saved to order",
			zap.String("order_id", id),
			zap.String("fanbox_name", meta.Name),
			zap.String("shipping_address", meta.Address),
		)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "orderID"))

	o, err := s.orders.Get(r.Context(), id)
	if errors.Is(err, order.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ORDER_ERROR", err.Error())
		return
	}

	resp := orderResponse{Order: o}
	if m := order.MetaFromValues(o.Meta); m.Name != "" {
		resp.Meta = &m
		resp.DisplayAddress = m.DisplayAddress()
	}
	writeJSON(w, http.StatusOK, resp)
}
