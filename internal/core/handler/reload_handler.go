package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"reload-gateway/internal/core/usecase"
)

type ReloadHandler struct {
	enqueueUC  *usecase.EnqueueReloadUseCase
	smsUC      *usecase.ReceiveSMSUseCase
	statusUC   *usecase.GetTransactionStatusUseCase
	statsUC    *usecase.GetStatsUseCase
	queueUC    *usecase.ListQueueUseCase
	channelsUC *usecase.ListChannelsUseCase
	setAvailUC *usecase.SetChannelAvailabilityUseCase
	Base
}

type reloadRequest struct {
	SubscriberNumber string `json:"msisdn"`
	PromoCode        string `json:"promo"`
	Amount           int    `json:"amount"`
	Network          string `json:"network,omitempty"`
}

type smsRequest struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

type availabilityRequest struct {
	Available *bool `json:"available"`
}

func NewReloadHandler(
	enqueueUC *usecase.EnqueueReloadUseCase,
	smsUC *usecase.ReceiveSMSUseCase,
	statusUC *usecase.GetTransactionStatusUseCase,
	statsUC *usecase.GetStatsUseCase,
	queueUC *usecase.ListQueueUseCase,
	channelsUC *usecase.ListChannelsUseCase,
	setAvailUC *usecase.SetChannelAvailabilityUseCase,
) *ReloadHandler {
	return &ReloadHandler{
		enqueueUC:  enqueueUC,
		smsUC:      smsUC,
		statusUC:   statusUC,
		statsUC:    statsUC,
		queueUC:    queueUC,
		channelsUC: channelsUC,
		setAvailUC: setAvailUC,
	}
}

// RegisterRoutes mounts the API under /api/v1. Middlewares apply to the API
// routes only.
func (h *ReloadHandler) RegisterRoutes(r *mux.Router, middlewares ...mux.MiddlewareFunc) {
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middlewares...)

	api.HandleFunc("/reload", h.wrap(h.handleReload)).Methods(http.MethodPost)
	api.HandleFunc("/sms", h.wrap(h.handleSMS)).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{reference}", h.wrap(h.handleGetStatus)).Methods(http.MethodGet)
	api.HandleFunc("/queue", h.wrap(h.handleQueue)).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.wrap(h.handleStats)).Methods(http.MethodGet)
	api.HandleFunc("/channels", h.wrap(h.handleChannels)).Methods(http.MethodGet)
	api.HandleFunc("/channels/{network}", h.wrap(h.handleSetAvailability)).Methods(http.MethodPut)
}

// handleReload godoc
// @Summary      Queue a reload
// @Description  Validates a reload request and appends it to the dispatch queue
// @Tags         reloads
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Replay protection key"
// @Param        request body reloadRequest true "Reload request"
// @Success      202 {object} HttpResponse "Reload queued"
// @Success      200 {object} HttpResponse "Idempotent replay"
// @Failure      400 {object} ErrorResponse "Validation error"
// @Failure      409 {object} ErrorResponse "Reference already in use"
// @Failure      503 {object} ErrorResponse "Queue is full"
// @Router       /api/v1/reload [post]
func (h *ReloadHandler) handleReload(w http.ResponseWriter, r *http.Request) error {
	var req reloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondWithError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return nil
	}

	out, err := h.enqueueUC.Execute(r.Context(), usecase.EnqueueInput{
		SubscriberNumber: req.SubscriberNumber,
		PromoCode:        req.PromoCode,
		Amount:           req.Amount,
		Network:          req.Network,
		IdempotencyKey:   r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return err
	}

	h.respondQueued(w, out)
	return nil
}

// handleSMS godoc
// @Summary      Queue a reload from a text message
// @Description  Parses "MSISDN PROMO AMOUNT" and queues the reload
// @Tags         reloads
// @Accept       json
// @Produce      json
// @Param        request body smsRequest true "Inbound message"
// @Success      202 {object} HttpResponse "Reload queued"
// @Failure      400 {object} ErrorResponse "Malformed message"
// @Failure      409 {object} ErrorResponse "Reference already in use"
// @Failure      503 {object} ErrorResponse "Queue is full"
// @Router       /api/v1/sms [post]
func (h *ReloadHandler) handleSMS(w http.ResponseWriter, r *http.Request) error {
	var req smsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondWithError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return nil
	}

	out, err := h.smsUC.Execute(r.Context(), usecase.SMSInput{
		Sender:         req.Sender,
		Message:        req.Message,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return err
	}

	h.respondQueued(w, out)
	return nil
}

func (h *ReloadHandler) respondQueued(w http.ResponseWriter, out *usecase.EnqueueOutput) {
	if out.Idempotent {
		h.RespondWithSuccess(w, http.StatusOK, "reload already accepted", out)
		return
	}
	h.RespondWithSuccess(w, http.StatusAccepted, "reload queued", out)
}

// handleGetStatus godoc
// @Summary      Transaction status
// @Tags         reloads
// @Produce      json
// @Param        reference path string true "Transaction reference"
// @Success      200 {object} HttpResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/transactions/{reference} [get]
func (h *ReloadHandler) handleGetStatus(w http.ResponseWriter, r *http.Request) error {
	out, err := h.statusUC.Execute(r.Context(), mux.Vars(r)["reference"])
	if err != nil {
		return err
	}

	h.RespondWithSuccess(w, http.StatusOK, "ok", out)
	return nil
}

// handleQueue godoc
// @Summary      Pending transactions in dispatch order
// @Tags         queue
// @Produce      json
// @Success      200 {object} HttpResponse
// @Router       /api/v1/queue [get]
func (h *ReloadHandler) handleQueue(w http.ResponseWriter, r *http.Request) error {
	h.RespondWithSuccess(w, http.StatusOK, "ok", h.queueUC.Execute(r.Context()))
	return nil
}

// handleStats godoc
// @Summary      Queue counters
// @Tags         queue
// @Produce      json
// @Success      200 {object} HttpResponse
// @Router       /api/v1/stats [get]
func (h *ReloadHandler) handleStats(w http.ResponseWriter, r *http.Request) error {
	h.RespondWithSuccess(w, http.StatusOK, "ok", h.statsUC.Execute(r.Context()))
	return nil
}

// handleChannels godoc
// @Summary      SIM channels
// @Tags         channels
// @Produce      json
// @Success      200 {object} HttpResponse
// @Failure      503 {object} ErrorResponse
// @Router       /api/v1/channels [get]
func (h *ReloadHandler) handleChannels(w http.ResponseWriter, r *http.Request) error {
	channels, err := h.channelsUC.Execute(r.Context())
	if err != nil {
		return err
	}

	h.RespondWithSuccess(w, http.StatusOK, "ok", channels)
	return nil
}

// handleSetAvailability godoc
// @Summary      Take a channel in or out of rotation
// @Tags         channels
// @Accept       json
// @Produce      json
// @Param        network path string true "SMART or GLOBE"
// @Param        request body availabilityRequest true "Availability"
// @Success      200 {object} HttpResponse
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/channels/{network} [put]
func (h *ReloadHandler) handleSetAvailability(w http.ResponseWriter, r *http.Request) error {
	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondWithError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return nil
	}
	if req.Available == nil {
		h.RespondWithError(w, r, http.StatusBadRequest, "missing parameter", "available is required")
		return nil
	}

	network := mux.Vars(r)["network"]
	if err := h.setAvailUC.Execute(r.Context(), usecase.SetAvailabilityInput{
		Network:   network,
		Available: *req.Available,
	}); err != nil {
		return err
	}

	h.RespondWithSuccess(w, http.StatusOK, "channel updated", map[string]any{
		"network":   network,
		"available": *req.Available,
	})
	return nil
}
