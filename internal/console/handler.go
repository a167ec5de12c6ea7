// Package console exposes the expo board over HTTP for the kitchen console.
// It sits above internal/expo so receipt rendering can depend on the board
// types without the board depending back on the console surface.
package console

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/expeditehq/expedite/internal/chime"
	"github.com/expeditehq/expedite/internal/expo"
	"github.com/expeditehq/expedite/internal/receipt"
)

type Handler struct {
	board    *expo.Board
	stream   *expo.BoardStream
	receipts *receipt.Renderer
	chime    *chime.Generator
	identity string
	logger   apt.Logger
	config   *apt.Config
	tlm      *telemetry.HTTP
}

func NewHandler(board *expo.Board, stream *expo.BoardStream, receipts *receipt.Renderer, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	identity := "Expedite"
	if config != nil {
		if v, _ := config.GetString("receipt.identity"); v != "" {
			identity = v
		}
	}

	return &Handler{
		board:    board,
		stream:   stream,
		receipts: receipts,
		chime:    chime.NewGenerator(),
		identity: identity,
		logger:   logger,
		config:   config,
		tlm:      telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/board", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Get("/{id}", h.GetOrder)
			r.Get("/{id}/receipt", h.OrderReceipt)
			r.Patch("/{id}/prepare", h.PrepareOrder)
			r.Patch("/{id}/serve", h.ServeOrder)
			r.Patch("/{id}/complete", h.CompleteOrder)
			r.Patch("/{id}/cancel", h.CancelOrder)
			r.Delete("/{id}", h.DeleteOrder)
		})

		r.Route("/calls", func(r chi.Router) {
			r.Get("/", h.ListCalls)
			r.Patch("/{id}/acknowledge", h.AcknowledgeCall)
		})

		r.Get("/summary", h.GetSummary)
		r.Get("/stream", h.stream.ServeHTTP)

		r.Route("/sound", func(r chi.Router) {
			r.Post("/unlock", h.UnlockSound)
			r.Post("/mute", h.MuteSound)
			r.Post("/unmute", h.UnmuteSound)
			r.Get("/chime.wav", h.ChimeWAV)
		})
	})
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

// orderView decorates an order with the elapsed label consoles render next to
// the card.
type orderView struct {
	*expo.Order
	Elapsed string `json:"elapsed"`
}

type callView struct {
	*expo.WaiterCall
	Elapsed string `json:"elapsed"`
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()

	filter, err := expo.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid filter")
		return
	}

	now := time.Now()
	orders := h.board.VisibleOrders(filter, now)

	views := make([]orderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, orderView{Order: order, Elapsed: expo.ElapsedLabel(order.CreatedAt, now)})
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"filter": filter,
		"orders": views,
	}, nil)
}

// GetOrder returns a single order by id. Lookups by id skip the completed
// auto-expiry window so receipts stay reachable after the card disappears.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order := h.board.Orders().Get(id)
	if order == nil {
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	apt.Respond(w, http.StatusOK, orderView{Order: order, Elapsed: expo.ElapsedLabel(order.CreatedAt, time.Now())}, nil)
}

func (h *Handler) PrepareOrder(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, "Prepare", expo.StatusPreparing)
}

func (h *Handler) ServeOrder(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, "Serve", expo.StatusServed)
}

func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, "Complete", expo.StatusCompleted)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, "Cancel", expo.StatusCancelled)
}

func (h *Handler) advance(w http.ResponseWriter, r *http.Request, action, target string) {
	w, r, finish := h.tlm.Start(w, r, fmt.Sprintf("Handler.%sOrder", action))
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.board.AdvanceOrder(ctx, id, target)
	switch {
	case errors.Is(err, expo.ErrNotFound):
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	case errors.Is(err, expo.ErrIllegalTransition):
		apt.RespondError(w, http.StatusConflict, "Illegal status transition")
		return
	case err != nil:
		log.Errorf("cannot advance order: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update order")
		return
	}

	apt.Respond(w, http.StatusOK, order, nil)
}

// DeleteOrder removes an order permanently. The confirm flag stands in for
// the console's confirmation prompt; without it nothing is touched.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteOrder")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if !confirmed {
		apt.RespondError(w, http.StatusPreconditionRequired, "Delete requires confirmation")
		return
	}

	if err := h.board.RemoveOrder(ctx, id); err != nil {
		if errors.Is(err, expo.ErrNotFound) {
			apt.RespondError(w, http.StatusNotFound, "Order not found")
			return
		}
		log.Errorf("cannot delete order: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not delete order")
		return
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"deleted": id.String(),
	}, nil)
}

func (h *Handler) OrderReceipt(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.OrderReceipt")
	defer finish()
	log := h.log(r)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order := h.board.Orders().Get(id)
	if order == nil {
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	rcpt := receipt.Build(order, h.identity)

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(receipt.RenderText(rcpt)))
		return
	}

	html, err := h.receipts.RenderHTML(rcpt)
	if err != nil {
		log.Errorf("cannot render receipt: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not render receipt")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func (h *Handler) ListCalls(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListCalls")
	defer finish()

	now := time.Now()
	calls := h.board.VisibleCalls(now)

	views := make([]callView, 0, len(calls))
	for _, call := range calls {
		views = append(views, callView{WaiterCall: call, Elapsed: expo.ElapsedLabel(call.CreatedAt, now)})
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"calls": views,
	}, nil)
}

func (h *Handler) AcknowledgeCall(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AcknowledgeCall")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid call ID")
		return
	}

	call, err := h.board.AcknowledgeCall(ctx, id)
	switch {
	case errors.Is(err, expo.ErrNotFound):
		apt.RespondError(w, http.StatusNotFound, "Waiter call not found")
		return
	case errors.Is(err, expo.ErrIllegalTransition):
		apt.RespondError(w, http.StatusConflict, "Waiter call already handled")
		return
	case err != nil:
		log.Errorf("cannot acknowledge waiter call: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update waiter call")
		return
	}

	apt.Respond(w, http.StatusOK, call, nil)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetSummary")
	defer finish()

	apt.Respond(w, http.StatusOK, h.board.Summarize(), nil)
}

func (h *Handler) UnlockSound(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UnlockSound")
	defer finish()

	unlocked := h.board.Gate().Unlock()
	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"unlocked": unlocked,
		"muted":    h.board.Gate().Muted(),
	}, nil)
}

func (h *Handler) MuteSound(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.MuteSound")
	defer finish()

	h.board.Gate().Mute()
	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"muted": true,
	}, nil)
}

func (h *Handler) UnmuteSound(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UnmuteSound")
	defer finish()

	h.board.Gate().Unmute()
	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"muted": false,
	}, nil)
}

// ChimeWAV serves the synthesized notification sound consoles play on alerts.
func (h *Handler) ChimeWAV(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ChimeWAV")
	defer finish()

	wav := h.chime.WAV()
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(wav)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(wav)
}
