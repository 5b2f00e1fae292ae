package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/maxharris/polymono/internal/models"
)

type proposeTradeRequest struct {
	RecipientID uuid.UUID          `json:"recipient_id"` // player id, not user id
	Offered     models.TradeBundle `json:"offered"`
	Requested   models.TradeBundle `json:"requested"`
}

// ProposeTradeHandler opens a trade between the caller and another player.
func (a *API) ProposeTradeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	var req proposeTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RecipientID == uuid.Nil {
		http.Error(w, "recipient_id is required", http.StatusBadRequest)
		return
	}
	trade, err := a.Engine.ProposeTrade(r.Context(), userID, req.RecipientID, req.Offered, req.Requested)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, trade)
}

type counterTradeRequest struct {
	TradeID   uuid.UUID          `json:"trade_id"`
	Offered   models.TradeBundle `json:"offered"`
	Requested models.TradeBundle `json:"requested"`
}

// CounterTradeHandler replaces the bundles of a pending trade with the
// recipient's counter-offer.
func (a *API) CounterTradeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	var req counterTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TradeID == uuid.Nil {
		http.Error(w, "trade_id is required", http.StatusBadRequest)
		return
	}
	trade, err := a.Engine.CounterTrade(r.Context(), userID, req.TradeID, req.Offered, req.Requested)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trade)
}

type tradeIDRequest struct {
	TradeID uuid.UUID `json:"trade_id"`
}

func decodeTradeID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	var req tradeIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TradeID == uuid.Nil {
		http.Error(w, "trade_id is required", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return req.TradeID, true
}

// AcceptTradeHandler settles a trade. A trade that went stale since it was
// offered comes back with status expired instead of settling.
func (a *API) AcceptTradeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	tradeID, ok := decodeTradeID(w, r)
	if !ok {
		return
	}
	trade, err := a.Engine.AcceptTrade(r.Context(), userID, tradeID)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trade)
}

// RejectTradeHandler declines a trade.
func (a *API) RejectTradeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	tradeID, ok := decodeTradeID(w, r)
	if !ok {
		return
	}
	if err := a.Engine.RejectTrade(r.Context(), userID, tradeID); err != nil {
		a.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CancelTradeHandler withdraws the caller's own open trade.
func (a *API) CancelTradeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	tradeID, ok := decodeTradeID(w, r)
	if !ok {
		return
	}
	if err := a.Engine.CancelTrade(r.Context(), userID, tradeID); err != nil {
		a.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTradesHandler returns the caller's open trades.
func (a *API) ListTradesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	trades, err := a.Engine.ListTrades(r.Context(), userID)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}
