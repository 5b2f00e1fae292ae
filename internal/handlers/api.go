// Package handlers exposes the HTTP and WebSocket surface over the rules
// engine. Handlers authenticate the caller, translate JSON requests into
// engine commands, and map engine errors onto HTTP status codes; no game
// rule lives here.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/maxharris/polymono/internal/auth"
	"github.com/maxharris/polymono/internal/database"
	"github.com/maxharris/polymono/internal/engine"
	"github.com/maxharris/polymono/internal/middleware"
)

// API bundles the dependencies every handler needs.
type API struct {
	Engine *engine.Engine
	Store  *database.Store
	Tokens *auth.Tokens
	Hub    *Hub
	Logger *logrus.Logger
}

// NewAPI wires the handler set.
func NewAPI(eng *engine.Engine, store *database.Store, tokens *auth.Tokens, hub *Hub, logger *logrus.Logger) *API {
	return &API{Engine: eng, Store: store, Tokens: tokens, Hub: hub, Logger: logger}
}

// Routes builds the full route table, all endpoints behind the logging
// middleware.
func (a *API) Routes() http.Handler {
	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("POST /user/create", a.CreateUserHandler)
	mux.HandleFunc("POST /user/login", a.LoginHandler)

	// game lifecycle
	mux.HandleFunc("POST /api/game/join", a.JoinHandler)
	mux.HandleFunc("POST /api/game/ready", a.ReadyHandler)
	mux.HandleFunc("POST /api/game/start", a.StartHandler)
	mux.HandleFunc("POST /api/game/leave", a.LeaveHandler)
	mux.HandleFunc("POST /api/game/remove-player", a.RemovePlayerHandler)
	mux.HandleFunc("GET /api/game/state", a.StateHandler)

	// turn commands
	mux.HandleFunc("POST /api/game/roll", a.RollHandler)
	mux.HandleFunc("POST /api/game/buy-property", a.BuyPropertyHandler)
	mux.HandleFunc("POST /api/game/buy-houses", a.BuyHousesHandler)
	mux.HandleFunc("POST /api/game/pay-jail", a.PayJailHandler)
	mux.HandleFunc("POST /api/game/end-turn", a.EndTurnHandler)

	// trades
	mux.HandleFunc("GET /api/trade", a.ListTradesHandler)
	mux.HandleFunc("POST /api/trade", a.ProposeTradeHandler)
	mux.HandleFunc("POST /api/trade/counter", a.CounterTradeHandler)
	mux.HandleFunc("POST /api/trade/accept", a.AcceptTradeHandler)
	mux.HandleFunc("POST /api/trade/reject", a.RejectTradeHandler)
	mux.HandleFunc("POST /api/trade/cancel", a.CancelTradeHandler)

	// event feed
	mux.HandleFunc("/ws", a.WSHandler)

	return middleware.Log(a.Logger)(mux)
}

// authenticate resolves the auth_token cookie to a user id.
func (a *API) authenticate(r *http.Request) (uuid.UUID, error) {
	cookie, err := r.Cookie("auth_token")
	if err != nil {
		return uuid.Nil, errors.New("missing auth_token cookie")
	}
	return a.Tokens.Verify(cookie.Value)
}

// requireUser authenticates or writes a 403, reporting ok=false.
func (a *API) requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := a.authenticate(r)
	if err != nil {
		http.Error(w, "invalid or missing auth token", http.StatusForbidden)
		return uuid.Nil, false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeEngineError maps engine errors onto HTTP codes: rule rejections are
// the caller's fault (400 with the reason), missing entities 404, anything
// else a logged 500.
func (a *API) writeEngineError(w http.ResponseWriter, err error) {
	var rule *engine.RuleError
	switch {
	case errors.As(err, &rule):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": rule.Reason})
	case errors.Is(err, engine.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		a.Logger.Errorf("engine command failed: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
