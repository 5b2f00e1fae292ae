package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

type joinRequest struct {
	Username string `json:"username"`
}

// JoinHandler seats the caller in the lobby. The username defaults to the
// account's username when the request omits one.
func (a *API) JoinHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	var req joinRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req) // optional body
	}
	if req.Username == "" {
		user, err := a.Store.UserByID(r.Context(), userID)
		if err != nil {
			a.writeEngineError(w, err)
			return
		}
		req.Username = user.Username
	}

	player, err := a.Engine.Join(r.Context(), userID, req.Username)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, player)
}

// ReadyHandler toggles the caller's lobby ready flag.
func (a *API) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	if err := a.Engine.ToggleReady(r.Context(), userID); err != nil {
		a.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartHandler starts the game once every seated player is ready.
func (a *API) StartHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	if err := a.Engine.StartGame(r.Context(), userID); err != nil {
		a.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LeaveHandler removes the caller from the lobby, or forfeits them if the
// game is already running.
func (a *API) LeaveHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	if err := a.Engine.Leave(r.Context(), userID); err != nil {
		a.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type removePlayerRequest struct {
	PlayerID uuid.UUID `json:"player_id"`
}

// RemovePlayerHandler lets the host evict another player from the lobby.
func (a *API) RemovePlayerHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	var req removePlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == uuid.Nil {
		http.Error(w, "player_id is required", http.StatusBadRequest)
		return
	}
	if err := a.Engine.RemovePlayer(r.Context(), userID, req.PlayerID); err != nil {
		a.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StateHandler serves the full session snapshot for (re)connecting clients.
func (a *API) StateHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireUser(w, r); !ok {
		return
	}
	st, err := a.Engine.State(r.Context())
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// RollHandler rolls the dice for the active player and returns the resolved
// outcome.
func (a *API) RollHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	res, err := a.Engine.RollDice(r.Context(), userID)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type buyPropertyRequest struct {
	PropertyID int `json:"property_id"`
}

// BuyPropertyHandler purchases the property the caller is standing on.
func (a *API) BuyPropertyHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	var req buyPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	if err := a.Engine.BuyProperty(r.Context(), userID, req.PropertyID); err != nil {
		a.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type buyHousesRequest struct {
	PropertyID int `json:"property_id"`
	Count      int `json:"count"`
}

// BuyHousesHandler builds houses on an owned property.
func (a *API) BuyHousesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	var req buyHousesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	if err := a.Engine.BuyHouses(r.Context(), userID, req.PropertyID, req.Count); err != nil {
		a.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PayJailHandler pays the fine to leave jail before rolling.
func (a *API) PayJailHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	if err := a.Engine.PayOutOfJail(r.Context(), userID); err != nil {
		a.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EndTurnHandler passes the turn to the next active player.
func (a *API) EndTurnHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	if err := a.Engine.EndTurn(r.Context(), userID); err != nil {
		a.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
