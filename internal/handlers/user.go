package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/maxharris/polymono/internal/auth"
	"github.com/maxharris/polymono/internal/engine"
	"github.com/maxharris/polymono/internal/models"
)

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// CreateUserHandler registers a new account and logs it in by setting the
// auth cookie.
func (a *API) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}
	if req.Username == "" {
		req.Username = req.Email
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		a.Logger.Errorf("hash password: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	user := models.User{
		ID:       uuid.New(),
		Email:    req.Email,
		Password: hashed,
		Username: req.Username,
	}
	if err := a.Store.CreateUser(r.Context(), &user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			http.Error(w, "email already registered", http.StatusConflict)
			return
		}
		a.Logger.Errorf("create user: %v", err)
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}

	if err := a.setAuthCookie(w, user.ID); err != nil {
		a.Logger.Errorf("issue token: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	user.Password = ""
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginHandler verifies credentials and sets the auth cookie.
func (a *API) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}

	user, err := a.Store.UserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			http.Error(w, "invalid email or password", http.StatusForbidden)
			return
		}
		a.Logger.Errorf("load user: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	ok, err := auth.VerifyPassword(req.Password, user.Password)
	if err != nil || !ok {
		http.Error(w, "invalid email or password", http.StatusForbidden)
		return
	}

	if err := a.setAuthCookie(w, user.ID); err != nil {
		a.Logger.Errorf("issue token: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	user.Password = ""
	writeJSON(w, http.StatusOK, user)
}

func (a *API) setAuthCookie(w http.ResponseWriter, userID uuid.UUID) error {
	token, err := a.Tokens.Issue(userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
	return nil
}
