package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/niksmo/foodex/internal/core/domain"
	"github.com/niksmo/foodex/internal/core/port"
)

type AccountsHandler struct {
	accounts port.AccountManager
}

func RegisterAccounts(
	mux *http.ServeMux, accounts port.AccountManager, auth Authenticator,
) {
	h := AccountsHandler{accounts}
	mux.HandleFunc("POST /v1/accounts", h.SignUp)
	mux.HandleFunc("POST /v1/sessions", h.SignIn)
	mux.HandleFunc("DELETE /v1/sessions/current", auth.Require(h.SignOut))
	mux.HandleFunc("GET /v1/me", auth.Require(h.Me))
	mux.HandleFunc("PATCH /v1/me", auth.Require(h.UpdateMe))
}

func (h AccountsHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	const op = "AccountsHandler.SignUp"

	var req SignUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, op, err)
		return
	}

	u, s, err := h.accounts.SignUp(r.Context(), domain.NewAccount{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		writeError(w, op, err)
		return
	}

	slog.Info("signed up", "op", op, "userID", u.ID)
	writeJSON(w, http.StatusCreated, SignUpResponse{
		User:    fromUser(u),
		Session: fromSession(s),
	})
}

func (h AccountsHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	const op = "AccountsHandler.SignIn"

	var req SignInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, op, err)
		return
	}

	s, err := h.accounts.SignIn(r.Context(), domain.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, op, err)
		return
	}

	writeJSON(w, http.StatusCreated, fromSession(s))
}

func (h AccountsHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	const op = "AccountsHandler.SignOut"

	err := h.accounts.SignOut(r.Context(), tokenFromContext(r.Context()))
	if err != nil {
		writeError(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h AccountsHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, fromUser(userFromContext(r.Context())))
}

func (h AccountsHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	const op = "AccountsHandler.UpdateMe"

	var req ProfileUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, op, err)
		return
	}

	u, err := h.accounts.UpdateProfile(
		r.Context(),
		userFromContext(r.Context()).ID,
		domain.ProfileUpdate{
			Name:    req.Name,
			Phone:   req.Phone,
			Address: req.Address,
		},
	)
	if err != nil {
		writeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, fromUser(u))
}
