package httphandler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/niksmo/foodex/internal/core/domain"
	"github.com/niksmo/foodex/internal/core/port"
)

type MenuHandler struct {
	menu port.MenuReader
}

func RegisterMenu(mux *http.ServeMux, menu port.MenuReader) {
	h := MenuHandler{menu}
	mux.HandleFunc("GET /v1/categories", h.Categories)
	mux.HandleFunc("GET /v1/menu", h.Menu)
	mux.HandleFunc("GET /v1/menu/popular", h.Popular)
}

func (h MenuHandler) Categories(w http.ResponseWriter, r *http.Request) {
	const op = "MenuHandler.Categories"

	vs, err := h.menu.Categories(r.Context())
	if err != nil {
		writeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, fromCategories(vs))
}

// Menu serves GET /v1/menu?category=&query=, category "all" or empty
// lists every category.
func (h MenuHandler) Menu(w http.ResponseWriter, r *http.Request) {
	const op = "MenuHandler.Menu"

	q := r.URL.Query()
	vs, err := h.menu.Menu(r.Context(), domain.MenuFilter{
		Category: q.Get("category"),
		Query:    q.Get("query"),
	})
	if err != nil {
		writeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, fromMenu(vs))
}

func (h MenuHandler) Popular(w http.ResponseWriter, r *http.Request) {
	const op = "MenuHandler.Popular"

	var limit int
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, op, fmt.Errorf(
				"%w: invalid limit %q", domain.ErrInvalidArgument, s,
			))
			return
		}
		limit = n
	}

	vs, err := h.menu.PopularMenu(r.Context(), limit)
	if err != nil {
		writeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, fromPopularMenu(vs))
}
