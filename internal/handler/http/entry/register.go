package entry

import "net/http"

// Register mounts the entry endpoints on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /entries", h.List)
	mux.HandleFunc("GET /entries/search", h.Search)
	mux.HandleFunc("GET /entries/export", h.Export)
}
