package web

import (
	"net/http"

	"github.com/rook-computer/statuslcd/internal/app/screens"
	"github.com/rook-computer/statuslcd/internal/state"
)

// RegisterAPIV1 registers the public API routes under /api/v1/.
func RegisterAPIV1(mux *http.ServeMux, deps APIV1Deps) {
	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", apiV1Router(deps)))
}

// NewDefaultMux builds the standard handler used by both the device and
// simulator. Dev mode adds permissive CORS.
func NewDefaultMux(cfg ServerConfig, deps APIV1Deps) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIV1(mux, deps)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/api/v1/status", http.StatusFound)
	})
	if cfg.DevMode {
		return WithDevCORS(mux)
	}
	return mux
}

// StatusObserver returns a connectivity observer that pushes every
// transition to hub clients.
func StatusObserver(hub *Hub) func(state.ConnectionState, screens.Message) {
	return func(s state.ConnectionState, msg screens.Message) {
		hub.Broadcast("status", newStatusResponse(s, s.Kind == state.CONNECTED, msg))
	}
}
