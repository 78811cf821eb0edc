// Package meta serves the health check and the public client configuration.
package meta

import (
	"net/http"

	"github.com/pauljones0/dealboard/internal/config"
	"github.com/pauljones0/dealboard/internal/httpserver/respond"
)

func Health(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NewFirebaseConfigHandler serves the public Firebase web settings. They are
// not secrets, so the response may be cached by browsers.
func NewFirebaseConfigHandler(cfg config.FirebaseWebConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=300")
		respond.JSON(w, http.StatusOK, cfg)
	}
}
