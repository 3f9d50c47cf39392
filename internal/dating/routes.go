package dating

import (
	"github.com/gorilla/mux"

	"github.com/imadgeboyega/campusmatch/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, hub *Hub, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/matching").Subrouter()
	api.Use(authMiddleware.Authenticate)

	// Discovery
	api.HandleFunc("/candidates", handler.GetCandidates).Methods("GET")
	api.HandleFunc("/compatibility/{userId:[0-9]+}", handler.GetCompatibility).Methods("GET")

	// Likes & matches
	api.HandleFunc("/likes", handler.RecordLike).Methods("POST")
	api.HandleFunc("/matches", handler.GetMatches).Methods("GET")

	// Profile inputs
	api.HandleFunc("/preferences", handler.UpdatePreferences).Methods("PUT")
	api.HandleFunc("/personality", handler.UpdatePersonality).Methods("PUT")

	// Score cards
	api.HandleFunc("/scorecard", handler.GetScoreCard).Methods("GET")

	// Realtime match notifications
	if hub != nil {
		api.HandleFunc("/ws", hub.ServeWS).Methods("GET")
	}

	// Operator endpoints
	admin := router.PathPrefix("/api/v1/admin/matching").Subrouter()
	admin.Use(authMiddleware.Authenticate, authMiddleware.RequireAdmin)
	admin.HandleFunc("/stats", handler.GetStats).Methods("GET")
}
