package handler

import (
	"net/http"

	"pdf-view-engine/internal/config"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(container *config.Container) http.Handler {
	router := mux.NewRouter()
	router.Use(RequestLogger(container.GetLogger()))

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"pdf-view-engine"}`))
	}).Methods("GET")

	viewerHandler := NewViewerHandler(container.GetSessions(), container.GetLogger())

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/sessions", viewerHandler.CreateSession).Methods("POST")
	api.HandleFunc("/sessions/{id}", viewerHandler.DeleteSession).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/state", viewerHandler.GetState).Methods("GET")

	api.HandleFunc("/sessions/{id}/load", viewerHandler.Load).Methods("POST")
	api.HandleFunc("/sessions/{id}/unload", viewerHandler.Unload).Methods("POST")
	api.HandleFunc("/sessions/{id}/retry", viewerHandler.Retry).Methods("POST")

	api.HandleFunc("/sessions/{id}/viewport", viewerHandler.SetViewport).Methods("POST")
	api.HandleFunc("/sessions/{id}/goto", viewerHandler.GoToPage).Methods("POST")

	api.HandleFunc("/sessions/{id}/pages/{page}", viewerHandler.GetPage).Methods("GET")
	api.HandleFunc("/sessions/{id}/thumbnails/{page}", viewerHandler.GetThumbnail).Methods("GET")

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // Vite dev server
			"http://localhost:4173", // Vite preview
			"http://localhost:3000", // Alternative dev port
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
		},
		MaxAge: 300,
	})

	return c.Handler(router)
}
