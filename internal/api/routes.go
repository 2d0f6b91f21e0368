package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/profiles", s.handleListProfiles)
		r.Post("/profiles", s.handleCreateProfile)
		r.Get("/profiles/{id}", s.handleGetProfile)
		r.Delete("/profiles/{id}", s.handleDeleteProfile)
		r.Post("/profiles/{id}/import", s.handleImport)
		r.Post("/profiles/{id}/resume-analysis", s.handleResumeAnalysis)
		r.Get("/profiles/{id}/stats/errors", s.handleErrorStats)

		r.Get("/games", s.handleListGames)
		r.Get("/games/{id}", s.handleGetGame)
		r.Delete("/games/{id}", s.handleDeleteGame)
		r.Post("/games/{id}/analyze", s.handleAnalyzeGame)
		r.Get("/games/{id}/errors", s.handleGameErrors)

		r.Get("/errors", s.handleListErrors)

		r.Post("/evaluate", s.handleEvaluatePosition)
	})

	return r
}
