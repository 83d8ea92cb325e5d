package api

import (
	"net/http"

	"github.com/JaimeStill/cadence/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain) {
	gradingsHandler := domain.Gradings.Handler()

	routes.Register(
		mux,
		domain.Transcripts.Handler().Routes(),
		gradingsHandler.TranscriptRoutes(),
		domain.Rubrics.Handler().Routes(),
		domain.Prompts.Handler().Routes(),
		gradingsHandler.Routes(),
	)
}
