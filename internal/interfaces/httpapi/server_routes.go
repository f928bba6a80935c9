package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerQueryRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/competitions/{competition}/seasons/current", handler.GetCurrentSeason)
	mux.HandleFunc("GET /v1/seasons/{seasonID}/matchweeks/{week}/fixtures", handler.ListFixturesByMatchWeek)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, jobToken string) {
	mux.Handle("POST /v1/internal/jobs/sync-season",
		RequireInternalJobToken(jobToken, http.HandlerFunc(handler.RunSyncSeasonJob)))
	mux.Handle("POST /v1/internal/jobs/sync-matchweek",
		RequireInternalJobToken(jobToken, http.HandlerFunc(handler.RunSyncMatchWeekJob)))
}
