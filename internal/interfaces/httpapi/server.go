package httpapi

import (
	"net/http"

	"github.com/openfooty/matchday/internal/platform/logging"
)

// RouterConfig carries the deployment knobs the router needs.
type RouterConfig struct {
	CORSAllowedOrigins []string
	InternalJobToken   string
}

// NewRouter assembles the route table and the middleware chain. Tracing sits
// outermost so the request logger and handlers observe the active span.
func NewRouter(handler *Handler, logger *logging.Logger, cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	registerSystemRoutes(mux, handler)
	registerQueryRoutes(mux, handler)
	registerInternalJobRoutes(mux, handler, cfg.InternalJobToken)

	var root http.Handler = mux
	root = recoverPanic(logger, root)
	root = CORS(cfg.CORSAllowedOrigins, root)
	root = RequestLogging(logger, root)
	root = RequestTracing(root)
	return root
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(r.Context(), "panic recovered in http handler",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
				)
				writeInternalError(r.Context(), w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
