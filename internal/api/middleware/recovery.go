package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/competecore/competecore/internal/api/apierr"
	logmw "github.com/competecore/competecore/internal/middleware"
)

// Standard returns the middleware every API route runs behind, outermost
// first. Logging assigns the request id, so recovery sits inside it and
// panic logs carry the id.
func Standard(logger *slog.Logger) []mux.MiddlewareFunc {
	return []mux.MiddlewareFunc{
		logmw.Logging(logger),
		Recovery(logger),
	}
}

// Recovery turns a panic in an API handler into a 500 JSON error
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return logmw.Recovery(logger.With(slog.String("component", "api")), writeInternalError)
}

// writeInternalError never exposes the panic value. The X-Request-ID
// response header links the reply to the panic log entry.
func writeInternalError(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
