// Package logging builds the service's slog loggers and carries them through
// request contexts.
//
// JSON output is the default. LOG_FORMAT=text switches to a colored console
// handler for local work, and LOG_LEVEL selects debug, info, warn or error.
//
//	logger := logging.NewLogger()
//	slog.SetDefault(logger)
//
//	func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
//	    log := logging.WithRequestID(r.Context(), slog.Default())
//	    log.Info("listing posts")
//	}
package logging
