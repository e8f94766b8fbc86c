package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/josh-kwaku/overdraft-ledger/internal/handler"
	"github.com/josh-kwaku/overdraft-ledger/internal/logging"
)

// Recovery turns a handler panic into a 500. When the handler had already
// started its response the status can no longer change, so the panic is only
// logged.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}

			logging.FromContext(r.Context()).Error("panic recovered",
				"error", v,
				"method", r.Method,
				"path", r.URL.Path,
				"response_started", rec.wroteHeader,
				"stack", string(debug.Stack()),
			)
			if !rec.wroteHeader {
				handler.RespondAppError(w, handler.ErrInternalError)
			}
		}()
		next.ServeHTTP(rec, r)
	})
}
