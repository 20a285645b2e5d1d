package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"petcare-backend/internal/platform/logger"
	"petcare-backend/internal/platform/respond"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Recover convierte un panic en un 500 con el envelope estándar y lo loguea con stack.
// http.ErrAbortHandler se re-lanza: es la forma de cortar una respuesta a propósito.
func Recover(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.Error("panic recovered", map[string]any{
					"request_id": chimw.GetReqID(r.Context()),
					"method":     r.Method,
					"path":       r.URL.Path,
					"panic":      fmt.Sprint(rec),
					"stack":      string(debug.Stack()),
				})
				respond.Fail(w, http.StatusInternalServerError, "internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
