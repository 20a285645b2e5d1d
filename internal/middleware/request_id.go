package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

const HeaderRequestID = "X-Request-ID"

// RequestID delega en chi (respeta un X-Request-ID entrante) y devuelve el id en la respuesta.
func RequestID(next http.Handler) http.Handler {
	return chimw.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			w.Header().Set(HeaderRequestID, id)
		}
		next.ServeHTTP(w, r)
	}))
}
