// Package respond arma el envelope JSON común a todos los endpoints:
//
//	{ "success": bool, "message": "...", "<recurso>": ... }
package respond

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"petcare-backend/internal/platform/apperr"
)

var exposeInternal atomic.Bool

// ExposeInternalErrors habilita el detalle de errores 500 en la respuesta (sólo development).
func ExposeInternalErrors(v bool) { exposeInternal.Store(v) }

type Fields map[string]any

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Success escribe success=true + message opcional + los campos del recurso.
func Success(w http.ResponseWriter, status int, msg string, fields Fields) {
	body := map[string]any{"success": true}
	if msg != "" {
		body["message"] = msg
	}
	for k, v := range fields {
		if k == "success" || k == "message" {
			continue
		}
		body[k] = v
	}
	JSON(w, status, body)
}

func OK(w http.ResponseWriter, key string, v any) {
	Success(w, http.StatusOK, "", Fields{key: v})
}

func Created(w http.ResponseWriter, key string, v any) {
	Success(w, http.StatusCreated, "", Fields{key: v})
}

func Fail(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]any{
		"success": false,
		"message": msg,
	})
}

// Error traduce un error de dominio a status + envelope.
func Error(w http.ResponseWriter, err error) {
	status := apperr.StatusOf(err)
	msg := apperr.MessageOf(err)
	if status == http.StatusInternalServerError {
		msg = "internal server error"
		if exposeInternal.Load() && err != nil {
			msg = err.Error()
		}
	}
	Fail(w, status, msg)
}

func BadJSON(w http.ResponseWriter) {
	Fail(w, http.StatusBadRequest, "invalid json")
}

func Unauthorized(w http.ResponseWriter) {
	Fail(w, http.StatusUnauthorized, "unauthorized")
}

func Forbidden(w http.ResponseWriter) {
	Fail(w, http.StatusForbidden, "forbidden")
}
