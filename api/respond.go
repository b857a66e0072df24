package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

var errBadBody = errors.New("malformed request body")

func statusFor(kind goSession.ErrorKind) int {
	switch kind {
	case goSession.KindNotFound:
		return http.StatusNotFound
	case goSession.KindUnauthorized:
		return http.StatusUnauthorized
	case goSession.KindConflict:
		return http.StatusConflict
	case goSession.KindInvalid:
		return http.StatusBadRequest
	case goSession.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := goSession.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, status, errorBody{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorBody{Error: strings.ReplaceAll(err.Error(), "\n", ": ")})
}

type errorBody struct {
	Error string `json:"error"`
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errBadBody
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
