package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	perr "quorum/internal/platform/errors"
)

type listResponse[T any] struct {
	Items []T `json:"items"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *handlers) respondErr(w http.ResponseWriter, err error) {
	code := perr.CodeOf(err)
	status := perr.HTTPStatusCode(code)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("request failed")
	}
	respond(w, status, errorResponse{Error: err.Error(), Code: code.String()})
}

// workspaceOf pulls the mandatory workspace query param, writing the 400
// itself when absent
func workspaceOf(w http.ResponseWriter, r *http.Request) (string, bool) {
	ws := r.URL.Query().Get("workspace")
	if ws == "" {
		respond(w, http.StatusBadRequest, errorResponse{
			Error: "workspace query parameter is required",
			Code:  perr.ErrorCodeInvalidArgument.String(),
		})
		return "", false
	}
	return ws, true
}

func limitOf(r *http.Request) int {
	const def, max = 20, 100
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

func orEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
