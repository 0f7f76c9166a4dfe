package handlers

import (
	"encoding/json"
	"net/http"

	"notesapi/i18n"
)

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func sendMessage(w http.ResponseWriter, r *http.Request, status int, key string) {
	sendJSON(w, status, messageResponse{Message: tr(r, key)})
}

func sendError(w http.ResponseWriter, r *http.Request, status int, key string) {
	sendJSON(w, status, errorResponse{Error: tr(r, key)})
}

func tr(r *http.Request, key string) string {
	return i18n.T(i18n.DetectLanguage(r), key)
}

// statusCapture keeps the status and headers of the mux's plain-text error
// page and drops its body.
type statusCapture struct {
	header http.Header
	status int
}

func (c *statusCapture) Header() http.Header { return c.header }

func (c *statusCapture) Write(b []byte) (int, error) { return len(b), nil }

func (c *statusCapture) WriteHeader(code int) { c.status = code }

// jsonErrors answers requests no route matches with the same {error} body
// as every other failure.
func jsonErrors(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, pattern := mux.Handler(r); pattern != "" {
			mux.ServeHTTP(w, r)
			return
		}

		capture := &statusCapture{header: make(http.Header), status: http.StatusNotFound}
		mux.ServeHTTP(capture, r)
		if allow := capture.header.Get("Allow"); allow != "" {
			w.Header().Set("Allow", allow)
		}
		if capture.status == http.StatusMethodNotAllowed {
			sendError(w, r, http.StatusMethodNotAllowed, "MethodNotAllowed")
			return
		}
		sendError(w, r, http.StatusNotFound, "NotFound")
	})
}
