package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the response body used by every /api route.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Success writes a 200 envelope response.
func Success(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusOK, Envelope{Status: "success", Message: message, Data: data})
}

// Created writes a 201 envelope response.
func Created(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusCreated, Envelope{Status: "success", Message: message, Data: data})
}

// Error maps a domain error onto the envelope.
func Error(w http.ResponseWriter, err error) {
	JSON(w, StatusFor(err), Envelope{Status: "error", Message: UserSafeMessage(err)})
}

// Fail writes an error envelope with an explicit status and message.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Status: "error", Message: message})
}

// AjaxOK writes a success payload in the legacy {success: true, ...} shape
// used by the /ajax endpoints. Extra fields are merged into the object.
func AjaxOK(w http.ResponseWriter, fields map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	JSON(w, http.StatusOK, body)
}

// AjaxError writes a {success: false, error} response.
func AjaxError(w http.ResponseWriter, err error) {
	JSON(w, StatusFor(err), map[string]any{"success": false, "error": UserSafeMessage(err)})
}

// AjaxFail writes a {success: false, error} response with an explicit status.
func AjaxFail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]any{"success": false, "error": message})
}

// DecodeJSON decodes a JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
