// Package httpx provides HTTP response utilities following RFC7807
// problem details for errors and a uniform success envelope for report
// payloads.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ProblemDetail represents RFC7807 problem details.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Envelope is the uniform success shape of report responses. Data is
// always present; the remaining fields are endpoint dependent.
type Envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data"`
	Count   *int           `json:"count,omitempty"`
	Summary any            `json:"summary,omitempty"`
	Filters map[string]any `json:"filters,omitempty"`
	Message string         `json:"message,omitempty"`
	Page    *int           `json:"page,omitempty"`
	PerPage *int           `json:"per_page,omitempty"`
	Pages   *int           `json:"total_pages,omitempty"`
	HasMore *bool          `json:"has_more,omitempty"`
	Total   *int           `json:"total_count,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK sends a success envelope.
func OK(w http.ResponseWriter, env Envelope) {
	env.Success = true
	if env.Data == nil {
		env.Data = []any{}
	}
	JSON(w, http.StatusOK, env)
}

// IntPtr adapts a value for the optional envelope fields.
func IntPtr(v int) *int { return &v }

// BoolPtr adapts a value for the optional envelope fields.
func BoolPtr(v bool) *bool { return &v }

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	JSON(w, status, ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
