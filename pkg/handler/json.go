package handler

import (
	"encoding/json"
	"errors"
	"net/http"
)

// JSONResponse is the envelope of every JSON body. Exactly one of Data and Error is set.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail describes a failed request. Details holds per-field validation messages.
type ErrorDetail struct {
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

type JSONOption func(*jsonResponse)

// WithJSONStatus overrides the status code, e.g. 201 for a created run.
func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) { r.status = status }
}

func WithJSONMeta(meta map[string]any) JSONOption {
	return func(r *jsonResponse) { r.body.Meta = meta }
}

type jsonResponse struct {
	status int
	body   JSONResponse
}

func (j *jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSON renders v as the data of the envelope with status 200. An error renders like JSONError.
func JSON(v any, opts ...JSONOption) Response {
	if err, ok := v.(error); ok {
		return JSONError(err, opts...)
	}
	return apply(&jsonResponse{status: http.StatusOK, body: JSONResponse{Data: v}}, opts)
}

// JSONError renders err as the error of the envelope. ValidationError is 422 with
// field details, HTTPError uses its own status and key, anything else is a 500 whose
// cause stays in the logs.
func JSONError(err error, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusInternalServerError}
	r.body.Error = &ErrorDetail{Code: "internal_error", Message: http.StatusText(http.StatusInternalServerError)}

	var verr ValidationError
	var herr HTTPError
	switch {
	case errors.As(err, &verr):
		r.status = http.StatusUnprocessableEntity
		r.body.Error = &ErrorDetail{Code: "validation_error", Message: verr.Error()}
		if len(verr) > 0 {
			r.body.Error.Details = map[string][]string(verr)
		}
	case errors.As(err, &herr):
		r.status = herr.Code
		r.body.Error = &ErrorDetail{Code: herr.Key, Message: http.StatusText(herr.Code)}
	}
	return apply(r, opts)
}

func apply(r *jsonResponse, opts []JSONOption) Response {
	for _, opt := range opts {
		opt(r)
	}
	return r
}
