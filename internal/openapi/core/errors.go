package core

import "fmt"

// APIError is a structured error returned by the OpenAPI backend.
type APIError struct {
	HTTPStatus int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"msg"`
	RequestID  string `json:"-"`
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("api error %s (http %d): %s [request %s]", e.Code, e.HTTPStatus, e.Message, e.RequestID)
	}
	return fmt.Sprintf("api error %s (http %d): %s", e.Code, e.HTTPStatus, e.Message)
}
