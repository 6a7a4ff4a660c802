package proxy

import "net/http"

// httpError is the proxy's error taxonomy. Every handler error path
// resolves to one of these so the router can serialize a consistent
// {"error": "<message>"} body with the right status.
type httpError struct {
	status  int
	message string
}

func (e *httpError) Error() string { return e.message }

func badRequest(msg string) *httpError           { return &httpError{http.StatusBadRequest, msg} }
func notFound(msg string) *httpError             { return &httpError{http.StatusNotFound, msg} }
func unsupportedFormat(msg string) *httpError    { return &httpError{http.StatusUnprocessableEntity, msg} }
func missingDiffusionModel(msg string) *httpError {
	return &httpError{http.StatusUnprocessableEntity, msg}
}
func transportError(msg string) *httpError { return &httpError{http.StatusInternalServerError, msg} }
func internalError(msg string) *httpError  { return &httpError{http.StatusInternalServerError, msg} }
