// Package result holds the HTTP response envelope glossa's endpoints build
// and write, modelled on the TunaQuest server's own result package: a
// handler builds a Result describing what happened, then calls
// WriteResponse once, rather than writing to the ResponseWriter directly
// at several points in the handler body.
package result

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
)

// ErrorResponse is the JSON body of any non-2xx Result.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Result is a deferred HTTP response: handlers build one describing the
// outcome of a request, then call WriteResponse exactly once to send it.
// Building the response as a value (rather than writing directly) lets the
// router's panic-recovery middleware log something useful, and keeps the
// log line and the wire response from drifting out of sync.
type Result struct {
	Status      int
	IsErr       bool
	InternalMsg string

	resp interface{}

	respJSONBytes []byte
}

// OK returns a 200 JSON response wrapping respObj.
func OK(respObj interface{}) Result {
	return Result{Status: http.StatusOK, resp: respObj, InternalMsg: "OK"}
}

// formatInternalMsg treats internalMsg[0] as a Sprintf format string and
// the rest as its arguments, falling back to def if internalMsg is empty.
func formatInternalMsg(def string, internalMsg []interface{}) string {
	if len(internalMsg) == 0 {
		return def
	}
	format, ok := internalMsg[0].(string)
	if !ok {
		return def
	}
	return fmt.Sprintf(format, internalMsg[1:]...)
}

// BadRequest returns a 400 response with userMsg as its visible error text.
func BadRequest(userMsg string, internalMsg ...interface{}) Result {
	return errResult(http.StatusBadRequest, userMsg, formatInternalMsg("bad request", internalMsg))
}

// NotFound returns a 404 response.
func NotFound(internalMsg ...interface{}) Result {
	return errResult(http.StatusNotFound, "The requested resource was not found", formatInternalMsg("not found", internalMsg))
}

// MethodNotAllowed returns a 405 response naming the offending method/path.
func MethodNotAllowed(req *http.Request) Result {
	msg := fmt.Sprintf("method %s is not allowed for %s", req.Method, req.URL.Path)
	return errResult(http.StatusMethodNotAllowed, msg, "method not allowed")
}

// InternalServerError returns a 500 response. internalMsg never reaches the
// client; it is only written to the log.
func InternalServerError(internalMsg ...interface{}) Result {
	return errResult(http.StatusInternalServerError, "An internal server error occurred", formatInternalMsg("internal server error", internalMsg))
}

func errResult(status int, userMsg, internalMsg string) Result {
	return Result{
		Status:      status,
		IsErr:       true,
		InternalMsg: internalMsg,
		resp:        ErrorResponse{Error: userMsg},
	}
}

// PrepareMarshaledResponse marshals resp to JSON once, so a later panic in
// WriteResponse's own marshaling can't happen: callers that want to fail
// before committing to a status code can call this first.
func (r *Result) PrepareMarshaledResponse() error {
	if r.respJSONBytes != nil || r.resp == nil {
		return nil
	}
	js, err := json.Marshal(r.resp)
	if err != nil {
		return err
	}
	r.respJSONBytes = js
	return nil
}

// WriteResponse sends r to w. If resp can't be marshaled, it degrades to a
// plain-text 500 rather than panicking partway through a response.
func (r Result) WriteResponse(w http.ResponseWriter) {
	if err := r.PrepareMarshaledResponse(); err != nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "could not marshal response: %s", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(r.Status)
	if r.respJSONBytes != nil {
		w.Write(r.respJSONBytes)
	}
}

// Log writes one line describing r's outcome for req, tagged with reqID so
// it can be correlated with the client-visible request-ID header.
func (r Result) Log(reqID string, req *http.Request) {
	level := "INFO "
	if r.IsErr {
		level = "ERROR"
	}
	remoteIP := strings.SplitN(req.RemoteAddr, ":", 2)[0]
	log.Printf("%s [%s] %s %s %s: HTTP-%d %s", level, reqID, remoteIP, req.Method, req.URL.Path, r.Status, r.InternalMsg)
}
