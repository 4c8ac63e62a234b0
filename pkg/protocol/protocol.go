// Package protocol defines the request/response types exchanged between the
// summ client and daemon, and the length-prefixed JSON framing that carries
// them over the unix socket.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/JhihJian/SUMM-Daemon/errors"
)

// RequestType tags a request.
type RequestType string

const (
	RequestStart        RequestType = "Start"
	RequestStop         RequestType = "Stop"
	RequestList         RequestType = "List"
	RequestStatus       RequestType = "Status"
	RequestInject       RequestType = "Inject"
	RequestDaemonStatus RequestType = "DaemonStatus"
)

// Request is the tagged union sent from client to daemon. Only the fields
// relevant to the Type are populated.
type Request struct {
	Type RequestType `json:"type"`

	// Start
	CLI  string `json:"cli,omitempty"`
	Init string `json:"init,omitempty"`
	Name string `json:"name,omitempty"`

	// Stop, Status, Inject
	SessionID string `json:"session_id,omitempty"`

	// Inject
	Message string `json:"message,omitempty"`

	// List
	StatusFilter string `json:"status_filter,omitempty"`
}

// Response type tags.
const (
	ResponseSuccess = "Success"
	ResponseError   = "Error"
)

// Response is the tagged union sent from daemon to client.
type Response struct {
	Type string `json:"type"`

	// Success
	Data json.RawMessage `json:"data,omitempty"`

	// Error
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Success builds a Success response wrapping the JSON encoding of data.
func Success(data interface{}) (*Response, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize response data: %w", err)
	}
	return &Response{Type: ResponseSuccess, Data: raw}, nil
}

// Error builds an Error response from a DaemonError.
func Error(err *errors.DaemonError) *Response {
	return &Response{
		Type:    ResponseError,
		Code:    string(err.Code),
		Message: err.Message,
	}
}

// IsSuccess reports whether the response carries a Success payload.
func (r *Response) IsSuccess() bool {
	return r.Type == ResponseSuccess
}

// DecodeData unmarshals a Success payload into out.
func (r *Response) DecodeData(out interface{}) error {
	if !r.IsSuccess() {
		return fmt.Errorf("cannot decode data from %s response", r.Type)
	}
	return json.Unmarshal(r.Data, out)
}

// DaemonStatusData is the Success payload of a DaemonStatus request.
type DaemonStatusData struct {
	Running      bool   `json:"running"`
	SessionCount int    `json:"session_count"`
	Version      string `json:"version"`
}

// InjectData is the Success payload of an Inject request.
type InjectData struct {
	SessionID     string `json:"session_id"`
	Injected      bool   `json:"injected"`
	MessageLength int    `json:"message_length"`
}

// StopData is the Success payload of a Stop request.
type StopData struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}
