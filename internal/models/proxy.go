package models

import "encoding/json"

// Upstream envelope sentinels. The upstream reports logical failure inside a
// 200 response as {status:"0", message:"NOTOK", result:"<error text>"}.
const (
	UpstreamStatusError  = "0"
	UpstreamMessageNotOK = "NOTOK"
)

// UpstreamEnvelope mirrors the upstream API response envelope. Result stays
// opaque: the gateway passes it through unchanged on success.
type UpstreamEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// IsError reports whether the envelope carries the upstream error sentinel.
func (e *UpstreamEnvelope) IsError() bool {
	return e.Status == UpstreamStatusError && e.Message == UpstreamMessageNotOK
}

// ErrorText extracts a printable error string from the envelope result.
func (e *UpstreamEnvelope) ErrorText() string {
	var text string
	if err := json.Unmarshal(e.Result, &text); err == nil {
		return text
	}
	return string(e.Result)
}

// ErrorEnvelope is the normalized failure shape surfaced to callers in place
// of any upstream error, transport or logical. Matches the upstream's own
// error envelope so clients handle one shape.
type ErrorEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// NewErrorEnvelope builds the normalized NOTOK envelope for an error text.
func NewErrorEnvelope(result string) *ErrorEnvelope {
	return &ErrorEnvelope{
		Status:  UpstreamStatusError,
		Message: UpstreamMessageNotOK,
		Result:  result,
	}
}

// ProxyResult is the tagged outcome of a gated fetch. Exactly one of Payload
// or Failure is set; callers never see a raw error cross this boundary.
type ProxyResult struct {
	Payload json.RawMessage
	Failure *ErrorEnvelope
	Cached  bool
}

// OK reports whether the fetch produced a usable payload.
func (r *ProxyResult) OK() bool {
	return r.Failure == nil
}
