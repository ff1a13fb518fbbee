package jsonrpc

// Response represents a JSON-RPC response object. Exactly one of Result
// and Error is set; the id echoes the request's id, or is null when that
// id could not be determined.
type Response struct {
	Version string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      ID          `json:"id"`
}

// NewResponse creates a response for the given request id. An id that is
// not a string or number collapses to the null id.
func NewResponse(id interface{}, result interface{}, err *Error) Response {
	respID, _ := NewID(id)

	return Response{
		Version: Version,
		ID:      respID,
		Result:  result,
		Error:   err,
	}
}
