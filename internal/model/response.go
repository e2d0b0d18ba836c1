package model

// ListResponse is the standard envelope for list endpoints, wrapping results
// in a "resource" array with a count.
type ListResponse[T any] struct {
	Resource []T          `json:"resource"`
	Meta     ResponseMeta `json:"meta"`
}

// ResponseMeta carries list metadata.
type ResponseMeta struct {
	Count int `json:"count"`
}

// NewListResponse wraps items, replacing a nil slice with an empty one so
// clients always receive an array.
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Resource: items, Meta: ResponseMeta{Count: len(items)}}
}

// ErrorResponse is the standard envelope for error responses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the structured error information returned by the API.
type ErrorDetail struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}
