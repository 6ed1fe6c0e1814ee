package types

import "fmt"

// RequestError carries an HTTP status through the handler chain to the
// global Fiber error handler.
type RequestError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}
