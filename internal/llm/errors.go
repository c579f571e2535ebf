package llm

import "fmt"

// APICallError represents a failed call to the model provider
type APICallError struct {
	Message string
	Cause   error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("API call failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("API call failed: %s", e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// ParseError represents a model reply that could not be turned into the requested shape
type ParseError struct {
	Task    string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse %s reply: %s: %v", e.Task, e.Message, e.Cause)
	}
	return fmt.Sprintf("parse %s reply: %s", e.Task, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
