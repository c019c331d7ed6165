package service

import "net/http"

// Authorization error codes, distinct so clients can tell "log in" from
// "doesn't exist" from "not yours"
const (
	CodeIDRequired      = "ID_REQUIRED"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeNotFound        = "NOT_FOUND"
	CodeForbidden       = "FORBIDDEN"
)

// Validation error codes
const (
	CodeNameRequired = "NAME_REQUIRED"
	CodeNameTooLong  = "NAME_TOO_LONG"
)

// AuthzError is returned by the ownership gate
type AuthzError struct {
	Code    string
	Status  int
	Message string
}

func (e *AuthzError) Error() string {
	return e.Message
}

func errIDRequired() *AuthzError {
	return &AuthzError{Code: CodeIDRequired, Status: http.StatusBadRequest, Message: "image id is required"}
}

func errUnauthenticated() *AuthzError {
	return &AuthzError{Code: CodeUnauthenticated, Status: http.StatusUnauthorized, Message: "authentication required"}
}

func errNotFound() *AuthzError {
	return &AuthzError{Code: CodeNotFound, Status: http.StatusNotFound, Message: "image not found"}
}

func errForbidden() *AuthzError {
	return &AuthzError{Code: CodeForbidden, Status: http.StatusForbidden, Message: "image belongs to another identity"}
}

// ValidationError is returned for bad request input
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
