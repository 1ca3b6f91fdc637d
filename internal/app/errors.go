package app

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"openspaces/api/internal/auth"
	"openspaces/api/internal/ideas"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, ideas.ErrValidation) {
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil
	}
	if errors.Is(err, ideas.ErrNotFound) {
		return http.StatusNotFound, "NOT_FOUND", "Idea not found", nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, auth.ErrInvalidToken) {
		return http.StatusBadRequest, "VALIDATION_ERROR", "Invalid or expired token", nil
	}
	if errors.Is(err, auth.ErrDuplicateUser) {
		return http.StatusConflict, "CONFLICT", "User with this email already exists", nil
	}
	if errors.Is(err, auth.ErrInvalidRole) {
		return http.StatusBadRequest, "VALIDATION_ERROR", "Invalid role specified", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
