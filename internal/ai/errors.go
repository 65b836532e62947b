package ai

import (
	"net/http"
	"strings"

	domainErrors "github.com/thomas-vilte/matebot/internal/errors"
)

// ClassifyError maps a provider failure to the AI error taxonomy. status is
// the HTTP status reported by the SDK, or 0 when it is unknown.
func ClassifyError(err error, status int, provider string) *domainErrors.AppError {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domainErrors.ErrAIKeyInvalid.WithError(err).WithContext("provider", provider)
	case http.StatusTooManyRequests:
		return domainErrors.ErrQuotaExceeded.WithError(err).WithContext("provider", provider)
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "quota") ||
		strings.Contains(errMsg, "rate limit") ||
		strings.Contains(errMsg, "resource exhausted") {
		return domainErrors.ErrQuotaExceeded.WithError(err).WithContext("provider", provider)
	}

	if strings.Contains(errMsg, "unauthorized") ||
		strings.Contains(errMsg, "api key") ||
		strings.Contains(errMsg, "authentication") {
		return domainErrors.ErrAIKeyInvalid.WithError(err).WithContext("provider", provider)
	}

	return domainErrors.ErrAIGeneration.WithError(err).WithContext("provider", provider)
}
