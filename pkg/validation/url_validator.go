package validation

import (
	"net/url"
	"strings"

	apperrors "go-raffle-images/internal/errors"
)

// URLValidator checks the service endpoints named in configuration
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURLValidator accepts any http or https endpoint
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{"http", "https"},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewURLValidatorWithOptions creates a URL validator with custom options
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateEndpoint checks an absolute base URL such as API_BASE_URL or PUBLIC_BASE_URL.
// Query strings and fragments are rejected since paths are appended to the base.
func (v *URLValidator) ValidateEndpoint(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return apperrors.NewInvalidInputError("URL cannot be empty", raw)
	}

	parsedURL, err := url.Parse(raw)
	if err != nil {
		return apperrors.NewInvalidInputError("Invalid URL format", err.Error())
	}

	if !v.isSchemeAllowed(parsedURL.Scheme) {
		return apperrors.NewInvalidInputError("URL scheme not allowed", parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return apperrors.NewInvalidInputError("URL must have a valid host", raw)
	}

	if !v.isHostAllowed(parsedURL.Hostname()) {
		return apperrors.NewInvalidInputError("URL host not allowed", parsedURL.Hostname())
	}

	if parsedURL.RawQuery != "" || parsedURL.Fragment != "" {
		return apperrors.NewInvalidInputError("Base URL cannot carry a query or fragment", raw)
	}

	return nil
}

func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}

// isHostAllowed returns true if no host restrictions are set
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if strings.EqualFold(host, allowed) {
			return true
		}
	}
	return false
}
