package main

import (
	"fmt"
	"sort"
	"strings"

	apperrors "go-raffle-images/internal/errors"
)

// describeError renders err for the terminal, listing friendly field messages for validation failures
func describeError(err error) string {
	appErr, ok := apperrors.As(err)
	if !ok {
		return "Error: " + err.Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s", appErr.Message)
	if appErr.Type != apperrors.ErrorTypeValidation {
		return b.String()
	}

	fields := make([]string, 0, len(appErr.FriendlyErrors))
	for field := range appErr.FriendlyErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Fprintf(&b, "\n  %s: %s", field, appErr.FriendlyErrors[field])
	}
	return b.String()
}
