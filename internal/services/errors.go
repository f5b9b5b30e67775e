package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/edubot-backend/internal/platform/apierr"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

func notFound(code, what string) *apierr.Error {
	return apierr.New(http.StatusNotFound, code, fmt.Errorf("%s: %w", what, ErrNotFound))
}

func forbidden(code, what string) *apierr.Error {
	return apierr.New(http.StatusForbidden, code, fmt.Errorf("%s: %w", what, ErrForbidden))
}
