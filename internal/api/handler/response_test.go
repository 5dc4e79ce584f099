package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/timmy/r2gate/internal/domain"
	"github.com/timmy/r2gate/internal/service"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"missing file", fmt.Errorf("%w: no file", domain.ErrMissingFile), http.StatusBadRequest, "MISSING_FILE"},
		{"missing key", domain.ErrMissingKey, http.StatusBadRequest, "MISSING_KEY"},
		{"invalid parameter", fmt.Errorf("%w: maxKeys", domain.ErrInvalidParameter), http.StatusBadRequest, "INVALID_PARAMETER"},
		{"too large", domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{"not found", fmt.Errorf("%w: %w", service.ErrDownload, domain.ErrObjectNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"unreadable upload", fmt.Errorf("%w: %w", ErrReadUpload, errors.New("read /tmp/multipart-1: input/output error")), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"storage", fmt.Errorf("%w: %w", service.ErrList, errors.New("boom")), http.StatusBadGateway, "STORAGE_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := MapError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}
