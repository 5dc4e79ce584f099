package handler

import (
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/r2gate/internal/domain"
)

func TestReadUpload_FailureIsServerSide(t *testing.T) {
	// No in-memory content and no temp file behind it.
	_, err := readUpload(&multipart.FileHeader{Filename: "lost.bin"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReadUpload)
	assert.NotErrorIs(t, err, domain.ErrMissingFile)

	status, code := MapError(err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", code)
}
