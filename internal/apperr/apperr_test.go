package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifiedStatuses(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusOf(Validation("bad input")))
	assert.Equal(t, http.StatusConflict, StatusOf(Conflict("duplicate")))
	assert.Equal(t, http.StatusUnauthorized, StatusOf(Unauthorized("no")))
	assert.Equal(t, http.StatusForbidden, StatusOf(Forbidden("no")))
	assert.Equal(t, http.StatusNotFound, StatusOf(NotFound("missing")))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(Dependency("db down", errors.New("x"))))
}

func TestUnclassifiedDefaultsTo500(t *testing.T) {
	err := errors.New("plain failure")
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
	assert.Equal(t, "internal server error", MessageOf(err))
}

func TestWrappedErrorKeepsClassification(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotFound("story not found"))
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
	assert.Equal(t, "story not found", MessageOf(err))
}

func TestDependencyKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Dependency("failed to load story", cause)
	assert.ErrorIs(t, err, cause)
	// the user-visible message never includes the cause
	assert.Equal(t, "failed to load story", MessageOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}
