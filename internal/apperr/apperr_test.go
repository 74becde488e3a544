package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"taskmail/internal/apperr"
)

func TestStatusFromTypedError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, apperr.Status(apperr.BadRequest("bad")))
	assert.Equal(t, http.StatusBadRequest, apperr.Status(apperr.Conflict("dup")))
	assert.Equal(t, http.StatusUnauthorized, apperr.Status(apperr.Unauthorized("no")))
	assert.Equal(t, http.StatusForbidden, apperr.Status(apperr.Forbidden("nope")))
	assert.Equal(t, http.StatusNotFound, apperr.Status(apperr.NotFound("gone")))
	assert.Equal(t, http.StatusInternalServerError, apperr.Status(apperr.Internal("boom")))
}

func TestStatusDefaultsTo500(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, apperr.Status(errors.New("raw")))
}

func TestStatusSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("handling request: %w", apperr.NotFound("item not found"))
	assert.Equal(t, http.StatusNotFound, apperr.Status(err))
	assert.Equal(t, "handling request: item not found", err.Error())
}
