package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lessonlane/studio-manager/internal/entity"
	gerr "github.com/lessonlane/studio-manager/internal/errors"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", gerr.ErrEntryNotFound, http.StatusNotFound},
		{"invalid state", gerr.InvalidState("waiting", "enrolled"), http.StatusConflict},
		{"validation", &entity.ValidationError{Message: "bad input"}, http.StatusBadRequest},
		{"unauthenticated", status.Error(codes.Unauthenticated, "no token"), http.StatusUnauthorized},
		{"rate limited", gerr.MailApiLimitReached, http.StatusTooManyRequests},
		{"internal", assert.AnError, http.StatusInternalServerError},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/waitlist/1", nil)
			respondError(rec, req, c.err)
			assert.Equal(t, c.code, rec.Code)

			var body map[string]string
			assert.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestInternalErrorIsOpaque(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/waitlist", nil)
	respondError(rec, req, assert.AnError)

	var body map[string]string
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "internal error", body["error"])
}

func TestClaimInt(t *testing.T) {
	claims := map[string]interface{}{
		"float":  float64(7),
		"int64":  int64(8),
		"number": json.Number("9"),
		"string": "10",
		"junk":   []string{"nope"},
	}

	v, ok := claimInt(claims, "float")
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	v, ok = claimInt(claims, "int64")
	assert.True(t, ok)
	assert.Equal(t, 8, v)

	v, ok = claimInt(claims, "number")
	assert.True(t, ok)
	assert.Equal(t, 9, v)

	v, ok = claimInt(claims, "string")
	assert.True(t, ok)
	assert.Equal(t, 10, v)

	_, ok = claimInt(claims, "junk")
	assert.False(t, ok)

	_, ok = claimInt(claims, "missing")
	assert.False(t, ok)
}
