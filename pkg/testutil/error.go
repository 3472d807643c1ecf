package testutil

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorResponse verifies that the recorded response is a failed JSON API
// response with the provided status code, and returns its error message.
func AssertErrorResponse(t *testing.T, recorder *httptest.ResponseRecorder, statusCode int) string {
	require.Equal(t, statusCode, recorder.Code)

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.NotEmpty(t, body.Error)
	return body.Error
}
