package testkit

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode checks the response code.
func AssertStatusCode(t *testing.T, s *Scenario, got int) {
	t.Helper()
	assert.Equal(t, s.ExpectedCode, got, "[%s] HTTP status code mismatch", s.Name)
}

// AssertHeaders checks every header named in ExpectedHeaders.
func AssertHeaders(t *testing.T, s *Scenario, got http.Header) {
	t.Helper()
	for k, v := range s.ExpectedHeaders {
		assert.Equal(t, v, got.Get(k), "[%s] header %s mismatch", s.Name, k)
	}
}

// AssertJSONBody compares both bodies after decoding, so key order and
// whitespace never matter.
func AssertJSONBody(t *testing.T, s *Scenario, expected, actual []byte) {
	t.Helper()
	if len(expected) == 0 {
		return
	}

	var expVal, actVal any
	require.NoError(t, json.Unmarshal(expected, &expVal),
		"[%s] expected response file is not valid JSON", s.Name)

	if !assert.NoError(t, json.Unmarshal(actual, &actVal),
		"[%s] actual response is not valid JSON\nbody: %s", s.Name, string(actual)) {
		return
	}

	assert.Equal(t, expVal, actVal, "[%s] response body mismatch", s.Name)
}

// AssertEmptyBody fails if the response carried any bytes.
func AssertEmptyBody(t *testing.T, s *Scenario, actual []byte) {
	t.Helper()
	assert.Empty(t, actual, "[%s] expected an empty body", s.Name)
}

// AssertBodyContains checks each BodyContains fragment.
func AssertBodyContains(t *testing.T, s *Scenario, body string) {
	t.Helper()
	for _, frag := range s.BodyContains {
		assert.Contains(t, body, frag, "[%s] body fragment missing", s.Name)
	}
}
