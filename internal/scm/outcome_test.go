package scm

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/rd-cli/internal/client"
)

func response(code int, body string) *client.Response {
	return &client.Response{
		StatusCode: code,
		Status:     http.StatusText(code),
		Body:       []byte(body),
	}
}

func TestDecodeOutcome_OK(t *testing.T) {
	out, err := DecodeOutcome(response(200, `{"success":true,"message":"done","nextAction":"commit"}`), "Action commit")
	require.NoError(t, err)

	assert.Equal(t, OutcomeOK, out.Kind)
	assert.True(t, out.Succeeded())
	assert.Equal(t, "done", out.Result.Message)
	assert.Equal(t, "commit", out.Result.NextAction)
}

func TestDecodeOutcome_OKButUnsuccessful(t *testing.T) {
	out, err := DecodeOutcome(response(200, `{"success":false}`), "Action commit")
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, out.Kind)
	assert.False(t, out.Succeeded())
}

func TestDecodeOutcome_Validation(t *testing.T) {
	body := `{"success":false,"message":"Some input values were not valid.",
		"validationErrors":{"message":"required"},"extra":42}`

	out, err := DecodeOutcome(response(400, body), "Action commit")
	require.NoError(t, err, "validation is not a transport error")

	assert.Equal(t, OutcomeValidation, out.Kind)
	assert.False(t, out.Succeeded())
	assert.Equal(t, "Some input values were not valid.", out.Result.Message)
	assert.Equal(t, map[string]string{"message": "required"}, out.Result.ValidationErrors)
	assert.Equal(t, float64(42), out.Body["extra"], "extra fields kept for rendering")
}

func TestDecodeOutcome_ValidationUndecodable(t *testing.T) {
	for _, body := range []string{"<html>oops</html>", "", "null", `["a"]`} {
		_, err := DecodeOutcome(response(400, body), "Action commit")
		require.Error(t, err, body)

		assert.ErrorIs(t, err, ErrValidationBody)
		var apiErr *client.Error
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, 400, apiErr.StatusCode)
		assert.Equal(t, "Bad Request", apiErr.Message)
		assert.Contains(t, err.Error(), "Action commit failed")
	}
}

func TestDecodeOutcome_OtherNon2xx(t *testing.T) {
	_, err := DecodeOutcome(response(500, `{"success":false,"message":"boom"}`), "Setup")
	require.Error(t, err)

	assert.NotErrorIs(t, err, ErrValidationBody)
	assert.Equal(t, 500, client.StatusCode(err))
}

func TestDecodeOutcome_OKUndecodable(t *testing.T) {
	_, err := DecodeOutcome(response(200, "ok"), "Setup")
	assert.ErrorIs(t, err, client.ErrDecode)
}

func TestOutcomeKind_String(t *testing.T) {
	assert.Equal(t, "ok", OutcomeOK.String())
	assert.Equal(t, "validation", OutcomeValidation.String())
}
