package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupBody struct {
	Username string `json:"username" validate:"notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type reviewBody struct {
	Rating     int    `json:"rating" validate:"required,gte=1,lte=5"`
	ReviewText string `json:"reviewText" validate:"notblank"`
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	return valErr.Fields()
}

func TestValidate_Success(t *testing.T) {
	err := Validate(signupBody{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	assert.NoError(t, err)
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	fields := fieldsOf(t, Validate(reviewBody{Rating: 3}))

	assert.Equal(t, "is required", fields["reviewText"])
	assert.NotContains(t, fields, "ReviewText")
}

func TestValidate_BlankUsernameRejected(t *testing.T) {
	fields := fieldsOf(t, Validate(signupBody{Username: "   ", Email: "a@b.co", Password: "secret1"}))

	assert.Equal(t, "is required", fields["username"])
}

func TestValidate_InvalidEmail(t *testing.T) {
	fields := fieldsOf(t, Validate(signupBody{Username: "alice", Email: "not-an-email", Password: "secret1"}))

	assert.Equal(t, "must be a valid email address", fields["email"])
}

func TestValidate_ShortPassword(t *testing.T) {
	fields := fieldsOf(t, Validate(signupBody{Username: "alice", Email: "a@b.co", Password: "12345"}))

	assert.Equal(t, "must be at least 6 characters long", fields["password"])
}

type passwordBody struct {
	Password string `json:"password" validate:"min=6,maxbytes=72"`
}

func TestValidate_MaxBytesCountsBytes(t *testing.T) {
	assert.NoError(t, Validate(passwordBody{Password: strings.Repeat("é", 36)}))
	assert.NoError(t, Validate(passwordBody{Password: strings.Repeat("a", 72)}))

	fields := fieldsOf(t, Validate(passwordBody{Password: strings.Repeat("é", 37)}))
	assert.Equal(t, "must be at most 72 bytes long", fields["password"])
}

func TestValidate_RatingOutOfRange(t *testing.T) {
	fields := fieldsOf(t, Validate(reviewBody{Rating: 6, ReviewText: "ok"}))
	assert.Equal(t, "must be less than or equal to 5", fields["rating"])

	fields = fieldsOf(t, Validate(reviewBody{Rating: 0, ReviewText: "ok"}))
	assert.Equal(t, "is required", fields["rating"])
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(reviewBody{Rating: 9})
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "rating must be less than or equal to 5")
	assert.Contains(t, msg, "reviewText is required")
}

func TestDecodeAndValidate_Success(t *testing.T) {
	body := `{"rating":4,"reviewText":"A classic"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var dst reviewBody
	err := DecodeAndValidate(httptest.NewRecorder(), req, &dst)

	require.NoError(t, err)
	assert.Equal(t, 4, dst.Rating)
	assert.Equal(t, "A classic", dst.ReviewText)
}

func TestDecodeAndValidate_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rating":`))

	var dst reviewBody
	err := DecodeAndValidate(httptest.NewRecorder(), req, &dst)

	var decErr *DecodeError
	assert.ErrorAs(t, err, &decErr)
}

func TestDecodeAndValidate_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))

	var dst reviewBody
	err := DecodeAndValidate(httptest.NewRecorder(), req, &dst)

	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Contains(t, err.Error(), "body is empty")
}

func TestDecodeAndValidate_TooLarge(t *testing.T) {
	big := `{"rating":4,"reviewText":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))

	var dst reviewBody
	err := DecodeAndValidate(httptest.NewRecorder(), req, &dst)

	var decErr *DecodeError
	assert.ErrorAs(t, err, &decErr)
}

func TestDecodeAndValidate_ValidationFailure(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rating":7,"reviewText":"x"}`))

	var dst reviewBody
	err := DecodeAndValidate(httptest.NewRecorder(), req, &dst)

	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
}
