package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginPayload struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestValidateUsesJSONFieldNames(t *testing.T) {
	err := Validate(NewValidator(), loginPayload{Login: "alice", Password: "short"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "password must satisfy min=8")

	assert.NoError(t, Validate(NewValidator(), loginPayload{Login: "alice", Password: "long-enough"}))
}

func TestBind(t *testing.T) {
	v := NewValidator()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"login":"alice","password":"long-enough"}`))
	rr := httptest.NewRecorder()
	var ok loginPayload
	require.True(t, Bind(rr, req, v, &ok))
	assert.Equal(t, "alice", ok.Login)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"login":"alice","extra":1}`))
	rr = httptest.NewRecorder()
	assert.False(t, Bind(rr, req, v, &loginPayload{}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"message":"Malformed request body"}`, rr.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"login":""}`))
	rr = httptest.NewRecorder()
	assert.False(t, Bind(rr, req, v, &loginPayload{}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "login must satisfy required")
}
