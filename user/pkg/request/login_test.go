package request

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoginMasksPassword(t *testing.T) {
	expectedMap := map[string]string{"email": "email", "password": "***"}
	expected, _ := json.Marshal(expectedMap)
	loginReq := Login{Email: "email", Password: "password"}

	actual, _ := json.Marshal(loginReq)

	assert.EqualValues(t, expected, actual)
	assert.EqualValues(t, "password", loginReq.Password)
}

func TestRegisterMasksPassword(t *testing.T) {
	expectedMap := map[string]string{
		"username": "user",
		"email":    "email",
		"password": "***",
	}
	expected, _ := json.Marshal(expectedMap)
	registerReq := Register{Username: "user", Email: "email", Password: "password"}

	actual, _ := json.Marshal(registerReq)

	assert.JSONEq(t, string(expected), string(actual))
	assert.EqualValues(t, "password", registerReq.Password)
}
