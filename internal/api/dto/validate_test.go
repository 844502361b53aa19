package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/kaie-api/pkg/util/errorutil"
)

func TestStrongPassword(t *testing.T) {
	cases := map[string]bool{
		"Passw0rd!":                          true,
		"Password1":                          true,
		"Pass-word":                          true,
		"password1":                          false,
		"PASSWORD1":                          false,
		"Password":                           false,
		"Pa1!":                               false,
		"Aa1aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa": false,
	}
	for password, want := range cases {
		assert.Equal(t, want, StrongPassword(password), password)
	}
}

func TestValidateRegisterRequest(t *testing.T) {
	err := Validate(RegisterRequest{
		Email:           "alice@example.com",
		Password:        "Passw0rd!",
		ConfirmPassword: "different",
		Name:            "Alice",
	})
	assert.NoError(t, err, "confirmation mismatch is left to the service")

	err = Validate(RegisterRequest{Email: "not-an-email", Password: "weak", Name: "A"})
	require.Error(t, err)

	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidationFailed, domainErr.Code)
	assert.Contains(t, domainErr.Details, "email")
	assert.Contains(t, domainErr.Details, "password")
	assert.Contains(t, domainErr.Details, "confirm_password")
	assert.Contains(t, domainErr.Details, "name")
}

func TestAdminUpdateConversion(t *testing.T) {
	role := "admin"
	req := AdminUpdateUserRequest{Role: &role}
	require.NoError(t, Validate(req))

	update := req.ToAdminUpdate()
	require.NotNil(t, update.Role)
	assert.Equal(t, "admin", string(*update.Role))
	assert.Nil(t, update.Status)

	bad := "root"
	assert.Error(t, Validate(AdminUpdateUserRequest{Role: &bad}))
}
