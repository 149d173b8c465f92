package dto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStrongPasswordValidation(t *testing.T) {
	cases := []struct {
		password string
		valid    bool
	}{
		{"SecurePass123", true},
		{"Aa1bbbbb", true},
		{"short1A", false},
		{"alllowercase1", false},
		{"ALLUPPERCASE1", false},
		{"NoNumbersHere", false},
		{"", false},
	}

	for _, tc := range cases {
		err := RegisterRequest{
			Email:    "x@example.com",
			Name:     "Test User",
			Password: tc.password,
		}.Validate()
		if tc.valid {
			require.NoError(t, err, "password %q should pass", tc.password)
		} else {
			require.Error(t, err, "password %q should fail", tc.password)
		}
	}
}

func TestPlanIDValidation(t *testing.T) {
	require.NoError(t, CheckoutRequest{PlanID: "yearly"}.Validate())
	require.NoError(t, CheckoutRequest{PlanID: "lifetime"}.Validate())
	require.Error(t, CheckoutRequest{PlanID: "weekly"}.Validate())
	require.Error(t, CheckoutRequest{}.Validate())
}

func TestCreateValidationErrorResponse(t *testing.T) {
	err := RegisterRequest{Email: "not-an-email", Password: "weak"}.Validate()
	require.Error(t, err)

	res := CreateValidationErrorResponse(err)
	require.Equal(t, 400, res.Code)
	require.Equal(t, "Validation failed", res.Message)
	require.NotEmpty(t, res.Errors)

	fields := map[string]bool{}
	for _, fe := range res.Errors {
		fields[fe.Field] = true
	}
	require.True(t, fields["Email"])
	require.True(t, fields["Password"])
}
