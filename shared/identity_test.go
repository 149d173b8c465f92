package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalUserID(t *testing.T) {
	cases := []struct {
		name  string
		email string
		want  string
	}{
		{"plain address", "alice@example.com", "alice@example_com"},
		{"case folded", "Alice@Example.COM", "alice@example_com"},
		{"dotted local part", "john.doe@mail.com", "john_doe@mail_com"},
		{"surrounding whitespace", "  bob@example.com \n", "bob@example_com"},
		{"forbidden key characters", "a#b$c[d]e/f@x.io", "a_b_c_d_e_f@x_io"},
		{"empty input", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, CanonicalUserID(tc.email))
		})
	}
}

func TestCanonicalUserIDIsStable(t *testing.T) {
	// The same mailbox always resolves to the same key, however it is typed.
	variants := []string{
		"Jane.Roe@Example.com",
		"jane.roe@example.com",
		" JANE.ROE@EXAMPLE.COM ",
	}
	for _, v := range variants {
		require.Equal(t, "jane_roe@example_com", CanonicalUserID(v))
	}
}
