package redact

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToken_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "short_fully_hidden", in: "A1", want: "[REDACTED_TOKEN]"},
		{name: "len_15_fully_hidden", in: "abcdefghijklmno", want: "[REDACTED_TOKEN]"},
		{name: "long_keeps_tail", in: "eyJhbGciOiJIUzI1NiJ9.payload.sig4", want: "[REDACTED_TOKEN]...sig4"},
		{name: "unicode_tail", in: "токен-обновления-ключ", want: "[REDACTED_TOKEN]...ключ"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Token(tt.in))
		})
	}
}

func TestAccount_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "nuban", in: "0123456789", want: "******6789"},
		{name: "exactly_4", in: "1234", want: "****"},
		{name: "empty", in: "", want: "****"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Account(tt.in))
		})
	}
}
