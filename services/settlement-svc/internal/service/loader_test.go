package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splitit/pkg/apperror"
	"splitit/pkg/domain"
)

func TestLoadPayments_Forms(t *testing.T) {
	want := []domain.Payment{
		{Name: "john", Paid: 40},
		{Name: "kate", Paid: 10},
		{Name: "ann", Paid: 10.5},
	}

	tests := []struct {
		name  string
		input string
	}{
		{
			name: "payments key",
			input: `
payments:
  - name: john
    paid: 40
  - name: kate
    paid: 10
  - name: ann
    paid: 10.5
`,
		},
		{
			name: "top level list",
			input: `
- {name: john, paid: 40}
- {name: kate, paid: 10}
- {name: ann, paid: 10.5}
`,
		},
		{
			name: "mapping keeps document order",
			input: `
john: 40
kate: 10
ann: 10.5
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadPayments(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadPayments_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  apperror.ErrorCode
	}{
		{"empty", "", apperror.CodeEmptyInput},
		{"scalar", "42", apperror.CodeInvalidArgument},
		{"broken yaml", "payments: [", apperror.CodeInvalidArgument},
		{"bad amount in mapping", "john: lots", apperror.CodeInvalidAmount},
		{"bad list item", "- {name: john, paid: lots}", apperror.CodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPayments(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Equal(t, tt.code, apperror.Code(err))
		})
	}
}

func TestLoadPaymentsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payments.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 0\nb: 50\nc: 100\n"), 0o600))

	got, err := LoadPaymentsFile(path)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, "c", got[2].Name)

	_, err = LoadPaymentsFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, apperror.CodeInvalidArgument, apperror.Code(err))
}

func TestParsePairs(t *testing.T) {
	got, err := ParsePairs([]string{"john=40", " kate = 10.5"})
	require.NoError(t, err)
	assert.Equal(t, []domain.Payment{
		{Name: "john", Paid: 40},
		{Name: "kate", Paid: 10.5},
	}, got)

	_, err = ParsePairs([]string{"john"})
	assert.Equal(t, apperror.CodeInvalidArgument, apperror.Code(err))

	_, err = ParsePairs([]string{"john=abc"})
	assert.Equal(t, apperror.CodeInvalidAmount, apperror.Code(err))
}
