// AngelaMos | 2026
// subdomain_test.go

package tenant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSubdomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"City Pharmacy!", "city-pharmacy"},
		{"City-Pharmacy", "city-pharmacy"},
		{"  Green   Cross  ", "green-cross"},
		{"--a--b--", "a-b"},
		{"Café 24/7", "caf-247"},
		{"UPPER_case", "uppercase"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSubdomain(tt.in))
		})
	}
}

func TestValidateSubdomain(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr error
	}{
		{name: "ok", in: "city-pharmacy"},
		{name: "min length", in: "abc"},
		{name: "too short", in: "ab", wantErr: ErrInvalidSubdomain},
		{name: "too long", in: strings.Repeat("a", 51), wantErr: ErrInvalidSubdomain},
		{name: "leading hyphen", in: "-abc", wantErr: ErrInvalidSubdomain},
		{name: "double hyphen", in: "ab--cd", wantErr: ErrInvalidSubdomain},
		{name: "uppercase", in: "Abc", wantErr: ErrInvalidSubdomain},
		{name: "reserved", in: "admin", wantErr: ErrReservedSubdomain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSubdomain(tt.in)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNormalizedOutputValidates(t *testing.T) {
	for _, raw := range []string{"City Pharmacy!", "  North   Side Drugs ", "A-1 Meds"} {
		assert.NoError(t, ValidateSubdomain(NormalizeSubdomain(raw)), raw)
	}
}
