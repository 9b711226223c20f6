package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUserCode(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{name: "display format", code: "WBCD-GHJK"},
		{name: "bare format", code: "WBCDGHJK"},
		{name: "lower case accepted", code: "wbcd-ghjk"},
		{name: "surrounding whitespace trimmed", code: "  WBCD-GHJK  "},
		{name: "empty", code: "", wantErr: true},
		{name: "whitespace only", code: "   ", wantErr: true},
		{name: "too short", code: "WBCD-GHJ", wantErr: true},
		{name: "too long", code: "WBCD-GHJKL", wantErr: true},
		{name: "vowel outside charset", code: "ABCD-GHJK", wantErr: true},
		{name: "digits outside charset", code: "1234-5678", wantErr: true},
		{name: "separator misplaced", code: "WBC-DGHJK", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUserCode(tt.code)
			if tt.wantErr {
				assert.Error(t, err)
				var verr *Error
				assert.ErrorAs(t, err, &verr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"WBCD-GHJK", "WBCDGHJK"},
		{"wbcd-ghjk", "WBCDGHJK"},
		{" WBCDGHJK ", "WBCDGHJK"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCode(tt.in), "input %q", tt.in)
	}
}

func TestFormatCode(t *testing.T) {
	assert.Equal(t, "WBCD-GHJK", FormatCode("WBCDGHJK"))
	// Codes of unexpected length pass through untouched.
	assert.Equal(t, "WBC", FormatCode("WBC"))
}
