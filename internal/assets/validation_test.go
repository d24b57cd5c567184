package assets

import (
	"errors"
	"testing"
)

func TestValidateAssetName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		wantErr bool
	}{
		{input: "paper"},
		{input: "my-style"},
		{input: "my_style2"},
		{input: "", wantErr: true},
		{input: "path/to/style", wantErr: true},
		{input: "path\\to\\style", wantErr: true},
		{input: "../secret", wantErr: true},
		{input: "style.css", wantErr: true},
		{input: ".hidden", wantErr: true},
		{input: "..", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			err := ValidateAssetName(tt.input)
			if tt.wantErr != errors.Is(err, ErrInvalidAssetName) {
				t.Errorf("ValidateAssetName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateAssetName(%q) unexpected error %v", tt.input, err)
			}
		})
	}
}
