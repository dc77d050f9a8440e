package cmd

import "testing"

func TestValidatePostprocessResetFlags(t *testing.T) {
	tests := []struct {
		name    string
		rules   []string
		force   bool
		wantErr bool
	}{
		{"no rules resets stuck documents without -f", nil, false, false},
		{"rules without -f is refused", []string{"agenda_en_html"}, false, true},
		{"rules with -f is allowed", []string{"agenda_en_html"}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePostprocessResetFlags(tt.rules, tt.force)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePostprocessResetFlags(%v, %v) error = %v, wantErr %v", tt.rules, tt.force, err, tt.wantErr)
			}
		})
	}
}
