package valueobjects

import "testing"

func TestNewRoleName(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
		valid    bool
	}{
		{"patient", "patient", true},
		{"Pharmacist", "pharmacist", true},
		{" night_nurse ", "night_nurse", true},
		{"lab2", "lab2", true},
		{"a", "", false},
		{"2fa", "", false},
		{"with-dash", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			name, err := NewRoleName(tt.raw)
			if tt.valid != (err == nil) {
				t.Fatalf("NewRoleName(%q) erro = %v, esperava válido = %v", tt.raw, err, tt.valid)
			}
			if tt.valid && name.String() != tt.expected {
				t.Errorf("esperava %q, obteve %q", tt.expected, name.String())
			}
		})
	}
}

func TestNormalizeRoleNames(t *testing.T) {
	names, err := NormalizeRoleNames([]string{"Patient", "pharmacist", "PATIENT"})
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if len(names) != 2 || names[0].String() != "patient" || names[1].String() != "pharmacist" {
		t.Errorf("resultado inesperado: %v", names)
	}

	if _, err := NormalizeRoleNames([]string{"ok_role", "bad role"}); err == nil {
		t.Error("esperava erro para nome inválido")
	}
}
