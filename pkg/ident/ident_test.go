package ident

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "variable", "variable"},
		{"uppercase", "VARIABLE", "variable"},
		{"mixed case", "MyVariable", "myvariable"},
		{"camelCase", "myVariableName", "myvariablename"},
		{"PascalCase", "MyVariableName", "myvariablename"},
		{"with numbers", "Var123", "var123"},
		{"with underscores", "my_Var_Name", "my_var_name"},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMapCaseInsensitiveRoundTrip(t *testing.T) {
	m := NewMap[int]()
	m.Set("getValue", 1)

	if !m.Has("GETVALUE") {
		t.Fatal("expected case-insensitive hit on GETVALUE")
	}

	v, ok := m.Get("GetValue")
	if !ok || v != 1 {
		t.Fatalf("Get(GetValue) = %d, %v; want 1, true", v, ok)
	}

	if orig := m.OriginalCase("getvalue"); orig != "getValue" {
		t.Errorf("OriginalCase = %q, want %q", orig, "getValue")
	}

	m.Set("GETVALUE", 2)
	v, _ = m.Get("getvalue")
	if v != 2 {
		t.Errorf("overwrite failed: got %d, want 2", v)
	}
}

func TestMapDeleteAndKeys(t *testing.T) {
	m := NewMap[string]()
	m.Set("Alpha", "a")
	m.Set("Beta", "b")

	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}

	m.Delete("ALPHA")
	if m.Has("alpha") {
		t.Error("expected alpha to be deleted")
	}
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
}
