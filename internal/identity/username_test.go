package identity

import "testing"

func TestUsername(t *testing.T) {
	cases := []struct {
		name, surname string
		want          string
	}{
		{"Mario", "Rossi", "m.rossi"},
		{"Álvaro", "O'Brien ", "a.obrien"},
		{"Chloé", "Dall’Ara", "c.dallara"},
		{"José", "De la Cruz", "j.delacruz"},
		{"anna", "BIANCHI", "a.bianchi"},
	}
	for _, c := range cases {
		if got := Username(c.name, c.surname); got != c.want {
			t.Fatalf("Username(%q, %q) = %q, want %q", c.name, c.surname, got, c.want)
		}
	}
}

func TestUsernameIdempotent(t *testing.T) {
	a := Username("Álvaro", "O'Brien")
	b := Username("Álvaro", "O'Brien")
	if a != b {
		t.Fatalf("derivation not deterministic: %q vs %q", a, b)
	}
}

func TestDedupe(t *testing.T) {
	reserved := []string{"admin", "segreteria"}

	if got := Dedupe("m.rossi", 7, reserved); got != "m.rossi" {
		t.Fatalf("no collision expected, got %q", got)
	}
	if got := Dedupe("admin", 7, reserved); got != "admin.7" {
		t.Fatalf("want admin.7, got %q", got)
	}
	if got := Dedupe("Admin", 7, reserved); got != "Admin.7" {
		t.Fatalf("reserved match must be case-insensitive, got %q", got)
	}
}
