package component

import "testing"

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("2.13.4")
	if err != nil {
		t.Fatalf("ParseVersion() error = %v", err)
	}
	if v.Major != 2 || v.Minor != 13 || v.Patch != 4 {
		t.Errorf("ParseVersion() = %+v", v)
	}

	for _, bad := range []string{"", "1.2", "1.2.3.4", "a.b.c", "1.-2.3"} {
		if _, err := ParseVersion(bad); err == nil {
			t.Errorf("ParseVersion(%q) expected error", bad)
		}
	}
}

func TestVersionKeyRoundTrip(t *testing.T) {
	v := Version{Major: 1, Minor: 2, Patch: 3}
	if v.Key() != "1_2_3" {
		t.Errorf("Key() = %q", v.Key())
	}

	parsed, err := ParseVersionKey("1_2_3")
	if err != nil {
		t.Fatalf("ParseVersionKey() error = %v", err)
	}
	if parsed != v {
		t.Errorf("ParseVersionKey() = %+v, want %+v", parsed, v)
	}
}

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "1.0.1", -1},
		{"1.1.0", "1.0.9", 1},
		{"2.0.0", "1.9.9", 1},
	}

	for _, tt := range tests {
		a, _ := ParseVersion(tt.a)
		b, _ := ParseVersion(tt.b)
		if got := a.Compare(b); got != tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestBumpApply(t *testing.T) {
	v := Version{Major: 1, Minor: 2, Patch: 3}

	if got := BumpPatch.Apply(v); got.String() != "1.2.4" {
		t.Errorf("patch bump = %s", got)
	}
	if got := BumpMinor.Apply(v); got.String() != "1.3.0" {
		t.Errorf("minor bump = %s", got)
	}
	if got := BumpMajor.Apply(v); got.String() != "2.0.0" {
		t.Errorf("major bump = %s", got)
	}
}
