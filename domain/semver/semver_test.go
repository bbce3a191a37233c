package semver

import "testing"

func TestNext(t *testing.T) {
	tests := []struct {
		current string
		bump    BumpType
		want    string
	}{
		{"", BumpMajor, "1.0.0"},
		{"", BumpPatch, "1.0.0"},
		{"1.0.0", BumpMajor, "2.0.0"},
		{"1.2.3", BumpMajor, "2.0.0"},
		{"1.2.3", BumpMinor, "1.3.0"},
		{"1.2.3", BumpPatch, "1.2.4"},
		{"0.9.9", BumpMinor, "0.10.0"},
	}

	for _, tt := range tests {
		got, err := Next(tt.current, tt.bump)
		if err != nil {
			t.Fatalf("Next(%q, %q) failed: %v", tt.current, tt.bump, err)
		}
		if got != tt.want {
			t.Errorf("Next(%q, %q) = %q, want %q", tt.current, tt.bump, got, tt.want)
		}
	}
}

func TestNextInvalid(t *testing.T) {
	if _, err := Next("not-a-version", BumpMinor); err == nil {
		t.Error("expected error for malformed version")
	}
	if _, err := Next("1.2.3", BumpType("huge")); err == nil {
		t.Error("expected error for unknown bump type")
	}
}

func TestParseBumpType(t *testing.T) {
	if _, err := ParseBumpType("nope"); err == nil {
		t.Error("expected error for invalid bump type")
	}

	bt, err := ParseBumpType("")
	if err != nil {
		t.Fatalf("ParseBumpType(\"\") failed: %v", err)
	}
	if bt != BumpMinor {
		t.Errorf("expected empty bump type to default to minor, got %q", bt)
	}

	for _, s := range []string{"major", "minor", "patch"} {
		if _, err := ParseBumpType(s); err != nil {
			t.Errorf("ParseBumpType(%q) failed: %v", s, err)
		}
	}
}

func TestParts(t *testing.T) {
	major, minor, patch, err := Parts("3.14.159")
	if err != nil {
		t.Fatalf("Parts failed: %v", err)
	}
	if major != 3 || minor != 14 || patch != 159 {
		t.Errorf("Parts(3.14.159) = %d.%d.%d", major, minor, patch)
	}
}

func TestLessThan(t *testing.T) {
	less, err := LessThan("1.9.0", "1.10.0")
	if err != nil {
		t.Fatalf("LessThan failed: %v", err)
	}
	if !less {
		t.Error("expected 1.9.0 < 1.10.0 under semver ordering")
	}
}
