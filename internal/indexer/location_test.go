package indexer

import "testing"

func TestLocationKey(t *testing.T) {
	loc := Location{Path: "/tmp/a.cpp", Offset: 42}

	if key := loc.Key(); key != "/tmp/a.cpp:42" {
		t.Errorf("unexpected key. want=%q have=%q", "/tmp/a.cpp:42", key)
	}
}

func TestParseLocation(t *testing.T) {
	loc, err := ParseLocation("/tmp/a.cpp:42")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	expected := Location{Path: "/tmp/a.cpp", Offset: 42}
	if loc != expected {
		t.Errorf("unexpected location. want=%v have=%v", expected, loc)
	}
}

func TestParseLocationMalformed(t *testing.T) {
	for _, key := range []string{"", "/tmp/a.cpp", "/tmp/a.cpp:x"} {
		if _, err := ParseLocation(key); err == nil {
			t.Errorf("expected error for %q", key)
		}
	}
}

func TestLocationIsNull(t *testing.T) {
	if !(Location{}).IsNull() {
		t.Errorf("zero location should be null")
	}
	if (Location{Path: "/tmp/a.cpp"}).IsNull() {
		t.Errorf("location with a path should not be null")
	}
}

func TestLocationTextRoundTrip(t *testing.T) {
	original := Location{Path: "/tmp/a.cpp", Offset: 7}

	text, err := original.MarshalText()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	var decoded Location
	if err := decoded.UnmarshalText(text); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if decoded != original {
		t.Errorf("unexpected location. want=%v have=%v", original, decoded)
	}
}

func TestCanonicalPathCleans(t *testing.T) {
	if path := canonicalPath("/tmp/../tmp/a.cpp"); path != "/tmp/a.cpp" {
		t.Errorf("unexpected path. want=%q have=%q", "/tmp/a.cpp", path)
	}
}
