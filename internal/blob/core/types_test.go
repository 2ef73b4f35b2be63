package core

import (
	"errors"
	"testing"
)

func TestCleanKey(t *testing.T) {
	good := map[string]string{
		"images/a.jpg":        "images/a.jpg",
		"exports/x//data.csv": "exports/x/data.csv",
		"a/./b":               "a/b",
	}
	for in, want := range good {
		got, err := CleanKey(in)
		if err != nil || got != want {
			t.Fatalf("CleanKey(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, bad := range []string{"", "  ", "/etc/passwd", "../x", "a/../../b", `a\b`} {
		if _, err := CleanKey(bad); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("CleanKey(%q): expected ErrInvalidKey, got %v", bad, err)
		}
	}
}

func TestJoinURL(t *testing.T) {
	if got := JoinURL("", "images/a.jpg"); got != "/files/images/a.jpg" {
		t.Fatalf("unexpected default url %q", got)
	}
	if got := JoinURL("https://cdn.test/leaf/", "/images/a.jpg"); got != "https://cdn.test/leaf/images/a.jpg" {
		t.Fatalf("unexpected url %q", got)
	}
}
