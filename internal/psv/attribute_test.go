package psv

import (
	"strings"
	"testing"
)

func TestExtractAttributeID(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		want      string
		wantFound bool
	}{
		{"plain", "#people", "people", true},
		{"leading spaces", "   #people", "people", true},
		{"stops at space", "#people .wide", "people", true},
		{"stops at brace", "#people}", "people", true},
		{"class first", ".wide #people", "", false},
		{"no hash", "people", "", false},
		{"empty id", "#", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ExtractAttributeID(tt.content)
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if got.String() != tt.want {
				t.Fatalf("id = %q, want %q", got.String(), tt.want)
			}
		})
	}
}

func TestExtractAttributeIDTruncates(t *testing.T) {
	long := strings.Repeat("x", MaxIDLen+20)
	got, found := ExtractAttributeID("#" + long)
	if !found {
		t.Fatal("expected id to be found")
	}
	if len(got.String()) != MaxIDLen {
		t.Fatalf("len = %d, want %d", len(got.String()), MaxIDLen)
	}
	if !got.Truncated() {
		t.Fatal("expected truncation flag")
	}
}

func TestNewBoundedStringKeepsRunes(t *testing.T) {
	// "é" is two bytes; a bound of 2 must not split it.
	got := NewBoundedString("aé", 2)
	if got.String() != "a" {
		t.Fatalf("got %q, want %q", got.String(), "a")
	}
	if !got.Truncated() {
		t.Fatal("expected truncation flag")
	}

	untouched := NewBoundedString("short", 10)
	if untouched.Truncated() || untouched.String() != "short" {
		t.Fatalf("unexpected %+v", untouched)
	}
}

func TestParseAttributeLine(t *testing.T) {
	tests := []struct {
		line       string
		want       string
		wantFound  bool
		wantClosed bool
	}{
		{"{#people}", "people", true, true},
		{"{ #people .cls }", "people", true, true},
		{"{#people", "", false, false},
		{"{.cls}", "", false, true},
		{"| a |", "", false, false},
	}

	for _, tt := range tests {
		id, found, closed := ParseAttributeLine(tt.line)
		if id.String() != tt.want || found != tt.wantFound || closed != tt.wantClosed {
			t.Errorf("ParseAttributeLine(%q) = (%q, %v, %v), want (%q, %v, %v)",
				tt.line, id.String(), found, closed, tt.want, tt.wantFound, tt.wantClosed)
		}
	}
}

func TestSplitInlineAttribute(t *testing.T) {
	id, ok := SplitInlineAttribute("Full Name {#name}")
	if !ok || id.String() != "name" {
		t.Fatalf("got (%q, %v)", id.String(), ok)
	}

	if _, ok := SplitInlineAttribute("Full Name"); ok {
		t.Fatal("expected no inline attribute")
	}
	if _, ok := SplitInlineAttribute("Broken {#name"); ok {
		t.Fatal("expected unclosed block to be ignored")
	}
}
