package parser

import (
	"reflect"
	"testing"
)

func TestExtractProfileHandles(t *testing.T) {
	hrefs := []string{
		"/alice",
		"/alice/status/123",
		"/bob",
		"/alice",
		"/carol/photo",
		"/dave/header_photo",
		"https://x.com/erin",
		"/home",
		"/with-dash",
		"relative",
		"/nested/path",
	}
	got := ExtractProfileHandles(hrefs)
	want := []string{"alice", "bob", "erin"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractProfileHandles() = %v, want %v", got, want)
	}
}

func TestFormatHandleList(t *testing.T) {
	if got := FormatHandleList([]string{"a", "b"}); got != "@a\n@b" {
		t.Fatalf("FormatHandleList() = %q", got)
	}
	if got := FormatHandleList(nil); got != "" {
		t.Fatalf("FormatHandleList(nil) = %q, want empty", got)
	}
}

func TestExtractedHandlesShareThePattern(t *testing.T) {
	text := FormatHandleList(ExtractProfileHandles([]string{"/x_1", "/y2"}))
	matches := HandlePattern.FindAllStringSubmatch(text, -1)
	if len(matches) != 2 || matches[0][1] != "x_1" || matches[1][1] != "y2" {
		t.Fatalf("formatted list did not round-trip through HandlePattern: %v", matches)
	}
}

func TestParseHandles(t *testing.T) {
	t.Run("extracted list round-trips", func(t *testing.T) {
		text := FormatHandleList(ExtractProfileHandles([]string{"/alice", "/bob", "/alice"}))
		got := ParseHandles(text)
		if len(got) != 2 || got[0].Handle != "alice" || got[0].DisplayName != "alice" || got[1].Handle != "bob" {
			t.Fatalf("unexpected participants %+v", got)
		}
	})

	t.Run("inline and reserved", func(t *testing.T) {
		got := ParseHandles("@one, @two @band_ads\n@one")
		var handles []string
		for _, p := range got {
			handles = append(handles, p.Handle)
		}
		if !reflect.DeepEqual(handles, []string{"one", "two"}) {
			t.Fatalf("handles = %v", handles)
		}
	})

	t.Run("nothing", func(t *testing.T) {
		if got := ParseHandles("no handles"); len(got) != 0 {
			t.Fatalf("expected none, got %+v", got)
		}
	})
}
