package parser

import (
	"reflect"
	"testing"

	"raffle/internal/models"
)

const sampleFeed = `Alice Kim
@alice_k
나를 팔로우합니다
Bob
@bob99
https://x.com/bob99/status/1
Carol
Dave
@dave
@alice_k
Eve
@band_promo
@eve
`

func TestParse(t *testing.T) {
	got := Parse(sampleFeed)
	want := []models.Participant{
		{Handle: "alice_k", DisplayName: "Alice Kim"},
		{Handle: "bob99", DisplayName: "Bob"},
		{Handle: "dave", DisplayName: "Dave"},
		{Handle: "eve", DisplayName: "Eve"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Parse() = %+v, want %+v", got, want)
	}
}

func TestParse_IsDeterministic(t *testing.T) {
	first := Parse(sampleFeed)
	second := Parse(sampleFeed)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Parse is not stable across calls: %+v vs %+v", first, second)
	}
}

func TestParse_LookbackKeepsOnlyLatestLine(t *testing.T) {
	got := Parse("Alice\nBob\n@carol")
	want := []models.Participant{{Handle: "carol", DisplayName: "Bob"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Parse() = %+v, want %+v", got, want)
	}
}

func TestParse_Boilerplate(t *testing.T) {
	t.Run("system phrase never becomes a display name", func(t *testing.T) {
		got := Parse("Real Name\nFollows you\n@real")
		if len(got) != 1 || got[0].DisplayName != "Real Name" {
			t.Fatalf("expected display name to survive boilerplate, got %+v", got)
		}
	})

	t.Run("system phrase with a handle is not a handle source", func(t *testing.T) {
		got := Parse("Someone\n나를 팔로우합니다 @ghost")
		if len(got) != 0 {
			t.Fatalf("expected no participants, got %+v", got)
		}
	})

	t.Run("url lines are skipped", func(t *testing.T) {
		got := Parse("Name\nsee https://example.com/@spam\n@legit")
		want := []models.Participant{{Handle: "legit", DisplayName: "Name"}}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("Parse() = %+v, want %+v", got, want)
		}
	})

	t.Run("reserved prefix is skipped", func(t *testing.T) {
		got := Parse("Ad\n@band_official")
		if len(got) != 0 {
			t.Fatalf("expected reserved account to be skipped, got %+v", got)
		}
	})
}

func TestParse_EdgeCases(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty input", "", 0},
		{"only whitespace", "  \n\t\n", 0},
		{"handle without display name is dropped", "@orphan", 0},
		{"duplicate handle keeps first", "A\n@x\nB\n@x", 1},
		{"handle in the middle of a line", "Name\nReposted by @mid today", 1},
		{"crlf line endings", "Name\r\n@crlf\r\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in)
			if len(got) != tt.want {
				t.Fatalf("Parse(%q) returned %d participants, want %d: %+v", tt.in, len(got), tt.want, got)
			}
		})
	}
}

func TestParse_NoDuplicateHandles(t *testing.T) {
	in := "A\n@same\nB\n@same\nC\n@other\nD\n@same\nE\n@other"
	seen := map[string]bool{}
	for _, p := range Parse(in) {
		if seen[p.Handle] {
			t.Fatalf("duplicate handle %q in output", p.Handle)
		}
		seen[p.Handle] = true
	}
}

func TestParse_DuplicateDoesNotConsumeName(t *testing.T) {
	got := Parse("A\n@x\nB\n@x\n@y")
	want := []models.Participant{
		{Handle: "x", DisplayName: "A"},
		{Handle: "y", DisplayName: "B"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Parse() = %+v, want %+v", got, want)
	}
}

func TestNormalizeHandle(t *testing.T) {
	tests := map[string]string{
		"@alice":   "alice",
		"  bob ":   "bob",
		" @c_d_1 ": "c_d_1",
		"":         "",
	}
	for in, want := range tests {
		if got := NormalizeHandle(in); got != want {
			t.Errorf("NormalizeHandle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidHandle(t *testing.T) {
	for _, ok := range []string{"a", "A_1", "winterwolf0412"} {
		if !ValidHandle(ok) {
			t.Errorf("ValidHandle(%q) = false", ok)
		}
	}
	for _, bad := range []string{"", "@a", "a b", "한글", "a-b"} {
		if ValidHandle(bad) {
			t.Errorf("ValidHandle(%q) = true", bad)
		}
	}
}
