package mathtext

import (
	"reflect"
	"regexp"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Segment
	}{
		{"empty", "", nil},
		{"plain only", "no math here", []Segment{{Plain, "no math here"}}},
		{
			"inline then block",
			"solve $x=1$ then $$y=2$$",
			[]Segment{{Plain, "solve "}, {Inline, "x=1"}, {Plain, " then "}, {Block, "y=2"}},
		},
		{"lone dollar", "costs $5", []Segment{{Plain, "costs $5"}}},
		{"empty inline", "a $$ b", []Segment{{Plain, "a $$ b"}}},
		{
			"unterminated block falls back to inline",
			"$$x$ rest",
			[]Segment{{Plain, "$"}, {Inline, "x"}, {Plain, " rest"}},
		},
		{
			"adjacent math",
			"$a$$b$",
			[]Segment{{Inline, "a"}, {Inline, "b"}},
		},
		{
			"whitespace preserved",
			"  $$\n\\int_0^1 x\\,dx\n$$  ",
			[]Segment{{Plain, "  "}, {Block, "\n\\int_0^1 x\\,dx\n"}, {Plain, "  "}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

var mathPattern = regexp.MustCompile(`\$\$[^$]+\$\$|\$[^$]+\$`)

// tokenizeWithRegexp is the reference split the state machine must agree with
func tokenizeWithRegexp(s string) []Segment {
	var segments []Segment
	last := 0
	for _, m := range mathPattern.FindAllStringIndex(s, -1) {
		if m[0] > last {
			segments = append(segments, Segment{Plain, s[last:m[0]]})
		}
		match := s[m[0]:m[1]]
		if strings.HasPrefix(match, "$$") {
			segments = append(segments, Segment{Block, match[2 : len(match)-2]})
		} else {
			segments = append(segments, Segment{Inline, match[1 : len(match)-1]})
		}
		last = m[1]
	}
	if last < len(s) {
		segments = append(segments, Segment{Plain, s[last:]})
	}
	return segments
}

var textGen = rapid.StringOfN(rapid.SampledFrom([]rune("ab $x\n\\")), 0, 40, -1)

func TestTokenize_MatchesRegexpSplit(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := textGen.Draw(t, "s")
		got := Tokenize(s)
		want := tokenizeWithRegexp(s)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("Tokenize(%q) = %v, regexp split = %v", s, got, want)
		}
	})
}

func TestTokenize_SourceRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := textGen.Draw(t, "s")
		segments := Tokenize(s)
		if got := Source(segments); got != s {
			t.Fatalf("Source(Tokenize(%q)) = %q", s, got)
		}
		for i := 1; i < len(segments); i++ {
			if segments[i].Kind == Plain && segments[i-1].Kind == Plain {
				t.Fatalf("adjacent plain segments in %v", segments)
			}
		}
	})
}

func TestKindString(t *testing.T) {
	if Plain.String() != "plain" || Inline.String() != "inline" || Block.String() != "block" {
		t.Error("unexpected kind names")
	}
}
