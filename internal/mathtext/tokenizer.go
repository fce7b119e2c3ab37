// Package mathtext splits model output into plain text and $-delimited LaTeX segments.
package mathtext

// Kind classifies a segment
type Kind int

const (
	Plain Kind = iota
	Inline
	Block
)

func (k Kind) String() string {
	switch k {
	case Inline:
		return "inline"
	case Block:
		return "block"
	default:
		return "plain"
	}
}

// Segment is a run of text. For Inline and Block, Text is the LaTeX source without delimiters.
type Segment struct {
	Kind Kind
	Text string
}

type state int

const (
	statePlain state = iota
	stateInline
	stateBlock
)

// Tokenize splits s into segments. At every '$' a block "$$...$$" is tried first, then an
// inline "$...$"; math bodies must be non-empty and contain no '$'. A '$' that opens
// neither is literal text. Concatenating the segments with their delimiters restores s.
func Tokenize(s string) []Segment {
	var (
		segments []Segment
		plain    []byte
		st       = statePlain
		start    int // first body byte of the math segment being read
		end      int // closing delimiter of that segment
	)

	flushPlain := func() {
		if len(plain) > 0 {
			segments = append(segments, Segment{Kind: Plain, Text: string(plain)})
			plain = plain[:0]
		}
	}

	i := 0
	for i < len(s) {
		switch st {
		case statePlain:
			if s[i] != '$' {
				plain = append(plain, s[i])
				i++
				continue
			}
			var ok bool
			if end, ok = scanBlock(s, i); ok {
				flushPlain()
				st, start = stateBlock, i+2
			} else if end, ok = scanInline(s, i); ok {
				flushPlain()
				st, start = stateInline, i+1
			} else {
				plain = append(plain, '$')
				i++
			}

		case stateBlock:
			segments = append(segments, Segment{Kind: Block, Text: s[start:end]})
			i, st = end+2, statePlain

		case stateInline:
			segments = append(segments, Segment{Kind: Inline, Text: s[start:end]})
			i, st = end+1, statePlain
		}
	}
	flushPlain()
	return segments
}

// Source restores the original text, delimiters included
func Source(segments []Segment) string {
	var b []byte
	for _, seg := range segments {
		switch seg.Kind {
		case Block:
			b = append(b, "$$"+seg.Text+"$$"...)
		case Inline:
			b = append(b, "$"+seg.Text+"$"...)
		default:
			b = append(b, seg.Text...)
		}
	}
	return string(b)
}

// scanBlock reports whether a "$$body$$" starts at i and returns the index of the closing "$$"
func scanBlock(s string, i int) (int, bool) {
	if i+1 >= len(s) || s[i] != '$' || s[i+1] != '$' {
		return 0, false
	}
	j := i + 2
	for j < len(s) && s[j] != '$' {
		j++
	}
	if j == i+2 || j+1 >= len(s) || s[j+1] != '$' {
		return 0, false
	}
	return j, true
}

// scanInline reports whether a "$body$" starts at i and returns the index of the closing '$'
func scanInline(s string, i int) (int, bool) {
	if i >= len(s) || s[i] != '$' {
		return 0, false
	}
	j := i + 1
	for j < len(s) && s[j] != '$' {
		j++
	}
	if j == i+1 || j >= len(s) {
		return 0, false
	}
	return j, true
}
