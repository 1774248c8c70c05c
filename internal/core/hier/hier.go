// Package hier implements the hierarchical task identifiers used in the trace.
//
// An identifier is a dot-separated path such as "0.a.3". Each nesting level adds
// one segment and segment flavors alternate between letters and digits so that
// adjacent levels are easy to tell apart when reading a log:
//
//	0          first top-level task
//	0.a        its first child
//	0.a.0      first grandchild
//	0.b        second child
//	1          second top-level task
package hier

import (
	"errors"
	"fmt"
	"strings"
)

// Separator joins segments.
const Separator = "."

// Root is the identifier of the very first task a monitor sees.
const Root ID = "0"

var (
	// ErrEmpty is returned for an empty identifier.
	ErrEmpty = errors.New("identifier is empty")

	// ErrInvalidSegment is returned when a segment is empty or not alphanumeric.
	ErrInvalidSegment = errors.New("invalid identifier segment")
)

// ID is a hierarchical task identifier. Treat it as an opaque path: the only
// supported derivations are Child and Sibling.
type ID string

// Parse validates s and returns it as an ID.
func Parse(s string) (ID, error) {
	if s == "" {
		return "", ErrEmpty
	}
	for i, seg := range strings.Split(s, Separator) {
		if seg == "" {
			return "", fmt.Errorf("segment %d of %q: %w", i, s, ErrInvalidSegment)
		}
		for j := 0; j < len(seg); j++ {
			if !isAlnum(seg[j]) {
				return "", fmt.Errorf("segment %d of %q: %w", i, s, ErrInvalidSegment)
			}
		}
	}
	return ID(s), nil
}

func (id ID) String() string {
	return string(id)
}

// Segments splits the identifier into its path segments.
func (id ID) Segments() []string {
	if id == "" {
		return nil
	}
	return strings.Split(string(id), Separator)
}

// Depth is the number of segments; the root has depth 1.
func (id ID) Depth() int {
	if id == "" {
		return 0
	}
	return strings.Count(string(id), Separator) + 1
}

// Last returns the final segment.
func (id ID) Last() string {
	s := string(id)
	return s[strings.LastIndex(s, Separator)+1:]
}

// Child returns the identifier of the first task nested under id.
// An even number of separators appends "a", an odd number appends "0".
func (id ID) Child() ID {
	if strings.Count(string(id), Separator)%2 == 0 {
		return id + Separator + "a"
	}
	return id + Separator + "0"
}

// Sibling returns the identifier of the next task at the same depth as id.
func (id ID) Sibling() (ID, error) {
	s := string(id)
	cut := strings.LastIndex(s, Separator) + 1
	next, err := Succ(s[cut:])
	if err != nil {
		return "", fmt.Errorf("sibling of %q: %w", s, err)
	}
	return ID(s[:cut] + next), nil
}

// Succ returns the successor of a segment, treating it as an odometer over
// digits and letters: the rightmost alphanumeric character is incremented and
// '9', 'z' and 'Z' wrap to '0', 'a' and 'A' with a carry to the left. When the
// leftmost alphanumeric character overflows a new one of the same class is
// inserted in front of it ("9" -> "10", "z" -> "aa", "Az" -> "Ba", "Zz" -> "AAa").
func Succ(seg string) (string, error) {
	b := []byte(seg)
	i := prevAlnum(b, len(b)-1)
	if i < 0 {
		return "", fmt.Errorf("%q: %w", seg, ErrInvalidSegment)
	}

	for {
		c := b[i]
		switch c {
		case '9':
			b[i] = '0'
		case 'z':
			b[i] = 'a'
		case 'Z':
			b[i] = 'A'
		default:
			b[i]++
			return string(b), nil
		}

		j := prevAlnum(b, i-1)
		if j < 0 {
			out := make([]byte, 0, len(b)+1)
			out = append(out, b[:i]...)
			out = append(out, overflow(c))
			out = append(out, b[i:]...)
			return string(out), nil
		}
		i = j
	}
}

// overflow is the character prepended when c carries out of the segment.
func overflow(c byte) byte {
	switch c {
	case '9':
		return '1'
	case 'z':
		return 'a'
	default:
		return 'A'
	}
}

func prevAlnum(b []byte, from int) int {
	for i := from; i >= 0; i-- {
		if isAlnum(b[i]) {
			return i
		}
	}
	return -1
}

func isAlnum(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
