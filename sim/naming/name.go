package naming

import (
	"fmt"
	"strconv"
	"strings"
)

// A Name is a dotted path of segments such as "Host.Nic.Queue[2]". Each
// segment is a capitalized word optionally followed by one or more
// bracketed indices.
type Name []Segment

// Segment is one dotted component of a Name.
type Segment struct {
	Word    string
	Indices []int
}

// Parse splits and checks a name.
func Parse(s string) (Name, error) {
	parts := strings.Split(s, ".")
	name := make(Name, 0, len(parts))

	for _, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return nil, fmt.Errorf("name %q: %w", s, err)
		}

		name = append(name, seg)
	}

	return name, nil
}

func parseSegment(part string) (Segment, error) {
	word, rest, _ := strings.Cut(part, "[")
	if err := checkWord(word); err != nil {
		return Segment{}, err
	}

	seg := Segment{Word: word}
	if !strings.Contains(part, "[") {
		return seg, nil
	}

	// rest looks like "2]" or "0][1]".
	if !strings.HasSuffix(rest, "]") {
		return Segment{}, fmt.Errorf("unterminated index in %q", part)
	}

	for _, idx := range strings.Split(strings.TrimSuffix(rest, "]"), "][") {
		n, err := strconv.Atoi(idx)
		if err != nil || n < 0 {
			return Segment{}, fmt.Errorf("bad index %q in %q", idx, part)
		}

		seg.Indices = append(seg.Indices, n)
	}

	return seg, nil
}

func checkWord(word string) error {
	if word == "" {
		return fmt.Errorf("empty segment")
	}

	if i := strings.IndexAny(word, "_\"'- []"); i >= 0 {
		return fmt.Errorf("segment %q contains %q", word, word[i])
	}

	if word[0] < 'A' || word[0] > 'Z' {
		return fmt.Errorf("segment %q must start with a capital letter", word)
	}

	return nil
}

// IsValid reports whether s parses as a Name.
func IsValid(s string) bool {
	_, err := Parse(s)

	return err == nil
}

// NameMustBeValid panics if s does not parse as a Name.
func NameMustBeValid(s string) {
	if _, err := Parse(s); err != nil {
		panic(err.Error())
	}
}

// Join appends child to parent with a dot. An empty parent yields child.
func Join(parent, child string) string {
	if parent == "" {
		return child
	}

	return parent + "." + child
}

// Indexed appends "[index]" to base. A negative index leaves base as is.
func Indexed(base string, index int) string {
	if index < 0 {
		return base
	}

	return base + "[" + strconv.Itoa(index) + "]"
}
