package topology

import (
	"fmt"
	"strconv"
	"strings"
)

// A GateRef names a gate of an element.
type GateRef struct {
	Element string
	Gate    string

	// Index is the position in a gate vector, or -1 for a scalar gate.
	Index int
}

func (r GateRef) String() string {
	if r.Index < 0 {
		return r.Element + "." + r.Gate
	}

	return fmt.Sprintf("%s.%s[%d]", r.Element, r.Gate, r.Index)
}

// ParseGateRef parses references such as "Queue.out" and "Mux.in[2]". The
// element name may contain dots itself.
func ParseGateRef(s string) (GateRef, error) {
	dot := strings.LastIndex(s, ".")
	if dot <= 0 || dot == len(s)-1 {
		return GateRef{}, fmt.Errorf("gate reference %q is not element.gate", s)
	}

	ref := GateRef{Element: s[:dot], Gate: s[dot+1:], Index: -1}

	open := strings.Index(ref.Gate, "[")
	if open < 0 {
		return ref, nil
	}

	if !strings.HasSuffix(ref.Gate, "]") || open == 0 {
		return GateRef{}, fmt.Errorf("gate reference %q has a bad index", s)
	}

	index, err := strconv.Atoi(ref.Gate[open+1 : len(ref.Gate)-1])
	if err != nil || index < 0 {
		return GateRef{}, fmt.Errorf("gate reference %q has a bad index", s)
	}

	ref.Gate = ref.Gate[:open]
	ref.Index = index

	return ref, nil
}
