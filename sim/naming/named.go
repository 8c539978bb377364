// Package naming defines how elements in a flow graph are named.
package naming

// Named is implemented by everything that has a graph-unique name.
type Named interface {
	Name() string
}

// NamedBase stores a checked name. Embed it to implement Named.
type NamedBase struct {
	name string
}

func (b NamedBase) Name() string {
	return b.name
}

// MakeNamedBase panics if name is not a valid Name.
func MakeNamedBase(name string) NamedBase {
	NameMustBeValid(name)

	return NamedBase{name: name}
}
