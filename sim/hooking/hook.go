// Package hooking lets observers attach to elements without changing what
// the elements do.
package hooking

// HookPos names a place where an object reports to its hooks. Positions
// are compared by pointer.
type HookPos struct {
	Name string
}

// HookCtx describes one report. Domain is the reporting object, Item the
// thing being reported on and Detail any extra data for the position.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// A Hook observes reports. It must not change the reporting object.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc turns a function into a Hook.
type HookFunc func(ctx HookCtx)

func (f HookFunc) Func(ctx HookCtx) { f(ctx) }

// Hookable is implemented by objects that report to hooks.
type Hookable interface {
	AcceptHook(hook Hook)
	NumHooks() int
	Hooks() []Hook
}

// HookableBase keeps a list of hooks and calls them in attachment order.
type HookableBase struct {
	hooks []Hook
}

// AcceptHook attaches a hook. Attaching the same hook value twice panics,
// except for HookFunc values, which cannot be compared.
func (b *HookableBase) AcceptHook(hook Hook) {
	if _, ok := hook.(HookFunc); !ok {
		for _, h := range b.hooks {
			if h == hook {
				panic("hook already attached")
			}
		}
	}

	b.hooks = append(b.hooks, hook)
}

func (b *HookableBase) NumHooks() int { return len(b.hooks) }

func (b *HookableBase) Hooks() []Hook { return b.hooks }

// InvokeHook reports ctx to every attached hook.
func (b *HookableBase) InvokeHook(ctx HookCtx) {
	for _, h := range b.hooks {
		h.Func(ctx)
	}
}
