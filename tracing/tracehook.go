package tracing

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
	"github.com/sarchlab/pktflow/sim/hooking"
	"github.com/sarchlab/pktflow/sim/timing"
)

var eventKinds = map[*hooking.HookPos]EventKind{
	flow.HookPosPacketPushed:  Pushed,
	flow.HookPosPacketPopped:  Popped,
	flow.HookPosPacketRemoved: Removed,
	flow.HookPosPacketCreated: Created,
	flow.HookPosPacketDropped: Dropped,
}

// CollectTrace lets the tracer collect the packet events of an element.
func CollectTrace(element flow.Element, tracer Tracer) {
	for _, hook := range element.Hooks() {
		hook, ok := hook.(*traceHook)
		if ok && hook.t == tracer {
			panic(fmt.Sprintf(
				"element %s already has tracer %s",
				element.Name(), reflect.TypeOf(tracer)))
		}
	}

	h := traceHook{element: element, t: tracer}
	element.AcceptHook(&h)
}

// CollectTraceFromAll lets the tracer collect the packet events of all the
// elements.
func CollectTraceFromAll(elements []flow.Element, tracer Tracer) {
	for _, e := range elements {
		CollectTrace(e, tracer)
	}
}

// A traceHook is a hook that converts the packet events of one element.
type traceHook struct {
	element flow.Element
	t       Tracer
}

// Func calls the tracer when the hook is triggered
func (h *traceHook) Func(ctx hooking.HookCtx) {
	kind, ok := eventKinds[ctx.Pos]
	if !ok {
		return
	}

	evt := PacketEvent{
		Kind:    kind,
		Element: h.element.Name(),
		Packet:  ctx.Item.(*packet.Packet),
	}

	if tt, ok := ctx.Domain.(timing.TimeTeller); ok {
		evt.Time = tt.Now()
	}

	if kind == Dropped {
		evt.Drop = ctx.Detail.(flow.DropDetails)
	}

	h.t.Trace(evt)
}
