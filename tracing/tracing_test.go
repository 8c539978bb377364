package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/flow/filter"
	"github.com/sarchlab/pktflow/flow/flowtest"
	"github.com/sarchlab/pktflow/flow/queue"
	"github.com/sarchlab/pktflow/sim/timing"
	"go.uber.org/mock/gomock"
)

type action func()

func (a action) Handle(_ timing.Event) error {
	a()
	return nil
}

type eventLog struct {
	events []PacketEvent
}

func (l *eventLog) Trace(evt PacketEvent) {
	l.events = append(l.events, evt)
}

var _ = Describe("CollectTrace", func() {
	var (
		feeder *flowtest.Feeder
		q      *queue.Queue
	)

	BeforeEach(func() {
		feeder = flowtest.NewFeeder("Feeder")
		q = queue.MakeBuilder().WithFrameCapacity(1).Build("Queue")
		flow.MustConnect(feeder.Out, q.Input())
	})

	It("should turn packet hooks into events", func() {
		log := &eventLog{}
		CollectTrace(q, log)

		a := flowtest.NewPacket("A", 8)
		b := flowtest.NewPacket("B", 16)
		feeder.PushNow(a)
		feeder.PushNow(b)

		Expect(log.events).To(HaveLen(3))
		Expect(log.events[0]).To(Equal(PacketEvent{
			Kind: Pushed, Element: "Queue", Packet: a,
		}))
		Expect(log.events[2].Kind).To(Equal(Dropped))
		Expect(log.events[2].Packet).To(BeIdenticalTo(b))
		Expect(log.events[2].Drop).To(Equal(flow.OverflowDetails(1)))
	})

	It("should refuse the same tracer twice", func() {
		log := &eventLog{}
		CollectTrace(q, log)

		Expect(func() { CollectTrace(q, log) }).To(Panic())
	})
})

var _ = Describe("DropCounter", func() {
	It("should count drops by reason and element", func() {
		feeder := flowtest.NewFeeder("Feeder")
		q := queue.MakeBuilder().WithFrameCapacity(1).Build("Queue")
		f := filter.NewFilter("Filter", filter.MaxLength(100))
		flow.MustConnect(feeder.Out, f.Input())
		flow.MustConnect(f.Output(), q.Input())

		counter := NewDropCounter()
		CollectTraceFromAll([]flow.Element{q, f}, counter)

		feeder.PushNow(flowtest.NewPacket("A", 8))
		feeder.PushNow(flowtest.NewPacket("B", 8))
		feeder.PushNow(flowtest.NewPacket("C", 800))

		Expect(counter.Count(flow.QueueOverflow)).To(Equal(1))
		Expect(counter.Count(flow.Filtered)).To(Equal(1))
		Expect(counter.CountAt("Queue", flow.QueueOverflow)).To(Equal(1))
		Expect(counter.CountAt("Filter", flow.QueueOverflow)).To(Equal(0))
		Expect(counter.Elements()).To(Equal([]string{"Filter", "Queue"}))
	})
})

var _ = Describe("DBTracer", func() {
	var (
		mockCtrl *gomock.Controller
		recorder *MockDataRecorder
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		recorder = NewMockDataRecorder(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should write one row per event", func() {
		var rows []packetEventRow

		recorder.EXPECT().CreateTable("packet_events", packetEventRow{})
		recorder.EXPECT().
			InsertData("packet_events", gomock.Any()).
			Do(func(_ string, entry any) {
				rows = append(rows, entry.(packetEventRow))
			}).
			Times(2)

		tracer := NewDBTracer(recorder)
		p := flowtest.NewPacket("A", 800)
		p.UserPriority = 2

		tracer.Trace(PacketEvent{
			Time: 1.5, Kind: Pushed, Element: "Queue", Packet: p,
		})
		tracer.Trace(PacketEvent{
			Time: 2, Kind: Dropped, Element: "Queue", Packet: p,
			Drop: flow.OverflowDetails(4),
		})

		Expect(rows).To(Equal([]packetEventRow{
			{1.5, "pushed", "Queue", p.ID, "A", 800, 2, "", 0},
			{2, "dropped", "Queue", p.ID, "A", 800, 2, "queue-overflow", 4},
		}))
	})
})

var _ = Describe("OccupancyTracer", func() {
	It("should average the queue length over time", func() {
		engine := timing.NewSerialEngine()
		feeder := flowtest.NewFeeder("Feeder")
		puller := flowtest.NewPuller("Puller")
		q := queue.MakeBuilder().WithEngine(engine).Build("Queue")
		flow.MustConnect(feeder.Out, q.Input())
		flow.MustConnect(q.Output(), puller.In)

		tracer := NewOccupancyTracer(q)
		engine.AcceptHook(tracer)

		engine.Schedule(timing.NewEventBase(1, action(func() {
			feeder.PushNow(flowtest.NewPacket("A", 8))
		})))
		engine.Schedule(timing.NewEventBase(3, action(func() {
			feeder.PushNow(flowtest.NewPacket("B", 8))
		})))
		engine.Schedule(timing.NewEventBase(4, action(func() {
			puller.PullOne()
		})))
		Expect(engine.Run()).To(Succeed())

		Expect(tracer.AverageLength(5)).To(BeNumerically("~", 1.0, 1e-9))
		Expect(tracer.MaxLength()).To(Equal(2))
	})
})
