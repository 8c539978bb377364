package relay

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/flow/flowtest"
	"github.com/sarchlab/pktflow/flow/queue"
	"github.com/sarchlab/pktflow/flow/source"
	"github.com/sarchlab/pktflow/sim/timing"
)

var _ = Describe("Delayer", func() {
	var (
		engine *timing.SerialEngine
		feeder *flowtest.Feeder
		sink   *flowtest.Sink
		d      *Delayer
	)

	BeforeEach(func() {
		engine = timing.NewSerialEngine()
		feeder = flowtest.NewFeeder("Feeder")
		sink = flowtest.NewSink("Sink")
		d = NewDelayer("Delayer", engine, 2)
		flow.MustConnect(feeder.Out, d.Input())
		flow.MustConnect(d.Output(), sink.In)
	})

	It("should release packets after the delay in arrival order", func() {
		feeder.Feed(flowtest.NewPacket("A", 8), flowtest.NewPacket("B", 8))

		Expect(engine.RunUntil(1.9)).To(Succeed())
		Expect(sink.Received).To(BeEmpty())
		Expect(d.NumPackets()).To(Equal(2))

		Expect(engine.RunUntil(2)).To(Succeed())
		Expect(flowtest.Names(sink.Received)).To(Equal([]string{"A", "B"}))
		Expect(d.NumPackets()).To(Equal(0))
	})

	It("should hold released packets while the consumer is blocked", func() {
		sink.Blocked = true
		feeder.Feed(flowtest.NewPacket("A", 8))

		Expect(engine.Run()).To(Succeed())
		Expect(d.NumPackets()).To(Equal(1))

		sink.Unblock()

		Expect(flowtest.Names(sink.Received)).To(Equal([]string{"A"}))
		Expect(d.NumPackets()).To(Equal(0))
		Expect(feeder.NumCanPush).To(Equal(1))
	})

	It("should wake up an active producer when its consumer starts", func() {
		src, err := source.MakeSourceBuilder().
			WithEngine(engine).
			WithInterval(source.Constant(1)).
			BuildActive("Source")
		Expect(err).NotTo(HaveOccurred())

		delayer := NewDelayer("Slow", engine, 0.5)
		q := queue.MakeBuilder().WithEngine(engine).Build("Queue")
		flow.MustConnect(src.Output(), delayer.Input())
		flow.MustConnect(delayer.Output(), q.Input())

		q.Start()
		Expect(engine.RunUntil(3.4)).To(Succeed())

		Expect(src.NumCreated()).To(Equal(4))
		Expect(q.NumPackets()).To(Equal(3))
		Expect(delayer.NumPackets()).To(Equal(1))
		Expect(q.Packet(2).CreationTime).To(Equal(2.0))
	})

	It("should not wake up the producer while released packets wait", func() {
		sink.Blocked = true
		feeder.StopOnCanPush = true
		feeder.Feed(flowtest.NewPacket("A", 8))
		Expect(engine.Run()).To(Succeed())

		d.HandleCanPush(d.Output())

		Expect(feeder.NumCanPush).To(Equal(0))
	})
})
