package filter

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/flow/flowtest"
	"github.com/sarchlab/pktflow/flow/queue"
	"github.com/sarchlab/pktflow/sim/randstream"
	"github.com/sarchlab/pktflow/sim/timing"
)

var _ = Describe("RedDropper", func() {
	var (
		engine *timing.SerialEngine
		q      *queue.Queue
	)

	fill := func(n int) {
		for i := 0; i < n; i++ {
			q.Push(flowtest.NewPacket("Fill", 8), q.Input())
		}
	}

	build := func(b REDBuilder) *RedDropper {
		d, err := b.WithEngine(engine).Build("RED")
		Expect(err).NotTo(HaveOccurred())
		flow.MustConnect(d.Output(0), q.Input())

		return d
	}

	BeforeEach(func() {
		engine = timing.NewSerialEngine()
		q = queue.MakeBuilder().Build("Queue")
	})

	It("should drop everything above the max threshold", func() {
		d := build(MakeREDBuilder().
			WithWeight(1).
			WithGates(REDGateParams{
				MinThreshold: 2, MaxThreshold: 5, MaxProbability: 0.1,
			}).
			WithRandSource(randstream.Fixed(0.99)))
		fill(6)

		Expect(d.Rejects(0, flowtest.NewPacket("P", 8))).To(BeTrue())
		Expect(d.Average()).To(Equal(6.0))
	})

	It("should pass everything below the min threshold", func() {
		d := build(MakeREDBuilder().
			WithWeight(1).
			WithGates(REDGateParams{
				MinThreshold: 2, MaxThreshold: 5, MaxProbability: 1,
			}).
			WithRandSource(randstream.Fixed(0)))
		fill(1)

		Expect(d.Rejects(0, flowtest.NewPacket("P", 8))).To(BeFalse())
	})

	It("should raise the drop probability with every passed packet", func() {
		d := build(MakeREDBuilder().
			WithWeight(1).
			WithGates(REDGateParams{
				MinThreshold: 2, MaxThreshold: 5, MaxProbability: 1,
			}).
			WithRandSource(randstream.Fixed(0.5)))
		fill(3)

		Expect(d.Rejects(0, flowtest.NewPacket("P1", 8))).To(BeFalse())
		Expect(d.Rejects(0, flowtest.NewPacket("P2", 8))).To(BeFalse())
		Expect(d.Rejects(0, flowtest.NewPacket("P3", 8))).To(BeTrue())
	})

	It("should decay the average while the queue is idle", func() {
		d := build(MakeREDBuilder().
			WithWeight(0.5).
			WithGates(REDGateParams{
				MinThreshold: 1, MaxThreshold: 3, MaxProbability: 0.1,
				PacketRate: 1,
			}).
			WithRandSource(randstream.Fixed(0.99)))
		fill(4)

		d.Rejects(0, flowtest.NewPacket("P1", 8))
		Expect(d.Average()).To(Equal(2.0))

		for !q.IsEmpty() {
			q.Pop(q.Output())
		}

		d.Rejects(0, flowtest.NewPacket("P2", 8))
		Expect(d.Average()).To(Equal(2.0))

		Expect(engine.RunUntil(2)).To(Succeed())
		d.Rejects(0, flowtest.NewPacket("P3", 8))
		Expect(d.Average()).To(BeNumerically("~", 0.5, 1e-12))
	})

	It("should drop pushed packets with the filtered reason", func() {
		recorder := &flowtest.Recorder{}
		feeder := flowtest.NewFeeder("Feeder")
		d := build(MakeREDBuilder().
			WithWeight(1).
			WithGates(REDGateParams{MinThreshold: 0, MaxThreshold: 1}).
			WithRandSource(randstream.Fixed(0.5)))
		d.AcceptHook(recorder)
		flow.MustConnect(feeder.Out, d.Input(0))

		feeder.Feed(flowtest.NewPacket("A", 8), flowtest.NewPacket("B", 8))

		Expect(q.NumPackets()).To(Equal(1))
		Expect(flowtest.Names(recorder.Dropped())).To(Equal([]string{"B"}))
		Expect(recorder.Drops()[0].Reason).To(Equal(flow.Filtered))
	})

	It("should reject inconsistent thresholds", func() {
		_, err := MakeREDBuilder().
			WithGates(REDGateParams{MinThreshold: 5, MaxThreshold: 2}).
			Build("RED")

		Expect(err).To(HaveOccurred())

		_, err = MakeREDBuilder().WithWeight(0).
			WithGates(REDGateParams{MinThreshold: 1, MaxThreshold: 2}).
			Build("RED")

		Expect(err).To(HaveOccurred())
	})
})
