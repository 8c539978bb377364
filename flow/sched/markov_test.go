package sched

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/flow/flowtest"
	"github.com/sarchlab/pktflow/sim/randstream"
	"github.com/sarchlab/pktflow/sim/timing"
)

var _ = Describe("MarkovScheduler", func() {
	var (
		engine           *timing.SerialEngine
		feeder0, feeder1 *flowtest.Feeder
		sink             *flowtest.Sink
		s                *MarkovScheduler
	)

	BeforeEach(func() {
		var err error

		engine = timing.NewSerialEngine()
		s, err = MakeMarkovBuilder().
			WithEngine(engine).
			WithTransitions([][]float64{{0, 1}, {1, 0}}).
			WithWaitIntervals([]timing.VTimeInSec{1, 2}).
			WithRandSource(randstream.Fixed(0.5)).
			Build("Scheduler")
		Expect(err).NotTo(HaveOccurred())

		feeder0 = flowtest.NewFeeder("FeederA")
		feeder1 = flowtest.NewFeeder("FeederB")
		sink = flowtest.NewSink("Sink")
		flow.MustConnect(feeder0.Out, s.Input(0))
		flow.MustConnect(feeder1.Out, s.Input(1))
		flow.MustConnect(s.Output(), sink.In)
	})

	It("should only accept pushes on the current state", func() {
		feeder0.Feed(flowtest.NewPacket("A", 8))
		feeder1.Feed(flowtest.NewPacket("B", 8))

		Expect(flowtest.Names(sink.Received)).To(Equal([]string{"A"}))
		Expect(feeder1.NumPending()).To(Equal(1))
		Expect(func() { feeder1.PushNow(flowtest.NewPacket("C", 8)) }).
			To(Panic())
	})

	It("should switch inputs when the wait interval expires", func() {
		feeder1.Feed(flowtest.NewPacket("B", 8))
		s.Start()

		Expect(engine.RunUntil(1.5)).To(Succeed())
		Expect(s.State()).To(Equal(1))
		Expect(flowtest.Names(sink.Received)).To(Equal([]string{"B"}))

		feeder0.Feed(flowtest.NewPacket("A", 8))
		Expect(feeder0.NumPending()).To(Equal(1))

		Expect(engine.RunUntil(3)).To(Succeed())
		Expect(s.State()).To(Equal(0))
		Expect(flowtest.Names(sink.Received)).To(Equal([]string{"B", "A"}))
	})

	It("should hold packets while the consumer is blocked", func() {
		sink.Blocked = true
		feeder0.Feed(flowtest.NewPacket("A", 8))
		Expect(feeder0.NumPending()).To(Equal(1))

		sink.Unblock()
		Expect(flowtest.Names(sink.Received)).To(Equal([]string{"A"}))
	})

	It("should reject rows that do not sum to one", func() {
		_, err := MakeMarkovBuilder().
			WithEngine(engine).
			WithTransitions([][]float64{{0.5, 0.4}, {0.5, 0.5}}).
			WithWaitIntervals([]timing.VTimeInSec{1, 1}).
			Build("Broken")

		var cfgErr *flow.ConfigurationError
		Expect(errors.As(err, &cfgErr)).To(BeTrue())
		Expect(cfgErr.Element).To(Equal("Broken"))
		Expect(err.Error()).To(ContainSubstring("row 0"))
	})
})
