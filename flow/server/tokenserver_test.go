package server

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/flow/flowtest"
	"github.com/sarchlab/pktflow/sim/timing"
)

var _ = Describe("TokenServer", func() {
	var (
		engine *timing.SerialEngine
		store  *flowtest.Store
		sink   *flowtest.Sink
	)

	build := func(b TokenBuilder) *TokenServer {
		s, err := b.WithEngine(engine).Build("Server")
		Expect(err).NotTo(HaveOccurred())
		flow.MustConnect(store.Out, s.Input())
		flow.MustConnect(s.Output(), sink.In)

		return s
	}

	BeforeEach(func() {
		engine = timing.NewSerialEngine()
		store = flowtest.NewStore("Store")
		sink = flowtest.NewSink("Sink")
	})

	It("should never hold more than the maximum tokens", func() {
		s := build(MakeTokenBuilder().WithMaxNumTokens(3))
		s.Start()

		for t := 1; t <= 10; t++ {
			Expect(engine.RunUntil(timing.VTimeInSec(t))).To(Succeed())
			Expect(s.NumTokens()).To(BeNumerically("<=", 3))
		}

		Expect(s.NumTokens()).To(Equal(3))
	})

	It("should not serve a packet before its tokens are produced", func() {
		s := build(MakeTokenBuilder().
			WithMaxNumTokens(10).
			WithConsumptionPerPacket(0).
			WithConsumptionPerBit(0.5))
		s.Start()

		store.Add(flowtest.NewPacket("A", 8))
		Expect(s.Cost(store.Packets[0])).To(Equal(4))

		Expect(engine.RunUntil(3.5)).To(Succeed())
		Expect(sink.Received).To(BeEmpty())
		Expect(s.NumTokens()).To(Equal(3))

		Expect(engine.RunUntil(4)).To(Succeed())
		Expect(flowtest.Names(sink.Received)).To(Equal([]string{"A"}))
		Expect(s.NumTokens()).To(Equal(0))
	})

	It("should serve greedily while the tokens suffice", func() {
		s := build(MakeTokenBuilder().
			WithInitialNumTokens(2).
			WithMaxNumTokens(5))

		store.Add(flowtest.NewPacket("A", 8), flowtest.NewPacket("B", 8),
			flowtest.NewPacket("C", 8))

		Expect(flowtest.Names(sink.Received)).To(Equal([]string{"A", "B"}))
		Expect(s.NumTokens()).To(Equal(0))

		s.Start()
		Expect(engine.RunUntil(1)).To(Succeed())

		Expect(s.NumServed()).To(Equal(3))
	})

	It("should wait for the consumer", func() {
		s := build(MakeTokenBuilder().WithInitialNumTokens(1))
		sink.Blocked = true

		store.Add(flowtest.NewPacket("A", 8))
		Expect(s.NumTokens()).To(Equal(1))

		sink.Unblock()
		Expect(s.NumServed()).To(Equal(1))
	})

	DescribeTable("should reject inconsistent token settings",
		func(b TokenBuilder) {
			s, err := b.WithEngine(engine).Build("Server")

			var cfgErr *flow.ConfigurationError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.Element).To(Equal("Server"))
			Expect(s).To(BeNil())
		},
		Entry("more initial tokens than the maximum",
			MakeTokenBuilder().WithInitialNumTokens(10).WithMaxNumTokens(3)),
		Entry("negative initial tokens",
			MakeTokenBuilder().WithInitialNumTokens(-1)),
		Entry("negative maximum",
			MakeTokenBuilder().WithMaxNumTokens(-2)),
		Entry("non-positive production interval",
			MakeTokenBuilder().WithProductionInterval(0)),
		Entry("negative cost per packet",
			MakeTokenBuilder().WithConsumptionPerPacket(-1)),
		Entry("negative cost per bit",
			MakeTokenBuilder().WithConsumptionPerBit(-0.5)),
	)

	It("should accept initial tokens up to an unbounded maximum", func() {
		s := build(MakeTokenBuilder().WithInitialNumTokens(10))

		Expect(s.NumTokens()).To(Equal(10))
	})
})
