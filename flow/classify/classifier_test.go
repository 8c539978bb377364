package classify

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/flow/flowtest"
	"github.com/sarchlab/pktflow/packet"
)

var _ = Describe("Classifier", func() {
	var (
		feeder       *flowtest.Feeder
		sinkA, sinkB *flowtest.Sink
	)

	build := func(f Function) *Classifier {
		c := MakeBuilder().WithNumOutputs(2).WithFunction(f).Build("Classifier")
		flow.MustConnect(feeder.Out, c.Input())
		flow.MustConnect(c.Output(0), sinkA.In)
		flow.MustConnect(c.Output(1), sinkB.In)

		return c
	}

	BeforeEach(func() {
		feeder = flowtest.NewFeeder("Feeder")
		sinkA = flowtest.NewSink("SinkA")
		sinkB = flowtest.NewSink("SinkB")
	})

	It("should route by user priority", func() {
		build(ByPriority{})

		low := packet.MakeBuilder().WithName("Low").WithUserPriority(0).Build()
		high := packet.MakeBuilder().WithName("High").WithUserPriority(5).Build()
		feeder.Feed(high, low)

		Expect(sinkA.Received).To(Equal([]*packet.Packet{low}))
		Expect(sinkB.Received).To(Equal([]*packet.Packet{high}))
	})

	It("should route by length", func() {
		build(ByLength{Thresholds: []int64{100}})

		feeder.Feed(flowtest.NewPacket("Short", 99), flowtest.NewPacket("Long", 100))

		Expect(flowtest.Names(sinkA.Received)).To(Equal([]string{"Short"}))
		Expect(flowtest.Names(sinkB.Received)).To(Equal([]string{"Long"}))
	})

	It("should alternate outputs in round robin", func() {
		build(&RoundRobin{})

		feeder.Feed(flowtest.NewPacket("A", 8), flowtest.NewPacket("B", 8),
			flowtest.NewPacket("C", 8))

		Expect(flowtest.Names(sinkA.Received)).To(Equal([]string{"A", "C"}))
		Expect(flowtest.Names(sinkB.Received)).To(Equal([]string{"B"}))
	})

	It("should hold packets whose output is blocked", func() {
		c := build(&RoundRobin{})
		sinkA.Blocked = true

		feeder.Feed(flowtest.NewPacket("A", 8))

		Expect(c.CanPushSome(c.Input())).To(BeTrue())
		Expect(feeder.NumPending()).To(Equal(1))

		sinkA.Unblock()

		Expect(flowtest.Names(sinkA.Received)).To(Equal([]string{"A"}))
	})

	It("should create functions by name", func() {
		Expect(FunctionNames()).To(Equal(
			[]string{"ByLength", "ByPriority", "RoundRobin"}))

		f, err := NewFunctionFromName("ByLength",
			flow.Params{"thresholds": []interface{}{64, 512}})
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Classify(flowtest.NewPacket("P", 100), 3)).To(Equal(1))

		_, err = NewFunctionFromName("ByLength",
			flow.Params{"thresholds": []interface{}{512, 64}})
		Expect(err).To(HaveOccurred())
	})
})
