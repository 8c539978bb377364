package queue

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/flow/flowtest"
	"github.com/sarchlab/pktflow/sim/timing"
)

var _ = Describe("CompoundQueue", func() {
	var (
		feeder   *flowtest.Feeder
		puller   *flowtest.Puller
		compound *CompoundQueue
		inner    *Queue
		recorder *flowtest.Recorder
	)

	BeforeEach(func() {
		engine := timing.NewSerialEngine()
		feeder = flowtest.NewFeeder("Feeder")
		puller = flowtest.NewPuller("Puller")
		recorder = &flowtest.Recorder{}

		compound = MakeCompoundQueueBuilder().
			WithFrameCapacity(2).
			Build("Compound")
		inner = MakeBuilder().WithEngine(engine).Build("Compound.Inner")
		compound.AcceptHook(recorder)

		flow.MustConnect(feeder.Out, compound.Input())
		flow.MustConnect(compound.Enter(), inner.Input())
		flow.MustConnect(inner.Output(), compound.Leave())
		flow.MustConnect(compound.Output(), puller.In)
	})

	It("should pass validation", func() {
		Expect(flow.ValidateLinks([]flow.Element{
			feeder, compound, inner, puller,
		})).To(Succeed())
	})

	It("should admit packets up to its capacity", func() {
		feeder.Feed(
			flowtest.NewPacket("A", 8),
			flowtest.NewPacket("B", 8),
			flowtest.NewPacket("C", 8),
		)

		Expect(compound.NumPackets()).To(Equal(2))
		Expect(compound.TotalLength()).To(Equal(int64(16)))
		Expect(flowtest.Names(recorder.Dropped())).To(Equal([]string{"C"}))
		Expect(puller.NumCanPop).To(Equal(2))
	})

	It("should pop from the inner provider", func() {
		feeder.Feed(flowtest.NewPacket("A", 8))

		Expect(puller.PullAll()).To(Equal(1))
		Expect(compound.IsEmpty()).To(BeTrue())
	})
})
