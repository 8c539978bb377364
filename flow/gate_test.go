package flow_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/flow/flowtest"
)

var _ = Describe("Gate", func() {
	var (
		feeder *flowtest.Feeder
		sink   *flowtest.Sink
	)

	BeforeEach(func() {
		feeder = flowtest.NewFeeder("Feeder")
		sink = flowtest.NewSink("Sink")
	})

	It("should name gates", func() {
		Expect(feeder.Out.Name()).To(Equal("out"))
		Expect(feeder.Out.FullName()).To(Equal("Feeder.out"))
		Expect(feeder.Out.Index()).To(Equal(-1))
		Expect(feeder.Gate("out", -1)).To(BeIdenticalTo(feeder.Out))
		Expect(feeder.Gate("in", -1)).To(BeNil())
	})

	It("should push through a link", func() {
		flow.MustConnect(feeder.Out, sink.In)
		p := flowtest.NewPacket("A", 8)

		Expect(feeder.Out.Peer()).To(BeIdenticalTo(sink.In))
		feeder.Feed(p)

		Expect(sink.Received).To(ConsistOf(p))
	})

	It("should hold packets while the consumer is blocked", func() {
		flow.MustConnect(feeder.Out, sink.In)
		sink.Blocked = true

		feeder.Feed(flowtest.NewPacket("A", 8))
		Expect(sink.Received).To(BeEmpty())
		Expect(feeder.NumPending()).To(Equal(1))

		sink.Unblock()
		Expect(feeder.NumCanPush).To(Equal(1))
		Expect(sink.Received).To(HaveLen(1))
	})

	It("should report nothing on unconnected gates", func() {
		Expect(feeder.Out.CanPushSome()).To(BeFalse())
		Expect(sink.In.CanPopSome()).To(BeFalse())
		Expect(sink.In.CanPop()).To(BeNil())

		sink.In.NotifyCanPush()
		feeder.Out.NotifyCanPop()
	})

	It("should panic when pushing through an unconnected gate", func() {
		Expect(func() {
			feeder.PushNow(flowtest.NewPacket("A", 8))
		}).To(Panic())
	})

	It("should pop through a link", func() {
		store := flowtest.NewStore("Store")
		puller := flowtest.NewPuller("Puller")
		flow.MustConnect(store.Out, puller.In)
		p := flowtest.NewPacket("A", 8)

		store.Add(p)
		Expect(puller.NumCanPop).To(Equal(1))
		Expect(puller.In.CanPop()).To(BeIdenticalTo(p))

		Expect(puller.PullAll()).To(Equal(1))
		Expect(puller.Collected).To(ConsistOf(p))
	})

	It("should refuse to connect gates in the wrong direction", func() {
		err := flow.Connect(sink.In, feeder.Out)

		var cfgErr *flow.ConfigurationError
		Expect(errors.As(err, &cfgErr)).To(BeTrue())
		Expect(cfgErr.Element).To(Equal("Sink"))
	})

	It("should refuse to connect a gate twice", func() {
		other := flowtest.NewSink("Other")
		flow.MustConnect(feeder.Out, sink.In)

		Expect(flow.Connect(feeder.Out, other.In)).To(HaveOccurred())
	})
})
