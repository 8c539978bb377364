package filter

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/flow/flowtest"
	"github.com/sarchlab/pktflow/flow/queue"
	"github.com/sarchlab/pktflow/flow/relay"
	"github.com/sarchlab/pktflow/packet"
)

var _ = Describe("ThresholdDropper", func() {
	var (
		recorder         *flowtest.Recorder
		feederA, feederB *flowtest.Feeder
		d                *ThresholdDropper
	)

	BeforeEach(func() {
		recorder = &flowtest.Recorder{}
		feederA = flowtest.NewFeeder("FeederA")
		feederB = flowtest.NewFeeder("FeederB")
	})

	link := func() {
		d.AcceptHook(recorder)
		flow.MustConnect(feederA.Out, d.Input(0))
		flow.MustConnect(feederB.Out, d.Input(1))
	}

	It("should share the frame capacity across outputs", func() {
		d = NewThresholdDropper("Dropper", 2, 2, flow.Unbounded)
		link()

		qA := queue.MakeBuilder().Build("QueueA")
		qB := queue.MakeBuilder().Build("QueueB")
		flow.MustConnect(d.Output(0), qA.Input())
		flow.MustConnect(d.Output(1), qB.Input())

		feederA.Feed(flowtest.NewPacket("A", 8))
		feederB.Feed(flowtest.NewPacket("B", 8))
		feederA.Feed(flowtest.NewPacket("C", 8))

		Expect(d.CheckLinks()).To(Succeed())
		Expect(d.NumPackets()).To(Equal(2))
		Expect(qA.NumPackets()).To(Equal(1))
		Expect(flowtest.Names(recorder.Dropped())).To(Equal([]string{"C"}))
		Expect(recorder.Drops()[0].Reason).To(Equal(flow.Filtered))
	})

	It("should enforce the data capacity", func() {
		d = NewThresholdDropper("Dropper", 2, flow.Unbounded, 100)
		link()

		qA := queue.MakeBuilder().Build("QueueA")
		qB := queue.MakeBuilder().Build("QueueB")
		flow.MustConnect(d.Output(0), qA.Input())
		flow.MustConnect(d.Output(1), qB.Input())

		feederA.Feed(flowtest.NewPacket("A", 60))
		feederB.Feed(flowtest.NewPacket("B", 50), flowtest.NewPacket("C", 40))

		Expect(d.TotalLength()).To(Equal(int64(100)))
		Expect(flowtest.Names(recorder.Dropped())).To(Equal([]string{"B"}))
	})

	It("should look through one multiplexer", func() {
		d = NewThresholdDropper("Dropper", 2, 1, flow.Unbounded)
		link()

		mux := relay.NewMultiplexer("Mux", 2)
		q := queue.MakeBuilder().Build("Queue")
		flow.MustConnect(d.Output(0), mux.Input(0))
		flow.MustConnect(d.Output(1), mux.Input(1))
		flow.MustConnect(mux.Output(), q.Input())

		feederA.Feed(flowtest.NewPacket("A", 8))
		feederB.Feed(flowtest.NewPacket("B", 8))

		Expect(d.CheckLinks()).To(Succeed())
		Expect(d.NumPackets()).To(Equal(1))
		Expect(q.Packet(0).Name).To(Equal("A"))
		Expect(flowtest.Names(recorder.Dropped())).To(Equal([]string{"B"}))
	})

	It("should require collections behind the outputs", func() {
		d = NewThresholdDropper("Dropper", 2, 1, flow.Unbounded)
		link()

		flow.MustConnect(d.Output(0), flowtest.NewSink("SinkA").In)
		flow.MustConnect(d.Output(1), flowtest.NewSink("SinkB").In)

		Expect(d.CheckLinks()).To(HaveOccurred())
	})
})

type rejectNamed string

func (r rejectNamed) Rejects(_ int, p *packet.Packet) bool {
	return p.Name == string(r)
}

var _ = Describe("MultiFilter", func() {
	It("should filter each pop path on its own", func() {
		storeA := flowtest.NewStore("StoreA")
		storeB := flowtest.NewStore("StoreB")
		pullerA := flowtest.NewPuller("PullerA")
		pullerB := flowtest.NewPuller("PullerB")

		f := NewMultiFilter("Filter", 2, rejectNamed("Bad"))
		flow.MustConnect(storeA.Out, f.Input(0))
		flow.MustConnect(storeB.Out, f.Input(1))
		flow.MustConnect(f.Output(0), pullerA.In)
		flow.MustConnect(f.Output(1), pullerB.In)

		storeA.Add(flowtest.NewPacket("Bad", 8), flowtest.NewPacket("A", 8))
		storeB.Add(flowtest.NewPacket("B", 8))

		Expect(pullerB.PullAll()).To(Equal(1))
		Expect(storeA.Packets).To(HaveLen(2))

		Expect(pullerA.PullAll()).To(Equal(1))
		Expect(flowtest.Names(pullerA.Collected)).To(Equal([]string{"A"}))
		Expect(f.NumGates()).To(Equal(2))
	})
})
