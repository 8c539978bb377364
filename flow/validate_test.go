package flow_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/flow/flowtest"
)

var _ = Describe("ValidateLinks", func() {
	It("should accept a push link", func() {
		feeder := flowtest.NewFeeder("Feeder")
		sink := flowtest.NewSink("Sink")
		flow.MustConnect(feeder.Out, sink.In)

		Expect(flow.CheckPushSupport(feeder.Out)).To(Succeed())
		Expect(flow.CheckPopSupport(feeder.Out)).NotTo(Succeed())
		Expect(flow.ValidateLinks([]flow.Element{feeder, sink})).To(Succeed())
	})

	It("should accept a pop link", func() {
		store := flowtest.NewStore("Store")
		puller := flowtest.NewPuller("Puller")
		flow.MustConnect(store.Out, puller.In)

		Expect(flow.IsPopLink(puller.In)).To(BeTrue())
		Expect(flow.ValidateLinks([]flow.Element{store, puller})).To(Succeed())
	})

	It("should reject a link without a common mode", func() {
		feeder := flowtest.NewFeeder("Feeder")
		puller := flowtest.NewPuller("Puller")
		flow.MustConnect(feeder.Out, puller.In)

		err := flow.ValidateLinks([]flow.Element{feeder, puller})

		Expect(err).To(HaveOccurred())
		var cfgErr *flow.ConfigurationError
		Expect(errors.As(err, &cfgErr)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("doesn't support push"))
		Expect(err.Error()).To(ContainSubstring("doesn't support pop"))
	})

	It("should report every unconnected gate", func() {
		feeder := flowtest.NewFeeder("Feeder")
		sink := flowtest.NewSink("Sink")

		err := flow.ValidateLinks([]flow.Element{feeder, sink})

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("Feeder.out"))
		Expect(err.Error()).To(ContainSubstring("Sink.in"))
	})

	It("should allow optional gates to stay unconnected", func() {
		feeder := flowtest.NewFeeder("Feeder")
		feeder.Out.MarkOptional()

		Expect(flow.ValidateLinks([]flow.Element{feeder})).To(Succeed())
	})
})

var _ = Describe("ConfigurationError", func() {
	It("should wrap the cause", func() {
		cause := errors.New("row 1 sums to 0.9")
		err := flow.WrapConfigurationError("Sched", cause, "bad matrix")

		Expect(errors.Is(err, cause)).To(BeTrue())
		Expect(err.Error()).To(Equal(
			"configuration error in Sched: bad matrix: row 1 sums to 0.9"))
	})
})
