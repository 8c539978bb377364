package randstream

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Source", func() {
	It("should draw values in range", func() {
		s := New("Stream")

		for i := 0; i < 1000; i++ {
			v := s.Float64()
			Expect(v).To(BeNumerically(">=", 0))
			Expect(v).To(BeNumerically("<", 1))
		}
	})

	It("should replay a sequence", func() {
		s := NewSequence(0.1, 0.5)

		Expect(s.Float64()).To(Equal(0.1))
		Expect(s.Float64()).To(Equal(0.5))
		Expect(s.Float64()).To(Equal(0.1))
	})

	It("should return a fixed value", func() {
		Expect(Fixed(0.25).Float64()).To(Equal(0.25))
	})
})
