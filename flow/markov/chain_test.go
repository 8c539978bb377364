package markov

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/pktflow/sim/randstream"
	"github.com/sarchlab/pktflow/sim/timing"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("Chain", func() {
	var (
		mockCtrl *gomock.Controller
		rand     *MockSource
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		rand = NewMockSource(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	waits := []timing.VTimeInSec{1, 2}

	It("should reject a row that does not sum to one", func() {
		_, err := NewChain(
			[][]float64{{0.5, 0.4}, {0.5, 0.5}}, waits, 0, rand)

		Expect(err).To(MatchError(ContainSubstring("row 0 sums to 0.9")))
	})

	It("should reject negative probabilities", func() {
		_, err := NewChain(
			[][]float64{{1.5, -0.5}, {0.5, 0.5}}, waits, 0, rand)

		Expect(err).To(HaveOccurred())
	})

	It("should reject a matrix that is not square", func() {
		_, err := NewChain([][]float64{{1}, {0.5, 0.5}}, waits, 0, rand)

		Expect(err).To(HaveOccurred())
	})

	It("should reject mismatched wait intervals and states", func() {
		matrix := [][]float64{{0, 1}, {1, 0}}

		_, err := NewChain(matrix, []timing.VTimeInSec{1}, 0, rand)
		Expect(err).To(HaveOccurred())

		_, err = NewChain(matrix, waits, 2, rand)
		Expect(err).To(HaveOccurred())
	})

	It("should reject wait intervals that are not positive", func() {
		matrix := [][]float64{{0, 1}, {1, 0}}

		_, err := NewChain(matrix, []timing.VTimeInSec{0, 0}, 0, rand)
		Expect(err).To(MatchError(ContainSubstring("wait interval 0")))

		_, err = NewChain(matrix, []timing.VTimeInSec{1, -1}, 0, rand)
		Expect(err).To(MatchError(ContainSubstring("wait interval 1")))
	})

	It("should accept rows within the rounding tolerance", func() {
		third := 1.0 / 3
		_, err := NewChain(
			[][]float64{{third, third, third}, {0, 1, 0}, {0, 0, 1}},
			[]timing.VTimeInSec{1, 1, 1}, 0, rand)

		Expect(err).NotTo(HaveOccurred())
	})

	It("should sample the next state by cumulative sum", func() {
		c, err := NewChain(
			[][]float64{{0.2, 0.3, 0.5}, {0, 1, 0}, {0, 0, 1}},
			[]timing.VTimeInSec{1, 2, 3}, 0, rand)
		Expect(err).NotTo(HaveOccurred())

		Expect(c.Next(0.1)).To(Equal(0))
		Expect(c.Next(0.2)).To(Equal(1))
		Expect(c.Next(0.4)).To(Equal(1))
		Expect(c.Next(0.9)).To(Equal(2))
		Expect(c.Next(0.9999999999999)).To(Equal(2))
	})

	It("should never select a state with probability zero", func() {
		c, err := NewChain([][]float64{{0, 1}, {1, 0}}, waits, 0, rand)
		Expect(err).NotTo(HaveOccurred())

		Expect(c.Next(0)).To(Equal(1))
	})

	It("should give the residue to the last state", func() {
		c, err := NewChain(
			[][]float64{{0.3, 0.7 - 1e-12}, {0, 1}},
			waits, 0, rand)
		Expect(err).NotTo(HaveOccurred())

		Expect(c.Next(0.9999999999999999)).To(Equal(1))
	})

	It("should move with random draws", func() {
		c, _ := NewChain([][]float64{{0, 1}, {1, 0}}, waits, 0, rand)
		rand.EXPECT().Float64().Return(0.5).Times(2)

		Expect(c.WaitInterval()).To(Equal(timing.VTimeInSec(1)))
		Expect(c.Transit()).To(Equal(1))
		Expect(c.WaitInterval()).To(Equal(timing.VTimeInSec(2)))
		Expect(c.Transit()).To(Equal(0))
	})

	It("should always sample a state in range", func() {
		c, _ := NewChain(
			[][]float64{{0.1, 0.2, 0.7}, {0.3, 0.3, 0.4}, {0.5, 0.25, 0.25}},
			[]timing.VTimeInSec{1, 1, 1}, 0, randstream.New("Chain"))

		for i := 0; i < 1000; i++ {
			s := c.Transit()
			Expect(s).To(BeNumerically(">=", 0))
			Expect(s).To(BeNumerically("<", 3))
		}
	})
})
