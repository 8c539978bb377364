package timing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("Timer", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *SerialEngine
		owner    *MockTimerHandler
		timer    *Timer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewSerialEngine()
		owner = NewMockTimerHandler(mockCtrl)
		timer = NewTimer("Timer", engine, owner)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should fire at the scheduled time", func() {
		owner.EXPECT().HandleTimer(timer).Do(func(t *Timer) {
			Expect(engine.Now()).To(Equal(VTimeInSec(2.5)))
			Expect(t.IsScheduled()).To(BeFalse())
		})

		timer.Schedule(2.5)
		Expect(timer.IsScheduled()).To(BeTrue())
		Expect(timer.ArrivalTime()).To(Equal(VTimeInSec(2.5)))
		Expect(timer.HasFired()).To(BeFalse())

		Expect(engine.Run()).To(Succeed())
		Expect(timer.HasFired()).To(BeTrue())
	})

	It("should only fire the latest schedule", func() {
		owner.EXPECT().HandleTimer(timer).Do(func(t *Timer) {
			Expect(engine.Now()).To(Equal(VTimeInSec(3.0)))
		}).Times(1)

		timer.Schedule(1.0)
		timer.Schedule(3.0)

		Expect(engine.Run()).To(Succeed())
	})

	It("should not fire when cancelled", func() {
		timer.Schedule(1.0)
		timer.Cancel()

		Expect(timer.IsScheduled()).To(BeFalse())
		Expect(engine.Run()).To(Succeed())
		Expect(timer.HasFired()).To(BeFalse())
	})

	It("should schedule relative to now", func() {
		owner.EXPECT().HandleTimer(timer).Do(func(t *Timer) {
			Expect(engine.Now()).To(Equal(VTimeInSec(3.0)))
		})

		Expect(engine.RunUntil(1.0)).To(Succeed())
		timer.ScheduleAfter(2.0)
		Expect(engine.Run()).To(Succeed())
	})

	It("should allow the owner to reschedule from the callback", func() {
		fired := 0
		owner.EXPECT().HandleTimer(timer).Do(func(t *Timer) {
			fired++
			if fired < 3 {
				t.ScheduleAfter(1.0)
			}
		}).Times(3)

		timer.Schedule(0)
		Expect(engine.Run()).To(Succeed())
		Expect(engine.Now()).To(Equal(VTimeInSec(2.0)))
	})
})
