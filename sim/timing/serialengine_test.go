package timing

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/pktflow/sim/hooking"
	gomock "go.uber.org/mock/gomock"
)

func mockEventAt(
	ctrl *gomock.Controller,
	t VTimeInSec,
	handler Handler,
	secondary bool,
) *MockEvent {
	evt := NewMockEvent(ctrl)
	evt.EXPECT().Time().Return(t).AnyTimes()
	evt.EXPECT().Handler().Return(handler).AnyTimes()
	evt.EXPECT().IsSecondary().Return(secondary).AnyTimes()

	return evt
}

var _ = Describe("SerialEngine", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *SerialEngine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewSerialEngine()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should schedule events", func() {
		handler1 := NewMockHandler(mockCtrl)
		handler2 := NewMockHandler(mockCtrl)
		evt1 := mockEventAt(mockCtrl, 4.0, handler1, false)
		evt2 := mockEventAt(mockCtrl, 2.0, handler2, false)
		evt3 := mockEventAt(mockCtrl, 3.0, handler1, false)
		evt4 := mockEventAt(mockCtrl, 5.0, handler1, false)

		handleEvt2 := handler2.EXPECT().Handle(evt2).Do(func(e Event) {
			engine.Schedule(evt3)
			engine.Schedule(evt4)
		})
		handleEvt3 := handler1.EXPECT().Handle(evt3).After(handleEvt2)
		handleEvt1 := handler1.EXPECT().Handle(evt1).After(handleEvt3)
		handler1.EXPECT().Handle(evt4).After(handleEvt1)

		engine.Schedule(evt1)
		engine.Schedule(evt2)

		Expect(engine.Run()).To(Succeed())
		Expect(engine.Now()).To(Equal(VTimeInSec(5.0)))
		Expect(engine.NumPendingEvents()).To(Equal(0))
	})

	It("should handle same-time events in scheduling order", func() {
		handler := NewMockHandler(mockCtrl)
		evt1 := mockEventAt(mockCtrl, 1.0, handler, false)
		evt2 := mockEventAt(mockCtrl, 1.0, handler, false)
		evt3 := mockEventAt(mockCtrl, 1.0, handler, false)

		gomock.InOrder(
			handler.EXPECT().Handle(evt1),
			handler.EXPECT().Handle(evt2),
			handler.EXPECT().Handle(evt3),
		)

		engine.Schedule(evt1)
		engine.Schedule(evt2)
		engine.Schedule(evt3)

		Expect(engine.Run()).To(Succeed())
	})

	It("should consider secondary events", func() {
		handler1 := NewMockHandler(mockCtrl)
		handler2 := NewMockHandler(mockCtrl)
		evt1 := mockEventAt(mockCtrl, 2.0, handler1, true)
		evt2 := mockEventAt(mockCtrl, 2.0, handler2, false)

		gomock.InOrder(
			handler2.EXPECT().Handle(evt2),
			handler1.EXPECT().Handle(evt1),
		)

		engine.Schedule(evt1)
		engine.Schedule(evt2)

		Expect(engine.Run()).To(Succeed())
	})

	It("should panic when scheduling into the past", func() {
		handler := NewMockHandler(mockCtrl)
		evt1 := mockEventAt(mockCtrl, 2.0, handler, false)
		evt2 := mockEventAt(mockCtrl, 1.0, handler, false)

		handler.EXPECT().Handle(evt1).Do(func(e Event) {
			Expect(func() { engine.Schedule(evt2) }).To(Panic())
		})

		engine.Schedule(evt1)
		Expect(engine.Run()).To(Succeed())
	})

	It("should keep running when a handler fails", func() {
		handler := NewMockHandler(mockCtrl)
		evt1 := mockEventAt(mockCtrl, 1.0, handler, false)
		evt2 := mockEventAt(mockCtrl, 2.0, handler, false)

		handler.EXPECT().Handle(evt1).Return(errors.New("boom"))
		handler.EXPECT().Handle(evt2).Return(nil)

		engine.Schedule(evt1)
		engine.Schedule(evt2)

		Expect(engine.Run()).To(Succeed())
	})

	It("should stop at the given time", func() {
		handler := NewMockHandler(mockCtrl)
		evt1 := mockEventAt(mockCtrl, 1.0, handler, false)
		evt2 := mockEventAt(mockCtrl, 3.0, handler, false)
		evt3 := mockEventAt(mockCtrl, 5.0, handler, false)

		handler.EXPECT().Handle(evt1)
		handler.EXPECT().Handle(evt2)

		engine.Schedule(evt1)
		engine.Schedule(evt2)
		engine.Schedule(evt3)

		Expect(engine.RunUntil(4.0)).To(Succeed())
		Expect(engine.Now()).To(Equal(VTimeInSec(4.0)))
		Expect(engine.NumPendingEvents()).To(Equal(1))
	})

	It("should invoke hooks around every event", func() {
		handler := NewMockHandler(mockCtrl)
		evt := mockEventAt(mockCtrl, 1.0, handler, false)
		positions := make([]*hooking.HookPos, 0)

		engine.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			Expect(ctx.Item).To(BeIdenticalTo(evt))
			positions = append(positions, ctx.Pos)
		}))
		handler.EXPECT().Handle(evt)

		engine.Schedule(evt)
		Expect(engine.Run()).To(Succeed())

		Expect(positions).To(Equal(
			[]*hooking.HookPos{HookPosBeforeEvent, HookPosAfterEvent}))
	})
})
