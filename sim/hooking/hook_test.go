package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("HookableBase", func() {
	var (
		mockCtrl *gomock.Controller
		hookable *HookableBase
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		hookable = &HookableBase{}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should invoke registered hooks in order", func() {
		hook1 := NewMockHook(mockCtrl)
		hook2 := NewMockHook(mockCtrl)
		ctx := HookCtx{Pos: &HookPos{Name: "Test"}, Item: 1}

		hookable.AcceptHook(hook1)
		hookable.AcceptHook(hook2)

		gomock.InOrder(
			hook1.EXPECT().Func(ctx),
			hook2.EXPECT().Func(ctx),
		)

		hookable.InvokeHook(ctx)

		Expect(hookable.NumHooks()).To(Equal(2))
		Expect(hookable.Hooks()).To(HaveLen(2))
	})

	It("should refuse duplicated hooks", func() {
		hook := NewMockHook(mockCtrl)

		hookable.AcceptHook(hook)

		Expect(func() { hookable.AcceptHook(hook) }).To(Panic())
	})

	It("should accept hook functions", func() {
		count := 0
		f := HookFunc(func(ctx HookCtx) { count++ })

		hookable.AcceptHook(f)
		hookable.AcceptHook(f)
		hookable.InvokeHook(HookCtx{})

		Expect(count).To(Equal(2))
	})
})
