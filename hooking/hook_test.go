package hooking

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"go.uber.org/mock/gomock"
)

type sampleItem struct {
	TaskID string
	Units  int
}

type namedDomain struct {
	*HookableBase
}

func (namedDomain) Name() string { return "Composer" }

var _ = Describe("HookableBase", func() {
	var (
		mockCtrl *gomock.Controller
		base     *HookableBase
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		base = NewHookableBase()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should invoke every hook in registration order", func() {
		h1 := NewMockHook(mockCtrl)
		h2 := NewMockHook(mockCtrl)
		pos := &HookPos{Name: "Sample"}
		ctx := HookCtx{Domain: base, Pos: pos, Item: 1}

		gomock.InOrder(
			h1.EXPECT().Func(ctx),
			h2.EXPECT().Func(ctx),
		)

		base.AcceptHook(h1)
		base.AcceptHook(h2)
		base.InvokeHook(ctx)

		Expect(base.NumHooks()).To(Equal(2))
	})

	It("should adapt functions into hooks", func() {
		called := 0
		base.AcceptHook(HookFunc(func(HookCtx) { called++ }))

		base.InvokeHook(HookCtx{})

		Expect(called).To(Equal(1))
	})
})

var _ = Describe("LogHook", func() {
	It("should write struct items as fields", func() {
		buf := new(bytes.Buffer)
		logger := logrus.New()
		logger.SetOutput(buf)
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetLevel(logrus.DebugLevel)

		h := NewLogHook(logger, logrus.InfoLevel)
		h.Func(HookCtx{
			Domain: namedDomain{NewHookableBase()},
			Pos:    &HookPos{Name: "BatchComposed"},
			Item:   sampleItem{TaskID: "t1", Units: 3},
		})

		Expect(buf.String()).To(ContainSubstring(`"pos":"BatchComposed"`))
		Expect(buf.String()).To(ContainSubstring(`"where":"Composer"`))
		Expect(buf.String()).To(ContainSubstring(`"TaskID":"t1"`))
	})

	It("should stay silent below the logger level", func() {
		buf := new(bytes.Buffer)
		logger := logrus.New()
		logger.SetOutput(buf)
		logger.SetLevel(logrus.WarnLevel)

		h := NewLogHook(logger, logrus.InfoLevel)
		h.Func(HookCtx{Item: 3})

		Expect(buf.Len()).To(BeZero())
	})
})
