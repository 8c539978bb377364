package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/flow/flowtest"
	"github.com/sarchlab/pktflow/flow/queue"
	"github.com/sarchlab/pktflow/sim/hooking"
	"github.com/sarchlab/pktflow/sim/timing"
)

func fill(name string, capacity, n int) *queue.Queue {
	q := queue.MakeBuilder().WithFrameCapacity(capacity).Build(name)
	feeder := flowtest.NewFeeder(name + "Feeder")
	flow.MustConnect(feeder.Out, q.Input())

	for i := 0; i < n; i++ {
		feeder.PushNow(flowtest.NewPacket("P", 8))
	}

	return q
}

var _ = Describe("Monitor", func() {
	var (
		m      *Monitor
		engine *timing.SerialEngine
	)

	get := func(url string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, url, nil)
		m.router().ServeHTTP(rec, req)

		return rec
	}

	collections := func(url string) []string {
		rec := get(url)
		Expect(rec.Code).To(Equal(http.StatusOK))

		var rsp []collectionRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())

		names := make([]string, len(rsp))
		for i, c := range rsp {
			names[i] = c.Name
		}

		return names
	}

	BeforeEach(func() {
		engine = timing.NewSerialEngine()
		m = NewMonitor()
		m.RegisterEngine(engine)

		m.RegisterElement(fill("A", 4, 1))
		m.RegisterElement(fill("B", 10, 2))
		m.RegisterElement(fill("C", flow.Unbounded, 3))
		m.RegisterElement(flowtest.NewFeeder("Feeder"))
	})

	It("should list the elements", func() {
		rec := get("/api/list_elements")

		var names []string
		Expect(json.Unmarshal(rec.Body.Bytes(), &names)).To(Succeed())
		Expect(names).To(Equal([]string{"A", "B", "C", "Feeder"}))
	})

	It("should only list elements that hold packets as collections", func() {
		Expect(m.collections).To(HaveLen(3))
	})

	It("should sort collections by fill percent", func() {
		Expect(collections("/api/collections")).
			To(Equal([]string{"A", "B", "C"}))
	})

	It("should sort collections by level", func() {
		Expect(collections("/api/collections?sort=level")).
			To(Equal([]string{"C", "B", "A"}))
	})

	It("should page the collections", func() {
		Expect(collections("/api/collections?limit=1&offset=1")).
			To(Equal([]string{"B"}))
		Expect(collections("/api/collections?offset=5")).To(BeEmpty())
	})

	It("should report the collection levels", func() {
		rec := get("/api/collections?sort=level&limit=1")

		var rsp []collectionRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(Equal([]collectionRsp{{
			Name:      "C",
			Level:     3,
			Cap:       flow.Unbounded,
			Length:    24,
			LengthCap: flow.Unbounded,
		}}))
	})

	It("should reject bad collection queries", func() {
		Expect(get("/api/collections?sort=size").Code).
			To(Equal(http.StatusBadRequest))
		Expect(get("/api/collections?limit=-1").Code).
			To(Equal(http.StatusBadRequest))
	})

	It("should answer 404 for unknown elements", func() {
		rec := get("/api/element/Nothing")

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should tell the virtual time", func() {
		var rsp nowRsp
		Expect(json.Unmarshal(get("/api/now").Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Now).To(BeZero())
	})

	It("should move a progress bar with the virtual time", func() {
		progress := m.NewTimeProgress(2)
		engine.AcceptHook(progress)

		progress.Func(hooking.HookCtx{
			Pos:  timing.HookPosAfterEvent,
			Item: timing.NewEventBase(0.5, nil),
		})
		Expect(progress.Bar().Finished).To(Equal(uint64(500)))

		progress.Func(hooking.HookCtx{
			Pos:  timing.HookPosAfterEvent,
			Item: timing.NewEventBase(3, nil),
		})
		Expect(progress.Bar().Finished).To(Equal(uint64(2000)))
		Expect(m.progressBars).To(HaveLen(1))

		m.CompleteProgressBar(progress.Bar())
		Expect(m.progressBars).To(BeEmpty())
	})
})
