package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/sarchlab/pktflow/flow"
	"github.com/shirou/gopsutil/process"
	"github.com/sirupsen/logrus"
	"github.com/syifan/goseth"
)

func (m *Monitor) handlePause(w http.ResponseWriter, _ *http.Request) {
	m.engine.Pause()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) handleContinue(w http.ResponseWriter, _ *http.Request) {
	m.engine.Continue()
	w.WriteHeader(http.StatusOK)
}

// handleRun drains the engine in the background.
func (m *Monitor) handleRun(w http.ResponseWriter, _ *http.Request) {
	go func() {
		if err := m.engine.Run(); err != nil {
			logrus.WithError(err).Error("simulation failed")
		}
	}()

	w.WriteHeader(http.StatusAccepted)
}

type nowRsp struct {
	Now float64 `json:"now"`
}

func (m *Monitor) handleNow(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, nowRsp{Now: m.engine.Now()})
}

func (m *Monitor) handleListElements(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.elements))
	for _, e := range m.elements {
		names = append(names, e.Name())
	}

	writeJSON(w, names)
}

func (m *Monitor) handleElement(w http.ResponseWriter, r *http.Request) {
	e := m.element(mux.Vars(r)["name"])
	if e == nil {
		http.Error(w, "element not found", http.StatusNotFound)
		return
	}

	serializeElement(w, e, nil)
}

type fieldReq struct {
	ElementName string `json:"element_name,omitempty"`
	FieldName   string `json:"field_name,omitempty"`
}

// handleField serializes one field of an element. The field is a dotted
// path such as "buffer.packets".
func (m *Monitor) handleField(w http.ResponseWriter, r *http.Request) {
	var req fieldReq
	if err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req); err != nil {
		badRequest(w, err)
		return
	}

	e := m.element(req.ElementName)
	if e == nil {
		http.Error(w, "element not found", http.StatusNotFound)
		return
	}

	serializeElement(w, e, strings.Split(req.FieldName, "."))
}

func serializeElement(w http.ResponseWriter, e flow.Element, path []string) {
	s := goseth.NewSerializer()
	s.SetRoot(e)
	s.SetMaxDepth(1)

	if path != nil {
		if err := s.SetEntryPoint(path); err != nil {
			badRequest(w, err)
			return
		}
	}

	if err := s.Serialize(w); err != nil {
		logrus.WithError(err).Error("cannot serialize element")
	}
}

type collectionRsp struct {
	Name      string `json:"collection"`
	Level     int    `json:"level"`
	Cap       int    `json:"cap"`
	Length    int64  `json:"length"`
	LengthCap int64  `json:"length_cap"`
}

type collectionQuery struct {
	sortBy        string
	limit, offset int
}

func parseCollectionQuery(r *http.Request) (collectionQuery, error) {
	values := r.URL.Query()
	q := collectionQuery{sortBy: values.Get("sort")}

	switch q.sortBy {
	case "":
		q.sortBy = "percent"
	case "percent", "level":
	default:
		return q, fmt.Errorf("unknown sort %q, use level or percent", q.sortBy)
	}

	for key, dst := range map[string]*int{
		"limit":  &q.limit,
		"offset": &q.offset,
	} {
		s := values.Get(key)
		if s == "" {
			continue
		}

		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return q, fmt.Errorf("bad %s %q", key, s)
		}

		*dst = n
	}

	return q, nil
}

// handleCollections lists the packet holders, fullest first. A limit of 0
// returns everything after the offset.
func (m *Monitor) handleCollections(w http.ResponseWriter, r *http.Request) {
	q, err := parseCollectionQuery(r)
	if err != nil {
		badRequest(w, err)
		return
	}

	rsp := make([]collectionRsp, 0, len(m.collections))
	for _, c := range m.collections {
		rsp = append(rsp, collectionRsp{
			Name:      c.Name(),
			Level:     c.NumPackets(),
			Cap:       c.MaxNumPackets(),
			Length:    c.TotalLength(),
			LengthCap: c.MaxTotalLength(),
		})
	}

	sortCollections(rsp, q.sortBy)

	start := min(q.offset, len(rsp))
	end := len(rsp)

	if q.limit > 0 {
		end = min(start+q.limit, end)
	}

	writeJSON(w, rsp[start:end])
}

// sortCollections orders by one key and breaks ties with the other.
// Unbounded collections count as empty when sorting by percent.
func sortCollections(rsp []collectionRsp, sortBy string) {
	percent := func(c collectionRsp) float64 {
		if c.Cap <= 0 {
			return 0
		}

		return float64(c.Level) / float64(c.Cap)
	}

	sort.SliceStable(rsp, func(i, j int) bool {
		byLevel := rsp[i].Level > rsp[j].Level
		byPercent := percent(rsp[i]) > percent(rsp[j])
		sameLevel := rsp[i].Level == rsp[j].Level
		samePercent := percent(rsp[i]) == percent(rsp[j])

		if sortBy == "level" {
			if sameLevel {
				return byPercent
			}

			return byLevel
		}

		if samePercent {
			return byLevel
		}

		return byPercent
	})
}

func (m *Monitor) handleProgress(w http.ResponseWriter, _ *http.Request) {
	m.barsMu.Lock()
	defer m.barsMu.Unlock()

	writeJSON(w, m.progressBars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func handleResource(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		serverError(w, err)
		return
	}

	cpu, err := proc.CPUPercent()
	if err != nil {
		serverError(w, err)
		return
	}

	mem, err := proc.MemoryInfo()
	if err != nil {
		serverError(w, err)
		return
	}

	writeJSON(w, resourceRsp{CPUPercent: cpu, MemorySize: mem.RSS})
}

// handleProfile samples the CPU for one second.
func handleProfile(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer

	if err := pprof.StartCPUProfile(&buf); err != nil {
		serverError(w, err)
		return
	}

	time.Sleep(time.Second)
	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		serverError(w, err)
		return
	}

	writeJSON(w, prof)
}

func badRequest(w http.ResponseWriter, err error) {
	http.Error(w, "Error: "+err.Error(), http.StatusBadRequest)
}

func serverError(w http.ResponseWriter, err error) {
	logrus.WithError(err).Error("monitor request failed")
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("cannot encode response")
	}
}
