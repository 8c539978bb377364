// Package monitoring serves a running simulation over HTTP so that it can be
// paused, resumed and inspected while it runs.
package monitoring

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/sim/id"
	"github.com/sarchlab/pktflow/sim/naming"
	"github.com/sarchlab/pktflow/sim/timing"
	"github.com/sirupsen/logrus"
)

type namedCollection interface {
	naming.Named
	flow.Collection
}

// Monitor exposes an engine and the elements of a network through a JSON
// API.
type Monitor struct {
	engine      timing.Engine
	elements    []flow.Element
	collections []namedCollection

	port        int
	openBrowser bool

	barsMu       sync.Mutex
	progressBars []*ProgressBar
}

// NewMonitor returns a monitor that listens on a random port.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber fixes the port. Zero and ports below 1000 fall back to a
// random port.
func (m *Monitor) WithPortNumber(port int) *Monitor {
	if port != 0 && port < 1000 {
		logrus.Warnf("monitor cannot use port %d, picking a random one", port)
	}

	if port < 1000 {
		port = 0
	}

	m.port = port

	return m
}

// WithOpenBrowser makes StartServer point a web browser at the API.
func (m *Monitor) WithOpenBrowser(open bool) *Monitor {
	m.openBrowser = open

	return m
}

func (m *Monitor) RegisterEngine(e timing.Engine) {
	m.engine = e
}

// RegisterElement adds an element to the listing. Elements that hold
// packets also show up as collections.
func (m *Monitor) RegisterElement(e flow.Element) {
	m.elements = append(m.elements, e)

	if c, ok := e.(namedCollection); ok {
		m.collections = append(m.collections, c)
	}
}

func (m *Monitor) element(name string) flow.Element {
	for _, e := range m.elements {
		if e.Name() == name {
			return e
		}
	}

	return nil
}

// CreateProgressBar adds a bar to the progress listing.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        id.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.barsMu.Lock()
	m.progressBars = append(m.progressBars, bar)
	m.barsMu.Unlock()

	return bar
}

// CompleteProgressBar drops a bar from the progress listing.
func (m *Monitor) CompleteProgressBar(bar *ProgressBar) {
	m.barsMu.Lock()
	defer m.barsMu.Unlock()

	m.progressBars = slices.DeleteFunc(m.progressBars,
		func(b *ProgressBar) bool { return b == bar })
}

// StartServer serves the API in the background and returns the port.
func (m *Monitor) StartServer() (int, error) {
	addr := ":0"
	if m.port > 0 {
		addr = ":" + strconv.Itoa(m.port)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("start monitor: %w", err)
	}

	port := listener.Addr().(*net.TCPAddr).Port
	url := fmt.Sprintf("http://localhost:%d/api/list_elements", port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	go func() {
		err := http.Serve(listener, m.router())
		if err != nil && !errors.Is(err, net.ErrClosed) {
			logrus.WithError(err).Error("monitor stopped")
		}
	}()

	if m.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			logrus.WithError(err).Warn("cannot open browser")
		}
	}

	return port, nil
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/pause", m.handlePause)
	api.HandleFunc("/continue", m.handleContinue)
	api.HandleFunc("/run", m.handleRun)
	api.HandleFunc("/now", m.handleNow)

	api.HandleFunc("/list_elements", m.handleListElements)
	api.HandleFunc("/element/{name}", m.handleElement)
	api.HandleFunc("/field/{json}", m.handleField)
	api.HandleFunc("/collections", m.handleCollections)

	api.HandleFunc("/progress", m.handleProgress)
	api.HandleFunc("/resource", handleResource)
	api.HandleFunc("/profile", handleProfile)

	return r
}
