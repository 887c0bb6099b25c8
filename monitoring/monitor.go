// Package monitoring serves the state of a running compilation over HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/sarchlab/multiq/compiler"
	"github.com/sarchlab/multiq/hooking"
	"github.com/sarchlab/multiq/idgen"
	"github.com/sarchlab/multiq/layout"
	"github.com/sarchlab/multiq/tracing"
	"github.com/shirou/gopsutil/process"
	"github.com/sirupsen/logrus"
	"github.com/syifan/goseth"
)

// Monitor turns a compilation into a server that can be inspected while it
// runs.
type Monitor struct {
	portNumber  int
	openBrowser bool
	idGen       idgen.IDGenerator

	componentsLock sync.Mutex
	components     []hooking.NamedHookable
	inspectors     map[string]Inspector

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	tracersLock sync.Mutex
	tracers     map[string]*tracing.UtilizationTracer
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		idGen:      idgen.NewParallel(),
		inspectors: make(map[string]Inspector),
		tracers:    make(map[string]*tracing.UtilizationTracer),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser sets whether the monitoring page is opened in a browser when
// the server starts.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// RegisterComponent registers a component to be inspected.
func (m *Monitor) RegisterComponent(c hooking.NamedHookable) {
	m.componentsLock.Lock()
	defer m.componentsLock.Unlock()

	m.components = append(m.components, c)
}

// An Inspector lets the monitor read a component while nothing mutates it.
type Inspector interface {
	Inspect(f func())
}

// RegisterGuardedComponent registers a component that is only read through
// the inspector.
func (m *Monitor) RegisterGuardedComponent(
	c hooking.NamedHookable,
	guard Inspector,
) {
	m.RegisterComponent(c)

	m.componentsLock.Lock()
	defer m.componentsLock.Unlock()

	m.inspectors[c.Name()] = guard
}

// TrackCompiler registers the compiler and its parts, and reports the
// progress of placing the given number of tasks. The parts are only
// serialized between fill cycles.
func (m *Monitor) TrackCompiler(c *compiler.Compiler, numTasks int) *ProgressBar {
	m.RegisterGuardedComponent(c, c)
	m.RegisterGuardedComponent(c.Allocator(), c)

	if c.Composer() != nil {
		m.RegisterGuardedComponent(c.Composer(), c)
	}

	bar := m.CreateProgressBar(c.Name(), uint64(numTasks))

	c.Allocator().AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
		if ctx.Pos == layout.HookPosTaskPlaced {
			bar.IncrementFinished(1)
		}
	}))

	tracer := tracing.NewUtilizationTracer(c.Allocator().Device().NumUnits())
	tracing.CollectTrace(c, tracer)

	m.tracersLock.Lock()
	m.tracers[c.Name()] = tracer
	m.tracersLock.Unlock()

	return bar
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        m.idGen.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the handler of the monitoring API.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/list_components", m.listComponents)
	r.HandleFunc("/api/component/{name}", m.listComponentDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/programs", m.listPrograms)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts the monitor as a web server and returns its address.
func (m *Monitor) StartServer() string {
	actualPort := fmt.Sprintf(":%d", m.portNumber)

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d/api/progress",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring compilation with %s\n", url)

	r := m.Router()

	go func() {
		err := http.Serve(listener, r)
		dieOnErr(err)
	}()

	if m.openBrowser {
		err = browser.OpenURL(url)
		if err != nil {
			logrus.WithError(err).Warn("cannot open browser")
		}
	}

	return url
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	m.componentsLock.Lock()
	names := make([]string, 0, len(m.components))
	for _, c := range m.components {
		names = append(names, c.Name())
	}
	m.componentsLock.Unlock()

	writeJSON(w, names)
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	component := m.findComponentOr404(w, name)
	if component == nil {
		return
	}

	buf := bytes.NewBuffer(nil)

	var err error

	m.inspect(component, func() {
		serializer := goseth.NewSerializer()
		serializer.SetRoot(component)
		serializer.SetMaxDepth(1)
		err = serializer.Serialize(buf)
	})
	dieOnErr(err)

	_, err = w.Write(buf.Bytes())
	dieOnErr(err)
}

func (m *Monitor) inspect(c hooking.NamedHookable, f func()) {
	m.componentsLock.Lock()
	guard, ok := m.inspectors[c.Name()]
	m.componentsLock.Unlock()

	if !ok {
		f()
		return
	}

	guard.Inspect(f)
}

type fieldReq struct {
	CompName  string `json:"comp_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	component := m.findComponentOr404(w, req.CompName)
	if component == nil {
		return
	}

	buf := bytes.NewBuffer(nil)

	var entryErr error

	m.inspect(component, func() {
		serializer := goseth.NewSerializer()
		serializer.SetRoot(component)
		serializer.SetMaxDepth(1)

		entryErr = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
		if entryErr != nil {
			return
		}

		err = serializer.Serialize(buf)
	})

	if entryErr != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", entryErr)

		return
	}

	dieOnErr(err)

	_, err = w.Write(buf.Bytes())
	dieOnErr(err)
}

func (m *Monitor) findComponentOr404(
	w http.ResponseWriter,
	name string,
) hooking.NamedHookable {
	m.componentsLock.Lock()
	defer m.componentsLock.Unlock()

	for _, c := range m.components {
		if c.Name() == name {
			return c
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Component not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]progressSnapshot, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, bars)
}

type programRsp struct {
	Compiler    string  `json:"compiler"`
	ProgramID   string  `json:"program_id"`
	NumTasks    int     `json:"num_tasks"`
	Usage       int     `json:"usage"`
	Duration    float64 `json:"duration"`
	Utilization float64 `json:"utilization"`
	Activity    float64 `json:"activity"`
}

func (m *Monitor) listPrograms(w http.ResponseWriter, _ *http.Request) {
	m.tracersLock.Lock()
	defer m.tracersLock.Unlock()

	rsp := []programRsp{}
	for name, t := range m.tracers {
		for _, s := range t.Summaries() {
			rsp = append(rsp, programRsp{
				Compiler:    name,
				ProgramID:   s.ProgramID,
				NumTasks:    s.NumTasks,
				Usage:       s.Usage,
				Duration:    s.Duration,
				Utilization: s.Utilization,
				Activity:    s.Activity,
			})
		}
	}

	writeJSON(w, rsp)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		logrus.Panic(err)
	}
}
