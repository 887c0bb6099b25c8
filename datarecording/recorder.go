package datarecording

import (
	"strings"

	"github.com/sarchlab/multiq/compiler"
	"github.com/sarchlab/multiq/compose"
	"github.com/sarchlab/multiq/crosstalk"
	"github.com/sarchlab/multiq/hooking"
	"github.com/sarchlab/multiq/layout"
)

// The tables that a Recorder writes.
const (
	TableBatches    = "batches"
	TablePlacements = "placements"
	TableCrosstalk  = "crosstalk"
	TableOverflows  = "overflows"
	TablePrograms   = "programs"
	TableSchedule   = "schedule"
)

// BatchEntry is a batch emitted by a composer.
type BatchEntry struct {
	BatchID  string
	Composer string
	TaskIDs  string
	NumUnits int
	Cost     float64
	Accepted bool
}

// PlacementEntry maps one virtual unit of a task to a physical unit.
type PlacementEntry struct {
	Allocator string
	TaskID    string
	Virtual   int
	Physical  int
}

// CrosstalkEntry is a link whose reliability was degraded.
type CrosstalkEntry struct {
	Allocator string
	OnA       int
	OnB       int
	AffectedA int
	AffectedB int
	Ratio     float64
	Before    float64
	After     float64
}

// OverflowEntry is a task that did not fit in a fill cycle.
type OverflowEntry struct {
	Allocator string
	TaskID    string
	Need      int
	Available int
}

// ProgramEntry is a compiled program.
type ProgramEntry struct {
	ProgramID string
	Compiler  string
	TaskIDs   string
	Usage     int
	Duration  float64
}

// ScheduleEntry is a time slot of a unit in a compiled program.
type ScheduleEntry struct {
	ProgramID string
	Unit      int
	Kind      string
	Start     float64
	Duration  float64
	Idle      bool
}

// A Recorder is a hook that writes composer, allocator, and compiler events
// into a DataRecorder.
type Recorder struct {
	recorder DataRecorder
}

// NewRecorder creates the tables and returns a Recorder.
func NewRecorder(recorder DataRecorder) *Recorder {
	recorder.CreateTable(TableBatches, BatchEntry{})
	recorder.CreateTable(TablePlacements, PlacementEntry{})
	recorder.CreateTable(TableCrosstalk, CrosstalkEntry{})
	recorder.CreateTable(TableOverflows, OverflowEntry{})
	recorder.CreateTable(TablePrograms, ProgramEntry{})
	recorder.CreateTable(TableSchedule, ScheduleEntry{})

	return &Recorder{recorder: recorder}
}

// Func records the item of a hook invocation.
func (r *Recorder) Func(ctx hooking.HookCtx) {
	where := domainName(ctx.Domain)

	switch ctx.Pos {
	case compose.HookPosBatchComposed:
		r.recordBatch(where, ctx.Item.(compose.Batch))
	case layout.HookPosTaskPlaced:
		r.recordPlacement(where, ctx.Item.(layout.TaskPlaced))
	case layout.HookPosCrosstalk:
		r.recordCrosstalk(where, ctx.Item.(crosstalk.Update))
	case layout.HookPosOverflow:
		o := ctx.Item.(layout.TaskOverflow)
		r.recorder.InsertData(TableOverflows, OverflowEntry{
			Allocator: where,
			TaskID:    o.TaskID,
			Need:      o.Need,
			Available: o.Available,
		})
	case compiler.HookPosProgramCompiled:
		r.recordProgram(where, ctx.Item.(compiler.Program))
	}
}

func domainName(d hooking.Hookable) string {
	if named, ok := d.(hooking.NamedHookable); ok {
		return named.Name()
	}

	return ""
}

func (r *Recorder) recordBatch(where string, b compose.Batch) {
	r.recorder.InsertData(TableBatches, BatchEntry{
		BatchID:  b.ID,
		Composer: where,
		TaskIDs:  strings.Join(b.TaskIDs(), ","),
		NumUnits: b.NumUnits(),
		Cost:     b.Cost,
		Accepted: b.Accepted,
	})
}

func (r *Recorder) recordPlacement(where string, p layout.TaskPlaced) {
	for v, u := range p.Units {
		r.recorder.InsertData(TablePlacements, PlacementEntry{
			Allocator: where,
			TaskID:    p.TaskID,
			Virtual:   v,
			Physical:  u,
		})
	}
}

func (r *Recorder) recordCrosstalk(where string, u crosstalk.Update) {
	r.recorder.InsertData(TableCrosstalk, CrosstalkEntry{
		Allocator: where,
		OnA:       u.On.A,
		OnB:       u.On.B,
		AffectedA: u.Affected.A,
		AffectedB: u.Affected.B,
		Ratio:     u.Ratio,
		Before:    u.Before,
		After:     u.After,
	})
}

func (r *Recorder) recordProgram(where string, p compiler.Program) {
	r.recorder.InsertData(TablePrograms, ProgramEntry{
		ProgramID: p.ID,
		Compiler:  where,
		TaskIDs:   strings.Join(p.TaskIDs, ","),
		Usage:     p.Usage,
		Duration:  p.Schedule.Duration,
	})

	for _, unit := range p.Schedule.Units() {
		for _, e := range p.Schedule.Slots(unit) {
			r.recorder.InsertData(TableSchedule, ScheduleEntry{
				ProgramID: p.ID,
				Unit:      unit,
				Kind:      e.Kind,
				Start:     e.Start,
				Duration:  e.Duration,
				Idle:      e.Idle,
			})
		}
	}
}

// Attach lets the compiler, its allocator, and its composer report to the
// Recorder.
func (r *Recorder) Attach(c *compiler.Compiler) {
	c.AcceptHook(r)
	c.Allocator().AcceptHook(r)

	if c.Composer() != nil {
		c.Composer().AcceptHook(r)
	}
}
