package vm

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Debug build flags. These mirror clox's compile-time DEBUG_* macros; here
// they are ordinary VM fields so a host program can flip them per run
// instead of per build.
type DebugFlags struct {
	PrintCode      bool
	TraceExecution bool
	StressGC       bool
	LogGC          bool
}

// GC is the VM's tri-color mark-sweep collector. It owns the intrusive
// allocation list and the allocation-threshold accounting; VM and Compiler
// hand it their roots rather than it reaching into them unprompted.
type GC struct {
	objects        Object // head of the intrusive allocation list
	gray           []Object
	bytesAllocated int64
	nextGC         int64
	floor          int64 // nextGC never drops below this after a collection
	growthFactor   float64
	flags          *DebugFlags
	sessionID      string // correlation id for DEBUG_LOG_GC trace lines
	cycle          int
}

// defaultNextGC is the initial allocation threshold before the first
// collection, used when no VMConfig overrides it.
const defaultNextGC = 1024 * 1024

// defaultGrowthFactor is how much nextGC grows relative to live bytes after
// each collection, used when no VMConfig overrides it.
const defaultGrowthFactor = 2.0

// NewGC constructs a collector with the given initial threshold and growth
// factor; pass 0 for either to take the defaults (used when no VMConfig is
// supplied).
func NewGC(flags *DebugFlags, initialNextGC int64, growthFactor float64) *GC {
	if initialNextGC <= 0 {
		initialNextGC = defaultNextGC
	}
	if growthFactor <= 0 {
		growthFactor = defaultGrowthFactor
	}
	return &GC{
		nextGC:       initialNextGC,
		floor:        initialNextGC,
		growthFactor: growthFactor,
		flags:        flags,
		sessionID:    uuid.NewString()[:8],
	}
}

// objectSize is a rough accounting unit per heap object variant; exact byte
// counts don't matter, only that bigger objects count for more so the
// threshold tracks real pressure.
func objectSize(o Object) int64 {
	switch v := o.(type) {
	case *ObjString:
		return int64(32 + len(v.Chars))
	case *ObjFunction:
		return 96
	case *ObjClosure:
		return int64(48 + 8*len(v.Upvalues))
	case *ObjUpvalue:
		return 40
	case *ObjNative:
		return 48
	case *ObjClass:
		return 64
	case *ObjInstance:
		return 48
	case *ObjBoundMethod:
		return 40
	default:
		return 32
	}
}

// roots abstracts whatever owns GC roots (the VM and its compiler chain) so
// GC doesn't import vm-execution internals directly.
type roots interface {
	markRoots(gc *GC)
}

// link registers a freshly allocated object in the intrusive allocation
// list and charges its size against the allocation budget. Every allocator
// in this package must route new objects through here.
func (gc *GC) link(o Object) {
	o.header().next = gc.objects
	gc.objects = o
	gc.bytesAllocated += objectSize(o)
}

// maybeCollect triggers a collection when allocation pressure crosses the
// threshold (or always, under stress mode), per §4.8.1.
func (gc *GC) maybeCollect(r roots) {
	if gc.flags != nil && gc.flags.StressGC {
		gc.Collect(r)
		return
	}
	if gc.bytesAllocated > gc.nextGC {
		gc.Collect(r)
	}
}

// Collect runs one full stop-the-world mark-sweep cycle.
func (gc *GC) Collect(r roots) {
	gc.cycle++
	before := gc.bytesAllocated
	if gc.flags != nil && gc.flags.LogGC {
		fmt.Fprintf(os.Stderr, "-- gc begin (session %s, cycle %d)\n", gc.sessionID, gc.cycle)
	}

	gc.gray = gc.gray[:0]
	r.markRoots(gc)
	gc.traceReferences()
	gc.removeWhiteStrings(r)
	gc.sweep()

	gc.nextGC = int64(float64(gc.bytesAllocated) * gc.growthFactor)
	if gc.nextGC < gc.floor {
		gc.nextGC = gc.floor
	}

	if gc.flags != nil && gc.flags.LogGC {
		fmt.Fprintf(os.Stderr, "-- gc end (session %s): collected %s, %s -> %s, next at %s\n",
			gc.sessionID,
			humanize.Bytes(uint64(before-gc.bytesAllocated)),
			humanize.Bytes(uint64(before)),
			humanize.Bytes(uint64(gc.bytesAllocated)),
			humanize.Bytes(uint64(gc.nextGC)))
	}
}

// internTableSweeper lets the VM hand GC its string intern table without a
// direct type dependency.
type internTableSweeper interface {
	internTable() *Table
}

func (gc *GC) removeWhiteStrings(r roots) {
	if s, ok := r.(internTableSweeper); ok {
		s.internTable().RemoveWhite()
	}
}

// markValue marks the object an obj-typed Value references. Scalar variants
// (Nil, Bool, Number) require no marking.
func (gc *GC) markValue(v Value) {
	if v.Kind == ValObj && v.Obj != nil {
		gc.markObject(v.Obj)
	}
}

// markObject marks o and pushes it onto the gray worklist. Idempotent: an
// already-marked object is not pushed again.
func (gc *GC) markObject(o Object) {
	if o == nil || isMarked(o) {
		return
	}
	setMarked(o, true)
	gc.gray = append(gc.gray, o)
}

// traceReferences repeatedly pops a gray object and blackens it until the
// worklist is empty.
func (gc *GC) traceReferences() {
	for len(gc.gray) > 0 {
		o := gc.gray[len(gc.gray)-1]
		gc.gray = gc.gray[:len(gc.gray)-1]
		gc.blacken(o)
	}
}

// blacken walks one object's outgoing references, marking each in turn.
func (gc *GC) blacken(o Object) {
	switch v := o.(type) {
	case *ObjString, *ObjNative:
		// no references
	case *ObjFunction:
		if v.Name != nil {
			gc.markObject(v.Name)
		}
		for _, c := range v.Chunk.Constants {
			gc.markValue(c)
		}
	case *ObjClosure:
		gc.markObject(v.Function)
		for _, uv := range v.Upvalues {
			gc.markObject(uv)
		}
	case *ObjUpvalue:
		gc.markValue(v.Closed) // safe even while open: Closed holds Nil then
	case *ObjClass:
		gc.markObject(v.Name)
		v.Methods.Mark(gc)
		gc.markValue(v.Initializer)
	case *ObjInstance:
		gc.markObject(v.Class)
		v.Fields.Mark(gc)
	case *ObjBoundMethod:
		gc.markValue(v.Receiver)
		gc.markObject(v.Method)
	}
}

// sweep walks the intrusive allocation list, unlinking and dropping every
// unmarked object, and clears the mark bit on survivors.
func (gc *GC) sweep() {
	var prev Object
	obj := gc.objects
	for obj != nil {
		h := obj.header()
		if h.marked {
			h.marked = false
			prev = obj
			obj = h.next
			continue
		}
		unreached := obj
		obj = h.next
		if prev != nil {
			prev.header().next = obj
		} else {
			gc.objects = obj
		}
		gc.bytesAllocated -= objectSize(unreached)
	}
}
