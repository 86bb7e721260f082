package vm

import (
	"fmt"
	"hash/fnv"
	"os"
	"time"
)

// Sentinel errors used for internal control flow, not surfaced to scripts.
var (
	errStackOverflow = fmt.Errorf("Stack overflow.")
)

// MaxFrames bounds call-frame depth per §3/§8, used when no VMConfig
// overrides it.
const MaxFrames = 64

// InitialStackSize is the operand stack's starting capacity; it grows on
// demand as frames push more locals/temporaries than it currently holds.
// Used when no VMConfig overrides it.
const InitialStackSize = 256

// CallFrame is the bookkeeping for one active call: its closure, an
// instruction pointer into that closure's function's chunk, and the base
// index on the value stack that slot 0 of the frame maps to.
type CallFrame struct {
	closure *ObjClosure
	ip      int
	base    int
}

// InterpretResult is the outcome of one VM.Interpret call.
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

// VM is the explicit, threadable interpreter state: operand stack, call
// frames, globals, open upvalues and the allocator it shares with the
// compiler. There is no hidden package-level singleton.
type VM struct {
	stack []Value
	sp    int

	frames     []CallFrame
	frameCount int
	maxFrames  int

	globals *Table

	openUpvalues *ObjUpvalue

	strings *Table // the string intern table
	gc      *GC

	initString *ObjString

	Out   *os.File
	Flags *DebugFlags

	// compiler is the Parser of the compile in progress, if any. The GC
	// reaches through its innermost Compiler's chain to mark partially-built
	// functions that aren't yet reachable from any stack slot.
	compiler rootMarker
}

// rootMarker is implemented by *Parser and *Compiler; kept as an interface
// here so this package's vm.go doesn't need to know compiler.go's internals.
type rootMarker interface {
	markCompilerRoots(gc *GC)
}

// Tuning holds the sizing/threshold knobs a host can override, normally
// sourced from internal/config's VMConfig. Zero-value fields take the
// package defaults.
type Tuning struct {
	InitialStackSize int
	MaxFrames        int
	InitialNextGC    int64
	GCGrowthFactor   float64
}

// NewVM constructs a VM with empty globals/intern table and registers the
// two built-in natives (clock, deleteField), using the package defaults
// for stack/frame sizing and GC thresholds.
func NewVM(flags *DebugFlags) *VM {
	return NewVMWithTuning(flags, Tuning{})
}

// NewVMWithTuning is NewVM with every sizing/threshold knob overridable,
// for hosts that load an ember.yaml via internal/config.
func NewVMWithTuning(flags *DebugFlags, tuning Tuning) *VM {
	if flags == nil {
		flags = &DebugFlags{}
	}
	stackSize := tuning.InitialStackSize
	if stackSize <= 0 {
		stackSize = InitialStackSize
	}
	maxFrames := tuning.MaxFrames
	if maxFrames <= 0 {
		maxFrames = MaxFrames
	}

	vm := &VM{
		stack:     make([]Value, stackSize),
		frames:    make([]CallFrame, maxFrames),
		maxFrames: maxFrames,
		globals:   NewTable(),
		strings:   NewTable(),
		gc:        NewGC(flags, tuning.InitialNextGC, tuning.GCGrowthFactor),
		Out:       os.Stdout,
		Flags:     flags,
	}
	vm.initString = vm.internString("init")
	registerNatives(vm)
	return vm
}

func (vm *VM) internTable() *Table { return vm.strings }

// internString returns the canonical *ObjString for chars, allocating and
// interning a new one only if none exists yet.
func (vm *VM) internString(chars string) *ObjString {
	hash := fnvHash(chars)
	if existing := vm.strings.FindString(chars, hash); existing != nil {
		return existing
	}
	s := &ObjString{Chars: chars, Hash: hash}
	vm.gc.link(s)
	// The intern table is not a GC root, so this entry alone does not keep s
	// alive: the caller must make s reachable before the VM's next
	// collection point (collections run only between instructions).
	vm.strings.Set(s, NilVal())
	return s
}

func fnvHash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

func (vm *VM) allocate(o Object) {
	vm.gc.link(o)
}

func (vm *VM) collectIfNeeded() {
	vm.gc.maybeCollect(vm)
}

// markRoots implements the GC's roots interface: stack slots, frame
// closures, open upvalues, globals, init_string, and the compiler chain.
func (vm *VM) markRoots(gc *GC) {
	for i := 0; i < vm.sp; i++ {
		gc.markValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		gc.markObject(vm.frames[i].closure)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.Next {
		gc.markObject(uv)
	}
	vm.globals.Mark(gc)
	if vm.initString != nil {
		gc.markObject(vm.initString)
	}
	if vm.compiler != nil {
		vm.compiler.markCompilerRoots(gc)
	}
}

func (vm *VM) resetStack() {
	vm.sp = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

func (vm *VM) push(v Value) {
	if vm.sp == len(vm.stack) {
		vm.stack = append(vm.stack, v)
		vm.sp++
		return
	}
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() Value {
	vm.sp--
	return vm.stack[vm.sp]
}

func (vm *VM) peek(distance int) Value {
	return vm.stack[vm.sp-1-distance]
}

// runtimeError formats err with the current line and a stack trace
// (innermost frame first), writes it to stderr, and resets the VM's
// stacks. The heap, globals and allocator state are left intact so the
// next Interpret call can still run.
func (vm *VM) runtimeError(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "%s\n", msg)

	for i := vm.frameCount - 1; i >= 0; i-- {
		f := &vm.frames[i]
		fn := f.closure.Function
		instr := f.ip - 1
		name := "script"
		if fn.Name != nil {
			name = fn.Name.Chars + "()"
		} else {
			name = "script"
		}
		fmt.Fprintf(os.Stderr, "[line %d] in %s\n", fn.Chunk.LineAt(instr), name)
	}

	vm.resetStack()
	return fmt.Errorf("%s", msg)
}

// clockStart anchors the `clock()` native's wall-clock reading.
var clockStart = time.Now()

// Interpret compiles and runs source, returning the outcome code per §6.
func (vm *VM) Interpret(source string) InterpretResult {
	fn, ok := Compile(source, vm)
	if !ok {
		return InterpretCompileError
	}

	vm.push(ObjVal(fn))
	closure := vm.newClosure(fn)
	vm.pop()
	vm.push(ObjVal(closure))
	if err := vm.call(closure, 0); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return InterpretRuntimeError
	}

	if err := vm.run(); err != nil {
		return InterpretRuntimeError
	}
	return InterpretOK
}
