package vm

import (
	"fmt"
	"os"

	"github.com/emberlang/ember/internal/lexer"
	"github.com/emberlang/ember/internal/token"
)

// FunctionKind distinguishes the four contexts a Compiler can be compiling
// for, since methods/initializers get a synthetic `this` in local slot 0
// and top-level script code gets neither a name nor a receiver.
type FunctionKind int

const (
	KindScript FunctionKind = iota
	KindFunction
	KindMethod
	KindInitializer
)

// maxLocals and maxUpvalues are the fixed-capacity bounds per §8.
const (
	maxLocals   = 256
	maxUpvalues = 256
	maxParams   = 255
)

type localVar struct {
	name       string
	depth      int // -1 means "declared but not yet initialized"
	isCaptured bool
}

type upvalueRef struct {
	index   byte
	isLocal bool
}

type loopContext struct {
	start      int // offset to loop back to on `continue`
	scopeDepth int // scope depth when the loop body started
}

// Compiler holds the per-function compilation state: the function being
// built, its locals and upvalues, and a link to the enclosing function's
// Compiler so nested functions can resolve captures.
type Compiler struct {
	enclosing *Compiler
	function  *ObjFunction
	kind      FunctionKind

	locals     []localVar
	upvalues   []upvalueRef
	scopeDepth int

	loops []loopContext

	// stringConstants dedupes identifier constants within this function's
	// pool, per §4.4 "String constants deduplication".
	stringConstants map[*ObjString]int
}

func newCompiler(enclosing *Compiler, kind FunctionKind, vm *VM) *Compiler {
	c := &Compiler{
		enclosing:       enclosing,
		kind:            kind,
		function:        vm.newFunction(),
		stringConstants: make(map[*ObjString]int),
	}
	// Slot 0 is reserved: `this` for methods/initializers, otherwise an
	// empty name that ordinary declarations can never shadow.
	name := ""
	if kind != KindFunction && kind != KindScript {
		name = "this"
	}
	c.locals = append(c.locals, localVar{name: name, depth: 0})
	return c
}

// markCompilerRoots implements rootMarker: every enclosing Compiler's
// partially-built Function must be kept alive even though it isn't yet
// reachable from any VM stack slot or closure.
func (c *Compiler) markCompilerRoots(gc *GC) {
	for cc := c; cc != nil; cc = cc.enclosing {
		gc.markObject(cc.function)
	}
}

// markCompilerRoots lets the Parser serve as the VM's compile-time root: it
// marks the chain starting at its current innermost Compiler.
func (p *Parser) markCompilerRoots(gc *GC) {
	if p.comp != nil {
		p.comp.markCompilerRoots(gc)
	}
}

// classCompiler tracks the class currently being compiled, so `this`/`super`
// can be validated and so `class X < X` can be rejected.
type classCompiler struct {
	enclosing     *classCompiler
	hasSuperclass bool
}

// Parser is the single-pass Pratt parser: it owns the token stream, the
// chain of nested function Compilers, and the chain of nested class
// compilers. There is no separate AST — every rule emits bytecode directly
// into the current Compiler's function's chunk.
type Parser struct {
	lexer *lexer.Lexer

	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool

	vm      *VM
	comp *Compiler // current innermost Compiler (named to avoid shadowing `current` token field)
	class   *classCompiler
}

func (p *Parser) compiler() *Compiler { return p.comp }

func (p *Parser) chunk() *Chunk { return p.comp.function.Chunk }

// Compile compiles source into a top-level script Function, or returns
// ok=false if any compile error was reported.
func Compile(source string, vm *VM) (*ObjFunction, bool) {
	p := &Parser{lexer: lexer.New(source), vm: vm}
	p.comp = newCompiler(nil, KindScript, vm)
	vm.compiler = p

	p.advance()
	for !p.match(token.EOF) {
		p.declaration()
	}
	fn := p.endCompiler()

	vm.compiler = nil
	return fn, !p.hadError
}

func (p *Parser) advance() {
	p.previous = p.current
	for {
		p.current = p.lexer.NextToken()
		if p.current.Type != token.ERROR {
			break
		}
		p.errorAtCurrent(p.current.Lexeme)
	}
}

func (p *Parser) check(t token.Type) bool { return p.current.Type == t }

func (p *Parser) match(t token.Type) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) consume(t token.Type, message string) {
	if p.current.Type == t {
		p.advance()
		return
	}
	p.errorAtCurrent(message)
}

func (p *Parser) errorAtCurrent(message string) { p.errorAt(p.current, message) }
func (p *Parser) error(message string)          { p.errorAt(p.previous, message) }

func (p *Parser) errorAt(tok token.Token, message string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	fmt.Fprintf(os.Stderr, "[line %d] Error", tok.Line)
	if tok.Type == token.EOF {
		fmt.Fprint(os.Stderr, " at end")
	} else if tok.Type == token.ERROR {
		// no lexeme to point at
	} else {
		fmt.Fprintf(os.Stderr, " at '%s'", tok.Lexeme)
	}
	fmt.Fprintf(os.Stderr, ": %s\n", message)
	p.hadError = true
}

// synchronize skips tokens after a compile error until a likely statement
// boundary, so one bad declaration doesn't cascade into spurious errors.
func (p *Parser) synchronize() {
	p.panicMode = false
	for p.current.Type != token.EOF {
		if p.previous.Type == token.SEMICOLON {
			return
		}
		switch p.current.Type {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}

// --- byte/opcode emission ---

func (p *Parser) emitByte(b byte) {
	p.chunk().Write(b, p.previous.Line)
}

func (p *Parser) emitOp(op Opcode) {
	p.chunk().WriteOp(op, p.previous.Line)
}

func (p *Parser) emitOps(a, b Opcode) {
	p.emitOp(a)
	p.emitOp(b)
}

func (p *Parser) emitOpByte(op Opcode, b byte) {
	p.emitOp(op)
	p.emitByte(b)
}

func (p *Parser) emitConstant(v Value) {
	p.chunk().WriteConstant(v, p.previous.Line)
}

// emitJump emits a jump opcode with a placeholder 16-bit operand and
// returns the offset to later patch with patchJump.
func (p *Parser) emitJump(op Opcode) int {
	p.emitOp(op)
	p.emitByte(0xff)
	p.emitByte(0xff)
	return p.chunk().Len() - 2
}

func (p *Parser) patchJump(offset int) {
	jump := p.chunk().Len() - offset - 2
	if jump > 0xFFFF {
		p.error("Too much code to jump over.")
	}
	p.chunk().Code[offset] = byte(jump >> 8)
	p.chunk().Code[offset+1] = byte(jump)
}

func (p *Parser) emitLoop(loopStart int) {
	p.emitOp(OP_LOOP)
	offset := p.chunk().Len() - loopStart + 2
	if offset > 0xFFFF {
		p.error("Loop body too large.")
	}
	p.emitByte(byte(offset >> 8))
	p.emitByte(byte(offset))
}

// emitReturn emits the implicit return every function gets if control falls
// off its end: `this` for initializers, Nil otherwise.
func (p *Parser) emitReturn() {
	if p.compiler().kind == KindInitializer {
		p.emitOpByte(OP_GET_LOCAL, 0)
	} else {
		p.emitOp(OP_NIL)
	}
	p.emitOp(OP_RETURN)
}

func (p *Parser) endCompiler() *ObjFunction {
	p.emitReturn()
	fn := p.compiler().function
	if p.vm.Flags.PrintCode && !p.hadError {
		name := "<script>"
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		fmt.Fprint(os.Stderr, Disassemble(fn.Chunk, name))
	}
	p.comp = p.compiler().enclosing
	return fn
}

// identifierConstant interns name and adds it to the current function's
// constant pool, deduplicating via the Compiler's stringConstants map (keyed
// by the interned *ObjString) so the same name never produces two
// constant-pool entries in one function.
func (p *Parser) identifierConstant(name string) int {
	s := p.vm.internString(name)
	c := p.compiler()
	if idx, ok := c.stringConstants[s]; ok {
		return idx
	}
	idx := p.chunk().AddConstant(ObjVal(s))
	c.stringConstants[s] = idx
	return idx
}
