package vm

import "github.com/emberlang/ember/internal/token"

// beginScope and endScope track lexical nesting. Locals declared inside a
// scope are popped (or closed, if captured) when the scope ends — there is
// no separate "environment" object at runtime, just slots on the operand
// stack.
func (p *Parser) beginScope() {
	p.compiler().scopeDepth++
}

func (p *Parser) endScope() {
	c := p.compiler()
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		last := c.locals[len(c.locals)-1]
		if last.isCaptured {
			p.emitOp(OP_CLOSE_UPVALUE)
		} else {
			p.emitOp(OP_POP)
		}
		c.locals = c.locals[:len(c.locals)-1]
	}
}

// declareVariable registers a local in the current scope (global names are
// handled entirely at runtime via OP_DEFINE_GLOBAL and never touch locals).
// Redeclaring a name already declared in the *same* scope is an error.
func (p *Parser) declareVariable(name string) {
	c := p.compiler()
	if c.scopeDepth == 0 {
		return
	}
	for i := len(c.locals) - 1; i >= 0; i-- {
		local := c.locals[i]
		if local.depth != -1 && local.depth < c.scopeDepth {
			break
		}
		if local.name == name {
			p.error("Already a variable with this name in this scope.")
		}
	}
	p.addLocal(name)
}

func (p *Parser) addLocal(name string) {
	c := p.compiler()
	if len(c.locals) >= maxLocals {
		p.error("Too many local variables in function.")
		return
	}
	c.locals = append(c.locals, localVar{name: name, depth: -1})
}

// markInitialized promotes the most recently declared local from "declared"
// to "defined" by giving it a real depth, so it becomes visible to its own
// initializer's nested expressions (functions) without being readable by
// itself (plain locals, see resolveLocal).
func (p *Parser) markInitialized() {
	c := p.compiler()
	if c.scopeDepth == 0 {
		return
	}
	c.locals[len(c.locals)-1].depth = c.scopeDepth
}

// defineVariable finishes a var declaration: emits OP_DEFINE_GLOBAL at
// depth 0, or simply marks the local initialized (its stack slot already
// holds the initializer's value).
func (p *Parser) defineVariable(global int) {
	if p.compiler().scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitConstantIndexOp(OP_DEFINE_GLOBAL, global)
}

// emitConstantIndexOp emits op followed by a single-byte operand: a local
// or upvalue slot (always < maxLocals/maxUpvalues, both 256) or a name's
// constant-pool index. Only OP_CONSTANT itself has a "long" three-byte
// form (see Chunk.WriteConstant); every other opcode that references the
// constant pool by name is limited to the first 256 entries, same as clox.
func (p *Parser) emitConstantIndexOp(op Opcode, idx int) {
	if idx > 0xFF {
		p.error("Too many constants in one chunk.")
	}
	p.emitOp(op)
	p.emitByte(byte(idx))
}

// resolveLocal scans the current function's locals from the innermost
// outward, returning its slot or -1 if name isn't a local here.
func (p *Parser) resolveLocal(c *Compiler, name string) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			if c.locals[i].depth == -1 {
				p.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue recursively resolves name in an enclosing function,
// capturing it as an upvalue at every intervening level and deduplicating
// so the same captured variable never gets two upvalue slots in the same
// function.
func (p *Parser) resolveUpvalue(c *Compiler, name string) int {
	if c.enclosing == nil {
		return -1
	}
	if local := p.resolveLocal(c.enclosing, name); local != -1 {
		c.enclosing.locals[local].isCaptured = true
		return p.addUpvalue(c, byte(local), true)
	}
	if up := p.resolveUpvalue(c.enclosing, name); up != -1 {
		return p.addUpvalue(c, byte(up), false)
	}
	return -1
}

func (p *Parser) addUpvalue(c *Compiler, index byte, isLocal bool) int {
	for i, uv := range c.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(c.upvalues) >= maxUpvalues {
		p.error("Too many closure variables in function.")
		return 0
	}
	c.upvalues = append(c.upvalues, upvalueRef{index: index, isLocal: isLocal})
	c.function.UpvalueCount = len(c.upvalues)
	return len(c.upvalues) - 1
}

// namedVariable compiles a read or, when canAssign is true and `=` follows,
// a write of the variable named name, dispatching to the local / upvalue /
// global opcode triple depending on where resolution finds it.
func (p *Parser) namedVariable(name string, canAssign bool) {
	var getOp, setOp Opcode
	arg := p.resolveLocal(p.compiler(), name)
	if arg != -1 {
		getOp, setOp = OP_GET_LOCAL, OP_SET_LOCAL
	} else if arg = p.resolveUpvalue(p.compiler(), name); arg != -1 {
		getOp, setOp = OP_GET_UPVALUE, OP_SET_UPVALUE
	} else {
		arg = p.identifierConstant(name)
		getOp, setOp = OP_GET_GLOBAL, OP_SET_GLOBAL
	}

	if canAssign && p.match(token.EQUAL) {
		p.expression()
		p.emitConstantIndexOp(setOp, arg)
	} else {
		p.emitConstantIndexOp(getOp, arg)
	}
}
