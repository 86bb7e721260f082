package vm

import "github.com/emberlang/ember/internal/token"

// declaration compiles one top-level or block-level declaration, recovering
// at the next statement boundary if a compile error was reported inside it.
func (p *Parser) declaration() {
	switch {
	case p.match(token.CLASS):
		p.classDeclaration()
	case p.match(token.FUN):
		p.funDeclaration()
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.statement()
	}

	if p.panicMode {
		p.synchronize()
	}
}

func (p *Parser) varDeclaration() {
	global := p.parseVariable("Expect variable name.")

	if p.match(token.EQUAL) {
		p.expression()
	} else {
		p.emitOp(OP_NIL)
	}
	p.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	p.defineVariable(global)
}

// parseVariable consumes an identifier, declares it as a local (a no-op at
// global scope), and returns its constant-pool index (meaningless for
// locals, consumed by defineVariable only at depth 0).
func (p *Parser) parseVariable(message string) int {
	p.consume(token.IDENTIFIER, message)
	name := p.previous.Lexeme
	p.declareVariable(name)
	if p.compiler().scopeDepth > 0 {
		return 0
	}
	return p.identifierConstant(name)
}

func (p *Parser) funDeclaration() {
	global := p.parseVariable("Expect function name.")
	p.markInitialized()
	p.function(KindFunction)
	p.defineVariable(global)
}

// function compiles one function body (the fun keyword's parameters and
// block) as a nested Compiler, emitting OP_CLOSURE plus one (isLocal,index)
// pair per upvalue it captured, back into the *enclosing* function's chunk.
func (p *Parser) function(kind FunctionKind) {
	c := newCompiler(p.compiler(), kind, p.vm)
	c.function.Name = p.vm.internString(p.previous.Lexeme)
	p.comp = c

	p.beginScope()
	p.consume(token.LEFT_PAREN, "Expect '(' after function name.")
	if !p.check(token.RIGHT_PAREN) {
		for {
			c.function.Arity++
			if c.function.Arity > maxParams {
				p.errorAtCurrent("Can't have more than 255 parameters.")
			}
			paramConst := p.parseVariable("Expect parameter name.")
			p.defineVariable(paramConst)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RIGHT_PAREN, "Expect ')' after parameters.")
	p.consume(token.LEFT_BRACE, "Expect '{' before function body.")
	p.block()

	fn := p.endCompiler()
	idx := p.chunk().AddConstant(ObjVal(fn))
	p.emitConstantIndexOp(OP_CLOSURE, idx)
	for _, uv := range c.upvalues {
		if uv.isLocal {
			p.emitByte(1)
		} else {
			p.emitByte(0)
		}
		p.emitByte(uv.index)
	}
}

// classDeclaration compiles `class Name [< Super] { method* }`. Each method
// is compiled as a function whose Kind is Initializer when named "init",
// Method otherwise; OP_METHOD binds the just-compiled closure into the
// class sitting beneath it on the stack.
func (p *Parser) classDeclaration() {
	p.consume(token.IDENTIFIER, "Expect class name.")
	className := p.previous.Lexeme
	nameConst := p.identifierConstant(className)
	p.declareVariable(className)

	p.emitConstantIndexOp(OP_CLASS, nameConst)
	p.defineVariable(nameConst)

	cc := &classCompiler{enclosing: p.class}
	p.class = cc

	if p.match(token.LESS) {
		p.consume(token.IDENTIFIER, "Expect superclass name.")
		p.namedVariable(p.previous.Lexeme, false)
		if p.previous.Lexeme == className {
			p.error("A class can't inherit from itself.")
		}

		p.beginScope()
		p.addLocal("super")
		p.defineVariable(0)

		p.namedVariable(className, false)
		p.emitOp(OP_INHERIT)
		cc.hasSuperclass = true
	}

	p.namedVariable(className, false)
	p.consume(token.LEFT_BRACE, "Expect '{' before class body.")
	for !p.check(token.RIGHT_BRACE) && !p.check(token.EOF) {
		p.method()
	}
	p.consume(token.RIGHT_BRACE, "Expect '}' after class body.")
	p.emitOp(OP_POP) // the class itself, pushed again for namedVariable above

	if cc.hasSuperclass {
		p.endScope()
	}
	p.class = cc.enclosing
}

func (p *Parser) method() {
	p.consume(token.IDENTIFIER, "Expect method name.")
	name := p.previous.Lexeme
	nameConst := p.identifierConstant(name)

	kind := KindMethod
	if name == "init" {
		kind = KindInitializer
	}
	p.function(kind)
	p.emitConstantIndexOp(OP_METHOD, nameConst)
}

func (p *Parser) statement() {
	switch {
	case p.match(token.PRINT):
		p.printStatement()
	case p.match(token.IF):
		p.ifStatement()
	case p.match(token.WHILE):
		p.whileStatement()
	case p.match(token.FOR):
		p.forStatement()
	case p.match(token.SWITCH):
		p.switchStatement()
	case p.match(token.RETURN):
		p.returnStatement()
	case p.match(token.CONTINUE):
		p.continueStatement()
	case p.match(token.LEFT_BRACE):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *Parser) block() {
	for !p.check(token.RIGHT_BRACE) && !p.check(token.EOF) {
		p.declaration()
	}
	p.consume(token.RIGHT_BRACE, "Expect '}' after block.")
}

func (p *Parser) printStatement() {
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after value.")
	p.emitOp(OP_PRINT)
}

func (p *Parser) expressionStatement() {
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after expression.")
	p.emitOp(OP_POP)
}

func (p *Parser) ifStatement() {
	p.consume(token.LEFT_PAREN, "Expect '(' after 'if'.")
	p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	thenJump := p.emitJump(OP_JUMP_IF_FALSE)
	p.emitOp(OP_POP)
	p.statement()

	elseJump := p.emitJump(OP_JUMP)
	p.patchJump(thenJump)
	p.emitOp(OP_POP)

	if p.match(token.ELSE) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *Parser) whileStatement() {
	loopStart := p.chunk().Len()
	c := p.compiler()
	c.loops = append(c.loops, loopContext{start: loopStart, scopeDepth: c.scopeDepth})

	p.consume(token.LEFT_PAREN, "Expect '(' after 'while'.")
	p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	exitJump := p.emitJump(OP_JUMP_IF_FALSE)
	p.emitOp(OP_POP)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitOp(OP_POP)

	c.loops = c.loops[:len(c.loops)-1]
}

// forStatement desugars `for (init; cond; incr) body` into the equivalent
// while loop's bytecode shape: init runs once, cond gated by a
// jump-if-false, incr compiled after the body but looped back over, per
// §4.4's exact desugaring.
func (p *Parser) forStatement() {
	p.beginScope()
	p.consume(token.LEFT_PAREN, "Expect '(' after 'for'.")

	switch {
	case p.match(token.SEMICOLON):
		// no initializer
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := p.chunk().Len()
	exitJump := -1
	if !p.check(token.SEMICOLON) {
		p.expression()
		p.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = p.emitJump(OP_JUMP_IF_FALSE)
		p.emitOp(OP_POP)
	} else {
		p.advance() // consume the ';'
	}

	if !p.check(token.RIGHT_PAREN) {
		bodyJump := p.emitJump(OP_JUMP)
		incrStart := p.chunk().Len()
		p.expression()
		p.emitOp(OP_POP)
		p.consume(token.RIGHT_PAREN, "Expect ')' after for clauses.")

		p.emitLoop(loopStart)
		loopStart = incrStart
		p.patchJump(bodyJump)
	} else {
		p.advance() // consume the ')'
	}

	c := p.compiler()
	c.loops = append(c.loops, loopContext{start: loopStart, scopeDepth: c.scopeDepth})
	p.statement()
	p.emitLoop(loopStart)
	c.loops = c.loops[:len(c.loops)-1]

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOp(OP_POP)
	}
	p.endScope()
}

// continueStatement jumps back to the innermost enclosing loop's increment
// (for) or condition (while) check, popping any locals the loop body
// introduced first so the stack stays balanced.
func (p *Parser) continueStatement() {
	c := p.compiler()
	if len(c.loops) == 0 {
		p.error("Can't use 'continue' outside a loop.")
		p.consume(token.SEMICOLON, "Expect ';' after 'continue'.")
		return
	}
	loop := c.loops[len(c.loops)-1]
	for i := len(c.locals) - 1; i >= 0 && c.locals[i].depth > loop.scopeDepth; i-- {
		if c.locals[i].isCaptured {
			p.emitOp(OP_CLOSE_UPVALUE)
		} else {
			p.emitOp(OP_POP)
		}
	}
	p.emitLoop(loop.start)
	p.consume(token.SEMICOLON, "Expect ';' after 'continue'.")
}

// switchStatement compiles `switch (expr) { case v: stmts... default: stmts }`
// as a chain of equality tests against the switch value, each case body
// guarded by its own jump-if-false, matching how if/else-if chains compile.
func (p *Parser) switchStatement() {
	p.consume(token.LEFT_PAREN, "Expect '(' after 'switch'.")
	p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after switch value.")
	p.consume(token.LEFT_BRACE, "Expect '{' before switch body.")

	var endJumps []int
	sawDefault := false

	for p.match(token.CASE) {
		p.emitOp(OP_DUP)
		p.expression()
		p.consume(token.COLON, "Expect ':' after case value.")
		p.emitOp(OP_EQUAL)
		nextCase := p.emitJump(OP_JUMP_IF_FALSE)
		p.emitOp(OP_POP) // the comparison result
		p.emitOp(OP_POP) // the duplicated switch value
		for !p.check(token.CASE) && !p.check(token.DEFAULT) && !p.check(token.RIGHT_BRACE) {
			p.statement()
		}
		endJumps = append(endJumps, p.emitJump(OP_JUMP))
		p.patchJump(nextCase)
		p.emitOp(OP_POP) // the comparison result
	}

	if p.match(token.DEFAULT) {
		sawDefault = true
		p.consume(token.COLON, "Expect ':' after 'default'.")
		p.emitOp(OP_POP) // the switch value, unmatched by any case
		for !p.check(token.RIGHT_BRACE) {
			p.statement()
		}
	}
	if !sawDefault {
		p.emitOp(OP_POP) // the switch value, unmatched by any case
	}

	for _, j := range endJumps {
		p.patchJump(j)
	}
	p.consume(token.RIGHT_BRACE, "Expect '}' after switch body.")
}

func (p *Parser) returnStatement() {
	if p.compiler().kind == KindScript {
		p.error("Can't return from top-level code.")
	}
	if p.match(token.SEMICOLON) {
		p.emitReturn()
		return
	}
	if p.compiler().kind == KindInitializer {
		p.error("Can't return a value from an initializer.")
	}
	p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after return value.")
	p.emitOp(OP_RETURN)
}
