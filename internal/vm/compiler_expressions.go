package vm

import (
	"strconv"

	"github.com/emberlang/ember/internal/token"
)

// Precedence orders binding power from loosest to tightest, per §4.4's
// table: assignment binds loosest (right-associative, handled specially),
// primary tightest.
type Precedence int

const (
	PrecNone       Precedence = iota
	PrecAssignment            // =
	PrecConditional           // ?:
	PrecOr                    // or
	PrecAnd                   // and
	PrecEquality              // == !=
	PrecComparison            // < > <= >=
	PrecTerm                  // + -
	PrecFactor                // * / %
	PrecUnary                 // ! -
	PrecCall                  // . ()
	PrecPrimary
)

type parseFn func(p *Parser, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

var rules map[token.Type]parseRule

func init() {
	rules = map[token.Type]parseRule{
		token.LEFT_PAREN:    {prefix: (*Parser).grouping, infix: (*Parser).call, precedence: PrecCall},
		token.DOT:           {infix: (*Parser).dot, precedence: PrecCall},
		token.MINUS:         {prefix: (*Parser).unary, infix: (*Parser).binary, precedence: PrecTerm},
		token.PLUS:          {infix: (*Parser).binary, precedence: PrecTerm},
		token.SLASH:         {infix: (*Parser).binary, precedence: PrecFactor},
		token.STAR:          {infix: (*Parser).binary, precedence: PrecFactor},
		token.PERCENT:       {infix: (*Parser).binary, precedence: PrecFactor},
		token.BANG:          {prefix: (*Parser).unary},
		token.BANG_EQUAL:    {infix: (*Parser).binary, precedence: PrecEquality},
		token.EQUAL_EQUAL:   {infix: (*Parser).binary, precedence: PrecEquality},
		token.GREATER:       {infix: (*Parser).binary, precedence: PrecComparison},
		token.GREATER_EQUAL: {infix: (*Parser).binary, precedence: PrecComparison},
		token.LESS:          {infix: (*Parser).binary, precedence: PrecComparison},
		token.LESS_EQUAL:    {infix: (*Parser).binary, precedence: PrecComparison},
		token.IDENTIFIER:    {prefix: (*Parser).variable},
		token.STRING:        {prefix: (*Parser).string},
		token.NUMBER:        {prefix: (*Parser).number},
		token.AND:           {infix: (*Parser).and_, precedence: PrecAnd},
		token.OR:            {infix: (*Parser).or_, precedence: PrecOr},
		token.QUESTION:      {infix: (*Parser).conditional, precedence: PrecConditional},
		token.FALSE:         {prefix: (*Parser).literal},
		token.NIL:           {prefix: (*Parser).literal},
		token.TRUE:          {prefix: (*Parser).literal},
		token.THIS:          {prefix: (*Parser).this},
		token.SUPER:         {prefix: (*Parser).super},
	}
}

func (p *Parser) getRule(t token.Type) parseRule { return rules[t] }

// expression compiles a full expression at the loosest precedence above
// "none": assignment.
func (p *Parser) expression() {
	p.parsePrecedence(PrecAssignment)
}

// parsePrecedence is the heart of the Pratt parser: it runs the prefix rule
// for p.current, then repeatedly consumes infix rules whose precedence is
// at least precedence, left-to-right.
func (p *Parser) parsePrecedence(precedence Precedence) {
	p.advance()
	prefixRule := p.getRule(p.previous.Type).prefix
	if prefixRule == nil {
		p.error("Expect expression.")
		return
	}

	canAssign := precedence <= PrecAssignment
	prefixRule(p, canAssign)

	for precedence <= p.getRule(p.current.Type).precedence {
		p.advance()
		infixRule := p.getRule(p.previous.Type).infix
		infixRule(p, canAssign)
	}

	if canAssign && p.match(token.EQUAL) {
		p.error("Invalid assignment target.")
	}
}

func (p *Parser) number(canAssign bool) {
	n, err := strconv.ParseFloat(p.previous.Lexeme, 64)
	if err != nil {
		p.error("Invalid number literal.")
		return
	}
	p.emitConstant(NumberVal(n))
}

func (p *Parser) string(canAssign bool) {
	raw := p.previous.Lexeme
	s := p.vm.internString(raw[1 : len(raw)-1])
	p.emitConstant(ObjVal(s))
}

func (p *Parser) literal(canAssign bool) {
	switch p.previous.Type {
	case token.FALSE:
		p.emitOp(OP_FALSE)
	case token.NIL:
		p.emitOp(OP_NIL)
	case token.TRUE:
		p.emitOp(OP_TRUE)
	}
}

func (p *Parser) grouping(canAssign bool) {
	p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after expression.")
}

func (p *Parser) unary(canAssign bool) {
	opType := p.previous.Type
	p.parsePrecedence(PrecUnary)
	switch opType {
	case token.BANG:
		p.emitOp(OP_NOT)
	case token.MINUS:
		p.emitOp(OP_NEGATE)
	}
}

// binary compiles the right operand of a two-operand infix expression and
// emits its opcode. `!=`, `<=` and `>=` are not opcodes in their own right:
// they compile to the opposite test plus OP_NOT, per §4.4.
func (p *Parser) binary(canAssign bool) {
	opType := p.previous.Type
	rule := p.getRule(opType)
	p.parsePrecedence(rule.precedence + 1)

	switch opType {
	case token.PLUS:
		p.emitOp(OP_ADD)
	case token.MINUS:
		// Having both OP_NEGATE and OP_SUBTRACT is redundant; subtraction
		// compiles as negate-then-add (see vm_exec.go: OP_SUBTRACT is never
		// emitted and is unreachable at runtime).
		p.emitOps(OP_NEGATE, OP_ADD)
	case token.STAR:
		p.emitOp(OP_MULTIPLY)
	case token.SLASH:
		p.emitOp(OP_DIVIDE)
	case token.PERCENT:
		p.emitOp(OP_MODULUS)
	case token.EQUAL_EQUAL:
		p.emitOp(OP_EQUAL)
	case token.BANG_EQUAL:
		p.emitOps(OP_EQUAL, OP_NOT)
	case token.GREATER:
		p.emitOp(OP_GREATER)
	case token.GREATER_EQUAL:
		p.emitOps(OP_LESS, OP_NOT)
	case token.LESS:
		p.emitOp(OP_LESS)
	case token.LESS_EQUAL:
		p.emitOps(OP_GREATER, OP_NOT)
	}
}

// and_ short-circuits: if the left operand is falsey, skip the right
// operand and leave the falsey left value as the result.
func (p *Parser) and_(canAssign bool) {
	endJump := p.emitJump(OP_JUMP_IF_FALSE)
	p.emitOp(OP_POP)
	p.parsePrecedence(PrecAnd)
	p.patchJump(endJump)
}

// or_ short-circuits the opposite way: if the left operand is already
// truthy, skip the right operand entirely.
func (p *Parser) or_(canAssign bool) {
	elseJump := p.emitJump(OP_JUMP_IF_FALSE)
	endJump := p.emitJump(OP_JUMP)

	p.patchJump(elseJump)
	p.emitOp(OP_POP)

	p.parsePrecedence(PrecOr)
	p.patchJump(endJump)
}

// conditional compiles `cond ? then : else` via the same jump opcodes as
// if/else — OP_CONDITIONAL itself is never emitted (see vm_exec.go).
func (p *Parser) conditional(canAssign bool) {
	thenJump := p.emitJump(OP_JUMP_IF_FALSE)
	p.emitOp(OP_POP)
	p.parsePrecedence(PrecAssignment)

	elseJump := p.emitJump(OP_JUMP)
	p.consume(token.COLON, "Expect ':' after then branch of conditional expression.")
	p.patchJump(thenJump)
	p.emitOp(OP_POP)
	p.parsePrecedence(PrecConditional)
	p.patchJump(elseJump)
}

func (p *Parser) call(canAssign bool) {
	argCount := p.argumentList()
	p.emitOpByte(OP_CALL, byte(argCount))
}

func (p *Parser) argumentList() int {
	argCount := 0
	if !p.check(token.RIGHT_PAREN) {
		for {
			p.expression()
			if argCount == 255 {
				p.error("Can't have more than 255 arguments.")
			}
			argCount++
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RIGHT_PAREN, "Expect ')' after arguments.")
	return argCount
}

// dot compiles `.name`, `.name = value`, and the OP_INVOKE fusion for
// `.name(args)`, which skips the intermediate bound-method allocation.
func (p *Parser) dot(canAssign bool) {
	p.consume(token.IDENTIFIER, "Expect property name after '.'.")
	name := p.previous.Lexeme
	nameConst := p.identifierConstant(name)

	switch {
	case canAssign && p.match(token.EQUAL):
		p.expression()
		p.emitConstantIndexOp(OP_SET_PROPERTY, nameConst)
	case p.match(token.LEFT_PAREN):
		argCount := p.argumentList()
		p.emitOp(OP_INVOKE)
		p.emitByte(byte(nameConst))
		p.emitByte(byte(argCount))
	default:
		p.emitConstantIndexOp(OP_GET_PROPERTY, nameConst)
	}
}

func (p *Parser) variable(canAssign bool) {
	p.namedVariable(p.previous.Lexeme, canAssign)
}

func (p *Parser) this(canAssign bool) {
	if p.class == nil {
		p.error("Can't use 'this' outside of a class.")
		return
	}
	p.variable(false)
}

// super compiles `super.name` and its OP_SUPER_INVOKE fusion for
// `super.name(args)`. Both push `this` then the superclass, matching what
// OP_GET_SUPER / OP_SUPER_INVOKE expect on the stack.
func (p *Parser) super(canAssign bool) {
	if p.class == nil {
		p.error("Can't use 'super' outside of a class.")
	} else if !p.class.hasSuperclass {
		p.error("Can't use 'super' in a class with no superclass.")
	}

	p.consume(token.DOT, "Expect '.' after 'super'.")
	p.consume(token.IDENTIFIER, "Expect superclass method name.")
	name := p.previous.Lexeme
	nameConst := p.identifierConstant(name)

	p.namedVariable("this", false)
	if p.match(token.LEFT_PAREN) {
		argCount := p.argumentList()
		p.namedVariable("super", false)
		p.emitOp(OP_SUPER_INVOKE)
		p.emitByte(byte(nameConst))
		p.emitByte(byte(argCount))
	} else {
		p.namedVariable("super", false)
		p.emitConstantIndexOp(OP_GET_SUPER, nameConst)
	}
}
