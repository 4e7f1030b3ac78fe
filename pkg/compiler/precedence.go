package compiler

import "github.com/loxvm/loxvm/pkg/scanner"

// Precedence levels, ascending from loosest to tightest binding.
// Because Go's iota assigns strictly increasing values, comparing two
// Precedence constants with < or <= directly expresses "binds less
// tightly than".
type Precedence int

const (
	PrecNone       Precedence = iota
	PrecAssignment            // =
	PrecOr                    // or
	PrecAnd                   // and
	PrecEquality              // == !=
	PrecComparison            // < > <= >=
	PrecTerm                  // + -
	PrecFactor                // * /
	PrecUnary                 // ! -
	PrecCall                  // . ()
	PrecPrimary
)

// parseFn is a parsing action bound to a token kind: either a prefix
// handler (invoked once advance() has moved past the token that starts
// an expression) or an infix handler (invoked with the left-hand side
// already compiled and sitting on the value stack). canAssign threads
// through whether `=` may legally follow, checked in parsePrecedence.
type parseFn func(c *Compiler, canAssign bool)

// ParseRule is the {prefix, infix, precedence} triple that drives
// emission for a given token kind. Rather than a literal function-pointer
// table, rules is a static map from token kind to Go method values:
// closures bound to the (*Compiler) receiver type, which is the natural
// Go rendering of a closed tagged enum over token kinds feeding a
// dispatch.
var rules map[scanner.TokenType]ParseRule

type ParseRule struct {
	Prefix     parseFn
	Infix      parseFn
	Precedence Precedence
}

func init() {
	rules = map[scanner.TokenType]ParseRule{
		scanner.TokenLeftParen:    {Prefix: (*Compiler).grouping, Infix: (*Compiler).call, Precedence: PrecCall},
		scanner.TokenRightParen:   {},
		scanner.TokenLeftBrace:    {},
		scanner.TokenRightBrace:   {},
		scanner.TokenComma:        {},
		scanner.TokenDot:          {},
		scanner.TokenMinus:        {Prefix: (*Compiler).unary, Infix: (*Compiler).binary, Precedence: PrecTerm},
		scanner.TokenPlus:         {Infix: (*Compiler).binary, Precedence: PrecTerm},
		scanner.TokenSemicolon:    {},
		scanner.TokenSlash:        {Infix: (*Compiler).binary, Precedence: PrecFactor},
		scanner.TokenStar:         {Infix: (*Compiler).binary, Precedence: PrecFactor},
		scanner.TokenBang:         {Prefix: (*Compiler).unary},
		scanner.TokenBangEqual:    {Infix: (*Compiler).binary, Precedence: PrecEquality},
		scanner.TokenEqual:        {},
		scanner.TokenEqualEqual:   {Infix: (*Compiler).binary, Precedence: PrecEquality},
		scanner.TokenGreater:      {Infix: (*Compiler).binary, Precedence: PrecComparison},
		scanner.TokenGreaterEqual: {Infix: (*Compiler).binary, Precedence: PrecComparison},
		scanner.TokenLess:         {Infix: (*Compiler).binary, Precedence: PrecComparison},
		scanner.TokenLessEqual:    {Infix: (*Compiler).binary, Precedence: PrecComparison},
		scanner.TokenIdentifier:   {Prefix: (*Compiler).variable},
		scanner.TokenString:       {Prefix: (*Compiler).string},
		scanner.TokenNumber:       {Prefix: (*Compiler).number},
		scanner.TokenAnd:          {Infix: (*Compiler).and, Precedence: PrecAnd},
		scanner.TokenClass:        {},
		scanner.TokenElse:         {},
		scanner.TokenFalse:        {Prefix: (*Compiler).literal},
		scanner.TokenFor:          {},
		scanner.TokenFun:          {},
		scanner.TokenIf:           {},
		scanner.TokenNil:          {Prefix: (*Compiler).literal},
		scanner.TokenOr:           {Infix: (*Compiler).or, Precedence: PrecOr},
		scanner.TokenPrint:        {},
		scanner.TokenReturn:       {},
		scanner.TokenSuper:        {},
		scanner.TokenThis:         {},
		scanner.TokenTrue:         {Prefix: (*Compiler).literal},
		scanner.TokenVar:          {},
		scanner.TokenWhile:        {},
		scanner.TokenError:        {},
		scanner.TokenEOF:          {},
	}
}

func getRule(tt scanner.TokenType) ParseRule {
	return rules[tt]
}
