// Package grammar parses the textual SSA assembly used to drive the
// analyzer from the command line and from tests. It follows the same
// shape the Kanso language front end uses: a stateful participle lexer
// feeding a struct-tag grammar that produces a position-tracked parse
// tree, later lowered into internal/ir by Build.
package grammar

import "github.com/alecthomas/participle/v2/lexer"

// Module is the root of a parsed file: a flat list of function
// definitions and external declarations.
type Module struct {
	Pos   lexer.Position
	Items []*TopLevel `"module" "{" @@* "}"`
}

type TopLevel struct {
	Pos     lexer.Position
	Declare *Declare  `  @@`
	Fn      *Function `| @@`
}

// Declare introduces an external function: the engine passes calls to it
// through untouched (spec §4.6).
type Declare struct {
	Pos    lexer.Position
	Name   string   `"declare" "@" @Ident "("`
	Params []string `[ "%" @Ident { "," "%" @Ident } ] ")"`
}

type Function struct {
	Pos    lexer.Position
	Name   string   `"fn" "@" @Ident "("`
	Params []string `[ "%" @Ident { "," "%" @Ident } ] ")"`
	Blocks []*Block `"{" @@+ "}"`
}

type Block struct {
	Pos    lexer.Position
	Label  string  `@Ident ":"`
	Instrs []*Instr `@@*`
}

type Instr struct {
	Pos   lexer.Position
	Value *ValueInstr `  @@`
	Void  *VoidInstr  `| @@`
}

// ValueInstr is any instruction that binds a result register.
type ValueInstr struct {
	Pos    lexer.Position
	Result string    `"%" @Ident "="`
	Alloca *AllocaOp `(  @@`
	Index  *IndexOp  ` | @@`
	Load   *LoadOp   ` | @@`
	Binary *BinaryOp ` | @@`
	Cast   *CastOp   ` | @@`
	Cmp    *CmpOp    ` | @@`
	Call   *CallOp   ` | @@`
	Phi    *PhiOp    ` | @@ )`
}

// VoidInstr is any instruction with no result.
type VoidInstr struct {
	Pos   lexer.Position
	Store *StoreOp `(  @@`
	Ret   *RetOp   ` | @@`
	Br    *BrOp    ` | @@`
	Jmp   *JmpOp   ` | @@ )`
}

type AllocaOp struct {
	Type  *Type    `"alloca" @@`
	Count *Operand `[ "," @@ ]`
}

type IndexOp struct {
	Base     *Operand `"index" @@ ","`
	ElemType *Type    `@@ ","`
	Index    *Operand `@@`
}

type LoadOp struct {
	Addr *Operand `"load" @@`
}

type StoreOp struct {
	Value *Operand `"store" @@ ","`
	Addr  *Operand `@@`
}

type BinaryOp struct {
	Op    string   `@("add"|"sub"|"mul"|"sdiv"|"srem"|"and"|"or"|"xor"|"shl"|"ashr"|"lshr")`
	Left  *Operand `@@ ","`
	Right *Operand `@@`
}

type CastOp struct {
	Op    string   `@("trunc"|"sext"|"zext")`
	Value *Operand `@@`
	To    *Type    `"to" @@`
}

type CmpOp struct {
	Pred  string   `"icmp" @("eq"|"ne"|"slt"|"sle"|"sgt"|"sge"|"ult"|"ule"|"ugt"|"uge")`
	Left  *Operand `@@ ","`
	Right *Operand `@@`
}

type CallOp struct {
	Callee string     `"call" "@" @Ident "("`
	Args   []*Operand `[ @@ { "," @@ } ] ")"`
}

type PhiOp struct {
	Args []*PhiArg `"phi" @@ { "," @@ }`
}

type PhiArg struct {
	Value *Operand `"[" @@ ","`
	Block string   `@Ident "]"`
}

type RetOp struct {
	Value *Operand `"ret" [ @@ ]`
}

type BrOp struct {
	Cond  *Operand `"br" @@ ","`
	True  string   `@Ident ","`
	False string   `@Ident`
}

type JmpOp struct {
	Target string `"jmp" @Ident`
}

// Operand is either an SSA register reference or an inline integer
// constant. Negative integers (e.g. the -1 index of scenario S6) are
// handled in the lexer's Integer pattern rather than here, since this
// grammar has no infix subtraction to disambiguate against.
type Operand struct {
	Pos   lexer.Position
	Ident *string `  "%" @Ident`
	Int   *string `| @Integer`
}

// Type is the textual form of ir.Type: ints (i32), arrays ([N x T]),
// structs ({T, T, ...}), and pointer suffixes (T*).
type Type struct {
	Pos   lexer.Position
	Base  *BaseType `@@`
	Stars []string  `{ @"*" }`
}

type BaseType struct {
	Int    *IntType    `  @@`
	Array  *ArrayType  `| @@`
	Struct *StructType `| @@`
}

type IntType struct {
	Bits string `"i" @Integer`
}

type ArrayType struct {
	Count string `"[" @Integer`
	Elem  *Type  `"x" @@ "]"`
}

type StructType struct {
	Fields []*Type `"{" [ @@ { "," @@ } ] "}"`
}
