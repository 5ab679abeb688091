// Package ir defines the three-address intermediate representation that
// internal/sema's annotated AST lowers to, and the module-level data
// (globals, string table) that accompanies it (spec.md §3 "IR module",
// "IR instruction"). Unlike the SSA form with phi nodes the name might
// suggest from other compilers, temporaries here are generated fresh with
// no SSA guarantee and no liveness analysis beyond what the backend does
// per instruction — spec.md §3 is explicit that this is intentional.
package ir

import "fmt"

// Opcode tags an Instr's shape; not every field below is meaningful for
// every Opcode (see the comment on each Opcode constant for which fields
// it reads).
type Opcode int

const (
	MOV         Opcode = iota // Dst = Src (Width bytes; Width == 0 means full register width)
	BINOP                     // Dst = Src BinOp Src2 (Unsigned records signedness)
	UNOP                      // Dst = UnOp Src
	LOAD                      // Dst = *Src (Width bytes)
	STORE                     // *Dst = Src (Width bytes)
	LEA                       // Dst = &Src
	LOAD_INDEX                // Dst = *(Src + Src2*Width)
	STORE_INDEX               // *(Dst + Src2*Width) = Src3
	LOAD_MEMBER               // Dst = *(Src + Offset), Width bytes
	STORE_MEMBER              // *(Dst + Offset) = Src, Width bytes
	CALL                      // Dst? = call Label(ArgCount args); preceded by PARAM instrs
	PARAM                     // push Src as the next call argument
	RET                       // return Src (Src.Kind == KindNone for "return;")
	LABEL                     // Label:
	JMP                       // goto Label
	JZ                        // if Src == 0 goto Label
	JNZ                       // if Src != 0 goto Label
)

// BinOp enumerates the arithmetic/bitwise/shift/comparison operators a
// BINOP instruction can carry (spec.md §3's "+ − × ÷ % & | ^ << >> < ≤ >
// ≥ == ≠"). Logical && and || never reach a BINOP: they lower to control
// flow directly (spec.md §4.4), so they have no member here.
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Mod
	And
	Or
	Xor
	Shl
	Shr
	Lt
	Le
	Gt
	Ge
	Eq
	Ne
)

// UnOp enumerates the unary operators a UNOP instruction can carry.
// Sign/zero-extension (spec.md §3's fourth UNOP case) is folded into MOV's
// Width/Unsigned fields instead of living here: a cast or a narrow-to-wide
// load is just a MOV with a narrower source width, one opcode fewer for
// the backend to special-case.
type UnOp int

const (
	Neg  UnOp = iota
	Not       // logical !
	BNot      // bitwise ~
)

// OperandKind discriminates what an Operand denotes, replacing the
// stringly-typed operands spec.md §9 notes the source used — "implementations
// may replace operand strings with an enum {Temp(id), Local(id),
// Global(name), Imm(i64)} without changing semantics".
type OperandKind int

const (
	KindNone OperandKind = iota
	KindImm
	KindTemp
	KindLocal
	KindGlobal
)

// Operand is a value reference: a fresh temporary, a named local (resolved
// to its frame offset by the backend's slot table, built from
// Function.Params and Function.Locals), a named global, or
// an integer literal. Width/Unsigned describe the storage this operand
// denotes (1/2/4/8 bytes, sign of the C type) so the backend can apply the
// right sign/zero-extension on load without a second lookup into the
// semantic environment (spec.md §4.5 "implicit sign/zero extension on
// char/short loads"). Temporaries and immediates carry the full 8-byte
// width of a general-purpose register.
type Operand struct {
	Kind     OperandKind
	Imm      int64
	ID       int    // valid when Kind == KindTemp
	Name     string // valid when Kind == KindLocal or KindGlobal
	Width    int    // 1, 2, 4, or 8
	Unsigned bool
}

func ImmOp(v int64) Operand { return Operand{Kind: KindImm, Imm: v, Width: 8} }
func TempOp(id int) Operand { return Operand{Kind: KindTemp, ID: id, Width: 8} }

func LocalOp(name string, width int, unsigned bool) Operand {
	return Operand{Kind: KindLocal, Name: name, Width: width, Unsigned: unsigned}
}

func GlobalOp(name string, width int, unsigned bool) Operand {
	return Operand{Kind: KindGlobal, Name: name, Width: width, Unsigned: unsigned}
}

func (o Operand) IsValid() bool { return o.Kind != KindNone }

func (o Operand) String() string {
	switch o.Kind {
	case KindImm:
		return fmt.Sprintf("%d", o.Imm)
	case KindTemp:
		return fmt.Sprintf("t%d", o.ID)
	case KindLocal, KindGlobal:
		return o.Name
	default:
		return "-"
	}
}

// Instr is one three-address instruction. Fields not used by Op are zero.
type Instr struct {
	Op Opcode

	Dst, Src, Src2, Src3 Operand

	BinOp    BinOp
	UnOp     UnOp
	Unsigned bool

	Width  int // bytes: 1, 2, 4, or 8
	Offset int // LOAD_MEMBER/STORE_MEMBER byte offset

	Label    string // LABEL/JMP/JZ/JNZ target name, or CALL callee name
	ArgCount int    // CALL: number of preceding PARAM instructions
}

// Param is one function parameter's assigned frame slot.
type Param struct {
	Name   string
	Offset int
	Width  int
}

// Function is one source function lowered to a flat instruction list, with
// its frame shape already assigned by semantic analysis (spec.md §4.3
// "Frame layout").
type Function struct {
	Name      string
	Params    []Param
	Locals    []Param // body-declared locals, offsets assigned by semantic analysis
	FrameSize int
	Instrs    []Instr
}

// Global is one file-scope variable's storage, already sized via the
// semantic environment's layout table.
type Global struct {
	Name  string
	Size  int
	Align int

	// Zero selects .bss emission (no explicit initializer). Blob, when
	// non-nil, is emitted verbatim in .data as the value's byte
	// representation. LabelRef, when non-empty, means this (pointer-sized)
	// global's value is the address of another symbol (a string-literal
	// label or another global) — a relocation, not a literal blob.
	Zero     bool
	Blob     []byte
	LabelRef string
}

// StringLit is one interned string-literal payload with its assigned
// read-only-section label (spec.md §3 "a map from string-literal payload to
// a label in the read-only section").
type StringLit struct {
	Label string
	Data  []byte
}

// Module is everything the code generator consumes: one Function per
// defined source function plus the module-level data sections.
type Module struct {
	Funcs   []*Function
	Globals []*Global
	Strings []StringLit
}
