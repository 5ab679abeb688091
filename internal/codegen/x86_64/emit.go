// Package x86_64 implements spec.md §4.5's code generator: a deliberately
// simple backend that gives every local and every IR temporary its own
// stack slot and routes all arithmetic through a fixed set of scratch
// registers (rax/rcx/rdx/rdi, plus rsi/r8/r9 for addressing and call
// argument setup). It is correct, not fast — there is no register
// allocation here by design, since the IR it consumes has no SSA form or
// liveness information to allocate from.
package x86_64

import (
	"encoding/binary"
	"fmt"
	"strings"

	"cc89/internal/ir"
)

// EmitModule lowers an entire IR module to GAS/AT&T syntax assembly text,
// terminated by the non-executable-stack marker (spec.md §6).
func EmitModule(m *ir.Module) (string, error) {
	var out strings.Builder
	emitGlobals(&out, m)
	emitStrings(&out, m)
	out.WriteString(".text\n")
	for _, fn := range m.Funcs {
		emitFunc(&out, fn)
	}
	out.WriteString(".section .note.GNU-stack,\"\",@progbits\n")
	return out.String(), nil
}

// ---------------------------------------------------------------------
// Data sections
// ---------------------------------------------------------------------

func emitGlobals(out *strings.Builder, m *ir.Module) {
	var data, bss []*ir.Global
	for _, g := range m.Globals {
		if g.Zero {
			bss = append(bss, g)
		} else {
			data = append(data, g)
		}
	}
	if len(data) > 0 {
		out.WriteString(".data\n")
		for _, g := range data {
			fmt.Fprintf(out, ".globl %s\n.align %d\n%s:\n", g.Name, g.Align, g.Name)
			if g.LabelRef != "" {
				fmt.Fprintf(out, "  .quad %s\n", g.LabelRef)
				continue
			}
			emitBlob(out, g.Blob, g.Size)
		}
	}
	if len(bss) > 0 {
		out.WriteString(".bss\n")
		for _, g := range bss {
			fmt.Fprintf(out, ".globl %s\n.align %d\n%s:\n  .zero %d\n", g.Name, g.Align, g.Name, g.Size)
		}
	}
}

// emitBlob picks the widest directive that matches a scalar's size; larger
// aggregates (arrays, structs) fall back to one .byte per element, which is
// always correct regardless of internal member layout.
func emitBlob(out *strings.Builder, blob []byte, size int) {
	padded := blob
	if len(padded) < size {
		padded = make([]byte, size)
		copy(padded, blob)
	}
	switch size {
	case 1:
		fmt.Fprintf(out, "  .byte %d\n", int8(padded[0]))
	case 2:
		fmt.Fprintf(out, "  .word %d\n", int16(binary.LittleEndian.Uint16(padded)))
	case 4:
		fmt.Fprintf(out, "  .long %d\n", int32(binary.LittleEndian.Uint32(padded)))
	case 8:
		fmt.Fprintf(out, "  .quad %d\n", int64(binary.LittleEndian.Uint64(padded)))
	default:
		for _, by := range padded {
			fmt.Fprintf(out, "  .byte %d\n", by)
		}
	}
}

func emitStrings(out *strings.Builder, m *ir.Module) {
	if len(m.Strings) == 0 {
		return
	}
	out.WriteString(".rodata\n")
	for _, s := range m.Strings {
		fmt.Fprintf(out, "%s:\n", s.Label)
		fmt.Fprintf(out, "  .string \"%s\"\n", escapeAsciz(s.Data))
	}
}

func escapeAsciz(data []byte) string {
	var sb strings.Builder
	for _, c := range data {
		switch c {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if c < 0x20 || c >= 0x7f {
				fmt.Fprintf(&sb, "\\%03o", c)
			} else {
				sb.WriteByte(c)
			}
		}
	}
	return sb.String()
}

// ---------------------------------------------------------------------
// Registers
// ---------------------------------------------------------------------

// regClass names one general-purpose register at each operand width GAS
// needs: 8/16/32/64 bits.
type regClass struct{ b, w, d, q string }

func (r regClass) name(width int) string {
	switch width {
	case 1:
		return "%" + r.b
	case 2:
		return "%" + r.w
	case 4:
		return "%" + r.d
	default:
		return "%" + r.q
	}
}

var (
	regRAX = regClass{"al", "ax", "eax", "rax"}
	regRCX = regClass{"cl", "cx", "ecx", "rcx"}
	regRDX = regClass{"dl", "dx", "edx", "rdx"}
	regRDI = regClass{"dil", "di", "edi", "rdi"}
	regRSI = regClass{"sil", "si", "esi", "rsi"}
	regR8  = regClass{"r8b", "r8w", "r8d", "r8"}
	regR9  = regClass{"r9b", "r9w", "r9d", "r9"}
)

// argRegs is the SysV integer argument order (spec.md §4.5).
var argRegs = []regClass{regRDI, regRSI, regRDX, regRCX, regR8, regR9}

// ---------------------------------------------------------------------
// Per-function emitter
// ---------------------------------------------------------------------

// emitter holds one function's frame layout: named slots for parameters
// and locals (assigned by semantic analysis) plus a backend-assigned
// region for IR temporaries, one 8-byte slot each, stacked immediately
// below the declared-local frame (spec.md §4.5 "every local and every IR
// temporary is assigned a unique stack slot").
type emitter struct {
	out   *strings.Builder
	fn    *ir.Function
	slots map[string]int

	declaredSize int // fn.FrameSize: the region semantic analysis assigned
	frameSize    int // declaredSize + temp region, rounded to 16

	paramQueue []ir.Operand // PARAM operands awaiting the next CALL
}

func newEmitter(out *strings.Builder, fn *ir.Function) *emitter {
	slots := make(map[string]int, len(fn.Params)+len(fn.Locals))
	for _, p := range fn.Params {
		slots[p.Name] = p.Offset
	}
	for _, l := range fn.Locals {
		slots[l.Name] = l.Offset
	}
	maxTemp := -1
	walk := func(op ir.Operand) {
		if op.Kind == ir.KindTemp && op.ID > maxTemp {
			maxTemp = op.ID
		}
	}
	for _, ins := range fn.Instrs {
		walk(ins.Dst)
		walk(ins.Src)
		walk(ins.Src2)
		walk(ins.Src3)
	}
	tempRegion := (maxTemp + 1) * 8
	return &emitter{
		out:          out,
		fn:           fn,
		slots:        slots,
		declaredSize: fn.FrameSize,
		frameSize:    align(fn.FrameSize+tempRegion, 16),
	}
}

func align(n, a int) int {
	if a <= 1 {
		return n
	}
	return (n + a - 1) / a * a
}

func (e *emitter) tempOffset(id int) int { return -(e.declaredSize + (id+1)*8) }

func (e *emitter) memRef(op ir.Operand) string {
	switch op.Kind {
	case ir.KindLocal:
		return fmt.Sprintf("%d(%%rbp)", e.slots[op.Name])
	case ir.KindTemp:
		return fmt.Sprintf("%d(%%rbp)", e.tempOffset(op.ID))
	case ir.KindGlobal:
		return fmt.Sprintf("%s(%%rip)", op.Name)
	default:
		return ""
	}
}

// load reads op into reg at its own natural width: immediates and
// temporaries fill the full 64-bit register (temps already hold a
// consistent, correctly-extended value from whatever produced them);
// locals/globals apply the operand's recorded width and signedness so a
// char/short read promotes the way spec.md §4.5 requires.
func (e *emitter) load(reg regClass, op ir.Operand) {
	switch op.Kind {
	case ir.KindImm:
		fmt.Fprintf(e.out, "  mov $%d, %s\n", op.Imm, reg.name(8))
	case ir.KindTemp:
		fmt.Fprintf(e.out, "  mov %s, %s\n", e.memRef(op), reg.name(8))
	case ir.KindLocal, ir.KindGlobal:
		e.loadWidth(reg, e.memRef(op), op.Width, op.Unsigned)
	}
}

func (e *emitter) loadWidth(reg regClass, mem string, width int, unsigned bool) {
	switch width {
	case 1:
		if unsigned {
			fmt.Fprintf(e.out, "  movzbl %s, %s\n", mem, reg.name(4))
		} else {
			fmt.Fprintf(e.out, "  movsbl %s, %s\n", mem, reg.name(4))
		}
	case 2:
		if unsigned {
			fmt.Fprintf(e.out, "  movzwl %s, %s\n", mem, reg.name(4))
		} else {
			fmt.Fprintf(e.out, "  movswl %s, %s\n", mem, reg.name(4))
		}
	case 4:
		fmt.Fprintf(e.out, "  mov %s, %s\n", mem, reg.name(4))
	default:
		fmt.Fprintf(e.out, "  mov %s, %s\n", mem, reg.name(8))
	}
}

// storeWidth truncates reg to width on the way into mem: a narrower mov
// naturally writes only the destination's low bytes (spec.md §4.5
// "truncation on stores").
func (e *emitter) storeWidth(mem string, reg regClass, width int) {
	fmt.Fprintf(e.out, "  mov %s, %s\n", reg.name(normalizeWidth(width)), mem)
}

func normalizeWidth(w int) int {
	switch w {
	case 1, 2, 4, 8:
		return w
	default:
		return 8
	}
}

func (e *emitter) store(dst ir.Operand, reg regClass) {
	switch dst.Kind {
	case ir.KindTemp:
		fmt.Fprintf(e.out, "  mov %s, %s\n", reg.name(8), e.memRef(dst))
	case ir.KindLocal, ir.KindGlobal:
		e.storeWidth(e.memRef(dst), reg, dst.Width)
	}
}

// truncateReg re-narrows reg to width in place, re-deriving the
// appropriate extension so a temp holding a cast or narrow-assignment
// result carries the bit pattern its declared width implies even though
// every temp slot is a full 8 bytes.
func (e *emitter) truncateReg(reg regClass, width int, unsigned bool) {
	switch width {
	case 1:
		if unsigned {
			fmt.Fprintf(e.out, "  movzbl %s, %s\n", reg.name(1), reg.name(4))
		} else {
			fmt.Fprintf(e.out, "  movsbl %s, %s\n", reg.name(1), reg.name(4))
		}
	case 2:
		if unsigned {
			fmt.Fprintf(e.out, "  movzwl %s, %s\n", reg.name(2), reg.name(4))
		} else {
			fmt.Fprintf(e.out, "  movswl %s, %s\n", reg.name(2), reg.name(4))
		}
	case 4:
		fmt.Fprintf(e.out, "  mov %s, %s\n", reg.name(4), reg.name(4))
	}
}

// ---------------------------------------------------------------------
// Function emission
// ---------------------------------------------------------------------

func emitFunc(out *strings.Builder, fn *ir.Function) {
	fmt.Fprintf(out, ".globl %s\n%s:\n", fn.Name, fn.Name)
	e := newEmitter(out, fn)

	out.WriteString("  push %rbp\n")
	out.WriteString("  mov %rsp, %rbp\n")
	if e.frameSize > 0 {
		fmt.Fprintf(out, "  sub $%d, %%rsp\n", e.frameSize)
	}
	for i, p := range fn.Params {
		if i >= len(argRegs) {
			break // sema rejects more than 6 params before this is reached
		}
		e.storeWidth(fmt.Sprintf("%d(%%rbp)", p.Offset), argRegs[i], p.Width)
	}

	for _, ins := range fn.Instrs {
		e.emitInstr(ins)
	}
	// A function that falls off the end without an explicit return still
	// needs a valid epilogue (spec.md §8 boundary behavior: "empty body ->
	// valid prologue/epilogue returning indeterminate value from rax").
	e.epilogue()
}

func (e *emitter) epilogue() {
	e.out.WriteString("  mov %rbp, %rsp\n")
	e.out.WriteString("  pop %rbp\n")
	e.out.WriteString("  ret\n")
}

func (e *emitter) emitInstr(ins ir.Instr) {
	switch ins.Op {
	case ir.MOV:
		e.load(regRAX, ins.Src)
		if ins.Dst.Kind == ir.KindTemp {
			if ins.Width > 0 && ins.Width < 8 {
				e.truncateReg(regRAX, ins.Width, ins.Unsigned)
			}
			fmt.Fprintf(e.out, "  mov %s, %s\n", regRAX.name(8), e.memRef(ins.Dst))
		} else {
			e.storeWidth(e.memRef(ins.Dst), regRAX, ins.Width)
		}
	case ir.BINOP:
		e.emitBinop(ins)
	case ir.UNOP:
		e.emitUnop(ins)
	case ir.LOAD:
		e.load(regRDI, ins.Src)
		e.loadWidth(regRAX, "(%rdi)", ins.Width, ins.Unsigned)
		e.store(ins.Dst, regRAX)
	case ir.STORE:
		e.load(regRDI, ins.Dst)
		e.load(regRAX, ins.Src)
		e.storeWidth("(%rdi)", regRAX, ins.Width)
	case ir.LEA:
		fmt.Fprintf(e.out, "  lea %s, %s\n", e.memRef(ins.Src), regRAX.name(8))
		e.store(ins.Dst, regRAX)
	case ir.LOAD_INDEX:
		e.load(regRDI, ins.Src)
		e.load(regRCX, ins.Src2)
		e.scaleAdd(regRDI, regRCX, ins.Width)
		e.loadWidth(regRAX, "(%rdi)", ins.Width, ins.Unsigned)
		e.store(ins.Dst, regRAX)
	case ir.STORE_INDEX:
		e.load(regRDI, ins.Dst)
		e.load(regRCX, ins.Src2)
		e.scaleAdd(regRDI, regRCX, ins.Width)
		e.load(regRAX, ins.Src3)
		e.storeWidth("(%rdi)", regRAX, ins.Width)
	case ir.LOAD_MEMBER:
		e.load(regRDI, ins.Src)
		mem := fmt.Sprintf("%d(%%rdi)", ins.Offset)
		e.loadWidth(regRAX, mem, ins.Width, ins.Unsigned)
		e.store(ins.Dst, regRAX)
	case ir.STORE_MEMBER:
		e.load(regRDI, ins.Dst)
		e.load(regRAX, ins.Src)
		mem := fmt.Sprintf("%d(%%rdi)", ins.Offset)
		e.storeWidth(mem, regRAX, ins.Width)
	case ir.CALL:
		e.emitCall(ins)
	case ir.PARAM:
		e.paramQueue = append(e.paramQueue, ins.Src)
	case ir.RET:
		if ins.Src.IsValid() {
			e.load(regRAX, ins.Src)
		}
		e.epilogue()
	case ir.LABEL:
		fmt.Fprintf(e.out, "%s:\n", ins.Label)
	case ir.JMP:
		fmt.Fprintf(e.out, "  jmp %s\n", ins.Label)
	case ir.JZ:
		e.load(regRAX, ins.Src)
		fmt.Fprintf(e.out, "  cmp $0, %s\n", regRAX.name(8))
		fmt.Fprintf(e.out, "  je %s\n", ins.Label)
	case ir.JNZ:
		e.load(regRAX, ins.Src)
		fmt.Fprintf(e.out, "  cmp $0, %s\n", regRAX.name(8))
		fmt.Fprintf(e.out, "  jne %s\n", ins.Label)
	}
}

// scaleAdd computes base += idx*elemSize in place, for subscript
// addressing (LOAD_INDEX/STORE_INDEX).
func (e *emitter) scaleAdd(base, idx regClass, elemSize int) {
	fmt.Fprintf(e.out, "  imul $%d, %s\n", elemSize, idx.name(8))
	fmt.Fprintf(e.out, "  add %s, %s\n", idx.name(8), base.name(8))
}

func (e *emitter) emitBinop(ins ir.Instr) {
	switch ins.BinOp {
	case ir.Add, ir.Sub, ir.Mul, ir.And, ir.Or, ir.Xor:
		e.load(regRAX, ins.Src)
		e.load(regRCX, ins.Src2)
		fmt.Fprintf(e.out, "  %s %s, %s\n", arithMnemonic(ins.BinOp), regRCX.name(ins.Width), regRAX.name(ins.Width))
		e.store(ins.Dst, regRAX)
	case ir.Div, ir.Mod:
		e.load(regRAX, ins.Src)
		e.load(regRCX, ins.Src2)
		if ins.Width == 8 {
			if ins.Unsigned {
				e.out.WriteString("  xor %rdx, %rdx\n")
				fmt.Fprintf(e.out, "  div %s\n", regRCX.name(8))
			} else {
				e.out.WriteString("  cqto\n")
				fmt.Fprintf(e.out, "  idiv %s\n", regRCX.name(8))
			}
		} else {
			if ins.Unsigned {
				e.out.WriteString("  xor %edx, %edx\n")
				fmt.Fprintf(e.out, "  div %s\n", regRCX.name(4))
			} else {
				e.out.WriteString("  cltd\n")
				fmt.Fprintf(e.out, "  idiv %s\n", regRCX.name(4))
			}
		}
		if ins.BinOp == ir.Div {
			e.store(ins.Dst, regRAX)
		} else {
			e.store(ins.Dst, regRDX)
		}
	case ir.Shl, ir.Shr:
		e.load(regRAX, ins.Src)
		e.load(regRCX, ins.Src2)
		mnemonic := "shl"
		if ins.BinOp == ir.Shr {
			if ins.Unsigned {
				mnemonic = "shr"
			} else {
				mnemonic = "sar"
			}
		}
		fmt.Fprintf(e.out, "  %s %%cl, %s\n", mnemonic, regRAX.name(ins.Width))
		e.store(ins.Dst, regRAX)
	default: // comparisons
		e.load(regRAX, ins.Src)
		e.load(regRCX, ins.Src2)
		fmt.Fprintf(e.out, "  cmp %s, %s\n", regRCX.name(ins.Width), regRAX.name(ins.Width))
		fmt.Fprintf(e.out, "  %s %%al\n", setcc(ins.BinOp, ins.Unsigned))
		e.out.WriteString("  movzbl %al, %eax\n")
		e.store(ins.Dst, regRAX)
	}
}

func arithMnemonic(op ir.BinOp) string {
	switch op {
	case ir.Add:
		return "add"
	case ir.Sub:
		return "sub"
	case ir.Mul:
		return "imul"
	case ir.And:
		return "and"
	case ir.Or:
		return "or"
	case ir.Xor:
		return "xor"
	default:
		return "add"
	}
}

func setcc(op ir.BinOp, unsigned bool) string {
	switch op {
	case ir.Lt:
		if unsigned {
			return "setb"
		}
		return "setl"
	case ir.Le:
		if unsigned {
			return "setbe"
		}
		return "setle"
	case ir.Gt:
		if unsigned {
			return "seta"
		}
		return "setg"
	case ir.Ge:
		if unsigned {
			return "setae"
		}
		return "setge"
	case ir.Ne:
		return "setne"
	default: // Eq
		return "sete"
	}
}

func (e *emitter) emitUnop(ins ir.Instr) {
	e.load(regRAX, ins.Src)
	switch ins.UnOp {
	case ir.Neg:
		fmt.Fprintf(e.out, "  neg %s\n", regRAX.name(ins.Width))
	case ir.BNot:
		fmt.Fprintf(e.out, "  not %s\n", regRAX.name(ins.Width))
	case ir.Not:
		e.out.WriteString("  cmp $0, %eax\n")
		e.out.WriteString("  sete %al\n")
		e.out.WriteString("  movzbl %al, %eax\n")
	}
	e.store(ins.Dst, regRAX)
}

// emitCall pops this CALL's preceding PARAM operands off the queue, spills
// the first six into argument registers, pushes any remainder in reverse
// order with a padding slot if needed to keep the stack 16-byte aligned at
// the call instant (spec.md §4.5 "Call sequence"), and unwinds afterward.
func (e *emitter) emitCall(ins ir.Instr) {
	n := ins.ArgCount
	args := e.paramQueue[len(e.paramQueue)-n:]
	e.paramQueue = e.paramQueue[:len(e.paramQueue)-n]

	regArgs := args
	var extra []ir.Operand
	if len(args) > 6 {
		regArgs = args[:6]
		extra = args[6:]
	}
	pad := len(extra)%2 != 0
	if pad {
		e.out.WriteString("  sub $8, %rsp\n")
	}
	for i := len(extra) - 1; i >= 0; i-- {
		e.load(regRAX, extra[i])
		e.out.WriteString("  push %rax\n")
	}
	for i, a := range regArgs {
		e.load(argRegs[i], a)
	}
	if ins.Src.IsValid() {
		e.load(regRAX, ins.Src)
		e.out.WriteString("  call *%rax\n")
	} else {
		fmt.Fprintf(e.out, "  call %s\n", ins.Label)
	}
	unwind := len(extra) * 8
	if pad {
		unwind += 8
	}
	if unwind > 0 {
		fmt.Fprintf(e.out, "  add $%d, %%rsp\n", unwind)
	}
	if ins.Dst.IsValid() {
		e.store(ins.Dst, regRAX)
	}
}
