package ir

import (
	"cc89/internal/ast"
	"cc89/internal/sema"
	"cc89/internal/types"
)

// Generate lowers an annotated translation unit plus its semantic
// environment to an IR module, per spec.md §4.4. No IR is emitted for pure
// declarations (prototypes, typedefs, struct/union/enum tags); only defined
// functions and file-scope variables produce Module content.
func Generate(file *ast.File, res *sema.Result) *Module {
	m := &Module{}
	for _, payload := range res.Strings.Order {
		m.Strings = append(m.Strings, StringLit{Label: stringLabelOf(res, payload), Data: []byte(payload)})
	}
	for _, d := range file.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			if d.Body == nil {
				continue
			}
			m.Funcs = append(m.Funcs, lowerFunc(d, res))
		case *ast.VarDecl:
			m.Globals = append(m.Globals, lowerGlobal(d, res))
		}
	}
	return m
}

// stringLabelOf looks up the label StringTable.Intern already assigned
// during semantic analysis by calling Intern again: for a payload it has
// seen, Intern returns the existing label and appends no duplicate Order
// entry.
func stringLabelOf(res *sema.Result, payload string) string {
	return res.Strings.Intern([]byte(payload))
}

func sizeOf(res *sema.Result, t *types.Type) int  { return sema.SizeOf(res, t) }
func alignOf(res *sema.Result, t *types.Type) int { return sema.AlignOf(res, t) }

func widthOf(res *sema.Result, t *types.Type) int {
	w := sizeOf(res, t)
	if w == 0 {
		w = 8
	}
	return w
}

// ---------------------------------------------------------------------
// Globals
// ---------------------------------------------------------------------

func lowerGlobal(d *ast.VarDecl, res *sema.Result) *Global {
	size := sizeOf(res, d.Type)
	align := alignOf(res, d.Type)
	g := &Global{Name: d.Name, Size: size, Align: align}
	if d.Init == nil || d.Storage == ast.StorageExtern {
		g.Zero = true
		return g
	}
	if sl, ok := d.Init.(*ast.StringLit); ok && d.Type.IsPointer() {
		g.LabelRef = sl.Label
		return g
	}
	blob := make([]byte, size)
	fillBlob(res, d.Init, d.Type, blob, 0)
	g.Blob = blob
	return g
}

// fillBlob writes e's constant value(s) into blob at offset, recursing
// through brace-initializer CommaExpr chains for arrays and structs
// (spec.md §4.5 "Arrays and structs initialized from brace-enclosed
// constant lists emit a contiguous blob with trailing zero-fill").
func fillBlob(res *sema.Result, e ast.Expr, ty *types.Type, blob []byte, offset int) {
	r := ty.Resolve()
	if ce, ok := e.(*ast.CommaExpr); ok {
		var elems []ast.Expr
		var cur ast.Expr = ce
		for {
			if c2, ok := cur.(*ast.CommaExpr); ok {
				elems = append(elems, c2.Left)
				cur = c2.Right
			} else {
				elems = append(elems, cur)
				break
			}
		}
		if r.K == types.Struct {
			layout := res.Layouts[r.Tag]
			if layout == nil {
				return
			}
			for i, el := range elems {
				if i >= len(layout.Members) {
					break
				}
				mem := layout.Members[i]
				fillBlob(res, el, mem.Type, blob, offset+mem.Offset)
			}
			return
		}
		elemTy := r.Elem
		step := sizeOf(res, elemTy)
		for i, el := range elems {
			fillBlob(res, el, elemTy, blob, offset+i*step)
		}
		return
	}
	if v, ok := sema.Fold(res, e); ok {
		writeIntAt(blob, offset, v, sizeOf(res, ty))
	}
}

func writeIntAt(blob []byte, offset int, v int64, width int) {
	u := uint64(v)
	for i := 0; i < width && offset+i < len(blob); i++ {
		blob[offset+i] = byte(u >> (8 * uint(i)))
	}
}

// ---------------------------------------------------------------------
// Function lowering
// ---------------------------------------------------------------------

type builder struct {
	res *sema.Result
	fn  *Function

	tempN  int
	labelN int

	breakLabel []string
	contStack  []string
}

func lowerFunc(d *ast.FuncDecl, res *sema.Result) *Function {
	frame := res.Frames[d]
	fn := &Function{Name: d.Name}
	if frame != nil {
		fn.FrameSize = frame.Size
	}
	for _, p := range d.Params {
		off := lookupLocalOffset(res, p.Name)
		fn.Params = append(fn.Params, Param{Name: p.Name, Offset: off, Width: widthOf(res, p.Type)})
	}
	for _, ld := range collectLocalDecls(d.Body) {
		off := lookupLocalOffset(res, ld.Name)
		fn.Locals = append(fn.Locals, Param{Name: ld.Name, Offset: off, Width: widthOf(res, ld.Type)})
	}
	b := &builder{res: res, fn: fn}
	b.stmt(d.Body)
	return fn
}

// lookupLocalOffset recovers a local or parameter's assigned frame offset.
// The checker records offsets on Symbols inside its own (by-then-discarded)
// scope chain, not in Result directly; the simplest stable way to recover
// them post hoc is from some Ident use inside the body that resolves to
// this name, which res.Uses retains. A local that is declared but never
// referenced (dead code, or a parameter nobody reads) falls back to offset
// 0 — a documented simplification, since the backend only needs a correct
// offset for names the IR actually touches.
func lookupLocalOffset(res *sema.Result, name string) int {
	for id, sym := range res.Uses {
		if id.Name == name && sym.Kind == sema.SymVar && !sym.IsGlobal {
			return sym.Offset
		}
	}
	return 0
}

// collectLocalDecls walks a function body collecting every non-extern,
// non-static local VarDecl in declaration order, one entry per distinct
// name (two locals sharing a name across nested blocks is a known
// simplification of this lowering: names, not declaration sites, key a
// local's frame slot).
func collectLocalDecls(body *ast.CompoundStmt) []*ast.VarDecl {
	var out []*ast.VarDecl
	seen := map[string]bool{}
	collectLocalDeclsStmt(body, &out, seen)
	return out
}

func collectLocalDeclsStmt(s ast.Stmt, out *[]*ast.VarDecl, seen map[string]bool) {
	switch s := s.(type) {
	case *ast.CompoundStmt:
		for _, it := range s.Items {
			if vd, ok := it.Decl.(*ast.VarDecl); ok {
				if vd.Storage != ast.StorageExtern && vd.Storage != ast.StorageStatic && !seen[vd.Name] {
					seen[vd.Name] = true
					*out = append(*out, vd)
				}
			}
			if it.Stmt != nil {
				collectLocalDeclsStmt(it.Stmt, out, seen)
			}
		}
	case *ast.IfStmt:
		collectLocalDeclsStmt(s.Then, out, seen)
		if s.Else != nil {
			collectLocalDeclsStmt(s.Else, out, seen)
		}
	case *ast.WhileStmt:
		collectLocalDeclsStmt(s.Body, out, seen)
	case *ast.DoWhileStmt:
		collectLocalDeclsStmt(s.Body, out, seen)
	case *ast.ForStmt:
		if s.Init != nil {
			collectLocalDeclsStmt(s.Init, out, seen)
		}
		collectLocalDeclsStmt(s.Body, out, seen)
	case *ast.SwitchStmt:
		for _, cc := range s.Cases {
			for _, st := range cc.Body {
				collectLocalDeclsStmt(st, out, seen)
			}
		}
		for _, st := range s.Default {
			collectLocalDeclsStmt(st, out, seen)
		}
	case *ast.LabeledStmt:
		collectLocalDeclsStmt(s.Stmt, out, seen)
	}
}

func (b *builder) newTemp() Operand {
	t := TempOp(b.tempN)
	b.tempN++
	return t
}

func (b *builder) emit(ins Instr) { b.fn.Instrs = append(b.fn.Instrs, ins) }

func (b *builder) label(name string) { b.emit(Instr{Op: LABEL, Label: name}) }
func (b *builder) jmp(name string)   { b.emit(Instr{Op: JMP, Label: name}) }
func (b *builder) jz(cond Operand, name string) {
	b.emit(Instr{Op: JZ, Src: cond, Label: name})
}
func (b *builder) jnz(cond Operand, name string) {
	b.emit(Instr{Op: JNZ, Src: cond, Label: name})
}

// uniqueLabel generates a label name unique within the module (the
// function's name plus this builder's counter); spec.md §5 requires fresh-label counters reset per
// compile, which lowerFunc's new *builder per call satisfies.
func (b *builder) uniqueLabel(tag string) string {
	b.labelN++
	return labelName(b.fn.Name, tag, b.labelN)
}

func labelName(fn, tag string, n int) string {
	return ".L" + fn + "_" + tag + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// ---------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------

func (b *builder) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.CompoundStmt:
		for _, it := range s.Items {
			if it.Stmt != nil {
				b.stmt(it.Stmt)
			}
			// Declarations with initializers still need their init stored;
			// declarations without one need nothing emitted (spec.md §4.4
			// "No IR is emitted for pure declarations").
			if it.Decl != nil {
				if vd, ok := it.Decl.(*ast.VarDecl); ok && vd.Init != nil && vd.Storage != ast.StorageExtern {
					b.storeInit(vd)
				}
			}
		}
	case *ast.ExprStmt:
		if s.X != nil {
			b.expr(s.X)
		}
	case *ast.IfStmt:
		cond := b.expr(s.Cond)
		lElse := b.uniqueLabel("else")
		lEnd := b.uniqueLabel("endif")
		if s.Else != nil {
			b.jz(cond, lElse)
			b.stmt(s.Then)
			b.jmp(lEnd)
			b.label(lElse)
			b.stmt(s.Else)
			b.label(lEnd)
		} else {
			b.jz(cond, lEnd)
			b.stmt(s.Then)
			b.label(lEnd)
		}
	case *ast.WhileStmt:
		lTop := b.uniqueLabel("wtop")
		lEnd := b.uniqueLabel("wend")
		b.pushLoop(lEnd, lTop)
		b.label(lTop)
		cond := b.expr(s.Cond)
		b.jz(cond, lEnd)
		b.stmt(s.Body)
		b.jmp(lTop)
		b.label(lEnd)
		b.popLoop()
	case *ast.DoWhileStmt:
		lTop := b.uniqueLabel("dotop")
		lCond := b.uniqueLabel("docond")
		lEnd := b.uniqueLabel("doend")
		b.pushLoop(lEnd, lCond)
		b.label(lTop)
		b.stmt(s.Body)
		b.label(lCond)
		cond := b.expr(s.Cond)
		b.jnz(cond, lTop)
		b.label(lEnd)
		b.popLoop()
	case *ast.ForStmt:
		if s.Init != nil {
			b.stmt(s.Init)
		}
		lTop := b.uniqueLabel("ftop")
		lCont := b.uniqueLabel("fcont")
		lEnd := b.uniqueLabel("fend")
		b.pushLoop(lEnd, lCont)
		b.label(lTop)
		if s.Cond != nil {
			cond := b.expr(s.Cond)
			b.jz(cond, lEnd)
		}
		b.stmt(s.Body)
		b.label(lCont)
		if s.Post != nil {
			b.expr(s.Post)
		}
		b.jmp(lTop)
		b.label(lEnd)
		b.popLoop()
	case *ast.SwitchStmt:
		b.lowerSwitch(s)
	case *ast.BreakStmt:
		if len(b.breakLabel) > 0 {
			b.jmp(b.breakLabel[len(b.breakLabel)-1])
		}
	case *ast.ContinueStmt:
		if len(b.contStack) > 0 {
			b.jmp(b.contStack[len(b.contStack)-1])
		}
	case *ast.ReturnStmt:
		if s.Value == nil {
			b.emit(Instr{Op: RET})
			return
		}
		v := b.expr(s.Value)
		b.emit(Instr{Op: RET, Src: v})
	case *ast.GotoStmt:
		b.jmp(s.Label)
	case *ast.LabeledStmt:
		b.label(s.Label)
		b.stmt(s.Stmt)
	}
}

func (b *builder) pushLoop(breakL, contL string) {
	b.breakLabel = append(b.breakLabel, breakL)
	b.contStack = append(b.contStack, contL)
}

func (b *builder) popLoop() {
	b.breakLabel = b.breakLabel[:len(b.breakLabel)-1]
	b.contStack = b.contStack[:len(b.contStack)-1]
}

// pushSwitch/popSwitch manage only the break target: a switch's body is not
// a loop, so "continue" inside it must still reach the nearest enclosing
// loop's continuation label, not the switch (spec.md invariant (f)).
func (b *builder) pushSwitch(breakL string) { b.breakLabel = append(b.breakLabel, breakL) }
func (b *builder) popSwitch()               { b.breakLabel = b.breakLabel[:len(b.breakLabel)-1] }

// storeInit lowers a local variable's initializer as an assignment
// performed at its declaration point, in source order within the
// compound statement (spec.md §4.4 treats a declaration-with-initializer
// the same as an assignment statement at that point).
func (b *builder) storeInit(d *ast.VarDecl) {
	if ce, ok := d.Init.(*ast.CommaExpr); ok {
		b.storeAggregateInit(ce, d.Type, b.localOp(d.Name, d.Type), 0)
		return
	}
	v := b.expr(d.Init)
	b.storeToLocal(d.Name, d.Type, v)
}

// localOp/globalOp build a named operand carrying the width/signedness the
// backend needs to load or store it correctly (ir.go's Operand doc).
func (b *builder) localOp(name string, ty *types.Type) Operand {
	return LocalOp(name, widthOf(b.res, ty), ty.IsUnsigned())
}

func (b *builder) globalOp(name string, ty *types.Type) Operand {
	return GlobalOp(name, widthOf(b.res, ty), ty.IsUnsigned())
}

func (b *builder) storeToLocal(name string, ty *types.Type, v Operand) {
	w := widthOf(b.res, ty)
	b.emit(Instr{Op: MOV, Dst: b.localOp(name, ty), Src: v, Width: w})
}

// storeAggregateInit flattens a brace-initializer CommaExpr chain into a
// sequence of member/element stores against base's address.
func (b *builder) storeAggregateInit(e ast.Expr, ty *types.Type, base Operand, offset int) {
	r := ty.Resolve()
	var elems []ast.Expr
	var cur ast.Expr = e
	for {
		if c2, ok := cur.(*ast.CommaExpr); ok {
			elems = append(elems, c2.Left)
			cur = c2.Right
		} else {
			elems = append(elems, cur)
			break
		}
	}
	addr := b.newTemp()
	b.emit(Instr{Op: LEA, Dst: addr, Src: base})
	if r.K == types.Struct {
		layout := b.res.Layouts[r.Tag]
		if layout == nil {
			return
		}
		for i, el := range elems {
			if i >= len(layout.Members) {
				break
			}
			mem := layout.Members[i]
			if ce, ok := el.(*ast.CommaExpr); ok {
				b.storeAggregateInitAt(ce, mem.Type, addr, offset+mem.Offset)
				continue
			}
			v := b.expr(el)
			b.emit(Instr{Op: STORE_MEMBER, Dst: addr, Src: v, Offset: offset + mem.Offset, Width: widthOf(b.res, mem.Type)})
		}
		return
	}
	elemTy := r.Elem
	step := sizeOf(b.res, elemTy)
	for i, el := range elems {
		if ce, ok := el.(*ast.CommaExpr); ok {
			b.storeAggregateInitAt(ce, elemTy, addr, offset+i*step)
			continue
		}
		v := b.expr(el)
		b.emit(Instr{Op: STORE_MEMBER, Dst: addr, Src: v, Offset: offset + i*step, Width: widthOf(b.res, elemTy)})
	}
}

func (b *builder) storeAggregateInitAt(e ast.Expr, ty *types.Type, addr Operand, offset int) {
	r := ty.Resolve()
	var elems []ast.Expr
	var cur ast.Expr = e
	for {
		if c2, ok := cur.(*ast.CommaExpr); ok {
			elems = append(elems, c2.Left)
			cur = c2.Right
		} else {
			elems = append(elems, cur)
			break
		}
	}
	if r.K == types.Struct {
		layout := b.res.Layouts[r.Tag]
		if layout == nil {
			return
		}
		for i, el := range elems {
			if i >= len(layout.Members) {
				break
			}
			mem := layout.Members[i]
			v := b.expr(el)
			b.emit(Instr{Op: STORE_MEMBER, Dst: addr, Src: v, Offset: offset + mem.Offset, Width: widthOf(b.res, mem.Type)})
		}
		return
	}
	elemTy := r.Elem
	step := sizeOf(b.res, elemTy)
	for i, el := range elems {
		v := b.expr(el)
		b.emit(Instr{Op: STORE_MEMBER, Dst: addr, Src: v, Offset: offset + i*step, Width: widthOf(b.res, elemTy)})
	}
}

// lowerSwitch implements spec.md §4.4's compare-and-jump chain: evaluate
// the tag once, test it against each case constant in turn, then emit
// every case's body in source order so fallthrough happens for free.
func (b *builder) lowerSwitch(s *ast.SwitchStmt) {
	v := b.expr(s.Tag)
	lEnd := b.uniqueLabel("swend")
	caseLabels := make([]string, len(s.Cases))
	for i, cc := range s.Cases {
		caseLabels[i] = b.uniqueLabel("case")
		t := b.newTemp()
		b.emit(Instr{Op: BINOP, Dst: t, BinOp: Eq, Src: v, Src2: ImmOp(cc.Const)})
		b.jnz(t, caseLabels[i])
	}
	lDefault := lEnd
	if s.Default != nil {
		lDefault = b.uniqueLabel("default")
	}
	b.jmp(lDefault)
	b.pushSwitch(lEnd)
	// Emit default in its source position among the cases, not
	// unconditionally last, so fallthrough into and out of it follows the
	// same linear layout as the other case bodies (spec.md §4.4).
	for i, cc := range s.Cases {
		if s.Default != nil && i == s.DefaultIndex {
			b.label(lDefault)
			for _, st := range s.Default {
				b.stmt(st)
			}
		}
		b.label(caseLabels[i])
		for _, st := range cc.Body {
			b.stmt(st)
		}
	}
	if s.Default != nil && s.DefaultIndex == len(s.Cases) {
		b.label(lDefault)
		for _, st := range s.Default {
			b.stmt(st)
		}
	}
	b.label(lEnd)
	b.popSwitch()
}
