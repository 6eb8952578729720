// Package lower implements the lowering stage from §4.5: turning resolved
// ASTs into ordered command-line lists, synthetic helper functions for
// control flow, and datapack/resourcepack JSON or raw file entries.
package lower

import (
	"fmt"
	"path"
	"strings"

	"github.com/GMDU/zoglin/ast"
	"github.com/GMDU/zoglin/datapack"
	"github.com/GMDU/zoglin/diagnostics"
	"github.com/GMDU/zoglin/loader"
	"github.com/GMDU/zoglin/res5"
	"github.com/GMDU/zoglin/resolver"
)

// session is the top-down state shared by every function lowered in one
// build: the output datapack, the compile-time value map, and a single
// monotonic counter so synthetic helper names never collide across
// functions (§4.5.3).
type session struct {
	dp            *datapack.Datapack
	table         *resolver.Table
	errs          *diagnostics.Bag
	fl            loader.FileLoader
	constVals     map[string]any
	helperCounter int
	funcIndex     map[string]*ast.Function
}

// Lower runs the lowering stage over a resolved Project and returns the
// accumulated output model.
func Lower(proj *ast.Project, table *resolver.Table, fl loader.FileLoader) (*datapack.Datapack, *diagnostics.Bag) {
	s := &session{
		dp: datapack.New(), table: table, errs: &diagnostics.Bag{}, fl: fl,
		constVals: map[string]any{}, funcIndex: map[string]*ast.Function{},
	}
	for _, f := range proj.Files {
		s.indexFuncs(f.Items)
	}
	for _, f := range proj.Files {
		s.walkItems(f.Items, "", nil)
	}
	s.dp.Finalize()
	return s.dp, s.errs
}

func (s *session) indexFuncs(items []ast.Item) {
	for _, it := range items {
		switch n := it.(type) {
		case *ast.Namespace:
			s.indexFuncs(n.Items)
		case *ast.Module:
			s.indexFuncs(n.Items)
		case *ast.Function:
			s.funcIndex[n.ResLoc.String()] = n
		}
	}
}

func (s *session) walkItems(items []ast.Item, namespace string, modulePath []string) {
	for _, it := range items {
		switch n := it.(type) {
		case *ast.Namespace:
			s.walkItems(n.Items, n.Name, nil)
		case *ast.Module:
			s.walkItems(n.Items, namespace, n.ResLoc.Path)
		case *ast.Function:
			s.lowerFunction(n, namespace, modulePath)
		case *ast.Resource:
			s.lowerResource(n)
		}
	}
}

// loopInfo is the pair of control-flow flags an enclosing loop exposes to
// break/continue (§4.5.3): skip* guards the remainder of the current
// iteration, stop* additionally prevents the loop helper from recursing
// again. Both live on a fixed internal objective so they're visible from
// whatever synthetic helper function is currently executing.
type loopInfo struct {
	skipObj, skipHolder string
	stopObj, stopHolder string
}

// funcCtx is the per-function (or per-synthetic-helper) lowering context:
// where to emit lines, the scratch-holder counter (reset at each top-level
// statement, §4.5.2), the active break/continue targets, and any
// break/continue guards currently wrapping every emitted line.
type funcCtx struct {
	sess       *session
	ns         string
	modulePath []string
	fnLoc      ast.ResLoc
	lines      *[]string
	scratch    int
	loopStack  []loopInfo
	guardStack []string

	// returnLoc and returnKind name the *original* function's return
	// location (§4.5.4's call-as-value contract), not the current helper's
	// own fnLoc — a return inside a while/if helper still reports to the
	// enclosing user function.
	returnLoc  ast.ResLoc
	returnKind ast.VarKind
}

func (c *funcCtx) emit(line string) {
	for i := len(c.guardStack) - 1; i >= 0; i-- {
		line = mergeExecuteGuard(c.guardStack[i], line)
	}
	*c.lines = append(*c.lines, line)
}

func mergeExecuteGuard(guard, line string) string {
	if strings.HasPrefix(line, "execute ") {
		return "execute " + guard + " " + strings.TrimPrefix(line, "execute ")
	}
	return "execute " + guard + " run " + line
}

func (c *funcCtx) newScratch() (objective, holder string) {
	objective = "zoglin.internal.vars"
	holder = fmt.Sprintf("$var_%d", c.scratch)
	c.scratch++
	return
}

func (c *funcCtx) newHelper(kind string) (ast.ResLoc, *funcCtx) {
	idx := c.sess.helperCounter
	c.sess.helperCounter++
	loc := ast.ResLoc{Namespace: c.ns, Path: []string{"zoglin", "gen", fmt.Sprintf("%s_%d", kind, idx)}, Form: ast.FormAbsolute}
	lines := []string{}
	child := &funcCtx{
		sess: c.sess, ns: c.ns, modulePath: []string{"zoglin", "gen"}, fnLoc: loc,
		returnLoc: c.returnLoc, returnKind: c.returnKind,
		lines: &lines, loopStack: append([]loopInfo(nil), c.loopStack...),
	}
	return loc, child
}

func (c *funcCtx) finishHelper(loc ast.ResLoc, lines []string) {
	c.sess.dp.AddFunction(loc.Namespace, loc.Path[:len(loc.Path)-1], loc.Name(), lines)
}

func lowerBody(ctx *funcCtx, stmts []ast.Statement) {
	for _, st := range stmts {
		ctx.scratch = 0
		ctx.lowerStmt(st)
	}
}

func (s *session) lowerFunction(fn *ast.Function, ns string, modulePath []string) {
	lines := []string{}
	fc := &funcCtx{
		sess: s, ns: ns, modulePath: modulePath, fnLoc: fn.ResLoc, lines: &lines,
		returnLoc: fn.ResLoc, returnKind: fn.Kind,
	}
	lowerBody(fc, fn.Body)
	s.dp.AddFunction(ns, modulePath, fn.ResLoc.Name(), lines)

	// A namespace-root function literally named `tick`/`load` is
	// auto-registered into the matching function tag; the distilled
	// grammar has no separate attribute for this, so the convention
	// mirrors every other datapack-generation tool in the pack's domain
	// (see DESIGN.md's Open Question log).
	if len(modulePath) == 0 {
		switch fn.ResLoc.Name() {
		case "tick":
			s.dp.AddTickFunction(fn.ResLoc.String())
		case "load":
			s.dp.AddLoadFunction(fn.ResLoc.String())
		}
	}
}

// ---- statements ----

func (c *funcCtx) lowerStmt(st ast.Statement) {
	switch n := st.(type) {
	case *ast.Command:
		c.lowerCommand(n)
	case *ast.CommandBlock:
		for _, cmd := range n.Lines {
			c.lowerCommand(cmd)
		}
	case *ast.CommentLine:
		// discarded; CommentLine only matters for round-tripping source, not output.
	case *ast.Assign:
		c.lowerAssign(n)
	case *ast.CompoundAssign:
		c.lowerCompoundAssign(n)
	case *ast.CallStmt:
		c.lowerCallExpr(n.Call, false)
	case *ast.If:
		c.lowerIf(n)
	case *ast.While:
		c.lowerWhile(n)
	case *ast.For:
		c.lowerFor(n)
	case *ast.Break:
		c.lowerBreak(n)
	case *ast.Continue:
		c.lowerContinue(n)
	case *ast.Return:
		c.lowerReturn(n)
	case *ast.LocalImport:
		// resolver-only; nothing to emit.
	}
}

func (c *funcCtx) lowerCommand(cmd *ast.Command) {
	var sb strings.Builder
	for _, seg := range cmd.Segments {
		if lit, ok := seg.AsLiteral(); ok {
			sb.WriteString(lit)
			continue
		}
		sb.WriteString(c.inlineExpr(seg.Expr, cmd.Sp))
	}
	c.emit(sb.String())
}

func (c *funcCtx) lowerAssign(n *ast.Assign) {
	if n.Target.Kind == ast.KindCompileTime {
		if v, ok := c.evalConstAny(n.Value); ok {
			c.sess.constVals[n.Target.Name.String()] = v
		} else {
			c.sess.errs.Add(LowerError{Reason: ReasonUnresolvedCompileTime, Sp: n.Sp, Note: "right-hand side is not a compile-time constant"})
		}
		return
	}
	v := c.lowerExpr(n.Value)
	c.assignToVar(&n.Target, v)
}

func (c *funcCtx) lowerCompoundAssign(n *ast.CompoundAssign) {
	if n.Target.Kind == ast.KindCompileTime {
		cur, _ := c.sess.constVals[n.Target.Name.String()]
		rhs, ok := c.evalConstAny(n.Value)
		if !ok {
			c.sess.errs.Add(LowerError{Reason: ReasonUnresolvedCompileTime, Sp: n.Sp})
			return
		}
		lv, lok := toInt(constLoc(cur))
		rv, rok := toInt(constLoc(rhs))
		if lok && rok {
			c.sess.constVals[n.Target.Name.String()] = foldArith(compoundToBinaryOp(n.Op), lv, rv)
		}
		return
	}
	cur := c.lowerVarRefRead(&n.Target)
	rhs := c.lowerExpr(n.Value)
	if n.Target.Kind == ast.KindScoreboard {
		// Operate on the target holder in place, e.g. `$i += 1` becomes
		// "scoreboard players operation $i <obj> += <rhs>".
		rObj, rHolder := rhs.objective, rhs.holder
		if rhs.kind != locScoreboard {
			rObj, rHolder = c.materialize(rhs)
		}
		c.emit(fmt.Sprintf("scoreboard players operation %s %s %s %s %s", cur.holder, cur.objective, scoreboardOpSymbol(compoundToBinaryOp(n.Op)), rHolder, rObj))
		return
	}
	result := c.applyArith(compoundToBinaryOp(n.Op), cur, rhs)
	c.assignToVar(&n.Target, result)
}

func (c *funcCtx) lowerBreak(n *ast.Break) {
	if len(c.loopStack) == 0 {
		c.sess.errs.Add(LowerError{Reason: ReasonUnsupportedConstruct, Sp: n.Sp, Note: "break outside a loop"})
		return
	}
	info := c.loopStack[len(c.loopStack)-1]
	c.emit(fmt.Sprintf("scoreboard players set %s %s 1", info.skipHolder, info.skipObj))
	c.emit(fmt.Sprintf("scoreboard players set %s %s 1", info.stopHolder, info.stopObj))
}

func (c *funcCtx) lowerContinue(n *ast.Continue) {
	if len(c.loopStack) == 0 {
		c.sess.errs.Add(LowerError{Reason: ReasonUnsupportedConstruct, Sp: n.Sp, Note: "continue outside a loop"})
		return
	}
	info := c.loopStack[len(c.loopStack)-1]
	c.emit(fmt.Sprintf("scoreboard players set %s %s 1", info.skipHolder, info.skipObj))
}

// lowerReturn writes a return expression to the enclosing function's own
// call-as-value contract location (§4.5.4) — the "$return" scoreboard
// holder for a scoreboard-kind function, the "return" storage key
// otherwise — the same location lowerCallExpr reads back from the caller
// side. A value-less `return` is pure control flow with no contract
// location to fill.
func (c *funcCtx) lowerReturn(n *ast.Return) {
	if n.Value == nil {
		c.emit("return 0")
		return
	}
	if c.returnKind == ast.KindScoreboard {
		c.lowerReturnScoreboard(n.Value, dotted(c.returnLoc), "$return")
		return
	}
	v := c.lowerExpr(n.Value)
	c.writeStorage(c.returnLoc.String(), "return", v)
}

// lowerReturnScoreboard accumulates expr directly into the destination
// holder instead of routing through a throwaway scratch location: the
// leftmost operand is written with "=", every subsequent arithmetic operand
// with the matching compound operator, matching assignToVar's per-kind
// emission rather than applyArith's always-materialize-both-sides approach.
func (c *funcCtx) lowerReturnScoreboard(expr ast.Expression, obj, holder string) {
	if bin, ok := expr.(*ast.Binary); ok && scoreboardOpSymbol(bin.Op) != "=" {
		c.lowerReturnScoreboard(bin.Left, obj, holder)
		rhs := c.lowerExpr(bin.Right)
		rObj, rHolder := rhs.objective, rhs.holder
		if rhs.kind != locScoreboard {
			rObj, rHolder = c.materialize(rhs)
		}
		c.emit(fmt.Sprintf("scoreboard players operation %s %s %s %s %s", holder, obj, scoreboardOpSymbol(bin.Op), rHolder, rObj))
		return
	}
	c.writeScoreboard(obj, holder, c.lowerExpr(expr))
}

// ---- control flow ----

func (c *funcCtx) lowerIf(n *ast.If) {
	takenObj, takenHolder := c.newScratch()
	c.emit(fmt.Sprintf("scoreboard players set %s %s 0", takenHolder, takenObj))

	cond := c.lowerCondition(n.Cond)
	thenLoc, thenCtx := c.newHelper("if")
	lowerBody(thenCtx, n.Then)
	c.finishHelper(thenLoc, *thenCtx.lines)
	c.emit(fmt.Sprintf("execute %s run function %s", cond, thenLoc.String()))
	c.emit(fmt.Sprintf("execute %s run scoreboard players set %s %s 1", cond, takenHolder, takenObj))

	for _, branch := range n.ElseChain {
		guard := fmt.Sprintf("if score %s %s matches 0", takenHolder, takenObj)
		if branch.Cond != nil {
			bc := c.lowerCondition(branch.Cond)
			branchLoc, branchCtx := c.newHelper("elseif")
			lowerBody(branchCtx, branch.Body)
			c.finishHelper(branchLoc, *branchCtx.lines)
			c.emit(fmt.Sprintf("execute %s %s run function %s", guard, bc, branchLoc.String()))
			c.emit(fmt.Sprintf("execute %s %s run scoreboard players set %s %s 1", guard, bc, takenHolder, takenObj))
		} else {
			branchLoc, branchCtx := c.newHelper("else")
			lowerBody(branchCtx, branch.Body)
			c.finishHelper(branchLoc, *branchCtx.lines)
			c.emit(fmt.Sprintf("execute %s run function %s", guard, branchLoc.String()))
		}
	}
}

// runLoop builds one synthetic recursive loop helper and wires break/
// continue flags per §4.5.3: preStep runs before the guarded body each
// iteration (used by the array form's destructive drain), postStep runs
// after (the count/range forms' increment).
func (c *funcCtx) runLoop(kind string, cond func(ctx *funcCtx) string, preStep func(ctx *funcCtx), body []ast.Statement, postStep func(ctx *funcCtx)) {
	loopLoc, loopCtx := c.newHelper(kind)
	// The flags are named after the helper rather than drawn from the
	// per-statement scratch pool, which the loop body reuses.
	skipObj, skipHolder := "zoglin.internal.vars", "$var_skip_"+loopLoc.Name()
	stopObj, stopHolder := "zoglin.internal.vars", "$var_stop_"+loopLoc.Name()
	c.emit(fmt.Sprintf("scoreboard players set %s %s 0", stopHolder, stopObj))
	loopCtx.loopStack = append(loopCtx.loopStack, loopInfo{skipObj: skipObj, skipHolder: skipHolder, stopObj: stopObj, stopHolder: stopHolder})

	loopCtx.emit(fmt.Sprintf("scoreboard players set %s %s 0", skipHolder, skipObj))
	if preStep != nil {
		preStep(loopCtx)
	}
	loopCtx.guardStack = append(loopCtx.guardStack, fmt.Sprintf("unless score %s %s matches 1", skipHolder, skipObj))
	lowerBody(loopCtx, body)
	loopCtx.guardStack = loopCtx.guardStack[:len(loopCtx.guardStack)-1]
	if postStep != nil {
		postStep(loopCtx)
	}

	tailCond := cond(loopCtx)
	loopCtx.emit(fmt.Sprintf("execute if score %s %s matches 0 %s run function %s", stopHolder, stopObj, tailCond, loopLoc.String()))
	c.finishHelper(loopLoc, *loopCtx.lines)

	entryCond := cond(c)
	c.emit(fmt.Sprintf("execute %s run function %s", entryCond, loopLoc.String()))
}

func (c *funcCtx) lowerWhile(n *ast.While) {
	c.runLoop("while", func(ctx *funcCtx) string { return ctx.lowerCondition(n.Cond) }, nil, n.Body, nil)
}

func (c *funcCtx) lowerFor(n *ast.For) {
	switch {
	case n.Iterable.Range != nil:
		c.lowerForRange(n, n.Iterable.Range)
	case n.Iterable.Array != nil:
		c.lowerForArray(n, *n.Iterable.Array)
	case n.Iterable.Count != nil:
		c.lowerForCount(n, *n.Iterable.Count)
	}
}

func (c *funcCtx) lowerForCount(n *ast.For, countExpr ast.Expression) {
	iRef := &ast.VarRef{Kind: ast.KindScoreboard, Name: c.fnLoc.Join(n.VarName)}
	obj, holder := scoreboardAddress(iRef)
	c.emit(fmt.Sprintf("scoreboard players set %s %s 0", holder, obj))
	limit := c.lowerExpr(countExpr)
	limObj, limHolder := c.materialize(limit)

	cond := func(ctx *funcCtx) string { return fmt.Sprintf("if score %s %s < %s %s", holder, obj, limHolder, limObj) }
	step := func(ctx *funcCtx) { ctx.emit(fmt.Sprintf("scoreboard players add %s %s 1", holder, obj)) }
	c.runLoop("for", cond, nil, n.Body, step)
}

func (c *funcCtx) lowerForRange(n *ast.For, rng *ast.Range) {
	iRef := &ast.VarRef{Kind: ast.KindScoreboard, Name: c.fnLoc.Join(n.VarName)}
	obj, holder := scoreboardAddress(iRef)
	lo := c.lowerExpr(rng.Lo)
	c.assignToVar(iRef, lo)
	hi := c.lowerExpr(rng.Hi)
	hiObj, hiHolder := c.materialize(hi)

	cond := func(ctx *funcCtx) string { return fmt.Sprintf("if score %s %s < %s %s", holder, obj, hiHolder, hiObj) }
	step := func(ctx *funcCtx) { ctx.emit(fmt.Sprintf("scoreboard players add %s %s 1", holder, obj)) }
	c.runLoop("for", cond, nil, n.Body, step)
}

// lowerForArray implements the destructive front-drain form (§4.5.3): a
// storage array is drained in place, any other array value is first written
// once to a scratch storage list, and each iteration
// reads and removes index 0 until the list is empty (tested with
// `if data storage ... path[0]`, which only matches when an element is
// present there).
func (c *funcCtx) lowerForArray(n *ast.For, arrExpr ast.Expression) {
	v := c.lowerExpr(arrExpr)
	var selector, nbtPath string
	if v.kind == locStorage {
		selector, nbtPath = v.selector, v.nbtPath
	} else {
		selector = c.fnLoc.String()
		nbtPath = fmt.Sprintf("zoglin_arr_%d", c.scratch)
		c.scratch++
		c.emit(fmt.Sprintf("data modify storage %s %s set value %s", selector, nbtPath, formatConst(v.constVal)))
	}

	iRef := &ast.VarRef{Kind: ast.KindStorage, Name: c.fnLoc.Join(n.VarName)}
	iSelector, iPath := storageAddress(iRef)

	cond := func(ctx *funcCtx) string { return fmt.Sprintf("if data storage %s %s[0]", selector, nbtPath) }
	preStep := func(ctx *funcCtx) {
		ctx.emit(fmt.Sprintf("data modify storage %s %s set from storage %s %s[0]", iSelector, iPath, selector, nbtPath))
		ctx.emit(fmt.Sprintf("data remove storage %s %s[0]", selector, nbtPath))
	}
	c.runLoop("for", cond, preStep, n.Body, nil)
}

// ---- calls ----

func (c *funcCtx) lowerCallArgs(call *ast.Call) (hasMacro bool) {
	fn, ok := c.sess.funcIndex[call.Target.String()]
	if !ok {
		return false
	}
	for i, param := range fn.Params {
		if i >= len(call.Args) {
			break
		}
		argVal := c.lowerExpr(call.Args[i])
		if param.Kind == ast.KindMacro {
			hasMacro = true
			argsRef := &ast.VarRef{Kind: ast.KindStorage, Name: fn.ResLoc.Join("args")}
			sel, base := storageAddress(argsRef)
			c.emitConstSet(sel, base+"."+param.Name, argVal)
			continue
		}
		dst := &ast.VarRef{Kind: param.Kind, Name: fn.ResLoc.Join(param.Name)}
		c.assignToVar(dst, argVal)
	}
	return hasMacro
}

func (c *funcCtx) emitConstSet(selector, nbtPath string, v loc) {
	switch v.kind {
	case locInt:
		c.emit(fmt.Sprintf("data modify storage %s %s set value %d", selector, nbtPath, v.intVal))
	case locConst:
		c.emit(fmt.Sprintf("data modify storage %s %s set value %s", selector, nbtPath, formatConst(v.constVal)))
	case locScoreboard:
		c.emit(fmt.Sprintf("execute store result storage %s %s int 1 run scoreboard players get %s %s", selector, nbtPath, v.holder, v.objective))
	case locStorage:
		c.emit(fmt.Sprintf("data modify storage %s %s set from storage %s %s", selector, nbtPath, v.selector, v.nbtPath))
	}
}

func callText(target ast.ResLoc, hasMacro bool) string {
	if hasMacro {
		return fmt.Sprintf("function %s with storage %s args", target.String(), target.String())
	}
	return fmt.Sprintf("function %s", target.String())
}

// lowerCallExpr lowers a call in statement or value position (§4.5.4).
// asValue additionally reads the callee's return location into the result.
func (c *funcCtx) lowerCallExpr(call *ast.Call, asValue bool) loc {
	hasMacro := c.lowerCallArgs(call)
	c.emit(callText(call.Target, hasMacro))
	if !asValue {
		return loc{}
	}
	fn, ok := c.sess.funcIndex[call.Target.String()]
	if !ok {
		return intLoc(0)
	}
	if fn.Kind == ast.KindScoreboard {
		return scoreLoc(dotted(call.Target), "$return")
	}
	return storageLoc(call.Target.String(), "return")
}

// ---- resources / assets ----

func (s *session) lowerResource(res *ast.Resource) {
	root := "data"
	if res.DataKind == ast.ResourceAsset {
		root = "assets"
	}
	ns := res.ModuleLoc.Namespace
	modulePath := res.ModuleLoc.Path

	if res.Payload.Inline != nil {
		name := res.Name
		if name == "" {
			name = "resource"
		}
		segs := append([]string{root, ns, res.CategoryPath}, modulePath...)
		segs = append(segs, name+".json")
		s.dp.AddJSON(strings.Join(segs, "/"), res.Payload.Inline)
		return
	}

	if res.Payload.SourcePath == "" || res.Payload.SourcePath == "." {
		// "." means "the directory containing the .zog file" (§4.5.5):
		// a whole-directory copy, which needs driver-side directory
		// listing beyond the FileLoader's Load/Glob seam and so is left
		// to the driver, matching the core's filesystem-I/O non-goal.
		return
	}
	if s.fl == nil {
		s.errs.Add(LowerError{Reason: ReasonUnsupportedConstruct, Sp: res.Sp, Note: "file-backed resource requires a FileLoader"})
		return
	}

	matches, err := s.fl.Glob(res.Payload.SourcePath)
	if err != nil {
		s.errs.Add(LowerError{Reason: ReasonUnsupportedConstruct, Sp: res.Sp, Note: err.Error()})
		return
	}
	for _, src := range matches {
		content, loadErr := s.fl.Load(src)
		if loadErr != nil {
			continue
		}
		leaf := path.Base(src)
		destName := leaf
		if res.Name != "" && len(matches) == 1 {
			destName = res.Name + path.Ext(leaf)
		}
		segs := append([]string{root, ns, res.CategoryPath}, modulePath...)
		segs = append(segs, destName)
		destPath := strings.Join(segs, "/")

		if strings.HasSuffix(leaf, ".json5") || strings.HasSuffix(leaf, ".json") {
			if val, perr := res5.Parse(string(content)); perr == nil {
				if m, ok := val.(map[string]any); ok {
					s.dp.AddJSON(strings.TrimSuffix(destPath, path.Ext(destPath))+".json", m)
					continue
				}
			}
		}
		s.dp.AddRaw(destPath, content)
	}
}
