package lower

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/GMDU/zoglin/ast"
	"github.com/GMDU/zoglin/diagnostics"
)

// lowerExpr evaluates an expression to a loc: a compile-time value, or a
// scoreboard/storage address holding a runtime-computed one.
func (c *funcCtx) lowerExpr(e ast.Expression) loc {
	switch n := e.(type) {
	case *ast.Literal:
		if v, ok := n.Value.(int64); ok {
			return intLoc(v)
		}
		return constLoc(n.Value)
	case *ast.VarRef:
		return c.lowerVarRefRead(n)
	case *ast.Unary:
		return c.lowerUnary(n)
	case *ast.Binary:
		return c.lowerBinary(n)
	case *ast.Call:
		return c.lowerCallExpr(n, true)
	case *ast.Range:
		c.sess.errs.Add(LowerError{Reason: ReasonUnsupportedConstruct, Sp: n.Sp, Note: "range used outside a for-loop"})
		return intLoc(0)
	default:
		return intLoc(0)
	}
}

func (c *funcCtx) lowerVarRefRead(ref *ast.VarRef) loc {
	switch ref.Kind {
	case ast.KindScoreboard:
		obj, holder := scoreboardAddress(ref)
		return scoreLoc(obj, holder)
	case ast.KindStorage:
		selector, path := storageAddress(ref)
		return storageLoc(selector, path)
	case ast.KindMacro:
		return loc{kind: locConst, constVal: macroToken(ref)}
	case ast.KindCompileTime:
		v, ok := c.sess.constVals[ref.Name.String()]
		if !ok {
			c.sess.errs.Add(LowerError{Reason: ReasonUnresolvedCompileTime, Sp: ref.Sp, Note: ref.Name.String()})
			return intLoc(0)
		}
		return constLoc(v)
	}
	return intLoc(0)
}

// materialize copies a loc's value into a fresh scratch scoreboard holder,
// never mutating whatever holder/storage path it came from.
func (c *funcCtx) materialize(v loc) (objective, holder string) {
	objective, holder = c.newScratch()
	switch v.kind {
	case locInt:
		c.emit(fmt.Sprintf("scoreboard players set %s %s %d", holder, objective, v.intVal))
	case locConst:
		c.emit(fmt.Sprintf("scoreboard players set %s %s %s", holder, objective, formatConst(v.constVal)))
	case locScoreboard:
		c.emit(fmt.Sprintf("scoreboard players operation %s %s = %s %s", holder, objective, v.holder, v.objective))
	case locStorage:
		c.emit(fmt.Sprintf("execute store result score %s %s run data get storage %s %s", holder, objective, v.selector, v.nbtPath))
	}
	return
}

func (c *funcCtx) assignToVar(dst *ast.VarRef, src loc) {
	switch dst.Kind {
	case ast.KindScoreboard:
		obj, holder := scoreboardAddress(dst)
		c.writeScoreboard(obj, holder, src)
	case ast.KindStorage:
		selector, path := storageAddress(dst)
		c.writeStorage(selector, path, src)
	case ast.KindMacro:
		// macro params are bound by lowerCallArgs building the callee's
		// "args" storage compound directly; a bare assignment to a
		// macro-kind variable elsewhere has nothing to write to.
	case ast.KindCompileTime:
		c.sess.constVals[dst.Name.String()] = src.constVal
	}
}

// writeScoreboard and writeStorage set the given destination to src's
// value, referencing an already-scoreboard/storage source directly rather
// than copying it through scratch first. Shared between assignToVar and
// the return-as-value contract write in lower.go.
func (c *funcCtx) writeScoreboard(obj, holder string, src loc) {
	switch src.kind {
	case locInt:
		c.emit(fmt.Sprintf("scoreboard players set %s %s %d", holder, obj, src.intVal))
	case locConst:
		c.emit(fmt.Sprintf("scoreboard players set %s %s %s", holder, obj, formatConst(src.constVal)))
	case locScoreboard:
		c.emit(fmt.Sprintf("scoreboard players operation %s %s = %s %s", holder, obj, src.holder, src.objective))
	case locStorage:
		c.emit(fmt.Sprintf("execute store result score %s %s run data get storage %s %s", holder, obj, src.selector, src.nbtPath))
	}
}

func (c *funcCtx) writeStorage(selector, path string, src loc) {
	switch src.kind {
	case locInt:
		c.emit(fmt.Sprintf("data modify storage %s %s set value %d", selector, path, src.intVal))
	case locConst:
		c.emit(fmt.Sprintf("data modify storage %s %s set value %s", selector, path, formatConst(src.constVal)))
	case locScoreboard:
		c.emit(fmt.Sprintf("execute store result storage %s %s int 1 run scoreboard players get %s %s", selector, path, src.holder, src.objective))
	case locStorage:
		c.emit(fmt.Sprintf("data modify storage %s %s set from storage %s %s", selector, path, src.selector, src.nbtPath))
	}
}

func (c *funcCtx) lowerUnary(u *ast.Unary) loc {
	v := c.lowerExpr(u.Expr)
	switch u.Op {
	case ast.UnaryNeg:
		if iv, ok := toInt(v); ok {
			return intLoc(-iv)
		}
		negObj, negHolder := c.newScratch()
		c.emit(fmt.Sprintf("scoreboard players set %s %s -1", negHolder, negObj))
		obj, holder := c.materialize(v)
		c.emit(fmt.Sprintf("scoreboard players operation %s %s *= %s %s", holder, obj, negHolder, negObj))
		return scoreLoc(obj, holder)
	case ast.UnaryNot:
		b := c.lowerBoolean(u.Expr)
		if b.kind == locInt {
			if b.intVal == 0 {
				return intLoc(1)
			}
			return intLoc(0)
		}
		resultObj, resultHolder := c.newScratch()
		c.emit(fmt.Sprintf("scoreboard players set %s %s 0", resultHolder, resultObj))
		c.emit(fmt.Sprintf("execute if score %s %s matches 0 run scoreboard players set %s %s 1", b.holder, b.objective, resultHolder, resultObj))
		return scoreLoc(resultObj, resultHolder)
	}
	return v
}

func (c *funcCtx) lowerBinary(b *ast.Binary) loc {
	switch b.Op {
	case ast.OpAnd, ast.OpOr:
		return c.lowerLogical(b)
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return c.lowerComparison(b)
	case ast.OpPow:
		return c.lowerPow(b)
	default:
		left := c.lowerExpr(b.Left)
		right := c.lowerExpr(b.Right)
		return c.applyArith(b.Op, left, right)
	}
}

func (c *funcCtx) applyArith(op ast.BinaryOp, left, right loc) loc {
	if lv, lok := toInt(left); lok {
		if rv, rok := toInt(right); rok {
			return intLoc(foldArith(op, lv, rv))
		}
	}
	obj, holder := c.materialize(left)
	robj, rholder := c.materialize(right)
	c.emit(fmt.Sprintf("scoreboard players operation %s %s %s %s %s", holder, obj, scoreboardOpSymbol(op), rholder, robj))
	return scoreLoc(obj, holder)
}

func (c *funcCtx) lowerComparison(b *ast.Binary) loc {
	left := c.lowerExpr(b.Left)
	right := c.lowerExpr(b.Right)
	lobj, lholder := c.materialize(left)
	robj, rholder := c.materialize(right)
	resultObj, resultHolder := c.newScratch()
	c.emit(fmt.Sprintf("scoreboard players set %s %s 0", resultHolder, resultObj))
	if b.Op == ast.OpNe {
		c.emit(fmt.Sprintf("execute unless score %s %s = %s %s run scoreboard players set %s %s 1", lholder, lobj, rholder, robj, resultHolder, resultObj))
	} else {
		c.emit(fmt.Sprintf("execute if score %s %s %s %s %s run scoreboard players set %s %s 1", lholder, lobj, comparisonSymbol(b.Op), rholder, robj, resultHolder, resultObj))
	}
	return scoreLoc(resultObj, resultHolder)
}

func (c *funcCtx) lowerLogical(b *ast.Binary) loc {
	l := c.lowerBoolean(b.Left)
	r := c.lowerBoolean(b.Right)
	if l.kind == locInt && r.kind == locInt {
		lt, rt := l.intVal != 0, r.intVal != 0
		var res bool
		if b.Op == ast.OpAnd {
			res = lt && rt
		} else {
			res = lt || rt
		}
		if res {
			return intLoc(1)
		}
		return intLoc(0)
	}
	if l.kind == locInt {
		l = boolScoreLoc(c, l.intVal != 0)
	}
	if r.kind == locInt {
		r = boolScoreLoc(c, r.intVal != 0)
	}
	resultObj, resultHolder := c.newScratch()
	c.emit(fmt.Sprintf("scoreboard players set %s %s 0", resultHolder, resultObj))
	if b.Op == ast.OpAnd {
		c.emit(fmt.Sprintf("execute unless score %s %s matches 0 unless score %s %s matches 0 run scoreboard players set %s %s 1", l.holder, l.objective, r.holder, r.objective, resultHolder, resultObj))
	} else {
		c.emit(fmt.Sprintf("execute unless score %s %s matches 0 run scoreboard players set %s %s 1", l.holder, l.objective, resultHolder, resultObj))
		c.emit(fmt.Sprintf("execute unless score %s %s matches 0 run scoreboard players set %s %s 1", r.holder, r.objective, resultHolder, resultObj))
	}
	return scoreLoc(resultObj, resultHolder)
}

func boolScoreLoc(c *funcCtx, v bool) loc {
	obj, holder := c.newScratch()
	if v {
		c.emit(fmt.Sprintf("scoreboard players set %s %s 1", holder, obj))
	} else {
		c.emit(fmt.Sprintf("scoreboard players set %s %s 0", holder, obj))
	}
	return scoreLoc(obj, holder)
}

// lowerBoolean evaluates e as a truth value and always returns either an
// intLoc(0/1) or a locScoreboard whose value is zero exactly when e is
// false (a variable operand is copied with its raw value, not reduced to 0/1).
func (c *funcCtx) lowerBoolean(e ast.Expression) loc {
	if b, ok := e.(*ast.Binary); ok {
		switch b.Op {
		case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
			return c.lowerComparison(b)
		case ast.OpAnd, ast.OpOr:
			return c.lowerLogical(b)
		}
	}
	v := c.lowerExpr(e)
	switch v.kind {
	case locInt:
		if v.intVal != 0 {
			return intLoc(1)
		}
		return intLoc(0)
	case locScoreboard, locStorage:
		obj, holder := c.materialize(v)
		return scoreLoc(obj, holder)
	default:
		return intLoc(1)
	}
}

// lowerCondition renders e as an `execute` condition fragment
// ("unless score … matches 0") guarding whatever runs after it.
func (c *funcCtx) lowerCondition(e ast.Expression) string {
	v := c.lowerBoolean(e)
	if v.kind == locInt {
		obj, holder := c.newScratch()
		c.emit(fmt.Sprintf("scoreboard players set %s %s %d", holder, obj, v.intVal))
		v = scoreLoc(obj, holder)
	}
	return fmt.Sprintf("unless score %s %s matches 0", v.holder, v.objective)
}

func (c *funcCtx) lowerPow(b *ast.Binary) loc {
	base := c.lowerExpr(b.Left)
	expConst, ok := c.evalConstInt(b.Right)
	if !ok || expConst < 0 {
		c.sess.errs.Add(LowerError{Reason: ReasonUnsupportedDynamicPower, Sp: b.Sp})
		return intLoc(0)
	}
	if bv, bok := toInt(base); bok {
		return intLoc(intPow(bv, expConst))
	}
	obj, holder := c.materialize(base)
	if expConst == 0 {
		c.emit(fmt.Sprintf("scoreboard players set %s %s 1", holder, obj))
		return scoreLoc(obj, holder)
	}
	baseObj, baseHolder := c.newScratch()
	c.emit(fmt.Sprintf("scoreboard players operation %s %s = %s %s", baseHolder, baseObj, holder, obj))
	for i := int64(1); i < expConst; i++ {
		c.emit(fmt.Sprintf("scoreboard players operation %s %s *= %s %s", holder, obj, baseHolder, baseObj))
	}
	return scoreLoc(obj, holder)
}

// inlineExpr renders an &{ expr } command-text interpolation (§4.2) as
// literal text spliced into the surrounding command line.
func (c *funcCtx) inlineExpr(e ast.Expression, sp diagnostics.Span) string {
	switch n := e.(type) {
	case *ast.Call:
		hasMacro := c.lowerCallArgs(n)
		return callText(n.Target, hasMacro)
	case *ast.VarRef:
		if n.Kind == ast.KindMacro {
			return macroToken(n)
		}
		if n.Kind == ast.KindCompileTime {
			v, ok := c.sess.constVals[n.Name.String()]
			if !ok {
				c.sess.errs.Add(LowerError{Reason: ReasonUnresolvedCompileTime, Sp: sp, Note: n.Name.String()})
				return ""
			}
			return fmt.Sprint(v)
		}
		c.sess.errs.Add(LowerError{Reason: ReasonUnsupportedConstruct, Sp: sp, Note: "a runtime storage/scoreboard value can't be textually interpolated into a command; read it with its own command instead"})
		return ""
	case *ast.Literal:
		return fmt.Sprint(n.Value)
	default:
		c.sess.errs.Add(LowerError{Reason: ReasonUnsupportedConstruct, Sp: sp, Note: "unsupported inline command expression"})
		return ""
	}
}

// ---- constant folding / formatting helpers ----

func toInt(l loc) (int64, bool) {
	switch l.kind {
	case locInt:
		return l.intVal, true
	case locConst:
		switch v := l.constVal.(type) {
		case int64:
			return v, true
		case float64:
			return int64(v), true
		case bool:
			if v {
				return 1, true
			}
			return 0, true
		}
	}
	return 0, false
}

func foldArith(op ast.BinaryOp, a, b int64) int64 {
	switch op {
	case ast.OpAdd:
		return a + b
	case ast.OpSub:
		return a - b
	case ast.OpMul:
		return a * b
	case ast.OpDiv:
		if b == 0 {
			return 0
		}
		return a / b
	case ast.OpMod:
		if b == 0 {
			return 0
		}
		return a % b
	}
	return 0
}

func intPow(base, exp int64) int64 {
	var result int64 = 1
	for i := int64(0); i < exp; i++ {
		result *= base
	}
	return result
}

func scoreboardOpSymbol(op ast.BinaryOp) string {
	switch op {
	case ast.OpAdd:
		return "+="
	case ast.OpSub:
		return "-="
	case ast.OpMul:
		return "*="
	case ast.OpDiv:
		return "/="
	case ast.OpMod:
		return "%="
	}
	return "="
}

func comparisonSymbol(op ast.BinaryOp) string {
	switch op {
	case ast.OpEq:
		return "="
	case ast.OpLt:
		return "<"
	case ast.OpLe:
		return "<="
	case ast.OpGt:
		return ">"
	case ast.OpGe:
		return ">="
	}
	return "="
}

func compoundToBinaryOp(op ast.CompoundOp) ast.BinaryOp {
	switch op {
	case ast.CompoundAdd:
		return ast.OpAdd
	case ast.CompoundSub:
		return ast.OpSub
	case ast.CompoundMul:
		return ast.OpMul
	case ast.CompoundDiv:
		return ast.OpDiv
	default:
		return ast.OpMod
	}
}

// evalConstInt folds e at compile time, needed for the `**` exponent (§4.5.2
// requires a constant integer exponent; a dynamic one is ReasonUnsupportedDynamicPower).
func (c *funcCtx) evalConstInt(e ast.Expression) (int64, bool) {
	switch n := e.(type) {
	case *ast.Literal:
		switch v := n.Value.(type) {
		case int64:
			return v, true
		case float64:
			return int64(v), true
		}
	case *ast.Unary:
		if n.Op == ast.UnaryNeg {
			v, ok := c.evalConstInt(n.Expr)
			return -v, ok
		}
	case *ast.Binary:
		l, lok := c.evalConstInt(n.Left)
		r, rok := c.evalConstInt(n.Right)
		if lok && rok {
			return foldArith(n.Op, l, r), true
		}
	case *ast.VarRef:
		if n.Kind == ast.KindCompileTime {
			if v, ok := c.sess.constVals[n.Name.String()]; ok {
				return toInt(constLoc(v))
			}
		}
	}
	return 0, false
}

// evalConstAny folds e at compile time for `&`-kind assignment, where the
// result need not be numeric.
func (c *funcCtx) evalConstAny(e ast.Expression) (any, bool) {
	if n, ok := e.(*ast.Literal); ok {
		return n.Value, true
	}
	if iv, ok := c.evalConstInt(e); ok {
		return iv, true
	}
	if vr, ok := e.(*ast.VarRef); ok && vr.Kind == ast.KindCompileTime {
		if v, ok := c.sess.constVals[vr.Name.String()]; ok {
			return v, true
		}
	}
	return nil, false
}

func formatConst(v any) string {
	switch x := v.(type) {
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'g', -1, 64) + "d"
	case string:
		return strconv.Quote(x)
	case bool:
		if x {
			return "true"
		}
		return "false"
	case nil:
		return "{}"
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return "{}"
		}
		return string(b)
	}
}
