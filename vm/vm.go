package vm

import (
	"strings"

	"github.com/google/uuid"

	"github.com/corvid-scheme/corvid/corerr"
	"github.com/corvid-scheme/corvid/env"
	"github.com/corvid-scheme/corvid/heap"
	"github.com/corvid-scheme/corvid/value"
)

func opcode(h *heap.Heap, instr value.Value) string {
	return instr.Pair(h).Car.AsSymbol()
}

// field returns the nth argument (0-indexed) of instr, an instruction
// list (opcode arg0 arg1 ...).
func field(h *heap.Heap, instr value.Value, n int) value.Value {
	cur := instr.Pair(h).Cdr
	for i := 0; i < n; i++ {
		cur = cur.Pair(h).Cdr
	}
	return cur.Pair(h).Car
}

// Run drives the register loop from a freshly compiled top-level
// instruction through to halt, returning whatever ended up in acc.
// Each call resets env/frame/rib/acc to a clean top-level state first,
// so one VM can be reused across an entire REPL session (§5) while
// still giving every individual top-level form its own call stack -
// continuations captured by an earlier form remain valid across this
// reset, since invoking one overwrites the frame register itself
// rather than depending on whatever Run happened to initialize it to.
func (vm *VM) Run(exp value.Value) (value.Value, error) {
	vm.dupEnv(vm.TopEnv)
	vm.adoptFrame(0)
	releaseRib(vm.H, vm.Rib)
	vm.Rib = nil
	vm.adoptAcc(value.Unspecified)
	vm.Exp = exp

	for {
		vm.CollectIfDue()
		op := opcode(vm.H, vm.Exp)
		if op == "halt" {
			return vm.Acc, nil
		}
		if err := vm.step(op); err != nil {
			return value.Value{}, err
		}
	}
}

func (vm *VM) step(op string) error {
	switch op {
	case "refer":
		return vm.stepRefer()
	case "constant":
		return vm.stepConstant()
	case "close":
		return vm.stepClose()
	case "test":
		return vm.stepTest()
	case "assign":
		return vm.stepAssign()
	case "conti":
		return vm.stepConti()
	case "nuate":
		return vm.stepNuate()
	case "frame":
		return vm.stepFrame()
	case "argument":
		return vm.stepArgument()
	case "apply":
		return vm.stepApply()
	case "return":
		return vm.doReturn()
	default:
		return corerr.New(corerr.KindRuntimeUnknownOpcode, "step", op)
	}
}

func (vm *VM) stepRefer() error {
	name := field(vm.H, vm.Exp, 0).AsSymbol()
	next := field(vm.H, vm.Exp, 1)
	val, err := env.Lookup(vm.H, vm.Env, name)
	if err != nil {
		return err
	}
	vm.copyAcc(val)
	vm.Exp = next
	return nil
}

func (vm *VM) stepConstant() error {
	obj := field(vm.H, vm.Exp, 0)
	next := field(vm.H, vm.Exp, 1)
	vm.copyAcc(obj)
	vm.Exp = next
	return nil
}

// stepClose builds a closure over the instruction's own vars/body -
// both still reachable through the instruction tree itself, so both
// need an extra retain for the closure's independent claim on them -
// and the currently live environment (likewise retained, not adopted:
// env keeps its own claim).
func (vm *VM) stepClose() error {
	vars := field(vm.H, vm.Exp, 0)
	body := field(vm.H, vm.Exp, 1)
	next := field(vm.H, vm.Exp, 2)
	retainVal(vm.H, vars)
	retainVal(vm.H, body)
	vm.H.Retain(vm.Env)
	closure := value.ClosureRef(vm.H, &value.Closure{Env: vm.Env, Body: body, Params: vars})
	vm.adoptAcc(closure)
	vm.Exp = next
	return nil
}

func (vm *VM) stepTest() error {
	thenInstr := field(vm.H, vm.Exp, 0)
	elseInstr := field(vm.H, vm.Exp, 1)
	if vm.Acc.IsTrue() {
		vm.Exp = thenInstr
	} else {
		vm.Exp = elseInstr
	}
	return nil
}

func (vm *VM) stepAssign() error {
	name := field(vm.H, vm.Exp, 0).AsSymbol()
	next := field(vm.H, vm.Exp, 1)
	if err := env.Assign(vm.H, vm.Env, name, vm.Acc); err != nil {
		return err
	}
	vm.adoptAcc(value.Unspecified)
	vm.Exp = next
	return nil
}

// stepConti reifies the current frame register as a continuation:
// acc becomes a closure of one argument whose body is a freshly
// synthesized (nuate frame var) instruction splicing in the frame
// snapshot directly, so invoking the closure later needs nothing
// beyond the ordinary closure-apply path (§4.6). The captured frame is
// embedded twice - once in the instruction data nuate will read, once
// in the closure's own CapturedFrame field for cheap continuation?
// introspection - so each needs its own retain.
func (vm *VM) stepConti() error {
	next := field(vm.H, vm.Exp, 0)
	kontVar := "kont$" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if vm.Frame != 0 {
		vm.H.Retain(vm.Frame)
	}
	nuateInstr := value.SliceToList(vm.H, []value.Value{
		value.Sym("nuate"), value.FrameRef(vm.Frame), value.Sym(kontVar),
	})
	if vm.Frame != 0 {
		vm.H.Retain(vm.Frame)
	}
	vm.H.Retain(vm.Env)
	params := value.SliceToList(vm.H, []value.Value{value.Sym(kontVar)})
	closure := value.ClosureRef(vm.H, &value.Closure{
		Env:           vm.Env,
		Body:          nuateInstr,
		Params:        params,
		CapturedFrame: vm.Frame,
	})
	vm.adoptAcc(closure)
	vm.Exp = next
	return nil
}

// stepNuate resumes a captured continuation: bind the one argument it
// was invoked with (already bound to var by the ordinary apply path
// that ran before this opcode), swap in the snapshot frame, and let
// the generic return-popping logic do the actual unwind - nuate's own
// job is only to set acc and install the frame first.
func (vm *VM) stepNuate() error {
	frameVal := field(vm.H, vm.Exp, 0)
	kontVar := field(vm.H, vm.Exp, 1).AsSymbol()
	argVal, err := env.Lookup(vm.H, vm.Env, kontVar)
	if err != nil {
		return err
	}
	vm.dupFrame(frameVal.Ref())
	vm.copyAcc(argVal)
	return vm.doReturn()
}

// stepFrame saves (ret, env, rib) into a new Frame pushed onto the
// frame register, then clears rib for the call about to follow
// (§4.5: applications in tail position compile no frame instruction). The rib elements' ownership transfers from the register to
// the frame: retained for the frame's new claim, then released from
// the register's old one, netting to a plain handoff.
func (vm *VM) stepFrame() error {
	x := field(vm.H, vm.Exp, 0)
	ret := field(vm.H, vm.Exp, 1)
	retainVal(vm.H, ret)
	vm.H.Retain(vm.Env)
	retainRib(vm.H, vm.Rib)
	if vm.Frame != 0 {
		vm.H.Retain(vm.Frame)
	}
	f := &Frame{Ret: ret, Env: vm.Env, Rib: vm.Rib, Next: vm.Frame}
	newFrame := vm.H.Allocate(f)
	releaseRib(vm.H, vm.Rib)
	vm.Rib = nil
	vm.adoptFrame(newFrame)
	vm.Exp = x
	return nil
}

func (vm *VM) stepArgument() error {
	next := field(vm.H, vm.Exp, 0)
	retainVal(vm.H, vm.Acc)
	vm.Rib = append(vm.Rib, vm.Acc)
	vm.Exp = next
	return nil
}

// stepApply dispatches on whatever acc currently holds. A closure
// (ordinary or continuation - the CapturedFrame field is irrelevant
// here, since a continuation's body is just an ordinary nuate
// instruction) extends its captured environment and jumps into its
// body. A native has no body to jump into, so applying one completes
// synchronously and must perform the same unwind return does -
// natives are written against the convention that their result
// arrives already owned by the caller, exactly like a freshly
// allocated value, so apply adopts it rather than copying it.
func (vm *VM) stepApply() error {
	switch vm.Acc.Tag {
	case value.TagClosure:
		cl := vm.Acc.Closure(vm.H)
		newEnv := env.New(vm.H, cl.Env)
		if err := bindParams(vm.H, newEnv, cl.Params, vm.Rib); err != nil {
			return err
		}
		releaseRib(vm.H, vm.Rib)
		vm.Rib = nil
		body := cl.Body
		vm.adoptEnv(newEnv)
		vm.Exp = body
		return nil
	case value.TagNative:
		nat := vm.Acc.AsNative()
		result, err := nat.Fn(vm.Rib)
		if err != nil {
			return err
		}
		releaseRib(vm.H, vm.Rib)
		vm.Rib = nil
		vm.adoptAcc(result)
		return vm.doReturn()
	default:
		return corerr.New(corerr.KindRuntimeNotCallable, "apply", "the operator of an application")
	}
}

// bindParams binds rib positionally against params (a proper list, a
// dotted list, or a bare symbol - §4.4's three parameter-list shapes),
// erroring on arity mismatch. The rest-argument list, if any, is
// freshly built from values the rib still separately owns, so each
// element needs an explicit retain the way stepFrame's rib handoff
// does - value.SliceToList's own Pair construction does not retain
// its arguments, since it is equally used to build brand-new data
// with no other owner at all (the reader, quote).
func bindParams(h *heap.Heap, envRef heap.Ref, params value.Value, rib []value.Value) error {
	cur := params
	i := 0
	for cur.Tag == value.TagPair {
		p := cur.Pair(h)
		if i >= len(rib) {
			return corerr.New(corerr.KindRuntimeWrongArgCount, "apply", "too few arguments")
		}
		env.Define(h, envRef, p.Car.AsSymbol(), rib[i])
		i++
		cur = p.Cdr
	}
	switch cur.Tag {
	case value.TagSymbol:
		rest := rib[i:]
		for _, v := range rest {
			retainVal(h, v)
		}
		env.Define(h, envRef, cur.AsSymbol(), value.SliceToList(h, rest))
	case value.TagNull:
		if i != len(rib) {
			return corerr.New(corerr.KindRuntimeWrongArgCount, "apply", "too many arguments")
		}
	}
	return nil
}

// doReturn pops the top of the frame register and resumes there. It
// is reached three ways: the explicit return opcode ending every
// closure body, a native call completing inside apply, and nuate
// after it has swapped in a captured frame - in every case the logic
// is identical, which is the point of giving it one implementation.
func (vm *VM) doReturn() error {
	if vm.Frame == 0 {
		return corerr.New(corerr.KindRuntimeReturnWithNoFrame, "return", "frame register is empty")
	}
	f := getFrame(vm.H, vm.Frame)
	ret, frameEnv, frameRib, next := f.Ret, f.Env, f.Rib, f.Next
	vm.dupEnv(frameEnv)
	retainRib(vm.H, frameRib)
	releaseRib(vm.H, vm.Rib)
	vm.Rib = frameRib
	vm.Exp = ret
	vm.dupFrame(next)
	return nil
}
