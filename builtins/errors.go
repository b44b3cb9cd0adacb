package builtins

import (
	"fmt"

	"github.com/corvid-scheme/corvid/corerr"
	"github.com/corvid-scheme/corvid/value"
)

func arityError(op string, want, got int) (value.Value, error) {
	return value.Value{}, corerr.New(corerr.KindRuntimeWrongArgCount, op,
		fmt.Sprintf("wants %d argument(s), got %d", want, got))
}

func typeError(op string, arg value.Value) (value.Value, error) {
	return value.Value{}, corerr.New(corerr.KindRuntimeWrongType, op,
		fmt.Sprintf("unexpected type (tag %d)", arg.Tag))
}

func outOfRangeError(op string, index int) (value.Value, error) {
	return value.Value{}, corerr.New(corerr.KindRuntimeOutOfRange, op,
		fmt.Sprintf("index %d out of range", index))
}
