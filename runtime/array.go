package aruntime

import (
	"math"

	"github.com/gosuda/algofr/diag"
)

// elementIndex floors a numeric index and checks it against length.
func elementIndex(idx Value, length, line int, name string) (int, error) {
	if idx.Kind() != NumberKind {
		return 0, diag.Type(line, "L'index du tableau '%s' doit être un nombre", name)
	}
	f := math.Floor(idx.Num())
	if math.IsNaN(f) || f < 0 || f >= float64(length) {
		return 0, diag.Execution(line, "Index %s hors limites pour le tableau '%s'", FormatNumber(f), name)
	}
	return int(f), nil
}

func (in *Interpreter) getElement(name string, arr, idx Value, line int) (Value, error) {
	if arr.Kind() != ListKind {
		return Value{}, diag.Type(line, "'%s' n'est pas un tableau", name)
	}
	i, err := elementIndex(idx, arr.Len(), line, name)
	if err != nil {
		return Value{}, err
	}
	return arr.Elems()[i], nil
}

func (in *Interpreter) setElement(name string, arr, idx, v Value, line int) error {
	if arr.Kind() != ListKind {
		return diag.Type(line, "'%s' n'est pas un tableau", name)
	}
	i, err := elementIndex(idx, arr.Len(), line, name)
	if err != nil {
		return err
	}
	arr.Elems()[i] = v
	return nil
}
