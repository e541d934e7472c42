//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"syscall/js"

	"github.com/gosuda/algofr"
	aruntime "github.com/gosuda/algofr/runtime"
)

const abortSentinel = "__ALGOFR_ABORT__"

// inputPrompt answers LIRE from the queued values, then from the page's
// algofrInputNext(name) hook.
func inputPrompt(queued []string) aruntime.InputFunc {
	scripted := aruntime.ScriptedInput(queued...)
	left := len(queued)
	return func(ctx context.Context, name string) (string, error) {
		if left > 0 {
			left--
			return scripted(ctx, name)
		}
		fn := js.Global().Get("algofrInputNext")
		if fn.Type() != js.TypeFunction {
			return "", fmt.Errorf("%w for %s", aruntime.ErrNoInput, name)
		}
		v := fn.Invoke(name)
		if v.IsUndefined() || v.IsNull() {
			return "", fmt.Errorf("%w for %s", aruntime.ErrNoInput, name)
		}
		out := strings.TrimSpace(v.String())
		if out == abortSentinel {
			return "", fmt.Errorf("input queue is empty for %s (add input and run again)", name)
		}
		return out, nil
	}
}

func errorReport(msg string) string {
	b, _ := json.Marshal(algofr.Report{
		Output: []string{},
		Memory: map[string]any{},
		Error:  &algofr.ErrorReport{Kind: "bridge", Message: msg},
	})
	return string(b)
}

func runProgram(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorReport("algofrRun requires the program source")
	}
	var queued []string
	if len(args) > 1 && strings.TrimSpace(args[1].String()) != "" {
		if err := json.Unmarshal([]byte(args[1].String()), &queued); err != nil {
			return errorReport(fmt.Sprintf("invalid inputs json: %v", err))
		}
	}

	var res algofr.Result
	p, err := algofr.Compile(args[0].String(), aruntime.Callbacks{
		OnOutput: func(line string) { res.Output = append(res.Output, line) },
		OnInput:  inputPrompt(queued),
	})
	if err == nil {
		err = p.Run(context.Background(), false)
		res.Memory = p.Interpreter().Memory()
	}
	b, _ := json.Marshal(algofr.NewReport(res, err))
	return string(b)
}

func main() {
	js.Global().Set("algofrRun", js.FuncOf(runProgram))
	select {}
}
