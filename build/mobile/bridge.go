// Package mobile exposes the engine to gomobile bindings as JSON strings.
package mobile

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gosuda/algofr"
)

// Run executes a program and returns the JSON report.
// inputsJSON format: ["1","hello", ...]
// Result format: {"output":[...],"memory":{"x":{"type":"ENTIER","value":1}},"error":{...}}
func Run(source, inputsJSON string) string {
	var queued []string
	if strings.TrimSpace(inputsJSON) != "" {
		if err := json.Unmarshal([]byte(inputsJSON), &queued); err != nil {
			return encode(algofr.Report{
				Output: []string{},
				Memory: map[string]any{},
				Error:  &algofr.ErrorReport{Kind: "bridge", Message: fmt.Sprintf("invalid inputs json: %v", err)},
			})
		}
	}
	res, err := algofr.Run(context.Background(), source, queued)
	return encode(algofr.NewReport(res, err))
}

func encode(r algofr.Report) string {
	b, _ := json.Marshal(r)
	return string(b)
}
