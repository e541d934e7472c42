package aruntime

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/edwingeng/deque"
)

// InputFunc answers a LIRE statement for the named variable. It may block;
// it should return promptly once ctx is done.
type InputFunc func(ctx context.Context, name string) (string, error)

var ErrNoInput = errors.New("no input left")

// ScriptedInput replays values in order and fails once they run out.
func ScriptedInput(values ...string) InputFunc {
	q := deque.NewDeque()
	for _, v := range values {
		q.PushBack(v)
	}
	var mu sync.Mutex
	return func(ctx context.Context, name string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if q.Empty() {
			return "", fmt.Errorf("%w for %s", ErrNoInput, name)
		}
		v := q.Front().(string)
		q.PopFront()
		return v, nil
	}
}

func trimInput(raw string) string {
	return strings.TrimLeft(raw, " \t\r\n\v\f")
}

// parseLeadingInt reads an optional sign and the longest digit run at the
// start of raw, ignoring anything after it.
func parseLeadingInt(raw string) (float64, bool) {
	s := trimInput(raw)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseLeadingFloat reads the longest decimal literal (with optional
// fraction and exponent) at the start of raw. "Infinity" is accepted.
func parseLeadingFloat(raw string) (float64, bool) {
	s := trimInput(raw)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	if strings.HasPrefix(s[end:], "Infinity") {
		if s[0] == '-' {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	}
	mant := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	intDigits := end - mant
	fracDigits := 0
	if end < len(s) && s[end] == '.' {
		j := end + 1
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		fracDigits = j - end - 1
		if intDigits > 0 || fracDigits > 0 {
			end = j
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return 0, false
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		j := end + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k > j {
			end = k
		}
	}
	n, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		var ne *strconv.NumError
		if errors.As(err, &ne) && errors.Is(ne.Err, strconv.ErrRange) {
			return n, true
		}
		return 0, false
	}
	return n, true
}

func parseBoolInput(raw string) bool {
	return strings.EqualFold(raw, "VRAI") || raw == "1" || strings.EqualFold(raw, "true")
}
