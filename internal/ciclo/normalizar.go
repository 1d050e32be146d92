package ciclo

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	ErrDataVazia    = errors.New("data não informada")
	ErrDataInvalida = errors.New("data em formato não reconhecido")
)

// ParseData reads the textual due dates found in legacy records:
// "2025-01-31", "31/01/2025" (DD/MM/YYYY), RFC 3339 timestamps and
// zone-less "2025-01-31T00:00:00".
//
// The result is always the calendar day as written. DD/MM/YYYY is read as
// (y, m, d) and never goes through a UTC instant; a timestamp keeps the day of
// the offset it was written with.
func ParseData(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrDataVazia
	}

	var layout string
	switch {
	case strings.Contains(s, "/"):
		layout = "2/1/2006"
	case len(s) == len("2006-01-02"):
		layout = "2006-01-02"
	case strings.HasSuffix(s, "Z") || strings.LastIndexAny(s, "+-") > len("2006-01-02"):
		layout = time.RFC3339Nano
	default:
		layout = "2006-01-02T15:04:05"
	}

	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrDataInvalida, s)
	}
	// t.Date() reads the day in the parsed offset, not in UTC
	y, m, d := t.Date()
	return Data(y, m, d), nil
}

// Normalizar converts any accepted wire representation of a date into the
// canonical date. Accepted shapes:
//
//   - time.Time / *time.Time (calendar day in UTC)
//   - string / *string (see ParseData)
//   - provider timestamp maps: {"seconds","nanoseconds"} or {"_seconds","_nanoseconds"}
//   - unix epoch numbers (seconds, or milliseconds when large enough)
//
// Business code only ever sees the result.
func Normalizar(v any) (time.Time, error) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, ErrDataVazia
	case time.Time:
		if x.IsZero() {
			return time.Time{}, ErrDataVazia
		}
		return DataDe(x, time.UTC), nil
	case *time.Time:
		if x == nil {
			return time.Time{}, ErrDataVazia
		}
		return Normalizar(*x)
	case string:
		return ParseData(x)
	case *string:
		if x == nil {
			return time.Time{}, ErrDataVazia
		}
		return ParseData(*x)
	case map[string]any:
		return timestampProvedor(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrDataInvalida, x)
		}
		return epoch(f), nil
	case float64:
		return epoch(x), nil
	case int64:
		return epoch(float64(x)), nil
	case int:
		return epoch(float64(x)), nil
	}
	return time.Time{}, fmt.Errorf("%w: tipo %T", ErrDataInvalida, v)
}

func timestampProvedor(m map[string]any) (time.Time, error) {
	sec, ok := numero(m, "seconds", "_seconds")
	if !ok {
		return time.Time{}, fmt.Errorf("%w: timestamp sem segundos", ErrDataInvalida)
	}
	nsec, _ := numero(m, "nanoseconds", "_nanoseconds")
	return DataDe(time.Unix(int64(sec), int64(nsec)), time.UTC), nil
}

func numero(m map[string]any, chaves ...string) (float64, bool) {
	for _, k := range chaves {
		switch n := m[k].(type) {
		case float64:
			return n, true
		case int64:
			return float64(n), true
		case int:
			return float64(n), true
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// epoch values above 1e11 cannot be seconds (year 5138) and are read as millis.
func epoch(v float64) time.Time {
	if math.Abs(v) > 1e11 {
		return DataDe(time.UnixMilli(int64(v)), time.UTC)
	}
	return DataDe(time.Unix(int64(v), 0), time.UTC)
}
