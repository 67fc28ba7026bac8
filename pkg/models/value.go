package models

import (
	"fmt"
	"strconv"
	"time"
)

// ValueKey canonicalizes a scalar database value for use as a map or set
// key. Temporal values collapse to a UTC RFC 3339 string so that two
// logically equal timestamps dedupe even when they arrive as distinct
// driver-created instances. Byte slices are treated as text.
func ValueKey(v any) string {
	switch t := v.(type) {
	case nil:
		return "\x00null"
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}
