package memo

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Key derives a deterministic cache key from arguments.
//
// Numbers, booleans and nil render as their literal text. Strings render bare
// when they start with a letter and hold only letters, digits and "_-.:/@";
// any other string is quoted so it cannot be mistaken for a number or for
// another argument. Everything else renders as canonical JSON, which sorts map
// keys. Arguments are joined with "|".
func Key(args ...any) string {
	switch len(args) {
	case 0:
		return ""
	case 1:
		return keyPart(args[0])
	}

	var b strings.Builder
	for i, a := range args {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(keyPart(a))
	}
	return b.String()
}

func keyPart(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		if bare(x) {
			return x
		}
		return strconv.Quote(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.FormatInt(int64(x), 10)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}

	data, err := json.Marshal(v)
	if err != nil {
		// Channels, funcs and other values JSON cannot encode.
		return fmt.Sprintf("%T(%v)", v, v)
	}
	return string(data)
}

func bare(s string) bool {
	if s == "" || s == "true" || s == "false" || s == "null" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || strings.ContainsRune("_-.:/@", r)):
		default:
			return false
		}
	}
	return true
}
