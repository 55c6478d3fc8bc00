package logger

import (
	"strings"
	"unicode"
)

type Detail interface{ addTo(*Logger, logEntry) }

func Field(key string, value any) Detail {
	return field{Key: key, Value: value}
}

type field struct {
	Key   string
	Value any
}

func (f field) addTo(l *Logger, e logEntry) {
	e[l.formatKey(f.Key)] = l.toFieldValue(f.Value)
}

// Fields is a convenient way to add multiple key value pairs at once.
type Fields map[string]any

func (fields Fields) addTo(l *Logger, e logEntry) {
	for k, v := range fields {
		Field(k, v).addTo(l, e)
	}
}

func ErrField(err error) Detail {
	if err == nil {
		return nullDetail{}
	}
	return Field("error", Fields{"message": err.Error()})
}

func (l *Logger) toFieldValue(val any) any {
	switch val := val.(type) {
	case Fields:
		le := logEntry{}
		val.addTo(l, le)
		return map[string]any(le)
	case map[string]string:
		vs := make(map[string]any, len(val))
		for k, v := range val {
			vs[l.formatKey(k)] = v
		}
		return vs
	case error:
		return val.Error()
	default:
		return val
	}
}

type logEntry map[string]any

type nullDetail struct{}

func (nullDetail) addTo(*Logger, logEntry) {}

func toSnake(s string) string {
	var b strings.Builder
	rs := []rune(s)
	for i, r := range rs {
		switch {
		case r == ' ' || r == '-' || r == '.':
			b.WriteRune('_')
		case unicode.IsUpper(r):
			if i > 0 && rs[i-1] != '_' && !unicode.IsUpper(rs[i-1]) {
				b.WriteRune('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
