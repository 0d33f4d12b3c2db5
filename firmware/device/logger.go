package device

import (
	"strconv"
)

// Logger is the logging interface used by the control loop. *slog.Logger satisfies it on a host
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// PrintLogger writes log lines with println so it works on a board without fmt or an os.Stdout.
// args are key/value pairs, formatted like "msg key=value"
type PrintLogger struct {
	Verbose bool
}

func (l PrintLogger) Debug(msg string, args ...any) {
	if l.Verbose {
		println(format("DEBUG", msg, args))
	}
}

func (l PrintLogger) Info(msg string, args ...any) {
	println(format("INFO", msg, args))
}

func (l PrintLogger) Warn(msg string, args ...any) {
	println(format("WARN", msg, args))
}

func (l PrintLogger) Error(msg string, args ...any) {
	println(format("ERROR", msg, args))
}

type stringer interface {
	String() string
}

func format(level, msg string, args []any) string {
	line := "[" + level + "] " + msg
	for i := 0; i < len(args); i += 2 {
		key := toString(args[i])
		if i+1 >= len(args) {
			line += " !BADKEY=" + key
			break
		}
		line += " " + key + "=" + toString(args[i+1])
	}
	return line
}

func toString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case error:
		return v.Error()
	case stringer:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case []byte:
		out := "["
		for i, b := range v {
			if i > 0 {
				out += " "
			}
			out += strconv.Itoa(int(b))
		}
		return out + "]"
	case nil:
		return "<nil>"
	default:
		return "?"
	}
}

// nopLogger is used when no Logger is configured
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
