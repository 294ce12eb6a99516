package dormly

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the logging capability every component receives at
// construction.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type defLogger struct{}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] DORMLY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] DORMLY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] DORMLY "+newline(format), args...)
}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] DORMLY "+newline(format), args...)
}

func newline(format string) string {
	if !strings.HasSuffix(format, "\n") {
		format = format + "\n"
	}
	return format
}

// ZeroLogger adapts a zerolog.Logger to the Logger interface. Key/value
// pairs follow the message the way the services emit them, so we render
// them as alternating fields.
type ZeroLogger struct {
	lg zerolog.Logger
}

func NewZeroLogger(lg zerolog.Logger, component string) *ZeroLogger {
	return &ZeroLogger{lg: lg.With().Str("component", component).Logger()}
}

func (z *ZeroLogger) Debug(format string, args ...any) { z.emit(z.lg.Debug(), format, args) }
func (z *ZeroLogger) Info(format string, args ...any)  { z.emit(z.lg.Info(), format, args) }
func (z *ZeroLogger) Warn(format string, args ...any)  { z.emit(z.lg.Warn(), format, args) }
func (z *ZeroLogger) Error(format string, args ...any) { z.emit(z.lg.Error(), format, args) }

func (z *ZeroLogger) emit(evt *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", args[i])
		}
		evt = evt.Interface(key, args[i+1])
	}
	if len(args)%2 == 1 {
		evt = evt.Interface("arg", args[len(args)-1])
	}
	evt.Msg(strings.TrimSuffix(msg, "\n"))
}
