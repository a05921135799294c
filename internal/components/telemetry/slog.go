package telemetry

import (
	"io"
	"log/slog"
	"strconv"
)

// SlogAPI implements API over the default slog logger.
type SlogAPI struct{}

// InitSlog installs a text handler writing to out as the default logger,
// debug reports are only shown when verbose.
func InitSlog(out io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// attrs turns positional params into `p0=... p1=...` pairs after the leading
// ones.
func attrs(leading []any, params []any) []any {
	out := make([]any, 0, len(leading)+len(params)*2)
	out = append(out, leading...)
	for i, p := range params {
		if err, ok := p.(error); ok {
			p = err.Error()
		}
		out = append(out, "p"+strconv.Itoa(i), p)
	}
	return out
}

func (SlogAPI) ReportBroken(id string, params ...any) {
	slog.Error("broken", attrs([]any{"id", id}, params)...)
}

func (SlogAPI) ReportWarning(id string, params ...any) {
	slog.Warn("warning", attrs([]any{"id", id}, params)...)
}

func (SlogAPI) ReportDebug(msg string, params ...any) {
	slog.Debug(msg, attrs(nil, params)...)
}

func (SlogAPI) ReportCount(id string, count int64) {
	slog.Debug("count", "id", id, "n", count)
}
