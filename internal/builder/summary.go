package builder

import (
	"context"
	"errors"

	"hearthstats/internal/components/telemetry"
	"hearthstats/internal/scrapers"
)

// Summary counts what a builder did during one run.
type Summary struct {
	Builder   string
	Attempted int
	Succeeded int
	// Skipped counts entities that could not be parsed or validated.
	Skipped int
	// Failed counts entities that could not be fetched or stored.
	Failed int
	// TransportFailures is the part of Failed caused by transport errors.
	TransportFailures int
	// Fatal is the error that stopped the builder, if any.
	Fatal error
}

// Transient reports whether a retry of the run could fix its failures.
func (s Summary) Transient() bool {
	if s.Fatal != nil {
		return scrapers.IsTransport(s.Fatal) ||
			errors.Is(s.Fatal, context.Canceled) ||
			errors.Is(s.Fatal, context.DeadlineExceeded)
	}
	return s.TransportFailures > 0
}

// NeedsCredential reports whether the run stopped because a credential was
// missing, invalid or expired.
func (s Summary) NeedsCredential() bool {
	return s.Fatal != nil && scrapers.IsAuth(s.Fatal)
}

// OK reports whether the run finished without any failure.
func (s Summary) OK() bool {
	return s.Fatal == nil && s.Failed == 0
}

// add records the outcome of one entity.
func (s *Summary) add(err error) {
	s.Attempted++
	switch {
	case err == nil:
		s.Succeeded++
	case scrapers.IsParse(err) || scrapers.IsValidation(err):
		s.Skipped++
	case scrapers.IsTransport(err):
		s.Failed++
		s.TransportFailures++
	default:
		s.Failed++
	}
}

func (s Summary) report(tel telemetry.API) {
	tel.ReportCount("summary.attempted", int64(s.Attempted))
	tel.ReportCount("summary.succeeded", int64(s.Succeeded))
	tel.ReportCount("summary.skipped", int64(s.Skipped))
	tel.ReportCount("summary.failed", int64(s.Failed))
	if s.Fatal != nil {
		tel.ReportBroken("summary.fatal", s.Fatal)
	}
}
