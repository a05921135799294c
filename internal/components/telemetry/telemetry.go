package telemetry

import (
	"strings"
)

// API is how components surface what happened to them. Depending on it
// rather than on a logger lets tests assert that failures were reported.
//
// note: fault injection point
type API interface {
	// ReportBroken reports a component that failed in a way an operator
	// should look at.
	//
	// The id names the component, not the failure: `<struct or intf>.<method>`,
	// lowercase, dashes inside method names (`client.get-deck`, `db.query`).
	// The package namespace comes from ScopedAPI.
	ReportBroken(id string, params ...any)

	// ReportWarning reports something that was skipped or degraded, like a
	// single deck page that could not be parsed.
	ReportWarning(id string, params ...any)

	// ReportDebug reports progress that only matters while debugging.
	ReportDebug(msg string, params ...any)

	// ReportCount reports the value of a counter at the end of some unit of
	// work. Values are data points, not increments.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with a namespace. Scopes nest, so a scope
// created over another one reports as `outer/inner: id`.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	if parent, ok := inner.(ScopedAPI); ok {
		return ScopedAPI{
			namespace: parent.namespace + "/" + namespace,
			inner:     parent.inner,
		}
	}
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) qualify(id string) string {
	var b strings.Builder
	b.Grow(len(s.namespace) + len(id) + 2)
	b.WriteString(s.namespace)
	b.WriteString(": ")
	b.WriteString(id)
	return b.String()
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.qualify(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.qualify(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.qualify(msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.qualify(id), count)
}
