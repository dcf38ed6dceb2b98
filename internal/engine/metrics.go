package engine

import "time"

// Metrics receives exploration measurements. A nil Metrics is replaced by
// a no-op implementation.
type Metrics interface {
	CacheHit()
	OracleCall(elapsed time.Duration)
	OracleError(code string)
	Discovered(kind string)
	KnownElements(n int)
	QueueDepth(n int)
}

type nopMetrics struct{}

func (nopMetrics) CacheHit()                {}
func (nopMetrics) OracleCall(time.Duration) {}
func (nopMetrics) OracleError(string)       {}
func (nopMetrics) Discovered(string)        {}
func (nopMetrics) KnownElements(int)        {}
func (nopMetrics) QueueDepth(int)           {}
