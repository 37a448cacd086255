package gapscan

// Options are the per-invocation scan parameters.
type Options struct {
	DryRun bool
	// Limit truncates the universe when positive; zero uses the configured limit.
	Limit        int
	ForceRefresh bool
	UseCache     bool
	// MinGapPercent overrides the configured threshold when positive.
	MinGapPercent float64
}

// DefaultOptions returns the parameters of a plain scan request. Limit and
// threshold are left to the service configuration.
func DefaultOptions() Options {
	return Options{UseCache: true}
}

// bypassCache reports whether the result cache must be skipped on read.
func (o Options) bypassCache() bool {
	return o.DryRun || !o.UseCache || o.ForceRefresh
}
