package api

import "github.com/pkg/errors"

// ErrSourceUnavailable marks whole-source failures: the request itself failed
// (network, non-2xx, malformed JSON). This is the only error class that
// propagates out of the SDK; callers are expected to fall back to a last-known
// snapshot or a static default price instead of crashing.
//
// Per-record anomalies (unparseable strike, wrong asset, stale row) are never
// errors - those records are simply dropped during normalization.
var ErrSourceUnavailable = errors.New("source unavailable")

// IsSourceUnavailable reports whether err is a whole-source failure.
func IsSourceUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

func sourceErr(err error, source string) error {
	return errors.Wrapf(ErrSourceUnavailable, "%s: %v", source, err)
}
