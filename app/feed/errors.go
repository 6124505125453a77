package feed

import "errors"

// ErrNetwork is returned when a source could not be retrieved: connection or
// DNS failure, timeout, or a non-2xx response.
var ErrNetwork = errors.New("feed: network error")

// ErrParse is returned when fetched content cannot be turned into items.
var ErrParse = errors.New("feed: parse error")

// ErrConfig is returned when the source list is invalid.
var ErrConfig = errors.New("feed: invalid configuration")
