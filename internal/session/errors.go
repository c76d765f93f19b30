package session

import "errors"

// ErrReservedDomain is returned for knowledge-base writes against a key that
// could alias state in storage files shared with legacy deployments.
var ErrReservedDomain = errors.New("reserved domain key")
