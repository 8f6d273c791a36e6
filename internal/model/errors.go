package model

import "errors"

// ErrNoEligibleMovie is the transient "nothing to serve right now" condition:
// the catalog has no movie outside the exclusion set yet. Callers may retry
// shortly; the HTTP layer carries it as a 404.
var ErrNoEligibleMovie = errors.New("no eligible movie")
