package bandit

import "errors"

// Structural violations caught at construction or when arms are added
// (too few models, bad policy parameters, incompatible metric/model
// pairs) wrap ErrConfig so callers can match them with errors.Is.
// They are fail-fast and never retried.
var ErrConfig = errors.New("invalid bandit configuration")
