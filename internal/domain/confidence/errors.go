package confidence

import "errors"

// ErrInvalidPlan indicates an update plan violated its invariants.
var ErrInvalidPlan = errors.New("invalid confidence update plan")
