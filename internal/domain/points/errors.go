package points

import "errors"

// ErrInvalidPlan indicates an award plan violated its invariants.
var ErrInvalidPlan = errors.New("invalid point award plan")
