package lower

import "errors"

// ErrNestingTooDeep is wrapped in an *ir.BlockError when nested regions
// exceed Options.MaxNesting.
var ErrNestingTooDeep = errors.New("construct nesting exceeds limit")
