package extract

import "errors"

// ErrAmbiguousMatch is returned when an extraction query matches more than
// one element on a page.
var ErrAmbiguousMatch = errors.New("query matched more than one element")
