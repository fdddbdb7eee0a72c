package matching

import "errors"

// ErrUnexpectedName is returned when a name has no uppercase surname block
// followed by given names.
var ErrUnexpectedName = errors.New("unexpected rider name format")
