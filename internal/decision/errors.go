package decision

import "fmt"

// MissingSignalError indicates the caller invoked Decide before every
// mandated channel reported. This is a sequencing bug in the caller, not a
// user-facing condition; treat it as an assertion failure in tests.
type MissingSignalError struct {
	Channel string
}

func (e *MissingSignalError) Error() string {
	return fmt.Sprintf("decision: missing required %s result", e.Channel)
}
