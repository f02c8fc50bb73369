package chipdb

import "fmt"

// NotFoundError reports a chip name absent from the catalog.
type NotFoundError struct {
	// Name is the chip that was looked up, upper-cased
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("chip type '%s' is unknown", e.Name)
}
