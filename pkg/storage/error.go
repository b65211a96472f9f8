package storage

// ErrNotFound is returned when an exchange doesn't exist in the store.
type ErrNotFound struct {
	ID string
}

func (e ErrNotFound) Error() string {
	if e.ID == "" {
		return "exchange not found"
	}

	return "exchange not found: " + e.ID
}
