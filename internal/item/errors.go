package item

import "errors"

// Domain errors for the item package.
//
//	if errors.Is(err, item.ErrItemNotFound) {
//	    // handle not found case
//	}
var (
	// ErrItemNotFound is returned when an item ID does not exist.
	ErrItemNotFound = errors.New("item: not found")

	// ErrItemExists is returned when a repository is asked to create an ID it already holds.
	ErrItemExists = errors.New("item: already exists")
)
