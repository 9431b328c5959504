// Package selection keeps the ordered set of files chosen for the prompt.
package selection

// Store is an insertion-ordered set of relative file paths.
// The zero value is an empty store ready for use. A Store is not safe for
// concurrent use; callers serialize access.
type Store struct {
	positions map[string]int
	paths     []string
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Select appends relativePath unless it is already present.
func (store *Store) Select(relativePath string) {
	if store.positions == nil {
		store.positions = map[string]int{}
	}
	if _, present := store.positions[relativePath]; present {
		return
	}
	store.positions[relativePath] = len(store.paths)
	store.paths = append(store.paths, relativePath)
}

// Deselect removes relativePath when present, preserving the order of the rest.
func (store *Store) Deselect(relativePath string) {
	position, present := store.positions[relativePath]
	if !present {
		return
	}
	store.paths = append(store.paths[:position], store.paths[position+1:]...)
	delete(store.positions, relativePath)
	for index := position; index < len(store.paths); index++ {
		store.positions[store.paths[index]] = index
	}
}

// Clear removes every path.
func (store *Store) Clear() {
	store.positions = nil
	store.paths = nil
}

// Entries returns the selected paths in insertion order.
func (store *Store) Entries() []string {
	return append([]string{}, store.paths...)
}

// Contains reports whether relativePath is selected.
func (store *Store) Contains(relativePath string) bool {
	_, present := store.positions[relativePath]
	return present
}

// Len returns the number of selected paths.
func (store *Store) Len() int {
	return len(store.paths)
}
