package game

// Store is the persistence hook for table state. Implementations overwrite any
// previous object stored under the same (table, key) pair. The in-process
// default does nothing; a durable implementation makes LOGIN tokens survive
// server restarts.
type Store interface {
	SaveState(table, key string, obj any) error
}

// NoopStore discards everything written to it.
type NoopStore struct{}

// SaveState implements Store.
func (NoopStore) SaveState(table, key string, obj any) error {
	return nil
}

// PlayerRecord is the state persisted for a registered player at reap time.
type PlayerRecord struct {
	Name     string `json:"name"`
	Token    string `json:"token"`
	Currency int    `json:"currency"`
}
