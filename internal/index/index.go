package index

// Catalog defines the interface for document catalog operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type Catalog interface {
	UpsertDoc(doc DocRow, items []ItemRow) error
	DeleteDoc(path string) error
	GetChecksum(path string) (string, error)
	ResolvePath(docID string) (string, error)
	ListDocs(q ListQuery) ([]DocRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllPaths() (map[string]struct{}, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)
