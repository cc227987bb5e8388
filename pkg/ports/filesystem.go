package ports

// FileSystem abstracts file system operations.
type FileSystem interface {
	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to a file, creating it if necessary.
	WriteFile(path string, data []byte) error

	// AppendFile appends data to a file, creating it if necessary.
	// Used for the results log, which accumulates one line per run.
	AppendFile(path string, data []byte) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string) error

	// Exists checks if a file or directory exists.
	Exists(path string) (bool, error)

	// ReadDir lists the names of the entries in a directory, sorted.
	ReadDir(path string) ([]string, error)
}
