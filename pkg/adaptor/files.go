package adaptor

import (
	"time"

	"github.com/gridhaven/kraken/pkg/pathname"
)

// FileSystem identifies one configured connection to a storage backend.
//
// The descriptor is immutable. Mutable backend-side state (an open transport
// connection) is held alongside it in the owning adaptor's registry, keyed
// by ID, never inside the descriptor itself.
type FileSystem struct {
	// AdaptorName is the owning adaptor.
	AdaptorName string

	// ID is unique within the process for the owning adaptor.
	ID string

	// Scheme is the URI scheme the filesystem was created under.
	Scheme string

	// Location is the backend address.
	Location Location

	// EntryPath is the path the backend considers the user's starting
	// location (e.g., the FTP working directory after login).
	EntryPath pathname.Pathname

	// Credential was used to open the connection.
	Credential Credential

	// Properties is the merged configuration the filesystem was created with.
	Properties Properties
}

// Equal compares filesystems by identity (adaptor name and ID).
func (f FileSystem) Equal(other FileSystem) bool {
	return f.AdaptorName == other.AdaptorName && f.ID == other.ID
}

// FileAttributes describes one directory entry.
type FileAttributes struct {
	// Name is the entry name without its directory.
	Name string

	// Path is the full path of the entry.
	Path pathname.Pathname

	// Size is the entry size in bytes.
	Size int64

	// IsDir is true for directories.
	IsDir bool

	// ModTime is the last modification time, zero when the backend does not
	// report one.
	ModTime time.Time
}
