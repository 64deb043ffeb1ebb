package engine

import (
	"context"
	"fmt"

	"github.com/gridhaven/kraken/pkg/adaptor"
)

// NewFileSystem connects to the storage backend at the location URI, routed
// by scheme. A nil credential or properties falls back to the engine
// defaults.
func (e *Engine) NewFileSystem(ctx context.Context, locationURI string, credential adaptor.Credential, properties adaptor.Properties) (adaptor.FileSystem, error) {
	location, err := adaptor.ParseLocation(locationURI)
	if err != nil {
		return adaptor.FileSystem{}, err
	}

	a, err := e.AdaptorFor(location.Scheme)
	if err != nil {
		return adaptor.FileSystem{}, err
	}
	fa, ok := a.(adaptor.FileAdaptor)
	if !ok {
		return adaptor.FileSystem{}, adaptor.NewError(adaptor.ErrConfiguration, errorName, "NewFileSystem",
			fmt.Sprintf("adaptor %q does not serve files", a.Name()), nil)
	}

	cred, props := e.merged(a, adaptor.LevelFileSystem, credential, properties)
	return fa.NewFileSystem(ctx, location, cred, props)
}

// List returns the entries under dir, optionally filtered by a glob
// pattern on entry names.
func (e *Engine) List(ctx context.Context, fs adaptor.FileSystem, dir, pattern string) ([]adaptor.FileAttributes, error) {
	fa, err := e.fileAdaptor("List", fs.AdaptorName)
	if err != nil {
		return nil, err
	}
	return fa.List(ctx, fs, dir, pattern)
}

// Read returns the content of the file at path.
func (e *Engine) Read(ctx context.Context, fs adaptor.FileSystem, path string) ([]byte, error) {
	fa, err := e.fileAdaptor("Read", fs.AdaptorName)
	if err != nil {
		return nil, err
	}
	return fa.Read(ctx, fs, path)
}

// Write stores data at path, overwriting any existing file.
func (e *Engine) Write(ctx context.Context, fs adaptor.FileSystem, path string, data []byte) error {
	fa, err := e.fileAdaptor("Write", fs.AdaptorName)
	if err != nil {
		return err
	}
	return fa.Write(ctx, fs, path, data)
}

// Delete removes the file or empty directory at path.
func (e *Engine) Delete(ctx context.Context, fs adaptor.FileSystem, path string) error {
	fa, err := e.fileAdaptor("Delete", fs.AdaptorName)
	if err != nil {
		return err
	}
	return fa.Delete(ctx, fs, path)
}

// MakeDir creates a directory at path.
func (e *Engine) MakeDir(ctx context.Context, fs adaptor.FileSystem, path string) error {
	fa, err := e.fileAdaptor("MakeDir", fs.AdaptorName)
	if err != nil {
		return err
	}
	return fa.MakeDir(ctx, fs, path)
}

// Stat returns the attributes of the entry at path.
func (e *Engine) Stat(ctx context.Context, fs adaptor.FileSystem, path string) (adaptor.FileAttributes, error) {
	fa, err := e.fileAdaptor("Stat", fs.AdaptorName)
	if err != nil {
		return adaptor.FileAttributes{}, err
	}
	return fa.Stat(ctx, fs, path)
}

// CloseFileSystem releases the filesystem's backend connection.
func (e *Engine) CloseFileSystem(fs adaptor.FileSystem) error {
	fa, err := e.fileAdaptor("CloseFileSystem", fs.AdaptorName)
	if err != nil {
		return err
	}
	return fa.CloseFileSystem(fs)
}
