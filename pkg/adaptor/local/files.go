package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gridhaven/kraken/pkg/adaptor"
	"github.com/gridhaven/kraken/pkg/pathname"
)

// filesystem is the live state behind a local FileSystem handle.
type filesystem struct {
	entry pathname.Pathname
}

// abs resolves a caller path against the filesystem entry path. Absolute
// inputs are split into elements like any other path, so "/a/../b" and
// "a/../b" both land under the entry path.
func (f *filesystem) abs(path string) string {
	resolved := f.entry.Resolve(pathname.New(path)).Normalize()
	return resolved.AbsolutePath()
}

func wrapFileError(op, path string, err error) error {
	if os.IsNotExist(err) {
		return adaptor.NewError(adaptor.ErrNotFound, AdaptorName, op,
			fmt.Sprintf("%s does not exist", path), err)
	}
	return adaptor.NewError(adaptor.ErrTransport, AdaptorName, op, path, err)
}

// List implements adaptor.FileAdaptor. A non-empty pattern filters entries
// by doublestar glob against their name.
func (a *Adaptor) List(ctx context.Context, fs adaptor.FileSystem, dir string, pattern string) ([]adaptor.FileAttributes, error) {
	state, err := a.filesystem(fs)
	if err != nil {
		return nil, err
	}

	if pattern != "" {
		if !doublestar.ValidatePattern(pattern) {
			return nil, adaptor.NewError(adaptor.ErrConfiguration, AdaptorName, "List",
				fmt.Sprintf("invalid glob pattern %q", pattern), nil)
		}
	}

	root := state.abs(dir)
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, wrapFileError("List", root, err)
	}

	attrs := make([]adaptor.FileAttributes, 0, len(entries))
	for _, entry := range entries {
		if pattern != "" {
			matched, _ := doublestar.Match(pattern, entry.Name())
			if !matched {
				continue
			}
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		attrs = append(attrs, adaptor.FileAttributes{
			Name:    entry.Name(),
			Path:    pathname.New(root).Resolve(pathname.New(entry.Name())),
			Size:    info.Size(),
			IsDir:   entry.IsDir(),
			ModTime: info.ModTime(),
		})
	}
	return attrs, nil
}

// Read implements adaptor.FileAdaptor.
func (a *Adaptor) Read(ctx context.Context, fs adaptor.FileSystem, path string) ([]byte, error) {
	state, err := a.filesystem(fs)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(state.abs(path))
	if err != nil {
		return nil, wrapFileError("Read", path, err)
	}
	return data, nil
}

// Write implements adaptor.FileAdaptor.
func (a *Adaptor) Write(ctx context.Context, fs adaptor.FileSystem, path string, data []byte) error {
	state, err := a.filesystem(fs)
	if err != nil {
		return err
	}
	target := state.abs(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return wrapFileError("Write", path, err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return wrapFileError("Write", path, err)
	}
	return nil
}

// Delete implements adaptor.FileAdaptor.
func (a *Adaptor) Delete(ctx context.Context, fs adaptor.FileSystem, path string) error {
	state, err := a.filesystem(fs)
	if err != nil {
		return err
	}
	if err := os.Remove(state.abs(path)); err != nil {
		return wrapFileError("Delete", path, err)
	}
	return nil
}

// MakeDir implements adaptor.FileAdaptor.
func (a *Adaptor) MakeDir(ctx context.Context, fs adaptor.FileSystem, path string) error {
	state, err := a.filesystem(fs)
	if err != nil {
		return err
	}
	if err := os.Mkdir(state.abs(path), 0o755); err != nil {
		return wrapFileError("MakeDir", path, err)
	}
	return nil
}

// Stat implements adaptor.FileAdaptor.
func (a *Adaptor) Stat(ctx context.Context, fs adaptor.FileSystem, path string) (adaptor.FileAttributes, error) {
	state, err := a.filesystem(fs)
	if err != nil {
		return adaptor.FileAttributes{}, err
	}
	target := state.abs(path)
	info, err := os.Stat(target)
	if err != nil {
		return adaptor.FileAttributes{}, wrapFileError("Stat", path, err)
	}
	return adaptor.FileAttributes{
		Name:    info.Name(),
		Path:    pathname.New(target),
		Size:    info.Size(),
		IsDir:   info.IsDir(),
		ModTime: info.ModTime(),
	}, nil
}
