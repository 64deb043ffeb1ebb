package ftp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/jlaffaye/ftp"

	"github.com/gridhaven/kraken/pkg/adaptor"
	"github.com/gridhaven/kraken/pkg/pathname"
)

// filesystem is the live state behind an FTP FileSystem handle. FTP control
// connections are strictly sequential, so every operation holds mu for its
// full duration.
type filesystem struct {
	mu    sync.Mutex
	conn  conn
	entry pathname.Pathname
}

func (f *filesystem) abs(path string) string {
	return f.entry.Resolve(pathname.New(path)).Normalize().AbsolutePath()
}

// wrapFTPError maps server reply codes onto the error taxonomy. 550 is the
// catch-all "file unavailable" reply, which for our operations means the
// path does not exist.
func wrapFTPError(op, path string, err error) error {
	var proto *textproto.Error
	if errors.As(err, &proto) && proto.Code == ftp.StatusFileUnavailable {
		return adaptor.NewError(adaptor.ErrNotFound, AdaptorName, op,
			fmt.Sprintf("%s does not exist", path), err)
	}
	return adaptor.NewError(adaptor.ErrBackend, AdaptorName, op, path, err)
}

// List implements adaptor.FileAdaptor.
func (a *Adaptor) List(ctx context.Context, fs adaptor.FileSystem, dir string, pattern string) ([]adaptor.FileAttributes, error) {
	state, err := a.filesystem(fs)
	if err != nil {
		return nil, err
	}
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, adaptor.NewError(adaptor.ErrConfiguration, AdaptorName, "List",
			fmt.Sprintf("invalid glob pattern %q", pattern), nil)
	}

	root := state.abs(dir)

	state.mu.Lock()
	entries, err := state.conn.List(root)
	state.mu.Unlock()
	if err != nil {
		return nil, wrapFTPError("List", root, err)
	}

	attrs := make([]adaptor.FileAttributes, 0, len(entries))
	for _, entry := range entries {
		if entry.Name == "." || entry.Name == ".." {
			continue
		}
		if pattern != "" {
			matched, _ := doublestar.Match(pattern, entry.Name)
			if !matched {
				continue
			}
		}
		attrs = append(attrs, adaptor.FileAttributes{
			Name:    entry.Name,
			Path:    pathname.New(root).Resolve(pathname.New(entry.Name)),
			Size:    int64(entry.Size),
			IsDir:   entry.Type == ftp.EntryTypeFolder,
			ModTime: entry.Time,
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

	state.mu.Lock()
	defer state.mu.Unlock()

	resp, err := state.conn.Retr(state.abs(path))
	if err != nil {
		return nil, wrapFTPError("Read", path, err)
	}
	data, err := io.ReadAll(resp)
	closeErr := resp.Close()
	if err != nil {
		return nil, adaptor.NewError(adaptor.ErrTransport, AdaptorName, "Read",
			fmt.Sprintf("transfer of %s interrupted", path), err)
	}
	if closeErr != nil {
		return nil, wrapFTPError("Read", path, closeErr)
	}
	return data, nil
}

// Write implements adaptor.FileAdaptor.
func (a *Adaptor) Write(ctx context.Context, fs adaptor.FileSystem, path string, data []byte) error {
	state, err := a.filesystem(fs)
	if err != nil {
		return err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if err := state.conn.Stor(state.abs(path), bytes.NewReader(data)); err != nil {
		return wrapFTPError("Write", path, err)
	}
	return nil
}

// Delete implements adaptor.FileAdaptor: removes a file, falling back to
// directory removal when the server refuses the file delete.
func (a *Adaptor) Delete(ctx context.Context, fs adaptor.FileSystem, path string) error {
	state, err := a.filesystem(fs)
	if err != nil {
		return err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	target := state.abs(path)
	if err := state.conn.Delete(target); err != nil {
		if dirErr := state.conn.RemoveDir(target); dirErr == nil {
			return nil
		}
		return wrapFTPError("Delete", path, err)
	}
	return nil
}

// MakeDir implements adaptor.FileAdaptor.
func (a *Adaptor) MakeDir(ctx context.Context, fs adaptor.FileSystem, path string) error {
	state, err := a.filesystem(fs)
	if err != nil {
		return err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if err := state.conn.MakeDir(state.abs(path)); err != nil {
		return wrapFTPError("MakeDir", path, err)
	}
	return nil
}

// Stat implements adaptor.FileAdaptor. FTP has no stat verb, so the parent
// directory is listed and the entry picked out by name.
func (a *Adaptor) Stat(ctx context.Context, fs adaptor.FileSystem, path string) (adaptor.FileAttributes, error) {
	state, err := a.filesystem(fs)
	if err != nil {
		return adaptor.FileAttributes{}, err
	}

	target := state.entry.Resolve(pathname.New(path)).Normalize()
	parent := target.Parent()
	name := target.FileName().String()

	state.mu.Lock()
	entries, err := state.conn.List(parent.AbsolutePath())
	state.mu.Unlock()
	if err != nil {
		return adaptor.FileAttributes{}, wrapFTPError("Stat", path, err)
	}

	for _, entry := range entries {
		if entry.Name != name {
			continue
		}
		return adaptor.FileAttributes{
			Name:    entry.Name,
			Path:    target,
			Size:    int64(entry.Size),
			IsDir:   entry.Type == ftp.EntryTypeFolder,
			ModTime: entry.Time,
		}, nil
	}
	return adaptor.FileAttributes{}, adaptor.NewError(adaptor.ErrNotFound, AdaptorName, "Stat",
		fmt.Sprintf("%s does not exist", path), nil)
}
