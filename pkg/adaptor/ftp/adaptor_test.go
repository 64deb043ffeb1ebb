package ftp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/textproto"
	"testing"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gridhaven/kraken/pkg/adaptor"
)

// fakeConn is an in-memory FTP server state: flat map of path to content,
// directories marked by nil content.
type fakeConn struct {
	workingDir string
	files      map[string][]byte
	dirs       map[string]bool
	quit       int
	lastLogin  [2]string
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		workingDir: "/home/user",
		files:      make(map[string][]byte),
		dirs:       map[string]bool{"/home/user": true},
	}
}

func notFoundErr() error {
	return &textproto.Error{Code: ftp.StatusFileUnavailable, Msg: "file unavailable"}
}

func (c *fakeConn) CurrentDir() (string, error) { return c.workingDir, nil }

func (c *fakeConn) List(path string) ([]*ftp.Entry, error) {
	if !c.dirs[path] {
		return nil, notFoundErr()
	}
	var entries []*ftp.Entry
	prefix := path + "/"
	for p, data := range c.files {
		if dir := p[:max(0, len(p)-len(base(p))-1)]; dir == path {
			entries = append(entries, &ftp.Entry{
				Name: base(p),
				Size: uint64(len(data)),
				Type: ftp.EntryTypeFile,
				Time: time.Unix(0, 0),
			})
		}
	}
	for d := range c.dirs {
		if d != path && len(d) > len(prefix) && d[:len(prefix)] == prefix && base(d) == d[len(prefix):] {
			entries = append(entries, &ftp.Entry{Name: base(d), Type: ftp.EntryTypeFolder})
		}
	}
	return entries, nil
}

func base(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}

func (c *fakeConn) Retr(path string) (io.ReadCloser, error) {
	data, ok := c.files[path]
	if !ok {
		return nil, notFoundErr()
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (c *fakeConn) Stor(path string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	c.files[path] = data
	return nil
}

func (c *fakeConn) Delete(path string) error {
	if _, ok := c.files[path]; !ok {
		return notFoundErr()
	}
	delete(c.files, path)
	return nil
}

func (c *fakeConn) RemoveDir(path string) error {
	if !c.dirs[path] {
		return notFoundErr()
	}
	delete(c.dirs, path)
	return nil
}

func (c *fakeConn) MakeDir(path string) error {
	c.dirs[path] = true
	return nil
}

func (c *fakeConn) Quit() error {
	c.quit++
	return nil
}

func newTestFileSystem(t *testing.T) (*Adaptor, adaptor.FileSystem, *fakeConn) {
	t.Helper()

	fc := newFakeConn()
	a := New(zap.NewNop(), WithDialer(func(ctx context.Context, addr string, timeout time.Duration, user, password string) (conn, error) {
		fc.lastLogin = [2]string{user, password}
		return fc, nil
	}))

	loc, err := adaptor.ParseLocation("ftp://ftp.example.org")
	require.NoError(t, err)

	fs, err := a.NewFileSystem(context.Background(), loc,
		adaptor.PasswordCredential{Username: "walter", Password: "secret"}, nil)
	require.NoError(t, err)

	t.Cleanup(func() { _ = a.End(context.Background()) })
	return a, fs, fc
}

func TestNewFileSystemEntryIsServerWorkingDir(t *testing.T) {
	_, fs, fc := newTestFileSystem(t)
	assert.Equal(t, "/home/user", fs.EntryPath.AbsolutePath())
	assert.Equal(t, [2]string{"walter", "secret"}, fc.lastLogin)
}

func TestNewFileSystemRejectsHostlessLocation(t *testing.T) {
	a := New(zap.NewNop())
	loc, err := adaptor.ParseLocation("ftp:///pub")
	require.NoError(t, err)

	_, err = a.NewFileSystem(context.Background(), loc, adaptor.DefaultCredential{}, nil)
	assert.True(t, adaptor.IsLocation(err))
}

func TestNewFileSystemDialFailureIsTransport(t *testing.T) {
	a := New(zap.NewNop(), WithDialer(func(ctx context.Context, addr string, timeout time.Duration, user, password string) (conn, error) {
		return nil, errors.New("connection refused")
	}))
	loc, err := adaptor.ParseLocation("ftp://down.example.org")
	require.NoError(t, err)

	_, err = a.NewFileSystem(context.Background(), loc, adaptor.DefaultCredential{}, nil)
	assert.True(t, adaptor.IsTransport(err))
}

func TestAnonymousLoginDefault(t *testing.T) {
	fc := newFakeConn()
	a := New(zap.NewNop(), WithDialer(func(ctx context.Context, addr string, timeout time.Duration, user, password string) (conn, error) {
		fc.lastLogin = [2]string{user, password}
		return fc, nil
	}))
	loc, err := adaptor.ParseLocation("ftp://ftp.example.org")
	require.NoError(t, err)

	_, err = a.NewFileSystem(context.Background(), loc, adaptor.DefaultCredential{}, nil)
	require.NoError(t, err)
	assert.Equal(t, [2]string{"anonymous", "anonymous"}, fc.lastLogin)
	_ = a.End(context.Background())
}

func TestWriteReadRoundtrip(t *testing.T) {
	a, fs, _ := newTestFileSystem(t)
	ctx := context.Background()

	require.NoError(t, a.Write(ctx, fs, "report.txt", []byte("quarterly numbers")))

	data, err := a.Read(ctx, fs, "report.txt")
	require.NoError(t, err)
	assert.Equal(t, "quarterly numbers", string(data))
}

func TestReadMissingFileIsNotFound(t *testing.T) {
	a, fs, _ := newTestFileSystem(t)

	_, err := a.Read(context.Background(), fs, "absent.txt")
	assert.True(t, adaptor.IsNotFound(err))
}

func TestListWithGlobFilter(t *testing.T) {
	a, fs, _ := newTestFileSystem(t)
	ctx := context.Background()

	require.NoError(t, a.Write(ctx, fs, "a.log", []byte("x")))
	require.NoError(t, a.Write(ctx, fs, "b.log", []byte("x")))
	require.NoError(t, a.Write(ctx, fs, "c.txt", []byte("x")))

	entries, err := a.List(ctx, fs, "", "*.log")
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.ElementsMatch(t, []string{"a.log", "b.log"}, names)
}

func TestStatFindsEntryInParentListing(t *testing.T) {
	a, fs, _ := newTestFileSystem(t)
	ctx := context.Background()

	require.NoError(t, a.Write(ctx, fs, "data.bin", []byte("12345")))

	attrs, err := a.Stat(ctx, fs, "data.bin")
	require.NoError(t, err)
	assert.Equal(t, "data.bin", attrs.Name)
	assert.Equal(t, int64(5), attrs.Size)
	assert.False(t, attrs.IsDir)

	_, err = a.Stat(ctx, fs, "absent.bin")
	assert.True(t, adaptor.IsNotFound(err))
}

func TestMakeDirAndDelete(t *testing.T) {
	a, fs, fc := newTestFileSystem(t)
	ctx := context.Background()

	require.NoError(t, a.MakeDir(ctx, fs, "incoming"))
	assert.True(t, fc.dirs["/home/user/incoming"])

	require.NoError(t, a.Delete(ctx, fs, "incoming"))
	assert.False(t, fc.dirs["/home/user/incoming"])

	err := a.Delete(ctx, fs, "incoming")
	assert.True(t, adaptor.IsNotFound(err))
}

func TestCloseFileSystemQuitsConnection(t *testing.T) {
	a, fs, fc := newTestFileSystem(t)

	require.NoError(t, a.CloseFileSystem(fs))
	assert.Equal(t, 1, fc.quit)

	err := a.CloseFileSystem(fs)
	assert.True(t, adaptor.IsAlreadyClosed(err))

	_, err = a.Read(context.Background(), fs, "x")
	assert.True(t, adaptor.IsAlreadyClosed(err))
}

func TestEndQuitsAllConnections(t *testing.T) {
	_, _, fc := newTestFileSystem(t)

	// Cleanup registered by the helper runs End.
	t.Cleanup(func() { assert.Equal(t, 1, fc.quit) })
}
