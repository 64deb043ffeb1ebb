// Package ftp serves file operations over the FTP protocol. Each
// filesystem handle owns one logged-in control connection; the connection
// is the live state behind the handle and dies with it.
package ftp

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jlaffaye/ftp"
	"go.uber.org/zap"

	"github.com/gridhaven/kraken/pkg/adaptor"
	"github.com/gridhaven/kraken/pkg/pathname"
)

// AdaptorName identifies this adaptor in errors and handle IDs.
const AdaptorName = "ftp"

// Schemes lists the URI schemes this adaptor claims.
var Schemes = []string{"ftp"}

const (
	defaultPort        = 21
	defaultConnTimeout = 30 * time.Second
)

var supportedProperties = []adaptor.PropertyDescription{
	{
		Key:         "ftp.connect.timeout",
		Levels:      []adaptor.PropertyLevel{adaptor.LevelFileSystem},
		Default:     defaultConnTimeout.String(),
		Description: "dial timeout for the control connection",
	},
}

type connectConfig struct {
	ConnectTimeout time.Duration `mapstructure:"ftp.connect.timeout"`
}

// dialFunc opens a logged-in control connection. Swappable for tests.
type dialFunc func(ctx context.Context, addr string, timeout time.Duration, user, password string) (conn, error)

// conn is the slice of *ftp.ServerConn this adaptor uses.
type conn interface {
	CurrentDir() (string, error)
	List(path string) ([]*ftp.Entry, error)
	Retr(path string) (io.ReadCloser, error)
	Stor(path string, r io.Reader) error
	Delete(path string) error
	RemoveDir(path string) error
	MakeDir(path string) error
	Quit() error
}

// serverConn adapts *ftp.ServerConn to conn; Retr needs its return type
// widened to io.ReadCloser.
type serverConn struct {
	*ftp.ServerConn
}

func (c serverConn) Retr(path string) (io.ReadCloser, error) {
	return c.ServerConn.Retr(path)
}

// Adaptor implements the file capability set over FTP.
type Adaptor struct {
	logger      *zap.Logger
	filesystems *adaptor.Registry[*filesystem]
	dial        dialFunc
}

var (
	_ adaptor.Adaptor     = (*Adaptor)(nil)
	_ adaptor.FileAdaptor = (*Adaptor)(nil)
)

// Option configures the adaptor.
type Option func(*Adaptor)

// WithDialer replaces the control-connection dialer.
func WithDialer(dial dialFunc) Option {
	return func(a *Adaptor) { a.dial = dial }
}

// New creates the FTP adaptor.
func New(logger *zap.Logger, opts ...Option) *Adaptor {
	a := &Adaptor{
		logger:      logger.Named(AdaptorName),
		filesystems: adaptor.NewRegistry[*filesystem](AdaptorName),
		dial:        dialServer,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func dialServer(ctx context.Context, addr string, timeout time.Duration, user, password string) (conn, error) {
	c, err := ftp.Dial(addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(timeout))
	if err != nil {
		return nil, err
	}
	if err := c.Login(user, password); err != nil {
		_ = c.Quit()
		return nil, err
	}
	return serverConn{c}, nil
}

// Name implements adaptor.Adaptor.
func (a *Adaptor) Name() string { return AdaptorName }

// Description implements adaptor.Adaptor.
func (a *Adaptor) Description() string {
	return "serves file operations over the FTP protocol"
}

// Schemes implements adaptor.Adaptor.
func (a *Adaptor) Schemes() []string {
	schemes := make([]string, len(Schemes))
	copy(schemes, Schemes)
	return schemes
}

// Supports implements adaptor.Adaptor.
func (a *Adaptor) Supports(scheme string) bool {
	for _, s := range Schemes {
		if s == scheme {
			return true
		}
	}
	return false
}

// SupportedProperties implements adaptor.Adaptor.
func (a *Adaptor) SupportedProperties() []adaptor.PropertyDescription {
	props := make([]adaptor.PropertyDescription, len(supportedProperties))
	copy(props, supportedProperties)
	return props
}

// Capabilities implements adaptor.Adaptor.
func (a *Adaptor) Capabilities() adaptor.Capabilities {
	return adaptor.Capabilities{StrictProperties: true}
}

// End implements adaptor.Adaptor: quits every open control connection.
func (a *Adaptor) End(ctx context.Context) error {
	for _, fs := range a.filesystems.Drain() {
		if err := fs.conn.Quit(); err != nil {
			a.logger.Warn("ftp connection close failed", zap.Error(err))
		}
	}
	return nil
}

// NewFileSystem implements adaptor.FileAdaptor: dials the server, logs in,
// and takes the server's working directory as the entry path.
func (a *Adaptor) NewFileSystem(ctx context.Context, location adaptor.Location, credential adaptor.Credential, properties adaptor.Properties) (adaptor.FileSystem, error) {
	if !a.Supports(location.Scheme) {
		return adaptor.FileSystem{}, adaptor.NewError(adaptor.ErrLocation, AdaptorName, "NewFileSystem",
			fmt.Sprintf("unsupported scheme %q", location.Scheme), nil)
	}
	if location.Host == "" {
		return adaptor.FileSystem{}, adaptor.NewError(adaptor.ErrLocation, AdaptorName, "NewFileSystem",
			"ftp locations require a host", nil)
	}
	if err := properties.ValidateStrict(AdaptorName, adaptor.LevelFileSystem, supportedProperties); err != nil {
		return adaptor.FileSystem{}, err
	}

	var cfg connectConfig
	if err := properties.Decode(&cfg); err != nil {
		return adaptor.FileSystem{}, adaptor.NewError(adaptor.ErrConfiguration, AdaptorName, "NewFileSystem",
			"cannot decode filesystem properties", err)
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnTimeout
	}

	user, password := loginFor(location, credential)

	port := location.Port
	if port == 0 {
		port = defaultPort
	}
	addr := fmt.Sprintf("%s:%d", location.Host, port)

	c, err := a.dial(ctx, addr, cfg.ConnectTimeout, user, password)
	if err != nil {
		return adaptor.FileSystem{}, adaptor.NewError(adaptor.ErrTransport, AdaptorName, "NewFileSystem",
			fmt.Sprintf("cannot connect to %s", addr), err)
	}

	wd, err := c.CurrentDir()
	if err != nil {
		_ = c.Quit()
		return adaptor.FileSystem{}, adaptor.NewError(adaptor.ErrTransport, AdaptorName, "NewFileSystem",
			"cannot determine server working directory", err)
	}

	entry := pathname.New(wd)
	if !location.Path.IsEmpty() {
		entry = entry.Resolve(location.Path).Normalize()
	}

	fs := &filesystem{conn: c, entry: entry}
	id := a.filesystems.Register(fs)

	a.logger.Debug("ftp filesystem opened",
		zap.String("id", id),
		zap.String("addr", addr),
		zap.String("entry", entry.AbsolutePath()))

	return adaptor.FileSystem{
		AdaptorName: AdaptorName,
		ID:          id,
		Scheme:      location.Scheme,
		Location:    location,
		EntryPath:   entry,
		Credential:  credential,
		Properties:  properties.Clone(),
	}, nil
}

// loginFor derives FTP login details: explicit password credentials win,
// then a user embedded in the location, then anonymous.
func loginFor(location adaptor.Location, credential adaptor.Credential) (user, password string) {
	if pw, ok := credential.(adaptor.PasswordCredential); ok {
		return pw.Username, pw.Password
	}
	if location.User != "" {
		return location.User, ""
	}
	return "anonymous", "anonymous"
}

func (a *Adaptor) filesystem(fs adaptor.FileSystem) (*filesystem, error) {
	if fs.AdaptorName != AdaptorName {
		return nil, adaptor.NewError(adaptor.ErrNotFound, AdaptorName, "filesystem",
			fmt.Sprintf("filesystem %s belongs to adaptor %s", fs.ID, fs.AdaptorName), nil)
	}
	return a.filesystems.Get(fs.ID)
}

// CloseFileSystem implements adaptor.FileAdaptor.
func (a *Adaptor) CloseFileSystem(fs adaptor.FileSystem) error {
	state, err := a.filesystems.Remove(fs.ID)
	if err != nil {
		return err
	}
	if err := state.conn.Quit(); err != nil {
		return adaptor.NewError(adaptor.ErrTransport, AdaptorName, "CloseFileSystem",
			"connection close failed", err)
	}
	return nil
}
