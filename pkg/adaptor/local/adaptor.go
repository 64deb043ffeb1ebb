// Package local runs jobs as processes on the local machine and serves file
// operations from the host filesystem. It is the zero-configuration backend:
// no transport, no credentials, truth held in an in-process job table.
package local

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/gridhaven/kraken/pkg/adaptor"
	"github.com/gridhaven/kraken/pkg/pathname"
)

// AdaptorName identifies this adaptor in errors and handle IDs.
const AdaptorName = "local"

// Schemes lists the URI schemes this adaptor claims.
var Schemes = []string{"local", "file"}

var supportedProperties = []adaptor.PropertyDescription{
	{
		Key:         "local.poll.interval",
		Levels:      []adaptor.PropertyLevel{adaptor.LevelScheduler},
		Default:     defaultPollInterval.String(),
		Description: "interval between wait-until-done status polls",
	},
}

// Adaptor implements both the job and the file capability sets locally.
type Adaptor struct {
	logger      *zap.Logger
	schedulers  *adaptor.Registry[*scheduler]
	filesystems *adaptor.Registry[*filesystem]
}

var (
	_ adaptor.Adaptor     = (*Adaptor)(nil)
	_ adaptor.JobAdaptor  = (*Adaptor)(nil)
	_ adaptor.FileAdaptor = (*Adaptor)(nil)
)

// New creates the local adaptor.
func New(logger *zap.Logger) *Adaptor {
	return &Adaptor{
		logger:      logger.Named(AdaptorName),
		schedulers:  adaptor.NewRegistry[*scheduler](AdaptorName),
		filesystems: adaptor.NewRegistry[*filesystem](AdaptorName),
	}
}

// Name implements adaptor.Adaptor.
func (a *Adaptor) Name() string { return AdaptorName }

// Description implements adaptor.Adaptor.
func (a *Adaptor) Description() string {
	return "runs jobs as local processes and serves files from the host filesystem"
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

// Capabilities implements adaptor.Adaptor. Local jobs die with the engine
// process, so they are not detached.
func (a *Adaptor) Capabilities() adaptor.Capabilities {
	return adaptor.Capabilities{
		InteractiveJobs:  true,
		DetachedJobs:     false,
		StrictProperties: true,
	}
}

// End implements adaptor.Adaptor: cancels running jobs and drops handles.
func (a *Adaptor) End(ctx context.Context) error {
	for _, s := range a.schedulers.Drain() {
		s.close()
	}
	a.filesystems.Drain()
	return nil
}

func validateLocation(op string, location adaptor.Location) error {
	if !location.IsLocal() {
		return adaptor.NewError(adaptor.ErrLocation, AdaptorName, op,
			fmt.Sprintf("local resources cannot have a host, got %q", location.Host), nil)
	}
	return nil
}

// NewFileSystem implements adaptor.FileAdaptor. The entry path is the
// location path, or the process working directory when the location names
// none.
func (a *Adaptor) NewFileSystem(ctx context.Context, location adaptor.Location, credential adaptor.Credential, properties adaptor.Properties) (adaptor.FileSystem, error) {
	if err := validateLocation("NewFileSystem", location); err != nil {
		return adaptor.FileSystem{}, err
	}
	if err := properties.ValidateStrict(AdaptorName, adaptor.LevelFileSystem, supportedProperties); err != nil {
		return adaptor.FileSystem{}, err
	}

	entry := location.Path
	if entry.IsEmpty() {
		cwd, err := os.Getwd()
		if err != nil {
			return adaptor.FileSystem{}, adaptor.NewError(adaptor.ErrTransport, AdaptorName, "NewFileSystem",
				"cannot determine working directory", err)
		}
		entry = pathname.New(cwd)
	}

	fs := &filesystem{entry: entry}
	id := a.filesystems.Register(fs)

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

func (a *Adaptor) filesystem(fs adaptor.FileSystem) (*filesystem, error) {
	if fs.AdaptorName != AdaptorName {
		return nil, adaptor.NewError(adaptor.ErrNotFound, AdaptorName, "filesystem",
			fmt.Sprintf("filesystem %s belongs to adaptor %s", fs.ID, fs.AdaptorName), nil)
	}
	return a.filesystems.Get(fs.ID)
}

// CloseFileSystem implements adaptor.FileAdaptor.
func (a *Adaptor) CloseFileSystem(fs adaptor.FileSystem) error {
	_, err := a.filesystems.Remove(fs.ID)
	return err
}
