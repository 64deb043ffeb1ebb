// Package s3 serves file operations from S3 and S3-compatible object
// stores. The location host names the bucket; directories are emulated the
// way object stores conventionally do, with "/"-delimited listings and
// zero-byte marker keys.
package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/gridhaven/kraken/pkg/adaptor"
)

// AdaptorName identifies this adaptor in errors and handle IDs.
const AdaptorName = "s3"

// Schemes lists the URI schemes this adaptor claims.
var Schemes = []string{"s3"}

var supportedProperties = []adaptor.PropertyDescription{
	{
		Key:         "s3.region",
		Levels:      []adaptor.PropertyLevel{adaptor.LevelFileSystem},
		Description: "bucket region, resolved from the SDK default chain when empty",
	},
	{
		Key:         "s3.endpoint",
		Levels:      []adaptor.PropertyLevel{adaptor.LevelFileSystem},
		Description: "custom endpoint for S3-compatible stores",
	},
	{
		Key:         "s3.force.path.style",
		Levels:      []adaptor.PropertyLevel{adaptor.LevelFileSystem},
		Default:     "false",
		Description: "use path-style addressing, required by most S3-compatible stores",
	},
}

type clientConfig struct {
	Region         string `mapstructure:"s3.region"`
	Endpoint       string `mapstructure:"s3.endpoint"`
	ForcePathStyle bool   `mapstructure:"s3.force.path.style"`
}

// api is the slice of the S3 client this adaptor uses. Swappable for tests.
type api interface {
	ListObjectsV2(ctx context.Context, input *awss3.ListObjectsV2Input, opts ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, input *awss3.GetObjectInput, opts ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	PutObject(ctx context.Context, input *awss3.PutObjectInput, opts ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, input *awss3.DeleteObjectInput, opts ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, input *awss3.HeadObjectInput, opts ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
}

type clientFunc func(ctx context.Context, cfg clientConfig, credential adaptor.Credential) (api, error)

// Adaptor implements the file capability set over object storage.
type Adaptor struct {
	logger      *zap.Logger
	filesystems *adaptor.Registry[*filesystem]
	newClient   clientFunc
}

var (
	_ adaptor.Adaptor     = (*Adaptor)(nil)
	_ adaptor.FileAdaptor = (*Adaptor)(nil)
)

// Option configures the adaptor.
type Option func(*Adaptor)

// WithClientFunc replaces the S3 client constructor.
func WithClientFunc(fn clientFunc) Option {
	return func(a *Adaptor) { a.newClient = fn }
}

// New creates the S3 adaptor.
func New(logger *zap.Logger, opts ...Option) *Adaptor {
	a := &Adaptor{
		logger:      logger.Named(AdaptorName),
		filesystems: adaptor.NewRegistry[*filesystem](AdaptorName),
		newClient:   newAWSClient,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// newAWSClient builds a real S3 client. Explicit password credentials become
// a static key pair; anything else falls through to the SDK default chain.
func newAWSClient(ctx context.Context, cfg clientConfig, credential adaptor.Credential) (api, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if pw, ok := credential.(adaptor.PasswordCredential); ok {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(pw.Username, pw.Password, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	clientOpts := []func(*awss3.Options){
		func(o *awss3.Options) {
			o.UsePathStyle = cfg.ForcePathStyle
		},
	}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	return awss3.NewFromConfig(awsCfg, clientOpts...), nil
}

// Name implements adaptor.Adaptor.
func (a *Adaptor) Name() string { return AdaptorName }

// Description implements adaptor.Adaptor.
func (a *Adaptor) Description() string {
	return "serves file operations from S3 and S3-compatible object stores"
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

// End implements adaptor.Adaptor. S3 clients hold no connection state worth
// tearing down; handles are simply dropped.
func (a *Adaptor) End(ctx context.Context) error {
	a.filesystems.Drain()
	return nil
}

// NewFileSystem implements adaptor.FileAdaptor. The location host is the
// bucket; the location path becomes the entry prefix.
func (a *Adaptor) NewFileSystem(ctx context.Context, location adaptor.Location, credential adaptor.Credential, properties adaptor.Properties) (adaptor.FileSystem, error) {
	if !a.Supports(location.Scheme) {
		return adaptor.FileSystem{}, adaptor.NewError(adaptor.ErrLocation, AdaptorName, "NewFileSystem",
			fmt.Sprintf("unsupported scheme %q", location.Scheme), nil)
	}
	if location.Host == "" {
		return adaptor.FileSystem{}, adaptor.NewError(adaptor.ErrLocation, AdaptorName, "NewFileSystem",
			"s3 locations require a bucket as host", nil)
	}
	if err := properties.ValidateStrict(AdaptorName, adaptor.LevelFileSystem, supportedProperties); err != nil {
		return adaptor.FileSystem{}, err
	}

	var cfg clientConfig
	if err := properties.Decode(&cfg); err != nil {
		return adaptor.FileSystem{}, adaptor.NewError(adaptor.ErrConfiguration, AdaptorName, "NewFileSystem",
			"cannot decode filesystem properties", err)
	}

	client, err := a.newClient(ctx, cfg, credential)
	if err != nil {
		return adaptor.FileSystem{}, adaptor.NewError(adaptor.ErrConfiguration, AdaptorName, "NewFileSystem",
			"cannot build storage client", err)
	}

	entry := location.Path.Normalize()
	fs := &filesystem{client: client, bucket: location.Host, entry: entry}
	id := a.filesystems.Register(fs)

	a.logger.Debug("s3 filesystem opened",
		zap.String("id", id),
		zap.String("bucket", location.Host),
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
