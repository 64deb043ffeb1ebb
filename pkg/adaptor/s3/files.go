package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/gridhaven/kraken/pkg/adaptor"
	"github.com/gridhaven/kraken/pkg/pathname"
)

// filesystem is the live state behind an S3 FileSystem handle.
type filesystem struct {
	client api
	bucket string
	entry  pathname.Pathname
}

// key maps a caller path to an object key under the entry prefix. Object
// keys have no leading slash.
func (f *filesystem) key(path string) string {
	return f.entry.Resolve(pathname.New(path)).Normalize().RelativePath()
}

// dirKey is the zero-byte marker key that emulates a directory.
func dirKey(key string) string {
	if key == "" || strings.HasSuffix(key, "/") {
		return key
	}
	return key + "/"
}

// wrapS3Error converts SDK errors into the error taxonomy: missing keys and
// buckets become not-found, everything else is a backend failure.
func wrapS3Error(op, path string, err error) error {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) || errors.As(err, &noSuchBucket) {
		return adaptor.NewError(adaptor.ErrNotFound, AdaptorName, op,
			fmt.Sprintf("%s does not exist", path), err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return adaptor.NewError(adaptor.ErrNotFound, AdaptorName, op,
				fmt.Sprintf("%s does not exist", path), err)
		}
	}
	return adaptor.NewError(adaptor.ErrBackend, AdaptorName, op, path, err)
}

// List implements adaptor.FileAdaptor: a "/"-delimited listing under the
// directory prefix, with common prefixes reported as directories.
func (a *Adaptor) List(ctx context.Context, fs adaptor.FileSystem, dir string, pattern string) ([]adaptor.FileAttributes, error) {
	state, err := a.filesystem(fs)
	if err != nil {
		return nil, err
	}
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, adaptor.NewError(adaptor.ErrConfiguration, AdaptorName, "List",
			fmt.Sprintf("invalid glob pattern %q", pattern), nil)
	}

	prefix := dirKey(state.key(dir))
	dirPath := state.entry.Resolve(pathname.New(dir)).Normalize()

	var attrs []adaptor.FileAttributes
	var token *string
	for {
		input := &awss3.ListObjectsV2Input{
			Bucket:            aws.String(state.bucket),
			Delimiter:         aws.String("/"),
			ContinuationToken: token,
		}
		if prefix != "" {
			input.Prefix = aws.String(prefix)
		}

		output, err := state.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, wrapS3Error("List", dir, err)
		}

		for _, obj := range output.Contents {
			key := aws.ToString(obj.Key)
			name := strings.TrimPrefix(key, prefix)
			if name == "" {
				continue
			}
			if pattern != "" {
				matched, _ := doublestar.Match(pattern, name)
				if !matched {
					continue
				}
			}
			attrs = append(attrs, adaptor.FileAttributes{
				Name:    name,
				Path:    dirPath.ResolveString(name),
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
		for _, cp := range output.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			if name == "" {
				continue
			}
			if pattern != "" {
				matched, _ := doublestar.Match(pattern, name)
				if !matched {
					continue
				}
			}
			attrs = append(attrs, adaptor.FileAttributes{
				Name:  name,
				Path:  dirPath.ResolveString(name),
				IsDir: true,
			})
		}

		if !aws.ToBool(output.IsTruncated) {
			break
		}
		token = output.NextContinuationToken
	}
	return attrs, nil
}

// Read implements adaptor.FileAdaptor.
func (a *Adaptor) Read(ctx context.Context, fs adaptor.FileSystem, path string) ([]byte, error) {
	state, err := a.filesystem(fs)
	if err != nil {
		return nil, err
	}

	output, err := state.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(state.bucket),
		Key:    aws.String(state.key(path)),
	})
	if err != nil {
		return nil, wrapS3Error("Read", path, err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, adaptor.NewError(adaptor.ErrTransport, AdaptorName, "Read",
			fmt.Sprintf("transfer of %s interrupted", path), err)
	}
	return data, nil
}

// Write implements adaptor.FileAdaptor.
func (a *Adaptor) Write(ctx context.Context, fs adaptor.FileSystem, path string, data []byte) error {
	state, err := a.filesystem(fs)
	if err != nil {
		return err
	}

	length := int64(len(data))
	_, err = state.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:        aws.String(state.bucket),
		Key:           aws.String(state.key(path)),
		Body:          bytes.NewReader(data),
		ContentLength: &length,
	})
	if err != nil {
		return wrapS3Error("Write", path, err)
	}
	return nil
}

// Delete implements adaptor.FileAdaptor: removes the object, or a
// directory's marker key.
func (a *Adaptor) Delete(ctx context.Context, fs adaptor.FileSystem, path string) error {
	state, err := a.filesystem(fs)
	if err != nil {
		return err
	}

	key := state.key(path)
	if _, headErr := state.head(ctx, key); headErr != nil {
		key = dirKey(key)
	}

	_, err = state.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(state.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return wrapS3Error("Delete", path, err)
	}
	return nil
}

// MakeDir implements adaptor.FileAdaptor: stores a zero-byte marker key.
func (a *Adaptor) MakeDir(ctx context.Context, fs adaptor.FileSystem, path string) error {
	state, err := a.filesystem(fs)
	if err != nil {
		return err
	}

	length := int64(0)
	_, err = state.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:        aws.String(state.bucket),
		Key:           aws.String(dirKey(state.key(path))),
		Body:          bytes.NewReader(nil),
		ContentLength: &length,
	})
	if err != nil {
		return wrapS3Error("MakeDir", path, err)
	}
	return nil
}

func (f *filesystem) head(ctx context.Context, key string) (*awss3.HeadObjectOutput, error) {
	return f.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
	})
}

// Stat implements adaptor.FileAdaptor: heads the object key, falling back
// to the directory marker key.
func (a *Adaptor) Stat(ctx context.Context, fs adaptor.FileSystem, path string) (adaptor.FileAttributes, error) {
	state, err := a.filesystem(fs)
	if err != nil {
		return adaptor.FileAttributes{}, err
	}

	target := state.entry.Resolve(pathname.New(path)).Normalize()
	key := state.key(path)

	if output, err := state.head(ctx, key); err == nil {
		return adaptor.FileAttributes{
			Name:    target.FileName().String(),
			Path:    target,
			Size:    aws.ToInt64(output.ContentLength),
			ModTime: aws.ToTime(output.LastModified),
		}, nil
	}

	if _, err := state.head(ctx, dirKey(key)); err == nil {
		return adaptor.FileAttributes{
			Name:  target.FileName().String(),
			Path:  target,
			IsDir: true,
		}, nil
	}

	return adaptor.FileAttributes{}, adaptor.NewError(adaptor.ErrNotFound, AdaptorName, "Stat",
		fmt.Sprintf("%s does not exist", path), nil)
}
