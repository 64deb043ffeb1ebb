package s3

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gridhaven/kraken/pkg/adaptor"
)

// fakeAPI is an in-memory object store keyed by object key.
type fakeAPI struct {
	bucket  string
	objects map[string][]byte
}

func newFakeAPI(bucket string) *fakeAPI {
	return &fakeAPI{bucket: bucket, objects: make(map[string][]byte)}
}

func (f *fakeAPI) checkBucket(bucket *string) error {
	if aws.ToString(bucket) != f.bucket {
		return &types.NoSuchBucket{}
	}
	return nil
}

func (f *fakeAPI) ListObjectsV2(ctx context.Context, input *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	if err := f.checkBucket(input.Bucket); err != nil {
		return nil, err
	}
	prefix := aws.ToString(input.Prefix)
	delimiter := aws.ToString(input.Delimiter)

	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	output := &awss3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	seenPrefixes := make(map[string]bool)
	for _, k := range keys {
		rest := strings.TrimPrefix(k, prefix)
		if delimiter != "" {
			if idx := strings.Index(rest, delimiter); idx >= 0 {
				cp := prefix + rest[:idx+1]
				if !seenPrefixes[cp] {
					seenPrefixes[cp] = true
					output.CommonPrefixes = append(output.CommonPrefixes,
						types.CommonPrefix{Prefix: aws.String(cp)})
				}
				continue
			}
		}
		output.Contents = append(output.Contents, types.Object{
			Key:  aws.String(k),
			Size: aws.Int64(int64(len(f.objects[k]))),
		})
	}
	return output, nil
}

func (f *fakeAPI) GetObject(ctx context.Context, input *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	if err := f.checkBucket(input.Bucket); err != nil {
		return nil, err
	}
	data, ok := f.objects[aws.ToString(input.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &awss3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (f *fakeAPI) PutObject(ctx context.Context, input *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	if err := f.checkBucket(input.Bucket); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(input.Key)] = data
	return &awss3.PutObjectOutput{}, nil
}

func (f *fakeAPI) DeleteObject(ctx context.Context, input *awss3.DeleteObjectInput, _ ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error) {
	if err := f.checkBucket(input.Bucket); err != nil {
		return nil, err
	}
	delete(f.objects, aws.ToString(input.Key))
	return &awss3.DeleteObjectOutput{}, nil
}

func (f *fakeAPI) HeadObject(ctx context.Context, input *awss3.HeadObjectInput, _ ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error) {
	if err := f.checkBucket(input.Bucket); err != nil {
		return nil, err
	}
	data, ok := f.objects[aws.ToString(input.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &awss3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

func newTestFileSystem(t *testing.T, location string) (*Adaptor, adaptor.FileSystem, *fakeAPI) {
	t.Helper()

	store := newFakeAPI("datasets")
	a := New(zap.NewNop(), WithClientFunc(func(ctx context.Context, cfg clientConfig, credential adaptor.Credential) (api, error) {
		return store, nil
	}))

	loc, err := adaptor.ParseLocation(location)
	require.NoError(t, err)

	fs, err := a.NewFileSystem(context.Background(), loc, adaptor.DefaultCredential{}, nil)
	require.NoError(t, err)

	t.Cleanup(func() { _ = a.End(context.Background()) })
	return a, fs, store
}

func TestNewFileSystemRequiresBucket(t *testing.T) {
	a := New(zap.NewNop())
	loc, err := adaptor.ParseLocation("s3:///no-bucket")
	require.NoError(t, err)

	_, err = a.NewFileSystem(context.Background(), loc, adaptor.DefaultCredential{}, nil)
	assert.True(t, adaptor.IsLocation(err))
}

func TestWriteReadUnderEntryPrefix(t *testing.T) {
	a, fs, store := newTestFileSystem(t, "s3://datasets/archive")
	ctx := context.Background()

	require.NoError(t, a.Write(ctx, fs, "run1/result.csv", []byte("a,b\n1,2\n")))

	assert.Contains(t, store.objects, "archive/run1/result.csv")

	data, err := a.Read(ctx, fs, "run1/result.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
}

func TestReadMissingKeyIsNotFound(t *testing.T) {
	a, fs, _ := newTestFileSystem(t, "s3://datasets")

	_, err := a.Read(context.Background(), fs, "absent.csv")
	assert.True(t, adaptor.IsNotFound(err))
}

func TestListReportsObjectsAndCommonPrefixes(t *testing.T) {
	a, fs, store := newTestFileSystem(t, "s3://datasets")
	ctx := context.Background()

	store.objects["a.csv"] = []byte("x")
	store.objects["b.csv"] = []byte("xy")
	store.objects["nested/c.csv"] = []byte("xyz")

	entries, err := a.List(ctx, fs, "", "")
	require.NoError(t, err)

	byName := make(map[string]adaptor.FileAttributes, len(entries))
	for _, e := range entries {
		byName[e.Name] = e
	}
	require.Len(t, byName, 3)
	assert.Equal(t, int64(2), byName["b.csv"].Size)
	assert.True(t, byName["nested"].IsDir)
	assert.False(t, byName["a.csv"].IsDir)
}

func TestListWithGlobFilter(t *testing.T) {
	a, fs, store := newTestFileSystem(t, "s3://datasets")

	store.objects["a.csv"] = []byte("x")
	store.objects["b.json"] = []byte("x")

	entries, err := a.List(context.Background(), fs, "", "*.csv")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.csv", entries[0].Name)
}

func TestMakeDirStatDelete(t *testing.T) {
	a, fs, store := newTestFileSystem(t, "s3://datasets")
	ctx := context.Background()

	require.NoError(t, a.MakeDir(ctx, fs, "staging"))
	assert.Contains(t, store.objects, "staging/")

	attrs, err := a.Stat(ctx, fs, "staging")
	require.NoError(t, err)
	assert.True(t, attrs.IsDir)
	assert.Equal(t, "staging", attrs.Name)

	require.NoError(t, a.Delete(ctx, fs, "staging"))
	assert.NotContains(t, store.objects, "staging/")

	_, err = a.Stat(ctx, fs, "staging")
	assert.True(t, adaptor.IsNotFound(err))
}

func TestStatObject(t *testing.T) {
	a, fs, store := newTestFileSystem(t, "s3://datasets")

	store.objects["data.bin"] = []byte("12345")

	attrs, err := a.Stat(context.Background(), fs, "data.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(5), attrs.Size)
	assert.False(t, attrs.IsDir)
}

func TestCloseFileSystemInvalidatesHandle(t *testing.T) {
	a, fs, _ := newTestFileSystem(t, "s3://datasets")

	require.NoError(t, a.CloseFileSystem(fs))

	_, err := a.Read(context.Background(), fs, "x")
	assert.True(t, adaptor.IsAlreadyClosed(err))
}
