package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridhaven/kraken/pkg/adaptor"
)

// stubAdaptor is a minimal adaptor that records End calls and can fail
// them.
type stubAdaptor struct {
	name    string
	schemes []string
	endErr  error
	ended   int
}

func (s *stubAdaptor) Name() string        { return s.name }
func (s *stubAdaptor) Description() string { return "stub" }
func (s *stubAdaptor) Schemes() []string   { return s.schemes }

func (s *stubAdaptor) Supports(scheme string) bool {
	for _, sc := range s.schemes {
		if sc == scheme {
			return true
		}
	}
	return false
}

func (s *stubAdaptor) SupportedProperties() []adaptor.PropertyDescription { return nil }
func (s *stubAdaptor) Capabilities() adaptor.Capabilities                 { return adaptor.Capabilities{} }

func (s *stubAdaptor) End(ctx context.Context) error {
	s.ended++
	return s.endErr
}

func TestDefaultAdaptorListOrder(t *testing.T) {
	e := New(Config{})
	defer e.End(context.Background())

	names := make([]string, 0, 4)
	for _, a := range e.Adaptors() {
		names = append(names, a.Name())
	}
	assert.Equal(t, []string{"local", "gridengine", "ftp", "s3"}, names)
}

func TestAdaptorLookup(t *testing.T) {
	e := New(Config{})
	defer e.End(context.Background())

	a, err := e.Adaptor("gridengine")
	require.NoError(t, err)
	assert.Equal(t, "gridengine", a.Name())

	_, err = e.Adaptor("slurm")
	assert.True(t, adaptor.IsNotFound(err))
}

func TestAdaptorForScheme(t *testing.T) {
	e := New(Config{})
	defer e.End(context.Background())

	tests := []struct {
		scheme string
		want   string
	}{
		{scheme: "local", want: "local"},
		{scheme: "file", want: "local"},
		{scheme: "ge", want: "gridengine"},
		{scheme: "sge", want: "gridengine"},
		{scheme: "ftp", want: "ftp"},
		{scheme: "s3", want: "s3"},
	}
	for _, tt := range tests {
		t.Run(tt.scheme, func(t *testing.T) {
			a, err := e.AdaptorFor(tt.scheme)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Name())
		})
	}

	_, err := e.AdaptorFor("gopher")
	assert.True(t, adaptor.IsNotFound(err))
}

func TestAdaptorForFirstMatchWins(t *testing.T) {
	first := &stubAdaptor{name: "first", schemes: []string{"x"}}
	second := &stubAdaptor{name: "second", schemes: []string{"x"}}
	e := New(Config{}, WithAdaptors(first, second))

	a, err := e.AdaptorFor("x")
	require.NoError(t, err)
	assert.Equal(t, "first", a.Name())
}

func TestEndIdempotentAndBestEffort(t *testing.T) {
	failing := &stubAdaptor{name: "bad", schemes: []string{"bad"}, endErr: errors.New("boom")}
	healthy := &stubAdaptor{name: "good", schemes: []string{"good"}}
	e := New(Config{}, WithAdaptors(failing, healthy))

	require.NoError(t, e.End(context.Background()))
	assert.Equal(t, 1, failing.ended)
	assert.Equal(t, 1, healthy.ended)

	require.NoError(t, e.End(context.Background()))
	assert.Equal(t, 1, failing.ended, "second End must not re-run adaptor shutdown")
}

func TestDefaultPropertiesMergedCopyOnRead(t *testing.T) {
	defaults := adaptor.Properties{"local.poll.interval": "50ms"}
	e := New(Config{DefaultProperties: defaults})
	defer e.End(context.Background())

	merged := e.DefaultProperties().Merge(adaptor.Properties{"extra": "1"})
	assert.Equal(t, "50ms", merged["local.poll.interval"])

	// Neither the engine's defaults nor the caller's map may change.
	assert.NotContains(t, e.DefaultProperties(), "extra")
	assert.NotContains(t, defaults, "extra")
}

func TestSetDefaultCredential(t *testing.T) {
	e := New(Config{})
	defer e.End(context.Background())

	assert.Equal(t, adaptor.DefaultCredential{}, e.DefaultCredential())

	cred := adaptor.PasswordCredential{Username: "walter", Password: "secret"}
	e.SetDefaultCredential(cred)
	assert.Equal(t, cred, e.DefaultCredential())
}

func TestJobRoundtripThroughEngine(t *testing.T) {
	e := New(Config{})
	defer e.End(context.Background())

	ctx := context.Background()
	sched, err := e.NewScheduler(ctx, "local:///", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "local", sched.AdaptorName)

	out := filepath.Join(t.TempDir(), "out.txt")
	job, err := e.SubmitJob(ctx, sched, adaptor.JobDescription{
		Script: "printf engine",
		Stdout: out,
	})
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	status, err := e.WaitUntilDone(waitCtx, job)
	require.NoError(t, err)
	assert.True(t, status.Done)
	assert.Equal(t, adaptor.StateDone, status.State)

	require.NoError(t, e.CloseScheduler(sched))
	err = e.CloseScheduler(sched)
	assert.True(t, adaptor.IsAlreadyClosed(err))
}

func TestFileRoundtripThroughEngine(t *testing.T) {
	e := New(Config{})
	defer e.End(context.Background())

	ctx := context.Background()
	fs, err := e.NewFileSystem(ctx, "file://"+t.TempDir(), nil, nil)
	require.NoError(t, err)

	require.NoError(t, e.Write(ctx, fs, "greeting.txt", []byte("hello")))

	data, err := e.Read(ctx, fs, "greeting.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	entries, err := e.List(ctx, fs, "", "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "greeting.txt", entries[0].Name)

	require.NoError(t, e.CloseFileSystem(fs))
}

func TestJobOperationOnFileOnlyAdaptor(t *testing.T) {
	stub := &stubAdaptor{name: "filesonly", schemes: []string{"fo"}}
	e := New(Config{}, WithAdaptors(stub))

	_, err := e.NewScheduler(context.Background(), "fo://host", nil, nil)
	assert.True(t, adaptor.IsConfiguration(err))
}

func TestDefaultPropertiesScopedToTargetAdaptor(t *testing.T) {
	e := New(Config{DefaultProperties: adaptor.Properties{"gridengine.poll.interval": "1s"}})
	defer e.End(context.Background())

	// An engine-wide default aimed at one backend must not trip another
	// backend's strict validation.
	sched, err := e.NewScheduler(context.Background(), "local:///", nil, nil)
	require.NoError(t, err)
	require.NoError(t, e.CloseScheduler(sched))

	fs, err := e.NewFileSystem(context.Background(), "file://"+t.TempDir(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, e.CloseFileSystem(fs))

	// Explicit per-call properties stay strict.
	_, err = e.NewScheduler(context.Background(), "local:///", nil,
		adaptor.Properties{"gridengine.poll.interval": "1s"})
	assert.True(t, adaptor.IsConfiguration(err))
}
