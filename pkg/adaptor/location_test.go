package adaptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	loc, err := ParseLocation("ge://user@cluster.example.org:2222/work")
	require.NoError(t, err)

	assert.Equal(t, "ge", loc.Scheme)
	assert.Equal(t, "user", loc.User)
	assert.Equal(t, "cluster.example.org", loc.Host)
	assert.Equal(t, 2222, loc.Port)
	assert.Equal(t, "work", loc.Path.RelativePath())
	assert.False(t, loc.IsLocal())
}

func TestParseLocationNoHost(t *testing.T) {
	loc, err := ParseLocation("local:///")
	require.NoError(t, err)

	assert.True(t, loc.IsLocal())
	assert.Empty(t, loc.HostPort())
}

func TestParseLocationRejectsFragment(t *testing.T) {
	_, err := ParseLocation("ge://host/path#fragment")
	require.Error(t, err)
	assert.True(t, IsLocation(err))
}

func TestParseLocationRejectsMissingScheme(t *testing.T) {
	_, err := ParseLocation("//host/path")
	require.Error(t, err)
	assert.True(t, IsLocation(err))
}

func TestParseLocationTrailingSeparator(t *testing.T) {
	with, err := ParseLocation("ftp://host/dir/")
	require.NoError(t, err)
	without, err2 := ParseLocation("ftp://host/dir")
	require.NoError(t, err2)

	assert.True(t, with.Path.Equal(without.Path))
}

func TestLocationString(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"full authority", "ge://alice@host:22/a/b", "ge://alice@host:22/a/b"},
		{"no port", "ftp://host/dir", "ftp://host/dir"},
		{"no path", "ge://host", "ge://host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseLocation(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, loc.String())
		})
	}
}
