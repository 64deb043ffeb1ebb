package adaptor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertiesMergeDoesNotMutateDefaults(t *testing.T) {
	defaults := Properties{"a": "1", "b": "2"}
	overrides := Properties{"b": "3", "c": "4"}

	merged := defaults.Merge(overrides)

	assert.Equal(t, Properties{"a": "1", "b": "3", "c": "4"}, merged)
	assert.Equal(t, Properties{"a": "1", "b": "2"}, defaults)
	assert.Equal(t, Properties{"b": "3", "c": "4"}, overrides)
}

func TestPropertiesMergeNil(t *testing.T) {
	var defaults Properties
	merged := defaults.Merge(Properties{"x": "y"})
	assert.Equal(t, "y", merged.Get("x", ""))
}

func TestValidateStrict(t *testing.T) {
	declared := []PropertyDescription{
		{Key: "ge.poll.interval", Levels: []PropertyLevel{LevelScheduler}},
		{Key: "ge.rate.limit", Levels: []PropertyLevel{LevelEngine, LevelScheduler}},
	}

	tests := []struct {
		name    string
		props   Properties
		level   PropertyLevel
		wantErr bool
	}{
		{"all declared", Properties{"ge.poll.interval": "5s"}, LevelScheduler, false},
		{"empty", Properties{}, LevelScheduler, false},
		{"unknown key", Properties{"ge.bogus": "1"}, LevelScheduler, true},
		{"wrong level", Properties{"ge.poll.interval": "5s"}, LevelEngine, true},
		{"multi level key", Properties{"ge.rate.limit": "2"}, LevelEngine, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.props.ValidateStrict("gridengine", tt.level, declared)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsConfiguration(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPropertiesDecode(t *testing.T) {
	type cfg struct {
		PollInterval time.Duration `mapstructure:"poll.interval"`
		RateLimit    float64       `mapstructure:"rate.limit"`
		Verbose      bool          `mapstructure:"verbose"`
	}

	props := Properties{
		"poll.interval": "2s",
		"rate.limit":    "1.5",
		"verbose":       "true",
	}

	var c cfg
	require.NoError(t, props.Decode(&c))
	assert.Equal(t, 2*time.Second, c.PollInterval)
	assert.Equal(t, 1.5, c.RateLimit)
	assert.True(t, c.Verbose)
}

func TestSchedulerEqualityByIdentity(t *testing.T) {
	a := Scheduler{AdaptorName: "gridengine", ID: "gridengine-1", QueueNames: []string{"all.q"}}
	b := Scheduler{AdaptorName: "gridengine", ID: "gridengine-1", QueueNames: []string{"other.q"}}
	c := Scheduler{AdaptorName: "gridengine", ID: "gridengine-2"}
	d := Scheduler{AdaptorName: "local", ID: "gridengine-1"}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
}
