package adaptor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// PropertyLevel is the validity scope of a configuration key.
type PropertyLevel string

const (
	// LevelEngine keys apply to the engine as a whole.
	LevelEngine PropertyLevel = "engine"

	// LevelScheduler keys apply per scheduler.
	LevelScheduler PropertyLevel = "scheduler"

	// LevelFileSystem keys apply per filesystem.
	LevelFileSystem PropertyLevel = "filesystem"
)

// PropertyDescription declares one configuration key an adaptor recognizes.
type PropertyDescription struct {
	// Key is the property name (e.g., "gridengine.poll.interval").
	Key string

	// Levels lists the scopes at which the key is valid.
	Levels []PropertyLevel

	// Default is the value used when the key is absent.
	Default string

	// Description is a one-line explanation for operators.
	Description string
}

// AtLevel reports whether the key is valid at the given scope.
func (d PropertyDescription) AtLevel(level PropertyLevel) bool {
	for _, l := range d.Levels {
		if l == level {
			return true
		}
	}
	return false
}

// Properties is a string-keyed configuration map. Values are raw strings;
// adaptors decode them into typed config structs.
type Properties map[string]string

// Merge produces a copy-on-read view: a new map holding the receiver's
// entries with overrides layered on top. Explicit values win over defaults;
// neither input is mutated.
func (p Properties) Merge(overrides Properties) Properties {
	merged := make(Properties, len(p)+len(overrides))
	for k, v := range p {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// Clone returns a shallow copy.
func (p Properties) Clone() Properties {
	return Properties{}.Merge(p)
}

// Get returns the value for key, falling back to def when absent.
func (p Properties) Get(key, def string) string {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// ValidateStrict rejects any key not declared at the given level.
//
// Used by strict adaptors: an unrecognized key becomes a configuration
// error rather than being silently ignored.
func (p Properties) ValidateStrict(adaptorName string, level PropertyLevel, declared []PropertyDescription) error {
	var unknown []string
	for key := range p {
		found := false
		for _, d := range declared {
			if d.Key == key && d.AtLevel(level) {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return NewError(ErrConfiguration, adaptorName, "ValidateProperties",
		fmt.Sprintf("unrecognized properties at %s level: %s", level, strings.Join(unknown, ", ")), nil)
}

// Decode fills a typed config struct from the property map using
// mapstructure tags, with weak typing so numeric and boolean values can be
// given as strings.
func (p Properties) Decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("build property decoder: %w", err)
	}
	if err := decoder.Decode(map[string]string(p)); err != nil {
		return fmt.Errorf("decode properties: %w", err)
	}
	return nil
}
