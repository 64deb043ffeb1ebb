package adaptor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gridhaven/kraken/pkg/pathname"
)

// Location is a parsed resource address of the form
// scheme://[user@]host[:port][/path].
//
// A URI carrying a fragment is rejected at parse time: fragments are never
// meaningful for the resources this system addresses. A trailing path
// separator is equivalent to none.
type Location struct {
	// Scheme selects the adaptor (e.g., "ge", "ftp", "s3", "local").
	Scheme string

	// User is the optional user name from the authority part.
	User string

	// Host is the host name, empty for local resources.
	Host string

	// Port is the optional port, zero when absent.
	Port int

	// Path is the path component.
	Path pathname.Pathname

	raw string
}

// ParseLocation parses raw into a Location.
func ParseLocation(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, NewError(ErrLocation, "", "ParseLocation",
			fmt.Sprintf("cannot parse location %q", raw), err)
	}

	if u.Fragment != "" {
		return Location{}, NewError(ErrLocation, "", "ParseLocation",
			fmt.Sprintf("location %q carries a fragment", raw), nil)
	}

	if u.Scheme == "" {
		return Location{}, NewError(ErrLocation, "", "ParseLocation",
			fmt.Sprintf("location %q has no scheme", raw), nil)
	}

	loc := Location{
		Scheme: u.Scheme,
		Host:   u.Hostname(),
		Path:   pathname.New(u.Path),
		raw:    raw,
	}

	if u.User != nil {
		loc.User = u.User.Username()
	}

	if p := u.Port(); p != "" {
		if _, err := fmt.Sscanf(p, "%d", &loc.Port); err != nil {
			return Location{}, NewError(ErrLocation, "", "ParseLocation",
				fmt.Sprintf("location %q has an invalid port", raw), err)
		}
	}

	return loc, nil
}

// HostPort renders host[:port], or "" when no host is present.
func (l Location) HostPort() string {
	if l.Host == "" {
		return ""
	}
	if l.Port == 0 {
		return l.Host
	}
	return fmt.Sprintf("%s:%d", l.Host, l.Port)
}

// IsLocal reports whether the location has no host and therefore addresses
// the local machine.
func (l Location) IsLocal() bool {
	return l.Host == ""
}

// String renders the location in canonical form.
func (l Location) String() string {
	var b strings.Builder
	b.WriteString(l.Scheme)
	b.WriteString("://")
	if l.User != "" {
		b.WriteString(l.User)
		b.WriteString("@")
	}
	b.WriteString(l.HostPort())
	if !l.Path.IsEmpty() {
		b.WriteString(l.Path.AbsolutePath())
	}
	return b.String()
}
