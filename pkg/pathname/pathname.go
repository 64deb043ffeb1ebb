// Package pathname provides an immutable hierarchical path value used to
// address resources uniformly across backends.
//
// A Pathname is an ordered sequence of non-empty path elements plus the
// separator used to render them. All operations are pure: they return new
// values and never mutate the receiver. The element sequence never contains
// empty strings or the separator character; constructors tokenize raw input
// and silently drop empty fragments, so "a//b/" and "a/b" parse identically.
package pathname

import (
	"fmt"
	"strings"
)

// DefaultSeparator is used when no explicit separator is given.
const DefaultSeparator = '/'

// Pathname is an immutable sequence of path elements with a separator.
//
// The zero value is the empty path with the default separator.
type Pathname struct {
	elements []string
	sep      rune
}

// New parses raw into a Pathname using the default separator.
//
// Empty fragments produced by leading, trailing, or repeated separators are
// dropped, so New("") and New("/") both yield the empty path.
func New(raw string) Pathname {
	return NewWithSeparator(DefaultSeparator, raw)
}

// NewWithSeparator parses each fragment into elements, splitting on sep.
// Empty fragments are dropped.
func NewWithSeparator(sep rune, fragments ...string) Pathname {
	var elements []string
	for _, f := range fragments {
		for _, part := range strings.Split(f, string(sep)) {
			if part != "" {
				elements = append(elements, part)
			}
		}
	}
	return Pathname{elements: elements, sep: normalizeSep(sep)}
}

// Join concatenates the element sequences of the given paths. The separator
// of the first path is kept; with no arguments the result is the empty path.
func Join(paths ...Pathname) Pathname {
	if len(paths) == 0 {
		return Pathname{sep: DefaultSeparator}
	}
	result := paths[0]
	for _, p := range paths[1:] {
		result = result.Resolve(p)
	}
	return result
}

func normalizeSep(sep rune) rune {
	if sep == 0 {
		return DefaultSeparator
	}
	return sep
}

// Separator returns the separator rune used to render this path.
func (p Pathname) Separator() rune {
	return normalizeSep(p.sep)
}

// IsEmpty reports whether this path has no elements.
func (p Pathname) IsEmpty() bool {
	return len(p.elements) == 0
}

// NameCount returns the number of elements in this path.
func (p Pathname) NameCount() int {
	return len(p.elements)
}

// Name returns the element at the given index as a single-element path.
func (p Pathname) Name(index int) (Pathname, error) {
	if index < 0 || index >= len(p.elements) {
		return Pathname{}, fmt.Errorf("pathname: index %d out of range for path with %d elements", index, len(p.elements))
	}
	return Pathname{elements: []string{p.elements[index]}, sep: p.Separator()}, nil
}

// FileName returns the last element as a single-element path, or the empty
// path if this path is empty.
func (p Pathname) FileName() Pathname {
	if p.IsEmpty() {
		return Pathname{sep: p.Separator()}
	}
	return Pathname{elements: []string{p.elements[len(p.elements)-1]}, sep: p.Separator()}
}

// Parent returns this path without its last element, or the empty path if
// this path is already empty.
func (p Pathname) Parent() Pathname {
	if p.IsEmpty() {
		return Pathname{sep: p.Separator()}
	}
	return Pathname{elements: p.elements[:len(p.elements)-1], sep: p.Separator()}
}

// Subpath returns the elements in the half-open range [begin, end).
func (p Pathname) Subpath(begin, end int) (Pathname, error) {
	if begin < 0 || begin >= len(p.elements) {
		return Pathname{}, fmt.Errorf("pathname: begin index %d out of range for path with %d elements", begin, len(p.elements))
	}
	if end < 0 || end > len(p.elements) {
		return Pathname{}, fmt.Errorf("pathname: end index %d out of range for path with %d elements", end, len(p.elements))
	}
	if begin >= end {
		return Pathname{}, fmt.Errorf("pathname: begin index %d not smaller than end index %d", begin, end)
	}
	elements := make([]string, end-begin)
	copy(elements, p.elements[begin:end])
	return Pathname{elements: elements, sep: p.Separator()}, nil
}

// Resolve appends the elements of other to this path, keeping this path's
// separator. If other is empty this path is returned; if this path is empty
// other is returned.
func (p Pathname) Resolve(other Pathname) Pathname {
	if other.IsEmpty() {
		return p
	}
	if p.IsEmpty() {
		return other
	}
	elements := make([]string, 0, len(p.elements)+len(other.elements))
	elements = append(elements, p.elements...)
	elements = append(elements, other.elements...)
	return Pathname{elements: elements, sep: p.Separator()}
}

// ResolveString parses other with this path's separator and resolves it
// against this path.
func (p Pathname) ResolveString(other string) Pathname {
	if other == "" {
		return p
	}
	return p.Resolve(NewWithSeparator(p.Separator(), other))
}

// ResolveSibling resolves other against this path's parent.
func (p Pathname) ResolveSibling(other Pathname) Pathname {
	if p.IsEmpty() {
		return other
	}
	return p.Parent().Resolve(other)
}

// Relativize returns the path that, resolved against this path, yields other.
// Both sides are normalized first. The call fails if the normalized receiver
// is longer than the normalized other, or if their elements differ over the
// shared prefix. Identical paths relativize to the empty path.
func (p Pathname) Relativize(other Pathname) (Pathname, error) {
	base := p.Normalize()
	target := other.Normalize()

	if len(base.elements) > len(target.elements) {
		return Pathname{}, fmt.Errorf("pathname: cannot relativize %s against %s", other.AbsolutePath(), p.AbsolutePath())
	}
	for i := range base.elements {
		if base.elements[i] != target.elements[i] {
			return Pathname{}, fmt.Errorf("pathname: cannot relativize %s against %s", other.AbsolutePath(), p.AbsolutePath())
		}
	}
	if len(base.elements) == len(target.elements) {
		return Pathname{sep: p.Separator()}, nil
	}
	elements := make([]string, len(target.elements)-len(base.elements))
	copy(elements, target.elements[len(base.elements):])
	return Pathname{elements: elements, sep: p.Separator()}, nil
}

// Normalize removes redundant "." and ".." elements. A ".." cancels its
// immediate predecessor unless that predecessor is itself "." or "..", so
// leading unresolvable ".." elements survive. Removal repeats until a
// fixpoint is reached.
func (p Pathname) Normalize() Pathname {
	if p.IsEmpty() {
		return p
	}

	stack := make([]string, len(p.elements))
	copy(stack, p.elements)

	changed := true
	for changed {
		changed = false

		// Right-to-left so removals do not shift unvisited indices.
		for i := len(stack) - 1; i >= 0; i-- {
			if i >= len(stack) {
				continue
			}
			switch stack[i] {
			case ".":
				stack = append(stack[:i], stack[i+1:]...)
				changed = true
			case "..":
				if i > 0 {
					prev := stack[i-1]
					if prev != "." && prev != ".." {
						stack = append(stack[:i-1], stack[i+1:]...)
						changed = true
					}
				}
			}
		}
	}

	return Pathname{elements: stack, sep: p.Separator()}
}

// StartsWith reports whether this path begins with the same elements as
// other. An empty other always matches; an other longer than this path never
// matches.
func (p Pathname) StartsWith(other Pathname) bool {
	if other.IsEmpty() {
		return true
	}
	if len(other.elements) > len(p.elements) {
		return false
	}
	for i := range other.elements {
		if p.elements[i] != other.elements[i] {
			return false
		}
	}
	return true
}

// EndsWith reports whether this path ends with the same elements as other.
func (p Pathname) EndsWith(other Pathname) bool {
	if other.IsEmpty() {
		return true
	}
	if len(other.elements) > len(p.elements) {
		return false
	}
	offset := len(p.elements) - len(other.elements)
	for i := range other.elements {
		if p.elements[offset+i] != other.elements[i] {
			return false
		}
	}
	return true
}

// Equal reports whether both element sequences and separators match.
func (p Pathname) Equal(other Pathname) bool {
	if p.Separator() != other.Separator() {
		return false
	}
	if len(p.elements) != len(other.elements) {
		return false
	}
	for i := range p.elements {
		if p.elements[i] != other.elements[i] {
			return false
		}
	}
	return true
}

// Prefixes returns every prefix of this path in order of increasing length.
// For elements [a, b, c] the result is [a], [a, b], [a, b, c]. The returned
// slice is freshly allocated on each call, so iteration restarts from the
// first prefix every time.
func (p Pathname) Prefixes() []Pathname {
	prefixes := make([]Pathname, 0, len(p.elements))
	for i := 1; i <= len(p.elements); i++ {
		elements := make([]string, i)
		copy(elements, p.elements[:i])
		prefixes = append(prefixes, Pathname{elements: elements, sep: p.Separator()})
	}
	return prefixes
}

// Elements returns a copy of the element sequence.
func (p Pathname) Elements() []string {
	elements := make([]string, len(p.elements))
	copy(elements, p.elements)
	return elements
}

// RelativePath renders the path without a leading separator. The empty path
// renders as "".
func (p Pathname) RelativePath() string {
	return strings.Join(p.elements, string(p.Separator()))
}

// AbsolutePath renders the path with every element prefixed by the
// separator. The empty path renders as a single separator.
func (p Pathname) AbsolutePath() string {
	if p.IsEmpty() {
		return string(p.Separator())
	}
	var b strings.Builder
	for _, e := range p.elements {
		b.WriteRune(p.Separator())
		b.WriteString(e)
	}
	return b.String()
}

// String returns the absolute rendering, for logs and error messages.
func (p Pathname) String() string {
	return p.AbsolutePath()
}
