package core

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cast"
)

// Args is the full argument list of one call: positional values followed by
// keyword values.
type Args struct {
	Positional []any          `json:"args"`
	Keyword    map[string]any `json:"kwargs"`
}

func NewArgs(positional ...any) Args {
	return Args{Positional: positional}
}

// WithKeyword returns a copy of a with key set to value.
func (a Args) WithKeyword(key string, value any) Args {
	c := a.Clone()
	if c.Keyword == nil {
		c.Keyword = make(map[string]any)
	}
	c.Keyword[key] = value
	return c
}

// Clone copies the positional slice and the keyword map. The values
// themselves are shared.
func (a Args) Clone() Args {
	return Args{
		Positional: slices.Clone(a.Positional),
		Keyword:    maps.Clone(a.Keyword),
	}
}

func (a Args) Len() int {
	return len(a.Positional)
}

// At returns the positional value at i, or nil when there is none.
func (a Args) At(i int) any {
	if i < 0 || i >= len(a.Positional) {
		return nil
	}
	return a.Positional[i]
}

func (a Args) Lookup(key string) (any, bool) {
	v, ok := a.Keyword[key]
	return v, ok
}

func (a Args) IntAt(i int) (int, error) {
	if err := a.require(i); err != nil {
		return 0, err
	}
	return cast.ToIntE(a.Positional[i])
}

func (a Args) Float64At(i int) (float64, error) {
	if err := a.require(i); err != nil {
		return 0, err
	}
	return cast.ToFloat64E(a.Positional[i])
}

// StringAt returns the positional value at i as a string. A nil value is an
// error rather than the empty string.
func (a Args) StringAt(i int) (string, error) {
	if err := a.require(i); err != nil {
		return "", err
	}
	if a.Positional[i] == nil {
		return "", fmt.Errorf("argument %d is nil, expected a string", i)
	}
	return cast.ToStringE(a.Positional[i])
}

func (a Args) IntsAt(i int) ([]int, error) {
	if err := a.require(i); err != nil {
		return nil, err
	}
	return cast.ToIntSliceE(a.Positional[i])
}

func (a Args) StringsAt(i int) ([]string, error) {
	if err := a.require(i); err != nil {
		return nil, err
	}
	return cast.ToStringSliceE(a.Positional[i])
}

func (a Args) StringKey(key string) (string, error) {
	v, ok := a.Keyword[key]
	if !ok || v == nil {
		return "", fmt.Errorf("missing keyword argument %q", key)
	}
	return cast.ToStringE(v)
}

func (a Args) IntKey(key string) (int, error) {
	v, ok := a.Keyword[key]
	if !ok {
		return 0, fmt.Errorf("missing keyword argument %q", key)
	}
	return cast.ToIntE(v)
}

func (a Args) require(i int) error {
	if i < 0 || i >= len(a.Positional) {
		return fmt.Errorf("missing positional argument %d (got %d)", i, len(a.Positional))
	}
	return nil
}

// Binding names the divisible argument of a task. Position is tried first,
// then Key; a negative Position means the argument is keyword-only.
type Binding struct {
	Name     string
	Position int
	Key      string
}

// ArgAt binds a positional argument. The name is used in diagnostics only.
func ArgAt(position int, name string) *Binding {
	return &Binding{Name: name, Position: position}
}

// ArgKey binds a keyword argument.
func ArgKey(key string) *Binding {
	return &Binding{Name: key, Position: -1, Key: key}
}

// Arg binds an argument that may be passed either positionally or by key.
func Arg(position int, key string) *Binding {
	return &Binding{Name: key, Position: position, Key: key}
}

func (b *Binding) String() string {
	if b.Name != "" {
		return b.Name
	}
	if b.Key != "" {
		return b.Key
	}
	return fmt.Sprintf("#%d", b.Position)
}

type slot struct {
	position int
	key      string
}

// Resolve locates the bound argument in a, positionally first and by key
// otherwise.
func (a Args) Resolve(b *Binding) (any, error) {
	s, err := a.locate(b)
	if err != nil {
		return nil, err
	}
	if s.position >= 0 {
		return a.Positional[s.position], nil
	}
	return a.Keyword[s.key], nil
}

func (a Args) locate(b *Binding) (slot, error) {
	if b.Position >= 0 && b.Position < len(a.Positional) {
		return slot{position: b.Position}, nil
	}
	if b.Key != "" {
		if _, ok := a.Keyword[b.Key]; ok {
			return slot{position: -1, key: b.Key}, nil
		}
	}
	return slot{}, fmt.Errorf("argument %q is neither positional nor keyword", b)
}

func (a Args) replace(s slot, value any) Args {
	c := a.Clone()
	if s.position >= 0 {
		c.Positional[s.position] = value
	} else {
		c.Keyword[s.key] = value
	}
	return c
}
