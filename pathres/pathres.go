// Package pathres resolves watch entries into absolute identifiers
// and answers whether a changed path belongs to the resolved set.
//
// Every function here is pure; callers own the sets they pass in.
package pathres

import (
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Spec is the user supplied list of watched paths. Entries may be absolute
// or relative to an output directory.
type Spec []string

// UnmarshalYAML accepts either a single scalar or a sequence of scalars.
func (s *Spec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var single string
		if err := value.Decode(&single); err != nil {
			return err
		}
		if single == "" {
			*s = nil
		} else {
			*s = Spec{single}
		}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := value.Decode(&many); err != nil {
			return err
		}
		*s = many
		return nil
	}
	return fmt.Errorf("watch: expected a path or a list of paths, got %s", value.Tag)
}

// IsEmpty reports whether no path was given at all. Only then does every
// candidate match.
func (s Spec) IsEmpty() bool {
	return len(s) == 0
}

// Set is a resolved watch set of absolute, cleaned paths.
type Set map[string]struct{}

// Resolve anchors every relative entry of spec against every base
// directory. Absolute entries are kept as they are. An empty entry stands
// for the base directory itself.
func Resolve(spec Spec, baseDirs []string) Set {
	set := make(Set)
	for _, entry := range spec {
		if filepath.IsAbs(entry) {
			set[filepath.Clean(entry)] = struct{}{}
			continue
		}
		for _, dir := range baseDirs {
			if p, ok := anchor(dir, entry); ok {
				set[p] = struct{}{}
			}
		}
	}
	return set
}

// Extend adds the relative entries of spec anchored to a newly discovered
// base directory. Existing members are never removed.
func (s Set) Extend(spec Spec, baseDir string) {
	for _, entry := range spec {
		if filepath.IsAbs(entry) {
			continue
		}
		if p, ok := anchor(baseDir, entry); ok {
			s[p] = struct{}{}
		}
	}
}

// Has expects p to be absolute and cleaned already.
func (s Set) Has(p string) bool {
	_, ok := s[p]
	return ok
}

// Matches reports whether candidate belongs to set, the resolution of
// spec. An empty spec matches everything, while a spec whose entries
// resolved to nothing matches nothing. A relative candidate matches when
// anchoring it to any of baseDirs yields a member.
func Matches(spec Spec, set Set, baseDirs []string, candidate string) bool {
	if spec.IsEmpty() {
		return true
	}
	if candidate == "" {
		return false
	}
	if filepath.IsAbs(candidate) {
		return set.Has(filepath.Clean(candidate))
	}
	for _, dir := range baseDirs {
		if p, ok := anchor(dir, candidate); ok && set.Has(p) {
			return true
		}
	}
	return false
}

func anchor(baseDir string, rel string) (string, bool) {
	p, err := filepath.Abs(filepath.Join(baseDir, rel))
	if err != nil {
		return "", false
	}
	return p, true
}
