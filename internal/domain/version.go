package domain

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// VersionTag is a release identifier parsed out of a tag name. Tags belong to
// a pattern family (the literal prefix that names a release channel, e.g. "v",
// "internal@", "ot3@") and only tags of the same family are comparable.
type VersionTag struct {
	Pattern string
	Raw     string
	version *semver.Version
}

// ParseVersionTag parses a tag name against its pattern family. Tags that do
// not carry the pattern prefix or whose remainder is not a version return
// ErrUnparseableVersion.
func ParseVersionTag(pattern, raw string) (*VersionTag, error) {
	if !strings.HasPrefix(raw, pattern) {
		return nil, fmt.Errorf("%w: tag %q does not match pattern %q", ErrUnparseableVersion, raw, pattern)
	}
	v, err := semver.NewVersion(strings.TrimPrefix(raw, pattern))
	if err != nil {
		return nil, fmt.Errorf("%w: tag %q: %v", ErrUnparseableVersion, raw, err)
	}
	return &VersionTag{Pattern: pattern, Raw: raw, version: v}, nil
}

// Compare orders two tags of the same pattern family by semver precedence.
func (t *VersionTag) Compare(other *VersionTag) (int, error) {
	if t.Pattern != other.Pattern {
		return 0, fmt.Errorf("cannot compare tags across pattern families %q and %q", t.Pattern, other.Pattern)
	}
	return t.version.Compare(other.version), nil
}

// Version returns the parsed version without its pattern prefix.
func (t *VersionTag) Version() *semver.Version {
	return t.version
}

// Prerelease returns the prerelease label, empty for stable tags.
func (t *VersionTag) Prerelease() string {
	return t.version.Prerelease()
}

// String returns the original tag name.
func (t *VersionTag) String() string {
	return t.Raw
}

// GreatestVersionTag returns the name of the semver-greatest parseable tag in
// names for the given pattern family. Unparseable names are skipped; an empty
// result means nothing parsed.
func GreatestVersionTag(pattern string, names []string) string {
	var best *VersionTag
	for _, name := range names {
		tag, err := ParseVersionTag(pattern, name)
		if err != nil {
			continue
		}
		if best == nil {
			best = tag
			continue
		}
		if cmp, err := best.Compare(tag); err == nil && cmp < 0 {
			best = tag
		}
	}
	if best == nil {
		return ""
	}
	return best.Raw
}
