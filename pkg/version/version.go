package version

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Prefix is stripped from release names such as "lineage-22.2".
const Prefix = "lineage-"

// ErrInvalidVersion is returned for strings that are not MAJOR[.MINOR].
var ErrInvalidVersion = errors.New("invalid version")

var versionPattern = regexp.MustCompile(`^\d+\.\d+$`)

// Normalize converts v to MAJOR.MINOR.
func Normalize(v string) (string, error) {
	n := strings.TrimSpace(v)
	n = strings.TrimPrefix(n, Prefix)
	if !strings.Contains(n, ".") {
		n += ".0"
	}
	if !versionPattern.MatchString(n) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	return n, nil
}

// Parse normalizes v and returns it as a semantic version with a zero patch.
// Components are read as numbers, so "22.05" parses the same as "22.5".
func Parse(v string) (*semver.Version, error) {
	n, err := Normalize(v)
	if err != nil {
		return nil, err
	}
	majorPart, minorPart, _ := strings.Cut(n, ".")
	major, err := strconv.ParseUint(majorPart, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, v, err)
	}
	minor, err := strconv.ParseUint(minorPart, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, v, err)
	}
	return semver.New(major, minor, 0, "", ""), nil
}

// Valid reports whether v normalizes.
func Valid(v string) bool {
	_, err := Parse(v)
	return err == nil
}

// Compare returns -1, 0 or 1 when a is older than, equal to or newer than b.
// An invalid version is older than any valid one; two invalid versions are
// equal.
func Compare(a, b string) int {
	va, errA := Parse(a)
	vb, errB := Parse(b)

	switch {
	case errA != nil && errB != nil:
		return 0
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	return va.Compare(vb)
}

// Sort orders versions from oldest to newest in place. Invalid versions come
// first; equal versions keep their relative order.
func Sort(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		return Compare(versions[i], versions[j]) < 0
	})
}

// Latest returns the newest valid version. ok is false when none is valid.
func Latest(versions []string) (latest string, ok bool) {
	for _, v := range versions {
		if !Valid(v) {
			continue
		}
		if !ok || Compare(v, latest) > 0 {
			latest, ok = v, true
		}
	}
	return latest, ok
}
