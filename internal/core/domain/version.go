package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Version is a strict MAJOR.MINOR.PATCH semantic version. Pre-release
// and build suffixes are rejected: catalog versions are exactly three
// non-negative integers.
type Version struct {
	Major int
	Minor int
	Patch int
}

func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, NewValidationError("version", fmt.Sprintf("%q is not MAJOR.MINOR.PATCH", s))
	}
	nums := [3]int{}
	for i, p := range parts {
		if p == "" || !isDigits(p) {
			return Version{}, NewValidationError("version", fmt.Sprintf("%q is not MAJOR.MINOR.PATCH", s))
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, NewValidationError("version", fmt.Sprintf("%q is not MAJOR.MINOR.PATCH", s))
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

func isDigits(s string) bool {
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// CompareVersions orders numerically per component: "1.9.0" < "1.10.0".
func CompareVersions(a, b Version) int {
	if a.Major != b.Major {
		return sign(a.Major - b.Major)
	}
	if a.Minor != b.Minor {
		return sign(a.Minor - b.Minor)
	}
	return sign(a.Patch - b.Patch)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func SortVersionsAscending(versions []Version) {
	sort.SliceStable(versions, func(i, j int) bool {
		return CompareVersions(versions[i], versions[j]) < 0
	})
}

func SortVersionsDescending(versions []Version) {
	sort.SliceStable(versions, func(i, j int) bool {
		return CompareVersions(versions[i], versions[j]) > 0
	})
}

// LatestVersion returns the greatest version and true, or false on
// empty input.
func LatestVersion(versions []Version) (Version, bool) {
	if len(versions) == 0 {
		return Version{}, false
	}
	latest := versions[0]
	for _, v := range versions[1:] {
		if CompareVersions(v, latest) > 0 {
			latest = v
		}
	}
	return latest, true
}

func (v Version) NextPatch() Version {
	return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
}

func (v Version) NextMinor() Version {
	return Version{Major: v.Major, Minor: v.Minor + 1}
}

func (v Version) NextMajor() Version {
	return Version{Major: v.Major + 1}
}
