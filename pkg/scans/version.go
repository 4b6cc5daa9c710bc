package scans

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var numAlpha = regexp.MustCompile(`^([0-9]*)([^0-9]*)(.*)$`)

// VersionPart is one dot separated component of a version key.
type VersionPart struct {
	Num   int
	Alpha string
	Rest  string
	// Big holds the digits of a number too large for Num, which is then
	// math.MaxInt. Such numbers still compare exactly.
	Big string
}

// VersionKey splits a page or file name on dots; each part is a leading
// number (0 when absent), the following non-digits and whatever remains.
// "2.10" sorts after "2.9" because numbers compare numerically; text after
// the first digit run compares as a string.
func VersionKey(s string) []VersionPart {
	fields := strings.Split(s, ".")
	out := make([]VersionPart, 0, len(fields))
	for _, f := range fields {
		m := numAlpha.FindStringSubmatch(f)
		part := VersionPart{Alpha: m[2], Rest: m[3]}
		if m[1] != "" {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				n = math.MaxInt
				part.Big = strings.TrimLeft(m[1], "0")
			}
			part.Num = n
		}
		out = append(out, part)
	}
	return out
}

// CompareVersions orders two names by their version keys.
func CompareVersions(a, b string) int {
	ka, kb := VersionKey(a), VersionKey(b)
	for i := 0; i < len(ka) && i < len(kb); i++ {
		x, y := ka[i], kb[i]
		switch {
		case x.Num != y.Num || x.Big != y.Big:
			return compareDigits(x.digits(), y.digits())
		case x.Alpha != y.Alpha:
			return strings.Compare(x.Alpha, y.Alpha)
		case x.Rest != y.Rest:
			return strings.Compare(x.Rest, y.Rest)
		}
	}
	switch {
	case len(ka) < len(kb):
		return -1
	case len(ka) > len(kb):
		return 1
	}
	return 0
}

func (p VersionPart) digits() string {
	if p.Big != "" {
		return p.Big
	}
	return strconv.Itoa(p.Num)
}

// compareDigits orders two unsigned decimal numbers without leading zeros.
func compareDigits(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// SortVersions sorts names in place by CompareVersions.
func SortVersions(names []string) {
	sort.SliceStable(names, func(i, j int) bool { return CompareVersions(names[i], names[j]) < 0 })
}
