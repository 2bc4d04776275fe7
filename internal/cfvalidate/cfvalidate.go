// Package cfvalidate contains the length and character-set checks shared by
// the engine's opaque string types: rule text ([cfrule.RuleText]) and
// profile IDs both need "is this a sane, boundable identifier" validation,
// and both get it from here instead of duplicating the rune loop.
package cfvalidate

import "fmt"

// FirstNonIDRune returns the first rune that is a space, non-printable, or
// non-ASCII, and its index.  If excludeSlashes is true, it also looks for slashes.  If there are
// no such runes, i is -1.
func FirstNonIDRune(s string, excludeSlashes bool) (i int, r rune) {
	for i, r = range s {
		if r < '!' || r > '~' || (excludeSlashes && r == '/') {
			return i, r
		}
	}

	return -1, 0
}

// Unit name constants used in error messages produced by [Inclusion].
const (
	UnitByte = "bytes"
	UnitRune = "runes"
)

// Inclusion returns an error if n is greater than maxVal or less than minVal.
// unitName is used for error messages, see [UnitByte] and [UnitRune].
func Inclusion(n, minVal, maxVal int, unitName string) (err error) {
	switch {
	case n > maxVal:
		return fmt.Errorf("too long: got %d %s, max %d", n, unitName, maxVal)
	case n < minVal:
		return fmt.Errorf("too short: got %d %s, min %d", n, unitName, minVal)
	default:
		return nil
	}
}
