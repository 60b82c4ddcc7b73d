package catalog

import (
	"regexp"
	"strings"
)

// CanonicalSuffix is the single legal-entity suffix used after normalization.
const CanonicalSuffix = "S.A."

var (
	// "S.A", "S.A.", "S/A" may follow the name directly ("ACMES/A", "ACME-S.A.").
	dottedSuffix = regexp.MustCompile(`^(.*?)\s*(S\.A\.?|S/A)$`)
	// bare "SA" needs a separating space, otherwise "MARISA" would lose its tail.
	// "ACMESA" and "ACME-SA" are left alone for the same reason.
	bareSuffix = regexp.MustCompile(`^(.*\S)\s+SA$`)
)

// NormalizeName uppercases, trims and collapses whitespace, and rewrites a trailing
// S.A / S.A. / S/A (or SA after a space) to the canonical "S.A.". A hyphen or comma
// right before the suffix is dropped. It is idempotent.
func NormalizeName(raw string) string {
	name := strings.ToUpper(strings.Join(strings.Fields(raw), " "))
	if name == "" {
		return ""
	}

	if m := dottedSuffix.FindStringSubmatch(name); m != nil {
		return joinSuffix(m[1])
	}
	if m := bareSuffix.FindStringSubmatch(name); m != nil {
		return joinSuffix(m[1])
	}
	return name
}

func joinSuffix(base string) string {
	base = strings.TrimRight(base, " -,")
	if base == "" {
		return CanonicalSuffix
	}
	return base + " " + CanonicalSuffix
}
