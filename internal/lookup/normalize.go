// Package lookup provides drug and drug-class name normalization and the
// name -> ARO accession tables built from the CARD reference mapping.
package lookup

import "strings"

// DefaultCorrections maps known typos and plural variants onto the names used
// by the CARD reference mapping.
var DefaultCorrections = map[string]string{
	"penicillin beta-lactam antibiotc": "penicillin beta-lactam",
	"sulfonamides":                     "sulfonamide antibiotic",
	"aminoglycosides":                  "aminoglycoside antibiotic",
	"kanamycin":                        "kanamycin a",
}

// Normalizer produces comparable keys for external vocabulary names.
type Normalizer struct {
	corrections map[string]string
}

// NewNormalizer builds a Normalizer from a correction table. Keys and values are
// normalized first, and chains (a -> b, b -> c) are collapsed so that Normalize
// is idempotent.
func NewNormalizer(corrections map[string]string) *Normalizer {
	base := make(map[string]string, len(corrections))
	for k, v := range corrections {
		k, v = fold(k), fold(v)
		if k == "" || k == v {
			continue
		}
		base[k] = v
	}

	resolved := make(map[string]string, len(base))
	for k := range base {
		v := base[k]
		seen := map[string]bool{k: true}
		for {
			next, ok := base[v]
			if !ok || seen[v] {
				break
			}
			seen[v] = true
			v = next
		}
		if v != k {
			resolved[k] = v
		}
	}
	return &Normalizer{corrections: resolved}
}

// Normalize lowercases raw, turns hyphens into spaces, collapses whitespace runs,
// trims, and finally applies the correction table.
func (n *Normalizer) Normalize(raw string) string {
	s := fold(raw)
	if n != nil {
		if c, ok := n.corrections[s]; ok {
			return c
		}
	}
	return s
}

func fold(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}
