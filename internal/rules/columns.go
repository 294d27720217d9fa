package rules

import (
	"sort"
	"strings"
)

// Canonical column names used across AMRrules files.
const (
	ColRuleID              = "ruleID"
	ColTxid                = "txid"
	ColOrganism            = "organism"
	ColGene                = "gene"
	ColNodeID              = "nodeID"
	ColProteinAccession    = "protein accession"
	ColHMMAccession        = "HMM accession"
	ColNucleotideAccession = "nucleotide accession"
	ColAROAccession        = "ARO accession"
	ColMutation            = "mutation"
	ColVariationType       = "variation type"
	ColGeneContext         = "gene context"
	ColDrug                = "drug"
	ColDrugClass           = "drug class"
	ColPhenotype           = "phenotype"
	ColClinicalCategory    = "clinical category"
	ColBreakpoint          = "breakpoint"
	ColBreakpointStandard  = "breakpoint standard"
	ColBreakpointCondition = "breakpoint condition"
	ColPMID                = "PMID"
	ColEvidenceCode        = "evidence code"
	ColEvidenceGrade       = "evidence grade"
	ColEvidenceDescription = "evidence description"
	ColEvidenceLimitations = "evidence limitations"
	ColCurationNote        = "rule curation note"
)

// FixedHeaderOrder is the display order for canonical columns.
var FixedHeaderOrder = []string{
	ColRuleID, ColTxid, ColOrganism, ColGene, ColNodeID, ColProteinAccession,
	ColHMMAccession, ColNucleotideAccession, ColAROAccession,
	ColMutation, ColVariationType, ColGeneContext,
	ColDrug, ColDrugClass, ColPhenotype, ColClinicalCategory, ColBreakpoint,
	ColBreakpointStandard, ColBreakpointCondition, ColPMID, ColEvidenceCode,
	ColEvidenceGrade, ColEvidenceDescription, ColEvidenceLimitations, ColCurationNote,
}

var canonical = func() map[string]bool {
	m := make(map[string]bool, len(FixedHeaderOrder))
	for _, h := range FixedHeaderOrder {
		m[h] = true
	}
	return m
}()

// IsCanonical reports whether name is part of FixedHeaderOrder.
func IsCanonical(name string) bool {
	return canonical[name]
}

// HeaderSet is an unordered set of header names.
type HeaderSet map[string]struct{}

// Add inserts names into the set.
func (s HeaderSet) Add(names ...string) {
	for _, n := range names {
		s[n] = struct{}{}
	}
}

// Has reports whether name is in the set.
func (s HeaderSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the set members in lexicographic order.
func (s HeaderSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ProjectHeaders orders a header set for display. Canonical headers come first in
// FixedHeaderOrder, followed by any other non-blank headers alphabetically.
func ProjectHeaders(set HeaderSet) []string {
	out := make([]string, 0, len(set))
	for _, h := range FixedHeaderOrder {
		if set.Has(h) {
			out = append(out, h)
		}
	}
	for _, h := range set.Sorted() {
		if canonical[h] || strings.TrimSpace(h) == "" {
			continue
		}
		out = append(out, h)
	}
	return out
}

// FormatFileName turns a rule file name into a display label:
// "Escherichia_coli.txt" becomes "Escherichia coli".
func FormatFileName(name string) string {
	return strings.ReplaceAll(strings.TrimSuffix(name, ".txt"), "_", " ")
}

// OrganismPrefix is the GTDB-style species prefix found on some organism values.
const OrganismPrefix = "s__"

// OrganismKey normalizes an organism value for equality comparison.
func OrganismKey(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, OrganismPrefix)
	return strings.TrimSpace(v)
}
