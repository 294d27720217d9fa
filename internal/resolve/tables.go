package resolve

import "github.com/amrverse/amrrulebrowser/internal/rules"

// AccessionURLs maps accession columns to the base URL the identifier is appended to.
var AccessionURLs = map[string]string{
	rules.ColProteinAccession:    "https://www.ncbi.nlm.nih.gov/protein/",
	rules.ColNucleotideAccession: "https://www.ncbi.nlm.nih.gov/nuccore/",
	rules.ColTxid:                "https://www.ncbi.nlm.nih.gov/Taxonomy/Browser/wwwtax.cgi?id=",
	rules.ColPMID:                "https://pubmed.ncbi.nlm.nih.gov/",
	rules.ColAROAccession:        "https://card.mcmaster.ca/aro/",
	rules.ColEvidenceCode:        "https://evidenceontology.org/term/",
	rules.ColNodeID:              "https://www.ncbi.nlm.nih.gov/pathogens/genehierarchy/#",
	rules.ColHMMAccession:        "https://www.ncbi.nlm.nih.gov/pathogens/hmm/#",
}

// TaxonomyURL is the base URL for organism links, keyed by the row's txid.
const TaxonomyURL = "https://www.ncbi.nlm.nih.gov/Taxonomy/Browser/wwwtax.cgi?id="

// OntologyURL is the CARD ontology base URL used for drug and drug class links.
const OntologyURL = "https://card.mcmaster.ca/aro/"

// EvidenceGradeTooltips describes each evidence grade.
var EvidenceGradeTooltips = map[string]string{
	"high":     "The curators are confident in the categorisation, and believe that the likelihood that the effect will be substantially different from this is low.",
	"moderate": "The curators believe that the categorisation most likely reflects the true effect, and the likelihood that the effect will be substantially different is moderate.",
	"low":      "The curators believe that the categorisation might not reflect the true effect, and the likelihood that the effect will be substantially different is high.",
	"very low": "The curators have no confidence that the categorisation reflects the true effect, and the likelihood that the effect will be substantially different is high.",
}

var headerTooltips = map[string]string{
	rules.ColRuleID:              "Unique identifier for the rule",
	rules.ColTxid:                "NCBI taxonomy ID",
	rules.ColOrganism:            "Organism name",
	rules.ColGene:                "Gene name",
	rules.ColNodeID:              "NCBI node ID",
	rules.ColProteinAccession:    "NCBI protein accession number",
	rules.ColHMMAccession:        "Hidden Markov Model accession number",
	rules.ColNucleotideAccession: "NCBI nucleotide accession number",
	rules.ColAROAccession:        "Antibiotic Resistance Ontology accession",
	rules.ColMutation:            "Specific mutation",
	rules.ColVariationType:       "Type of genetic variation",
	rules.ColGeneContext:         "Context information about the gene",
	rules.ColDrug:                "Drug name",
	rules.ColDrugClass:           "Drug classification",
	rules.ColPhenotype:           "Observable phenotype",
	rules.ColClinicalCategory:    "Clinical significance category",
	rules.ColBreakpoint:          "MIC breakpoint value",
	rules.ColBreakpointStandard:  "Standard for breakpoint (e.g., CLSI, EUCAST)",
	rules.ColBreakpointCondition: "Condition for breakpoint application",
	rules.ColPMID:                "PubMed article ID",
	rules.ColEvidenceCode:        "Evidence Ontology code",
	rules.ColEvidenceGrade:       "Grade of evidence quality",
	rules.ColEvidenceDescription: "Description of the evidence",
	rules.ColEvidenceLimitations: "Limitations of the evidence",
	rules.ColCurationNote:        "Curator notes about the rule",
}

const specBase = "https://amrrules.readthedocs.io/en/latest/specification.html"

var infoLinks = map[string]string{
	rules.ColVariationType: specBase + "#variation-type",
	rules.ColEvidenceCode:  specBase + "#evidence-codes",
	rules.ColMutation:      specBase + "#syntax-for-mutations",
}

// HeaderTooltip returns the description of a canonical column.
func HeaderTooltip(column string) (string, bool) {
	t, ok := headerTooltips[column]
	return t, ok
}

// InfoLink returns the specification page for a column, if there is one.
func InfoLink(column string) (string, bool) {
	u, ok := infoLinks[column]
	return u, ok
}
