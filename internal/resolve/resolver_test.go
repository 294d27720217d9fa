package resolve

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amrverse/amrrulebrowser/internal/lookup"
	"github.com/amrverse/amrrulebrowser/internal/rules"
)

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	mapping := "ARO\tdrug\tclass\n" +
		"ARO:3000643\tceftriaxone\t-\n" +
		"ARO:0000050\t-\tcephalosporin\n" +
		"ARO:3000104\tkanamycin A\t-\n"
	tables, err := lookup.LoadReferenceMapping(strings.NewReader(mapping), lookup.NewNormalizer(lookup.DefaultCorrections))
	require.NoError(t, err)
	return New(tables)
}

func row(t *testing.T, kv ...string) rules.Row {
	t.Helper()
	var names, values []string
	for i := 0; i+1 < len(kv); i += 2 {
		names = append(names, kv[i])
		values = append(values, kv[i+1])
	}
	r, err := rules.NewRow(rules.NewHeader(names), values)
	require.NoError(t, err)
	return r
}

func TestResolve_Placeholders(t *testing.T) {
	r := testResolver(t)
	empty := row(t)
	for _, col := range []string{"PMID", "drug", "organism", "gene"} {
		for _, v := range []string{"", "-", "   ", " - "} {
			c := r.Resolve(col, v, empty)
			require.Len(t, c, 1)
			assert.Equal(t, KindPlain, c[0].Kind, "%s=%q", col, v)
		}
	}
}

func TestResolve_AROAccession(t *testing.T) {
	r := testResolver(t)
	c := r.Resolve("ARO accession", "ARO:3000001", row(t))

	require.Len(t, c, 1)
	assert.Equal(t, KindLink, c[0].Kind)
	assert.Equal(t, "ARO:3000001", c[0].Text)
	assert.Equal(t, "https://card.mcmaster.ca/aro/3000001", c[0].URL)
	assert.True(t, strings.HasSuffix(c[0].URL, "/3000001"))
}

func TestResolve_MultipleAccessions(t *testing.T) {
	r := testResolver(t)
	c := r.Resolve("protein accession", `"WP_000027057.1", WP_000027058.1;WP_1`, row(t))

	require.Len(t, c, 3)
	assert.Equal(t, "WP_000027057.1", c[0].Text)
	assert.Equal(t, "https://www.ncbi.nlm.nih.gov/protein/WP_000027057.1", c[0].URL)
	assert.Equal(t, "WP_000027058.1", c[1].Text)
	assert.Equal(t, "WP_1", c[2].Text)
	assert.Equal(t,
		`<a href="https://www.ncbi.nlm.nih.gov/protein/WP_000027057.1" target="_blank">WP_000027057.1</a>, `+
			`<a href="https://www.ncbi.nlm.nih.gov/protein/WP_000027058.1" target="_blank">WP_000027058.1</a>, `+
			`<a href="https://www.ncbi.nlm.nih.gov/protein/WP_1" target="_blank">WP_1</a>`,
		c.HTML())
}

func TestResolve_SingleAccessionKeepsOriginalText(t *testing.T) {
	r := testResolver(t)
	c := r.Resolve("PMID", ` "12345" `, row(t))

	require.Len(t, c, 1)
	assert.Equal(t, `"12345"`, c[0].Text)
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/12345", c[0].URL)
}

func TestResolve_AccessionEncoding(t *testing.T) {
	r := testResolver(t)

	c := r.Resolve("nodeID", "blaCTX-M/x:1", row(t))
	require.Len(t, c, 1)
	assert.Equal(t, "https://www.ncbi.nlm.nih.gov/pathogens/genehierarchy/#blaCTX-M%2Fx:1", c[0].URL)

	c = r.Resolve("HMM accession", "NF000185.1", row(t))
	assert.Equal(t, "https://www.ncbi.nlm.nih.gov/pathogens/hmm/#NF000185.1", c[0].URL)
}

func TestResolve_EvidenceCode(t *testing.T) {
	r := testResolver(t)
	c := r.Resolve("evidence code", "ECO:0000033, some text", row(t))

	require.Len(t, c, 2)
	assert.Equal(t, KindLink, c[0].Kind)
	assert.Equal(t, "ECO:0000033", c[0].Text)
	assert.Equal(t, "https://evidenceontology.org/term/ECO:0000033", c[0].URL)
	assert.Equal(t, KindPlain, c[1].Kind)
	assert.Equal(t, "some text", c[1].Text)
}

func TestResolve_EvidenceCodeKeepsEntryText(t *testing.T) {
	r := testResolver(t)
	c := r.Resolve("evidence code", `"ECO:0001091 knockout phenotypic evidence"; ECO:0000012`, row(t))

	require.Len(t, c, 2)
	assert.Equal(t, "ECO:0001091 knockout phenotypic evidence", c[0].Text)
	assert.Equal(t, "https://evidenceontology.org/term/ECO:0001091", c[0].URL)
	assert.Equal(t, "https://evidenceontology.org/term/ECO:0000012", c[1].URL)
}

func TestResolve_OrganismTaxonomy(t *testing.T) {
	r := testResolver(t)

	c := r.Resolve("organism", "s__Escherichia coli", row(t, "txid", "562", "organism", "s__Escherichia coli"))
	require.Len(t, c, 1)
	assert.Equal(t, KindLink, c[0].Kind)
	assert.Equal(t, "Escherichia coli", c[0].Text)
	assert.Equal(t, TaxonomyURL+"562", c[0].URL)

	c = r.Resolve("organism", "s__Escherichia coli", row(t, "txid", "-"))
	assert.Equal(t, Plain("Escherichia coli"), c)

	c = r.Resolve("organism", "s__", row(t, "txid", "562"))
	assert.Equal(t, Plain(""), c)
}

func TestResolve_DrugLookup(t *testing.T) {
	r := testResolver(t)

	c := r.Resolve("drug", "Ceftriaxone", row(t))
	assert.Equal(t, Link("Ceftriaxone", "https://card.mcmaster.ca/aro/3000643"), c)

	c = r.Resolve("drug", "kanamycin", row(t))
	assert.Equal(t, Link("kanamycin", "https://card.mcmaster.ca/aro/3000104"), c)

	c = r.Resolve("drug class", "Cephalosporin", row(t))
	assert.Equal(t, Link("Cephalosporin", "https://card.mcmaster.ca/aro/0000050"), c)

	c = r.Resolve("drug", "<unknown> & co", row(t))
	assert.Equal(t, Plain("<unknown> & co"), c)
	assert.Equal(t, "&lt;unknown&gt; &amp; co", c.HTML())
}

func TestResolve_EvidenceGrade(t *testing.T) {
	r := testResolver(t)

	c := r.Resolve("evidence grade", "Very Low", row(t))
	require.Len(t, c, 1)
	assert.Equal(t, KindAnnotated, c[0].Kind)
	assert.Equal(t, EvidenceGradeTooltips["very low"], c[0].Tooltip)
	assert.True(t, strings.HasPrefix(c.HTML(), `<span title="The curators have no confidence`))

	c = r.Resolve("evidence grade", "unclear", row(t))
	assert.Equal(t, Plain("unclear"), c)
}

func TestResolve_CurationNoteQuotes(t *testing.T) {
	r := testResolver(t)
	c := r.Resolve("rule curation note", `"uses the "quoted" form"`, row(t))
	assert.Equal(t, Plain(`uses the "quoted" form`), c)
	assert.Equal(t, "uses the &#34;quoted&#34; form", c.HTML())
}

func TestResolve_CustomPolicy(t *testing.T) {
	r := testResolver(t)
	r.Add(Policy{
		Name:    "gene",
		Columns: []string{"gene"},
		Apply: func(in Input) (Cell, bool) {
			return Link(in.Value, "https://example.org/"+in.Value), true
		},
	})

	assert.Equal(t, Link("mecA", "https://example.org/mecA"), r.Resolve("gene", "mecA", row(t)))
	assert.Equal(t, "gene", r.Policies()[len(r.Policies())-1])
}

func TestEncodeComponent(t *testing.T) {
	assert.Equal(t, "abc-_.!~*'()", encodeComponent("abc-_.!~*'()"))
	assert.Equal(t, "a%20b%2Fc%3Ad%C3%A9", encodeComponent("a b/c:dé"))
}

func TestRenderTable(t *testing.T) {
	r := testResolver(t)
	h := rules.NewHeader([]string{"ruleID", "drug", "evidence code"})
	rr, err := rules.NewRow(h, []string{"R1", "ceftriaxone", "ECO:0000033"})
	require.NoError(t, err)

	var buf bytes.Buffer
	err = r.RenderTable(&buf, []string{"ruleID", "drug", "evidence code"}, []rules.Row{rr}, TableOptions{SortColumn: "drug"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `<th title="Unique identifier for the rule">ruleID</th>`)
	assert.Contains(t, out, "drug ↑")
	assert.Contains(t, out, `class="info-icon"`)
	assert.Contains(t, out, `<td><a href="https://card.mcmaster.ca/aro/3000643" target="_blank">ceftriaxone</a></td>`)
	assert.Contains(t, out, `<td>R1</td>`)
}
