package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amrverse/amrrulebrowser/internal/rules"
	"github.com/amrverse/amrrulebrowser/internal/store"
)

const (
	ecoliRules = "ruleID\torganism\tgene\tdrug\tbreakpoint\n" +
		"ECO0001\ts__Escherichia coli\tblaCTX-M-15\tceftriaxone\t10\n" +
		"ECO0002\ts__Escherichia coli\tgyrA\tciprofloxacin\t2\n" +
		"ECO0003\ts__Escherichia coli\tqnrS1\tCiprofloxacin\t1.5\n"
	mixedRules = "ruleID\torganism\tgene\tcustom note\n" +
		"MIX0001\ts__Klebsiella pneumoniae\tblaSHV-1\tfirst\n" +
		"MIX0002\ts__Klebsiella variicola\tblaLEN\tsecond\n" +
		"MIX0003\tKlebsiella quasipneumoniae\tblaOKP\tthird\n" +
		"MIX0004\ts__Klebsiella pneumoniae \tompK36\tfourth\n"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	p := rules.NewParser(nil)
	st := store.New()
	st.Upsert("Escherichia_coli.txt", rules.NewFile("Escherichia_coli.txt", ecoliRules, p))
	st.Upsert("Klebsiella.txt", rules.NewFile("Klebsiella.txt", mixedRules, p))
	return NewEngine(st)
}

func ruleIDs(rows []rules.Row) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.Value(rules.ColRuleID)
	}
	return ids
}

func TestEngine_BrowseAll(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Browse(Selection{})
	require.NoError(t, err)
	assert.Equal(t, ModeBrowse, res.Mode)
	assert.Len(t, res.Rows, 7)
	assert.Equal(t, "Displaying 7 row(s).", res.Message)
	assert.Equal(t,
		[]string{"ruleID", "organism", "gene", "drug", "breakpoint", "custom note"},
		res.Headers)
}

func TestEngine_BrowseFile(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Browse(Selection{File: "Escherichia_coli.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ECO0001", "ECO0002", "ECO0003"}, ruleIDs(res.Rows))
	assert.Equal(t, []string{"ruleID", "organism", "gene", "drug", "breakpoint"}, res.Headers)

	_, err = e.Browse(Selection{File: "missing.txt"})
	assert.ErrorIs(t, err, ErrUnknownFile)
}

func TestEngine_BrowseOrganism(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Browse(Selection{File: "Klebsiella.txt", Organism: "Klebsiella pneumoniae"})
	require.NoError(t, err)
	assert.Equal(t, []string{"MIX0001", "MIX0004"}, ruleIDs(res.Rows))
	assert.Equal(t, "Displaying 2 row(s).", res.Message)

	res, err = e.Browse(Selection{File: "Klebsiella.txt", Organism: "s__Klebsiella quasipneumoniae"})
	require.NoError(t, err)
	assert.Equal(t, []string{"MIX0003"}, ruleIDs(res.Rows))
	assert.Equal(t, "Klebsiella quasipneumoniae", res.Selection.Organism)
}

func TestEngine_BrowseOptions(t *testing.T) {
	e := newTestEngine(t)

	opts := e.BrowseOptions()
	var labels []string
	for _, o := range opts {
		labels = append(labels, o.Label)
	}
	assert.Equal(t, []string{
		"All organisms",
		"Escherichia coli",
		"Klebsiella",
		"Klebsiella: Klebsiella pneumoniae",
		"Klebsiella: Klebsiella quasipneumoniae",
		"Klebsiella: Klebsiella variicola",
	}, labels)
	assert.True(t, opts[0].Selection.IsAll())
	assert.Equal(t, Selection{File: "Klebsiella.txt", Organism: "Klebsiella variicola"}, opts[5].Selection)

	// Selecting an organism option returns only that organism's rows.
	res, err := e.Browse(opts[5].Selection)
	require.NoError(t, err)
	assert.Equal(t, []string{"MIX0002"}, ruleIDs(res.Rows))
}

func TestEngine_FilterBrowse(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.FilterBrowse("gyr", "")
	assert.ErrorIs(t, err, ErrNotBrowsing)

	_, err = e.Browse(Selection{File: "Escherichia_coli.txt"})
	require.NoError(t, err)

	res, err := e.FilterBrowse("  CIPRO ", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ECO0002", "ECO0003"}, ruleIDs(res.Rows))
	assert.Equal(t, "Found 2 match(es) in browse results.", res.Message)

	res, err = e.FilterBrowse("cipro", "gene")
	require.NoError(t, err)
	assert.Empty(t, res.Rows)

	// An empty term leaves the working set alone.
	_, err = e.FilterBrowse("   ", "")
	assert.ErrorIs(t, err, ErrEmptyTerm)

	res, err = e.ClearFilter()
	require.NoError(t, err)
	assert.Len(t, res.Rows, 3)
	assert.Equal(t, "Displaying 3 row(s).", res.Message)
}

func TestEngine_Search(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Search("bla", AllColumns)
	require.NoError(t, err)
	assert.Equal(t, ModeSearch, res.Mode)
	assert.Equal(t, []string{"ECO0001", "MIX0001", "MIX0002", "MIX0003"}, ruleIDs(res.Rows))
	assert.Equal(t, "Found 4 match(es).", res.Message)

	// Headers only come from files that contributed a match.
	res, err = e.Search("ompk36", "gene")
	require.NoError(t, err)
	assert.Equal(t, []string{"MIX0004"}, ruleIDs(res.Rows))
	assert.Equal(t, []string{"ruleID", "organism", "gene", "custom note"}, res.Headers)

	// Column scope excludes rows lacking the column.
	res, err = e.Search("c", "drug")
	require.NoError(t, err)
	assert.Equal(t, []string{"ECO0001", "ECO0002", "ECO0003"}, ruleIDs(res.Rows))

	res, err = e.Search("zzz", "")
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Equal(t, "Found 0 match(es).", res.Message)
}

func TestEngine_SearchEmptyTerm(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Browse(Selection{})
	require.NoError(t, err)

	res, err := e.Search("  ", "")
	assert.ErrorIs(t, err, ErrEmptyTerm)
	assert.Equal(t, "Please enter a search term.", UserMessage(err))
	assert.Empty(t, res.Rows)
	assert.Empty(t, res.Headers)
}

func TestEngine_NoData(t *testing.T) {
	e := NewEngine(store.New())

	_, err := e.Browse(Selection{})
	assert.ErrorIs(t, err, ErrNoData)
	assert.Equal(t, "No files loaded.", UserMessage(err))

	_, err = e.Search("x", "")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestEngine_NumericSort(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Browse(Selection{File: "Escherichia_coli.txt"})
	require.NoError(t, err)

	res, err := e.SortBy("breakpoint")
	require.NoError(t, err)
	var values []string
	for _, r := range res.Rows {
		values = append(values, r.Value("breakpoint"))
	}
	assert.Equal(t, []string{"1.5", "2", "10"}, values)
	assert.Equal(t, "breakpoint", res.SortColumn)
	assert.False(t, res.Descending)

	res, err = e.SortBy("breakpoint")
	require.NoError(t, err)
	assert.True(t, res.Descending)
	assert.Equal(t, []string{"ECO0001", "ECO0002", "ECO0003"}, ruleIDs(res.Rows))
}

func TestEngine_SortStableAndToggle(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Browse(Selection{File: "Escherichia_coli.txt"})
	require.NoError(t, err)

	// "ciprofloxacin" and "Ciprofloxacin" are equal keys case-insensitively.
	res, err := e.SortBy("drug")
	require.NoError(t, err)
	assert.Equal(t, []string{"ECO0001", "ECO0002", "ECO0003"}, ruleIDs(res.Rows))

	res, err = e.SetSort("drug", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"ECO0001", "ECO0002", "ECO0003"}, ruleIDs(res.Rows))

	res, err = e.SortBy("gene")
	require.NoError(t, err)
	asc := ruleIDs(res.Rows)
	assert.Equal(t, []string{"ECO0001", "ECO0002", "ECO0003"}, asc)

	res, err = e.SortBy("gene")
	require.NoError(t, err)
	assert.Equal(t, []string{"ECO0003", "ECO0002", "ECO0001"}, ruleIDs(res.Rows))
}

func TestEngine_SortResetsOnNewQuery(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Browse(Selection{})
	require.NoError(t, err)
	_, err = e.SortBy("gene")
	require.NoError(t, err)

	res, err := e.Browse(Selection{File: "Klebsiella.txt"})
	require.NoError(t, err)
	assert.Empty(t, res.SortColumn)
	assert.False(t, res.Descending)

	_, err = e.SortBy("not a column")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestSorter_Compare(t *testing.T) {
	s := newSorter()
	tests := []struct {
		a, b string
		want int
	}{
		{"2", "10", -1},
		{"-1", "0.5", -1},
		{".5", "0.4", 1},
		{"1e3", "2", -1}, // exponent is text
		{"1,000", "2", -1},
		{"Apple", "apple", 0},
		{"", "a", -1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			got := s.compare(tt.a, tt.b)
			switch {
			case tt.want < 0:
				assert.Negative(t, got)
			case tt.want > 0:
				assert.Positive(t, got)
			default:
				assert.Zero(t, got)
			}
		})
	}
}

func TestEngine_SearchColumns(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t,
		[]string{"ruleID", "organism", "gene", "drug", "breakpoint", "custom note"},
		e.SearchColumns())
}
