package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRules = "ruleID\ttxid\torganism\tgene\tdrug\n" +
	"ECO0001\t562\ts__Escherichia coli\tblaCTX-M-15\tceftriaxone\n" +
	"ECO0002\t562\ts__Escherichia coli\tgyrA\n" +
	"KPN0001\t573\t Klebsiella pneumoniae \tompK36\tmeropenem  \n" +
	"\n" +
	"\t\t\t\t\n"

func TestParser_Parse(t *testing.T) {
	p := NewParser(nil)
	parsed := p.Parse(sampleRules)

	assert.Equal(t, 0, parsed.HeaderLineIndex)
	assert.Equal(t, []string{"ruleID", "txid", "organism", "gene", "drug"}, parsed.Header.Names())
	require.Len(t, parsed.Rows, 3)

	for _, r := range parsed.Rows {
		assert.Len(t, r.Values(), parsed.Header.Len())
	}

	assert.Equal(t, "ECO0001", parsed.Rows[0].Value("ruleID"))
	assert.Equal(t, "ceftriaxone", parsed.Rows[0].Value("drug"))
	// Missing trailing field defaults to empty.
	v, ok := parsed.Rows[1].Lookup("drug")
	assert.True(t, ok)
	assert.Equal(t, "", v)
	// Values are trimmed.
	assert.Equal(t, "Klebsiella pneumoniae", parsed.Rows[2].Value("organism"))
	assert.Equal(t, "meropenem", parsed.Rows[2].Value("drug"))
}

func TestParser_LeadingBlankLines(t *testing.T) {
	p := NewParser(nil)
	parsed := p.Parse("\n   \n\ta\tb\n1\t2\n")

	assert.Equal(t, 2, parsed.HeaderLineIndex)
	assert.Equal(t, []string{"", "a", "b"}, parsed.Header.Names())
	require.Len(t, parsed.Rows, 1)
	assert.Equal(t, "2", parsed.Rows[0].Value("a"))
}

func TestParser_EmptyInput(t *testing.T) {
	p := NewParser(nil)
	for _, in := range []string{"", "\n\n", "  \t \n"} {
		parsed := p.Parse(in)
		assert.Equal(t, -1, parsed.HeaderLineIndex)
		assert.Empty(t, parsed.Header.Names())
		assert.Empty(t, parsed.Rows)
	}
}

func TestParser_BlockedRuleIDs(t *testing.T) {
	content := "ruleID\tgene\n" +
		"KOX0008\tblaOXY\n" +
		"\"KOX0009\"\tblaOXY-2\n" +
		"KOX0010\tblaOXY-3\n"

	parsed := NewParser([]string{"KOX0008", " KOX0009 "}).Parse(content)
	require.Len(t, parsed.Rows, 1)
	assert.Equal(t, "KOX0010", parsed.Rows[0].Value("ruleID"))

	// Nothing is blocked by default.
	parsed = NewParser(nil).Parse(content)
	assert.Len(t, parsed.Rows, 3)
}

func TestParser_CarriageReturns(t *testing.T) {
	parsed := NewParser(nil).Parse("ruleID\tgene\r\nR1\tmecA\r\n\r\n")
	assert.Equal(t, []string{"ruleID", "gene"}, parsed.Header.Names())
	require.Len(t, parsed.Rows, 1)
	assert.Equal(t, "mecA", parsed.Rows[0].Value("gene"))
}

func TestParser_ExtraFieldsIgnored(t *testing.T) {
	parsed := NewParser(nil).Parse("a\tb\n1\t2\t3\t4\n")
	require.Len(t, parsed.Rows, 1)
	assert.Equal(t, []string{"1", "2"}, parsed.Rows[0].Values())
}

func TestParser_RowCountProperty(t *testing.T) {
	var b strings.Builder
	b.WriteString("ruleID\tgene\tdrug\n")
	kept := 0
	for i := 0; i < 50; i++ {
		switch i % 5 {
		case 0:
			b.WriteString("BLOCK\tx\ty\n")
		case 1:
			b.WriteString(" \t \t \n")
		default:
			b.WriteString("R\tg\n")
			kept++
		}
	}

	parsed := NewParser([]string{"BLOCK"}).Parse(b.String())
	assert.Len(t, parsed.Rows, kept)
	for _, r := range parsed.Rows {
		assert.Len(t, r.Values(), 3)
	}
}

func TestFile_Organisms(t *testing.T) {
	content := "ruleID\torganism\tgene\n" +
		"1\ts__Escherichia coli\ta\n" +
		"2\tEscherichia coli\tb\n" +
		"3\ts__Shigella flexneri\tc\n" +
		"4\ts__Salmonella enterica \td\n"
	f := NewFile("Enterobacterales.txt", content, NewParser(nil))

	assert.Equal(t, []string{"Escherichia coli", "Salmonella enterica", "Shigella flexneri"}, f.Organisms())

	rows := f.RowsForOrganism("s__Escherichia coli")
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0].Value("ruleID"))
	assert.Equal(t, "2", rows[1].Value("ruleID"))
}

func TestFile_OrganismsWithoutColumn(t *testing.T) {
	f := NewFile("x.txt", "ruleID\tgene\n1\ta\n", NewParser(nil))
	assert.Nil(t, f.Organisms())
}
