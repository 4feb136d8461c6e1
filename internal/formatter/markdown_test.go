package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat_Empty(t *testing.T) {
	assert.Equal(t, NoResponse, Format(""))
	assert.Equal(t, NoResponse, Format(" \n\t "))
}

func TestFormat_CollapsesBlankRunsInStructuredText(t *testing.T) {
	assert.Equal(t, "### Answer\n\nX\n\nY", Format("### Answer\n\nX\n\n\n\nY"))
}

func TestFormat_StructuredTextOtherwiseUnchanged(t *testing.T) {
	in := "Key points:\n- NAV is per-unit value\n- AUM is total assets\n\nSee above."
	assert.Equal(t, in, Format(in))

	bullets := "Terms:\n* equity\n\n\n* bond"
	assert.Equal(t, "Terms:\n* equity\n\n* bond", Format(bullets))

	heading := "# Glossary\n\n\n   \nNAV means net asset value."
	assert.Equal(t, "# Glossary\n\nNAV means net asset value.", Format(heading))
}

func TestFormat_SingleSentence(t *testing.T) {
	assert.Equal(t, "### Answer\n\nNAV is net asset value.\n", Format("NAV is net asset value."))
	assert.Equal(t, "### Answer\n\nNAV is net asset value.\n", Format("NAV is net asset value"))
}

func TestFormat_AnswerAndDetails(t *testing.T) {
	got := Format("AUM means assets under management. It measures the total market value. Firms report it quarterly.")
	want := "### Answer\n\nAUM means assets under management.\n" +
		"\n### Details\n\nIt measures the total market value. Firms report it quarterly."
	assert.Equal(t, want, got)
}

func TestFormat_TrimsSurroundingWhitespace(t *testing.T) {
	assert.Equal(t, "### Answer\n\nInflation is rising prices.\n", Format("\n  Inflation is rising prices.  \n"))
}
