package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidStage(t *testing.T) {
	assert.True(t, validStage("outreach"))
	assert.True(t, validStage("followup"))
	assert.True(t, validStage("lastchance"))
	assert.False(t, validStage(""))
	assert.False(t, validStage("Outreach"))
	assert.False(t, validStage("done"))
}

func TestParseContactsCSVWithHeader(t *testing.T) {
	in := "email,name,company\n" +
		"a@example.com,Ada Lovelace,Analytical\n" +
		"b@example.com,,\n"

	contacts, err := parseContactsCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "a@example.com", contacts[0].Address)
	assert.Equal(t, "Ada Lovelace", contacts[0].Name)
	assert.Equal(t, "Analytical", contacts[0].Company)
	assert.Equal(t, "b@example.com", contacts[1].Address)
	assert.Empty(t, contacts[1].Name)
}

func TestParseContactsCSVPositional(t *testing.T) {
	in := "a@example.com,Ada,Analytical\nb@example.com\n"

	contacts, err := parseContactsCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "Ada", contacts[0].Name)
	assert.Equal(t, "b@example.com", contacts[1].Address)
	assert.Empty(t, contacts[1].Company)
}

func TestParseContactsCSVUnrecognizedHeaderIsData(t *testing.T) {
	// Only an address/email column marks a header row.
	in := "email2,name\nx,y\n"
	contacts, err := parseContactsCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Len(t, contacts, 2)
}

func TestParseContactsCSVEmpty(t *testing.T) {
	contacts, err := parseContactsCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, contacts)
}
