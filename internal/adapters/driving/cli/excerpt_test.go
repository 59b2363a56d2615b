package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
)

func TestExcerptCmd_Flags(t *testing.T) {
	flag := excerptCmd.Flags().Lookup("max-chars")
	require.NotNil(t, flag)
	assert.Equal(t, "1500", flag.DefValue)
	assert.NotNil(t, excerptCmd.Flags().Lookup("around"))
}

func TestExcerptCmd_PrintsExcerpt(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"excerpt", "978-3-8348-0907-0", "--max-chars", "300", "--around", "LIN"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Bussysteme in der Fahrzeugtechnik")
	assert.Contains(t, out, "ISBN 9783834809070")
	assert.Contains(t, out, "Protokolle und Standards")

	lib := testLibrary()
	assert.Equal(t, "978-3-8348-0907-0", lib.lastISBN)
	assert.Equal(t, "LIN", lib.lastAround)
	assert.Equal(t, 300, lib.lastChars)
}

func TestExcerptCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"excerpt", "--json", "9783834809070"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"source_hint": "comments"`)
	assert.Equal(t, 1500, testLibrary().lastChars)
}

func TestExcerptCmd_NotFound(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testLibrary().err = domain.ErrNotFound

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"excerpt", "0000000000"})

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
