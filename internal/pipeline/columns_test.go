package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyColumns_TypicalRegister(t *testing.T) {
	header := []string{"Client Name", "Contact Email", "Renewal Due", "File Path"}

	roles, err := ClassifyColumns(header, nil)
	require.NoError(t, err)

	assert.Equal(t, "Renewal Due", roles[RoleExpiry].Name)
	assert.Equal(t, "Contact Email", roles[RoleEmail].Name)
	assert.Equal(t, "Client Name", roles[RoleName].Name)
	assert.Equal(t, "File Path", roles[RolePath].Name)
}

func TestClassifyColumns_MissingExpiryFatal(t *testing.T) {
	header := []string{"Client Name", "Contact Email", "Notes"}

	_, err := ClassifyColumns(header, nil)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrMissingExpiryColumn))
}

func TestClassifyColumns_KeywordPriorityOverColumnOrder(t *testing.T) {
	// "expiry" outranks "due": the later Expiry column beats the earlier
	// Due column.
	header := []string{"Due Diligence", "Expiry"}

	roles, err := ClassifyColumns(header, nil)
	require.NoError(t, err)
	assert.Equal(t, "Expiry", roles[RoleExpiry].Name)
	assert.Equal(t, 1, roles[RoleExpiry].Index)
}

func TestClassifyColumns_FirstColumnWinsWithinKeyword(t *testing.T) {
	header := []string{"End Date", "End of Term"}

	roles, err := ClassifyColumns(header, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, roles[RoleExpiry].Index)
}

func TestClassifyColumns_SharedColumnAcrossRoles(t *testing.T) {
	// A lone "Contact" column serves both email and name.
	header := []string{"Contact", "Expires"}

	roles, err := ClassifyColumns(header, nil)
	require.NoError(t, err)
	assert.Equal(t, "Contact", roles[RoleEmail].Name)
	assert.Equal(t, "Contact", roles[RoleName].Name)
}

func TestClassifyColumns_ExtraKeywords(t *testing.T) {
	header := []string{"Kunde", "Gültig bis"}

	_, err := ClassifyColumns(header, nil)
	require.Error(t, err)

	roles, err := ClassifyColumns(header, map[Role][]string{
		RoleExpiry: {"gültig"},
		RoleName:   {"kunde"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Gültig bis", roles[RoleExpiry].Name)
	assert.Equal(t, "Kunde", roles[RoleName].Name)
}

func TestClassifyColumns_OptionalRolesAbsent(t *testing.T) {
	header := []string{"Expiry Date"}

	roles, err := ClassifyColumns(header, nil)
	require.NoError(t, err)

	_, hasEmail := roles[RoleEmail]
	_, hasService := roles[RoleService]
	assert.False(t, hasEmail)
	assert.False(t, hasService)
}

func TestLoadKeywords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	require.NoError(t, os.WriteFile(path, []byte("expiry: [renewal, valid until]\nbusiness: [vendor]\n"), 0644))

	kws, err := LoadKeywords(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"renewal", "valid until"}, kws[RoleExpiry])
	assert.Equal(t, []string{"vendor"}, kws[RoleBusiness])
}

func TestLoadKeywords_UnknownRole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	require.NoError(t, os.WriteFile(path, []byte("expiryy: [renewal]\n"), 0644))

	_, err := LoadKeywords(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}

func TestLoadKeywords_MissingFile(t *testing.T) {
	_, err := LoadKeywords(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
