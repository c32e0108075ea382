package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ntqsdigital/renewal/internal/model"
)

func testRoles(t *testing.T, header []string) RoleMap {
	t.Helper()
	roles, err := ClassifyColumns(header, nil)
	require.NoError(t, err)
	return roles
}

func TestExtract_Basic(t *testing.T) {
	rows := [][]string{
		{"Client Name", "Contact Email", "Expiry Date", "Service", "Business Unit"},
		{"Acme Corp", "ops@acme.com", "2024-06-04", "Hosting", "Acme"},
		{"Globex", "it@globex.com", "2024-07-01", "Support", ""},
	}

	agreements, skipped := Extract(rows, 0, testRoles(t, rows[0]), ExtractOptions{DayFirst: true})
	require.Len(t, agreements, 2)
	assert.Equal(t, 0, skipped)

	a := agreements[0]
	assert.Equal(t, "Acme Corp", a.DisplayName)
	assert.Equal(t, "Acme Corp", a.Name)
	assert.Equal(t, "ops@acme.com", a.Email)
	assert.Equal(t, date(2024, time.June, 4), a.ExpiryDate)
	assert.Equal(t, "Hosting", a.Service)
	assert.Equal(t, "Acme", a.Business)
}

func TestExtract_SkipsUnparseableDates(t *testing.T) {
	rows := [][]string{
		{"Name", "Email", "Expiry"},
		{"Good", "a@b.com", "2024-06-04"},
		{"Bad", "c@d.com", "pending"},
		{"Also Good", "e@f.com", "2024-06-05"},
	}

	agreements, skipped := Extract(rows, 0, testRoles(t, rows[0]), ExtractOptions{DayFirst: true})
	require.Len(t, agreements, 2)
	assert.Equal(t, 1, skipped)
	// Row order preserved.
	assert.Equal(t, "Good", agreements[0].DisplayName)
	assert.Equal(t, "Also Good", agreements[1].DisplayName)
}

func TestExtract_BlankRowsIgnoredSilently(t *testing.T) {
	rows := [][]string{
		{"Name", "Email", "Expiry"},
		{"", "", ""},
		{"Good", "a@b.com", "2024-06-04"},
		{},
	}

	agreements, skipped := Extract(rows, 0, testRoles(t, rows[0]), ExtractOptions{DayFirst: true})
	require.Len(t, agreements, 1)
	assert.Equal(t, 0, skipped)
}

func TestExtract_EmailSanitized(t *testing.T) {
	rows := [][]string{
		{"Name", "Email", "Expiry"},
		{"Acme", "a@b.com\r\n", "2024-06-04"},
	}

	agreements, _ := Extract(rows, 0, testRoles(t, rows[0]), ExtractOptions{DayFirst: true})
	require.Len(t, agreements, 1)
	assert.Equal(t, "a@b.com", agreements[0].Email)
}

func TestExtract_DefaultEmailFallback(t *testing.T) {
	rows := [][]string{
		{"Name", "Email", "Expiry"},
		{"Acme", "  ", "2024-06-04"},
	}

	agreements, _ := Extract(rows, 0, testRoles(t, rows[0]), ExtractOptions{
		DefaultEmail: "fallback@ntqs.example",
		DayFirst:     true,
	})
	require.Len(t, agreements, 1)
	assert.Equal(t, "fallback@ntqs.example", agreements[0].Email)
}

func TestExtract_DisplayNamePrecedence(t *testing.T) {
	rows := [][]string{
		{"File Name", "Client", "Email", "Expiry"},
		{"contract-7.pdf", "Acme", "a@b.com", "2024-06-04"},
		{"", "Acme", "a@b.com", "2024-06-04"},
		{"", "", "a@b.com", "2024-06-04"},
	}

	agreements, _ := Extract(rows, 0, testRoles(t, rows[0]), ExtractOptions{DayFirst: true})
	require.Len(t, agreements, 3)
	assert.Equal(t, "contract-7.pdf", agreements[0].DisplayName)
	assert.Equal(t, "Acme", agreements[1].DisplayName)
	assert.Equal(t, "a@b.com", agreements[2].DisplayName)
}

func TestExtract_FallbackDisplayName(t *testing.T) {
	rows := [][]string{
		{"Expiry"},
		{"2024-06-04"},
	}

	agreements, _ := Extract(rows, 0, testRoles(t, rows[0]), ExtractOptions{DayFirst: true})
	require.Len(t, agreements, 1)
	assert.Equal(t, model.FallbackDisplayName, agreements[0].DisplayName)
	assert.Empty(t, agreements[0].Email)
}

func TestExtract_RaggedRows(t *testing.T) {
	// Data row shorter than the header must not panic.
	rows := [][]string{
		{"Name", "Email", "Expiry"},
		{"Acme"},
	}

	agreements, skipped := Extract(rows, 0, testRoles(t, rows[0]), ExtractOptions{DayFirst: true})
	assert.Empty(t, agreements)
	assert.Equal(t, 1, skipped)
}

func TestSanitizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", SanitizeEmail(" a@b.com\r\n"))
	assert.Equal(t, "a@b.combcc:x@y.z", SanitizeEmail("a@b.com\r\nbcc:x@y.z"))
	assert.Equal(t, "", SanitizeEmail("\r\n "))
}
