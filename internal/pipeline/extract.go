package pipeline

import (
	"strings"

	"go.uber.org/zap"

	"github.com/Ntqsdigital/renewal/internal/model"
)

// ExtractOptions tunes row extraction.
type ExtractOptions struct {
	// DefaultEmail fills rows whose email cell is absent or empty.
	// Extraction still succeeds when this is empty; such agreements carry
	// an empty recipient and the dispatcher skips them.
	DefaultEmail string
	DayFirst     bool
}

// crlfStripper removes embedded CR/LF from cell values destined for
// message headers. Raw workbook cells can carry control characters that
// would otherwise corrupt outgoing headers.
var crlfStripper = strings.NewReplacer("\r", "", "\n", "")

// SanitizeEmail trims a raw cell value and strips embedded newlines and
// carriage returns.
func SanitizeEmail(raw string) string {
	return strings.TrimSpace(crlfStripper.Replace(raw))
}

// Extract transforms data rows (those after headerIdx) into Agreements.
// Rows whose expiry cell fails to parse are skipped and counted; fully
// blank rows are ignored silently. Row order is preserved.
func Extract(rows [][]string, headerIdx int, roles RoleMap, opts ExtractOptions) ([]model.Agreement, int) {
	var (
		agreements []model.Agreement
		skipped    int
	)

	expiry := roles[RoleExpiry]

	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if blankRow(row) {
			continue
		}

		date, ok := ParseDate(cell(row, expiry.Index), opts.DayFirst)
		if !ok {
			skipped++
			zap.L().Debug("extract: unparseable expiry, skipping row",
				zap.Int("row", i),
				zap.String("value", cell(row, expiry.Index)),
			)
			continue
		}

		a := model.Agreement{
			ExpiryDate:     date,
			Name:           strings.TrimSpace(roleCell(row, roles, RoleName)),
			Service:        strings.TrimSpace(roleCell(row, roles, RoleService)),
			Business:       strings.TrimSpace(roleCell(row, roles, RoleBusiness)),
			AttachmentPath: strings.TrimSpace(roleCell(row, roles, RolePath)),
		}

		a.Email = SanitizeEmail(roleCell(row, roles, RoleEmail))
		if a.Email == "" {
			a.Email = opts.DefaultEmail
		}

		a.DisplayName = displayName(row, roles, a.Email)

		agreements = append(agreements, a)
	}

	if skipped > 0 {
		zap.L().Info("extract: skipped rows with unparseable expiry dates",
			zap.Int("skipped", skipped),
		)
	}

	return agreements, skipped
}

// displayName resolves the agreement's display name by precedence:
// file-name column, then name column, then email, then a literal fallback.
func displayName(row []string, roles RoleMap, email string) string {
	if v := strings.TrimSpace(roleCell(row, roles, RoleFile)); v != "" {
		return v
	}
	if v := strings.TrimSpace(roleCell(row, roles, RoleName)); v != "" {
		return v
	}
	if email != "" {
		return email
	}
	return model.FallbackDisplayName
}

func roleCell(row []string, roles RoleMap, role Role) string {
	ref, ok := roles[role]
	if !ok {
		return ""
	}
	return cell(row, ref.Index)
}

// cell returns the value at idx, tolerating ragged rows.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
