package pipeline

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Role is the semantic meaning assigned to a workbook column.
type Role string

const (
	RoleExpiry   Role = "expiry"
	RoleEmail    Role = "email"
	RoleName     Role = "name"
	RoleFile     Role = "file"
	RolePath     Role = "path"
	RoleService  Role = "service"
	RoleBusiness Role = "business"
)

// ErrMissingExpiryColumn is fatal: without a date axis the batch cannot
// proceed.
var ErrMissingExpiryColumn = eris.New("columns: no expiry column detected")

// ColumnRef points at one resolved column.
type ColumnRef struct {
	Index int
	Name  string
}

// RoleMap is the resolved correspondence between roles and workbook
// columns for one loaded table. A role is absent when no column name
// contains any of its keywords.
type RoleMap map[Role]ColumnRef

// roleKeywords pairs a role with its keyword list in priority order.
// Evaluation is deterministic: keywords outer, columns in original order
// inner, first containment match wins.
type roleKeywords struct {
	role     Role
	keywords []string
}

var defaultKeywords = []roleKeywords{
	{RoleExpiry, []string{"expiry", "due", "end", "expires"}},
	{RoleEmail, []string{"email", "contact"}},
	{RoleName, []string{"name", "client", "contact", "customer", "person"}},
	{RoleFile, []string{"file", "filename"}},
	{RolePath, []string{"path"}},
	{RoleService, []string{"service"}},
	{RoleBusiness, []string{"business", "client", "company"}},
}

// ClassifyColumns assigns a role to each recognizable column by ordered
// keyword-substring matching. Extra keywords per role are appended after
// the built-in list, keeping the shipped vocabulary's priority. A missing
// expiry column returns ErrMissingExpiryColumn.
func ClassifyColumns(header []string, extra map[Role][]string) (RoleMap, error) {
	lowered := make([]string, len(header))
	for i, name := range header {
		lowered[i] = strings.ToLower(strings.TrimSpace(name))
	}

	roles := make(RoleMap)
	for _, rk := range defaultKeywords {
		keywords := rk.keywords
		if more := extra[rk.role]; len(more) > 0 {
			keywords = append(append([]string{}, keywords...), more...)
		}

	match:
		for _, kw := range keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			for i, name := range lowered {
				if name != "" && strings.Contains(name, kw) {
					roles[rk.role] = ColumnRef{Index: i, Name: header[i]}
					break match
				}
			}
		}
	}

	if _, ok := roles[RoleExpiry]; !ok {
		return nil, ErrMissingExpiryColumn
	}

	return roles, nil
}

// LoadKeywords reads a role→keywords YAML document, e.g.:
//
//	expiry: [renewal, valid until]
//	business: [vendor]
//
// Unknown role names are rejected so vocabulary typos surface immediately.
func LoadKeywords(path string) (map[Role][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "columns: read keywords file")
	}

	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "columns: parse keywords file")
	}

	known := make(map[Role]bool, len(defaultKeywords))
	for _, rk := range defaultKeywords {
		known[rk.role] = true
	}

	out := make(map[Role][]string, len(raw))
	for name, kws := range raw {
		role := Role(name)
		if !known[role] {
			return nil, eris.Errorf("columns: unknown role %q in keywords file", name)
		}
		out[role] = kws
	}

	return out, nil
}
