package authz

import "schoolhub/internal/permissions"

// ClaimType names the kind of fact a claim states. The constants below are the
// types the system understands; directories may supply others.
type ClaimType string

// Built-in claim types.
const (
	ClaimNameIdentifier ClaimType = "NameIdentifier"
	ClaimEmail          ClaimType = "Email"
	ClaimName           ClaimType = "Name"
	ClaimTenant         ClaimType = "Tenant"
	ClaimPhone          ClaimType = "Phone"
	ClaimRole           ClaimType = "Role"
	ClaimPermission     ClaimType = permissions.Prefix
)

// Claim is one typed fact about a caller.
type Claim struct {
	Type  ClaimType `json:"type"`
	Value string    `json:"value"`
}

// NewClaim builds a claim of type t.
func NewClaim(t ClaimType, value string) Claim {
	return Claim{Type: t, Value: value}
}

// PermissionClaim is the claim granting the named permission.
func PermissionClaim(name string) Claim {
	return Claim{Type: ClaimPermission, Value: name}
}

// ClaimSet is an ordered bag of claims.
type ClaimSet []Claim

// Has reports whether the set holds a claim with exactly this type and value.
func (s ClaimSet) Has(t ClaimType, value string) bool {
	for _, c := range s {
		if c.Type == t && c.Value == value {
			return true
		}
	}
	return false
}

// First returns the value of the first claim of type t.
func (s ClaimSet) First(t ClaimType) (string, bool) {
	for _, c := range s {
		if c.Type == t {
			return c.Value, true
		}
	}
	return "", false
}

// Values returns every value of type t in order.
func (s ClaimSet) Values(t ClaimType) []string {
	var out []string
	for _, c := range s {
		if c.Type == t {
			out = append(out, c.Value)
		}
	}
	return out
}

// Union appends the claims of others that are not already present. Order of
// first occurrence is kept.
func (s ClaimSet) Union(others ...ClaimSet) ClaimSet {
	seen := make(map[Claim]struct{}, len(s))
	out := make(ClaimSet, 0, len(s))
	add := func(c Claim) {
		if _, dup := seen[c]; dup {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	for _, c := range s {
		add(c)
	}
	for _, o := range others {
		for _, c := range o {
			add(c)
		}
	}
	return out
}

// UserID is the subject identifier, or "" when absent.
func (s ClaimSet) UserID() string {
	v, _ := s.First(ClaimNameIdentifier)
	return v
}

// Email is the caller's email, or "" when absent.
func (s ClaimSet) Email() string {
	v, _ := s.First(ClaimEmail)
	return v
}

// Tenant is the id of the tenant the claims were issued for.
func (s ClaimSet) Tenant() string {
	v, _ := s.First(ClaimTenant)
	return v
}

// Permissions lists the granted permission names.
func (s ClaimSet) Permissions() []string {
	return s.Values(ClaimPermission)
}

// Roles lists the caller's role names.
func (s ClaimSet) Roles() []string {
	return s.Values(ClaimRole)
}
