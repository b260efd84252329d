// Package permissions is the static registry of every action×feature
// permission the system knows about.
package permissions

import (
	"fmt"
	"strings"
)

// Prefix starts every permission name and doubles as the claim type that
// carries permissions.
const Prefix = "Permission"

// Actions
const (
	ActionRead                = "Read"
	ActionCreate              = "Create"
	ActionUpdate              = "Update"
	ActionDelete              = "Delete"
	ActionUpgradeSubscription = "UpgradeSubscription"
)

// Features
const (
	FeatureTenants    = "Tenants"
	FeatureUsers      = "Users"
	FeatureRoles      = "Roles"
	FeatureUserRoles  = "UserRoles"
	FeatureRoleClaims = "RoleClaims"
	FeatureSchools    = "Schools"
)

// Groups
const (
	GroupAcademics    = "Academics"
	GroupSystemAccess = "SystemAccess"
	GroupTenancy      = "Tenancy"
)

// Permission is an immutable catalog entry.
type Permission struct {
	Action      string
	Feature     string
	Description string
	Group       string
	IsBasic     bool
	IsRoot      bool
}

// Name is the policy name and claim value for p.
func (p Permission) Name() string {
	return NameFor(p.Action, p.Feature)
}

// NameFor builds "Permission.<feature>.<action>". Both policy names and claim
// values go through here.
func NameFor(action, feature string) string {
	return fmt.Sprintf("%s.%s.%s", Prefix, feature, action)
}

// IsPermissionName reports whether name follows the Permission.<feature>.<action>
// convention, whether or not the catalog knows it.
func IsPermissionName(name string) bool {
	parts := strings.Split(name, ".")
	if len(parts) != 3 || !strings.EqualFold(parts[0], Prefix) {
		return false
	}
	return parts[1] != "" && parts[2] != ""
}

var all = []Permission{
	{Action: ActionRead, Feature: FeatureTenants, Description: "Read Tenants", Group: GroupTenancy, IsRoot: true},
	{Action: ActionCreate, Feature: FeatureTenants, Description: "Create Tenants", Group: GroupTenancy, IsRoot: true},
	{Action: ActionUpdate, Feature: FeatureTenants, Description: "Update Tenants", Group: GroupTenancy, IsRoot: true},
	{Action: ActionUpgradeSubscription, Feature: FeatureTenants, Description: "Upgrade Tenant's Subscription", Group: GroupTenancy, IsRoot: true},

	{Action: ActionRead, Feature: FeatureUsers, Description: "Read Users", Group: GroupSystemAccess},
	{Action: ActionCreate, Feature: FeatureUsers, Description: "Create Users", Group: GroupSystemAccess},
	{Action: ActionUpdate, Feature: FeatureUsers, Description: "Update Users", Group: GroupSystemAccess},
	{Action: ActionDelete, Feature: FeatureUsers, Description: "Delete Users", Group: GroupSystemAccess},

	{Action: ActionRead, Feature: FeatureUserRoles, Description: "Read User Roles", Group: GroupSystemAccess},
	{Action: ActionUpdate, Feature: FeatureUserRoles, Description: "Update User Roles", Group: GroupSystemAccess},

	{Action: ActionRead, Feature: FeatureRoles, Description: "Read Roles", Group: GroupSystemAccess},
	{Action: ActionCreate, Feature: FeatureRoles, Description: "Create Roles", Group: GroupSystemAccess},
	{Action: ActionUpdate, Feature: FeatureRoles, Description: "Update Roles", Group: GroupSystemAccess},
	{Action: ActionDelete, Feature: FeatureRoles, Description: "Delete Roles", Group: GroupSystemAccess},

	{Action: ActionRead, Feature: FeatureRoleClaims, Description: "Read Role Claims/Permissions", Group: GroupSystemAccess},
	{Action: ActionUpdate, Feature: FeatureRoleClaims, Description: "Update Role Claims/Permissions", Group: GroupSystemAccess},

	{Action: ActionRead, Feature: FeatureSchools, Description: "Read Schools", Group: GroupAcademics},
	{Action: ActionCreate, Feature: FeatureSchools, Description: "Create Schools", Group: GroupAcademics, IsBasic: true},
	{Action: ActionUpdate, Feature: FeatureSchools, Description: "Update Schools", Group: GroupAcademics},
	{Action: ActionDelete, Feature: FeatureSchools, Description: "Delete Schools", Group: GroupAcademics},
}

// tier views, computed once at init
var (
	rootTier  = filter(func(p Permission) bool { return p.IsRoot })
	adminTier = filter(func(p Permission) bool { return !p.IsRoot })
	basicTier = filter(func(p Permission) bool { return p.IsBasic })
	byName    = index()
)

func filter(keep func(Permission) bool) []Permission {
	out := make([]Permission, 0, len(all))
	for _, p := range all {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func index() map[string]Permission {
	m := make(map[string]Permission, len(all))
	for _, p := range all {
		name := p.Name()
		if _, dup := m[name]; dup {
			panic("permissions: duplicate catalog entry " + name)
		}
		m[name] = p
	}
	return m
}

// The tier accessors return copies so callers cannot mutate the catalog.

// All is the whole catalog.
func All() []Permission { return clone(all) }

// Root is the tier only the root tenant's Admin role holds.
func Root() []Permission { return clone(rootTier) }

// Admin is every non-root permission.
func Admin() []Permission { return clone(adminTier) }

// Basic is the tier granted to the Basic role.
func Basic() []Permission { return clone(basicTier) }

func clone(ps []Permission) []Permission {
	out := make([]Permission, len(ps))
	copy(out, ps)
	return out
}

// Lookup finds a catalog entry by its name.
func Lookup(name string) (Permission, bool) {
	p, ok := byName[name]
	return p, ok
}

// Names lists every catalog name in catalog order.
func Names() []string {
	out := make([]string, 0, len(all))
	for _, p := range all {
		out = append(out, p.Name())
	}
	return out
}
