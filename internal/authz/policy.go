package authz

import (
	"errors"
	"fmt"
	"sync"

	"schoolhub/internal/permissions"
)

// Well-known policy names served by the static provider.
const (
	PolicyAuthenticated = "Authenticated"
)

// ErrPolicyNotFound is returned when no provider knows the policy name.
var ErrPolicyNotFound = errors.New("authz: policy not found")

// Requirement is one condition of a policy. Handlers decide which
// requirements they can satisfy.
type Requirement interface {
	fmt.Stringer
}

// PermissionRequirement is met by a Permission claim whose value equals
// Permission.
type PermissionRequirement struct {
	Permission string
}

func (r PermissionRequirement) String() string {
	return "permission " + r.Permission
}

// AuthenticatedRequirement is met by any caller with a subject identifier.
type AuthenticatedRequirement struct{}

func (AuthenticatedRequirement) String() string { return "authenticated user" }

// Policy is a named set of requirements; all must be met.
type Policy struct {
	Name         string
	Requirements []Requirement
}

// PolicyProvider looks policies up by name.
type PolicyProvider interface {
	GetPolicy(name string) (*Policy, error)
}

// StaticPolicyProvider serves a fixed table of named policies.
type StaticPolicyProvider struct {
	mu       sync.RWMutex
	policies map[string]*Policy
}

// NewStaticPolicyProvider returns a provider holding only the Authenticated
// policy.
func NewStaticPolicyProvider() *StaticPolicyProvider {
	p := &StaticPolicyProvider{policies: make(map[string]*Policy)}
	p.Add(&Policy{Name: PolicyAuthenticated, Requirements: []Requirement{AuthenticatedRequirement{}}})
	return p
}

// Add registers policy, replacing any policy with the same name.
func (p *StaticPolicyProvider) Add(policy *Policy) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.policies[policy.Name] = policy
}

// GetPolicy returns the registered policy or ErrPolicyNotFound.
func (p *StaticPolicyProvider) GetPolicy(name string) (*Policy, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	policy, ok := p.policies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPolicyNotFound, name)
	}
	return policy, nil
}

// PermissionPolicyProvider turns any name following the permission naming
// convention into a single-requirement policy. Everything else goes to the
// fallback provider, so no permission needs a static registration.
type PermissionPolicyProvider struct {
	fallback PolicyProvider
	catalog  map[string]*Policy
}

// NewPermissionPolicyProvider prebuilds policies for the given catalog names;
// names outside the catalog are still synthesized on demand.
func NewPermissionPolicyProvider(fallback PolicyProvider, catalogNames []string) *PermissionPolicyProvider {
	catalog := make(map[string]*Policy, len(catalogNames))
	for _, name := range catalogNames {
		catalog[name] = permissionPolicy(name)
	}
	return &PermissionPolicyProvider{fallback: fallback, catalog: catalog}
}

func permissionPolicy(name string) *Policy {
	return &Policy{
		Name:         name,
		Requirements: []Requirement{PermissionRequirement{Permission: name}},
	}
}

// GetPolicy serves catalog and convention-named permissions, then defers to
// the fallback.
func (p *PermissionPolicyProvider) GetPolicy(name string) (*Policy, error) {
	if policy, ok := p.catalog[name]; ok {
		return policy, nil
	}
	if permissions.IsPermissionName(name) {
		return permissionPolicy(name), nil
	}
	if p.fallback == nil {
		return nil, fmt.Errorf("%w: %s", ErrPolicyNotFound, name)
	}
	return p.fallback.GetPolicy(name)
}

// Known reports whether name is one of the catalog permissions the provider
// was bootstrapped with.
func (p *PermissionPolicyProvider) Known(name string) bool {
	_, ok := p.catalog[name]
	return ok
}
