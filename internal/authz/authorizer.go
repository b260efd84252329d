package authz

import (
	"context"
)

// Context carries one evaluation: the caller's claims and which of the
// policy's requirements have been met so far.
type Context struct {
	Claims       ClaimSet
	requirements []Requirement
	succeeded    []bool
}

func newContext(claims ClaimSet, requirements []Requirement) *Context {
	return &Context{
		Claims:       claims,
		requirements: requirements,
		succeeded:    make([]bool, len(requirements)),
	}
}

// Pending lists the requirements nobody has satisfied yet.
func (c *Context) Pending() []Requirement {
	var out []Requirement
	for i, r := range c.requirements {
		if !c.succeeded[i] {
			out = append(out, r)
		}
	}
	return out
}

// Succeed marks every requirement equal to r as satisfied.
func (c *Context) Succeed(r Requirement) {
	for i, req := range c.requirements {
		if req == r {
			c.succeeded[i] = true
		}
	}
}

func (c *Context) allSucceeded() bool {
	for _, ok := range c.succeeded {
		if !ok {
			return false
		}
	}
	return true
}

// Handler inspects pending requirements and calls Succeed on the ones it can
// vouch for. Leaving a requirement untouched is how a handler says no.
type Handler interface {
	Handle(ctx context.Context, ac *Context) error
}

// PermissionHandler satisfies PermissionRequirements from Permission claims.
type PermissionHandler struct{}

// Handle succeeds every pending permission the caller holds a claim for.
func (PermissionHandler) Handle(_ context.Context, ac *Context) error {
	for _, r := range ac.Pending() {
		req, ok := r.(PermissionRequirement)
		if !ok {
			continue
		}
		if ac.Claims.Has(ClaimPermission, req.Permission) {
			ac.Succeed(req)
		}
	}
	return nil
}

// DenyAnonymousHandler satisfies AuthenticatedRequirement for callers that
// carry a subject identifier.
type DenyAnonymousHandler struct{}

// Handle succeeds AuthenticatedRequirement when the caller has a subject.
func (DenyAnonymousHandler) Handle(_ context.Context, ac *Context) error {
	if ac.Claims.UserID() == "" {
		return nil
	}
	for _, r := range ac.Pending() {
		if _, ok := r.(AuthenticatedRequirement); ok {
			ac.Succeed(r)
		}
	}
	return nil
}

// Result of an evaluation. Failed lists the requirements left unmet.
type Result struct {
	Policy    string
	Succeeded bool
	Failed    []Requirement
}

// Authorizer resolves a policy by name and runs every handler over it.
type Authorizer struct {
	provider PolicyProvider
	handlers []Handler
}

// NewAuthorizer creates an Authorizer that runs handlers in order.
func NewAuthorizer(provider PolicyProvider, handlers ...Handler) *Authorizer {
	return &Authorizer{provider: provider, handlers: handlers}
}

// NewDefaultAuthorizer wires the permission provider over a static fallback
// with the permission and authenticated-user handlers.
func NewDefaultAuthorizer(catalogNames []string) (*Authorizer, *PermissionPolicyProvider) {
	provider := NewPermissionPolicyProvider(NewStaticPolicyProvider(), catalogNames)
	return NewAuthorizer(provider, PermissionHandler{}, DenyAnonymousHandler{}), provider
}

// Authorize evaluates policyName against claims. A policy with no
// requirements succeeds.
func (a *Authorizer) Authorize(ctx context.Context, claims ClaimSet, policyName string) (Result, error) {
	policy, err := a.provider.GetPolicy(policyName)
	if err != nil {
		return Result{Policy: policyName}, err
	}

	ac := newContext(claims, policy.Requirements)
	for _, h := range a.handlers {
		if err := h.Handle(ctx, ac); err != nil {
			return Result{Policy: policy.Name}, err
		}
	}

	return Result{
		Policy:    policy.Name,
		Succeeded: ac.allSucceeded(),
		Failed:    ac.Pending(),
	}, nil
}
