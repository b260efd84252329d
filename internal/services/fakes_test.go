package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"schoolhub/internal/authz"
	"schoolhub/internal/models"
	"schoolhub/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type memTenants struct {
	mu      sync.Mutex
	byID    map[string]*models.Tenant
	order   []string
	creates int
	saves   int
}

func newMemTenants(tenants ...*models.Tenant) *memTenants {
	m := &memTenants{byID: map[string]*models.Tenant{}}
	for _, t := range tenants {
		_ = m.Create(context.Background(), t)
	}
	m.creates = 0
	return m
}

func (m *memTenants) FindByID(_ context.Context, id string) (*models.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *t
	return &copied, nil
}

func (m *memTenants) List(ctx context.Context, page pagination.Params) ([]models.Tenant, int64, error) {
	all, _ := m.ListAll(ctx)
	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + page.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (m *memTenants) ListAll(context.Context) ([]models.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Tenant, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.byID[id])
	}
	return out, nil
}

func (m *memTenants) Create(_ context.Context, t *models.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[t.ID]; ok {
		return gorm.ErrDuplicatedKey
	}
	copied := *t
	m.byID[t.ID] = &copied
	m.order = append(m.order, t.ID)
	m.creates++
	return nil
}

func (m *memTenants) Save(_ context.Context, t *models.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *t
	m.byID[t.ID] = &copied
	m.saves++
	return nil
}

type memRoles struct {
	mu     sync.Mutex
	roles  map[string]map[string]*models.Role
	claims map[uuid.UUID][]models.RoleClaim
}

func newMemRoles() *memRoles {
	return &memRoles{
		roles:  map[string]map[string]*models.Role{},
		claims: map[uuid.UUID][]models.RoleClaim{},
	}
}

func (m *memRoles) FindByName(_ context.Context, tenant *models.Tenant, name string) (*models.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[tenant.ID][name]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *memRoles) FindByID(_ context.Context, tenant *models.Tenant, id uuid.UUID) (*models.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.roles[tenant.ID] {
		if r.ID == id {
			copied := *r
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRoles) List(_ context.Context, tenant *models.Tenant) ([]models.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Role, 0, len(m.roles[tenant.ID]))
	for _, r := range m.roles[tenant.ID] {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRoles) Create(_ context.Context, tenant *models.Tenant, role *models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.roles[tenant.ID] == nil {
		m.roles[tenant.ID] = map[string]*models.Role{}
	}
	if _, ok := m.roles[tenant.ID][role.Name]; ok {
		return gorm.ErrDuplicatedKey
	}
	role.ID = uuid.New()
	role.TenantID = tenant.ID
	copied := *role
	m.roles[tenant.ID][role.Name] = &copied
	return nil
}

func (m *memRoles) Claims(_ context.Context, _ *models.Tenant, role *models.Role) (authz.ClaimSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var set authz.ClaimSet
	for _, c := range m.claims[role.ID] {
		set = append(set, authz.NewClaim(authz.ClaimType(c.ClaimType), c.ClaimValue))
	}
	return set, nil
}

func (m *memRoles) AddClaim(_ context.Context, _ *models.Tenant, role *models.Role, claim *models.RoleClaim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.claims[role.ID] {
		if c.ClaimType == claim.ClaimType && c.ClaimValue == claim.ClaimValue {
			return nil
		}
	}
	claim.RoleID = role.ID
	m.claims[role.ID] = append(m.claims[role.ID], *claim)
	return nil
}

func (m *memRoles) ReplaceClaims(_ context.Context, _ *models.Tenant, role *models.Role, claimType string, claims []models.RoleClaim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.claims[role.ID][:0:0]
	for _, c := range m.claims[role.ID] {
		if c.ClaimType != claimType {
			kept = append(kept, c)
		}
	}
	for _, c := range claims {
		c.RoleID = role.ID
		c.ClaimType = claimType
		kept = append(kept, c)
	}
	m.claims[role.ID] = kept
	return nil
}

// grant attaches permission claims to a role, creating it when needed.
func (m *memRoles) grant(tenant *models.Tenant, roleName string, permissionNames ...string) *models.Role {
	role, err := m.FindByName(context.Background(), tenant, roleName)
	if err != nil {
		role = &models.Role{Name: roleName}
		_ = m.Create(context.Background(), tenant, role)
	}
	for _, p := range permissionNames {
		_ = m.AddClaim(context.Background(), tenant, role, &models.RoleClaim{ClaimType: string(authz.ClaimPermission), ClaimValue: p})
	}
	return role
}

type memUsers struct {
	mu     sync.Mutex
	roles  *memRoles
	users  map[uuid.UUID]*models.User
	links  map[uuid.UUID]map[uuid.UUID]bool
	claims map[uuid.UUID]authz.ClaimSet

	setCalls    int
	rotateCalls int
	// beforeRotate runs inside RotateRefreshToken before the comparison.
	beforeRotate func(u *models.User)
}

func newMemUsers(roles *memRoles) *memUsers {
	return &memUsers{
		roles:  roles,
		users:  map[uuid.UUID]*models.User{},
		links:  map[uuid.UUID]map[uuid.UUID]bool{},
		claims: map[uuid.UUID]authz.ClaimSet{},
	}
}

func (m *memUsers) find(tenant *models.Tenant, match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.TenantID == tenant.ID && match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUsers) FindByUsername(_ context.Context, tenant *models.Tenant, username string) (*models.User, error) {
	return m.find(tenant, func(u *models.User) bool { return strings.EqualFold(u.Username, username) })
}

func (m *memUsers) FindByEmail(_ context.Context, tenant *models.Tenant, email string) (*models.User, error) {
	return m.find(tenant, func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (m *memUsers) FindByID(_ context.Context, tenant *models.Tenant, id uuid.UUID) (*models.User, error) {
	return m.find(tenant, func(u *models.User) bool { return u.ID == id })
}

func (m *memUsers) Create(_ context.Context, tenant *models.Tenant, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.TenantID = tenant.ID
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *memUsers) RoleNames(_ context.Context, tenant *models.Tenant, user *models.User) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for name, role := range m.roles.roles[tenant.ID] {
		if m.links[user.ID][role.ID] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *memUsers) Claims(_ context.Context, _ *models.Tenant, user *models.User) (authz.ClaimSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append(authz.ClaimSet(nil), m.claims[user.ID]...), nil
}

func (m *memUsers) IsInRole(ctx context.Context, tenant *models.Tenant, user *models.User, roleName string) (bool, error) {
	role, err := m.roles.FindByName(ctx, tenant, roleName)
	if err != nil {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.links[user.ID][role.ID], nil
}

func (m *memUsers) AddToRole(ctx context.Context, tenant *models.Tenant, user *models.User, roleName string) error {
	role, err := m.roles.FindByName(ctx, tenant, roleName)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.links[user.ID] == nil {
		m.links[user.ID] = map[uuid.UUID]bool{}
	}
	m.links[user.ID][role.ID] = true
	return nil
}

func (m *memUsers) RemoveFromRole(ctx context.Context, tenant *models.Tenant, user *models.User, roleName string) error {
	role, err := m.roles.FindByName(ctx, tenant, roleName)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.links[user.ID], role.ID)
	return nil
}

func (m *memUsers) SetRefreshToken(_ context.Context, _ *models.Tenant, userID uuid.UUID, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	u := m.users[userID]
	u.RefreshToken = token
	u.RefreshTokenExpiryTime = &expiresAt
	return nil
}

func (m *memUsers) RotateRefreshToken(_ context.Context, _ *models.Tenant, userID uuid.UUID, current, next string, expiresAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotateCalls++
	u := m.users[userID]
	if m.beforeRotate != nil {
		m.beforeRotate(u)
	}
	if u.RefreshToken != current {
		return false, nil
	}
	u.RefreshToken = next
	u.RefreshTokenExpiryTime = &expiresAt
	return true, nil
}

func (m *memUsers) PurgeRefreshTokens(_ context.Context, tenant *models.Tenant, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if u.TenantID == tenant.ID && u.RefreshToken != "" && u.RefreshTokenExpiryTime != nil && u.RefreshTokenExpiryTime.Before(cutoff) {
			u.RefreshToken = ""
			u.RefreshTokenExpiryTime = nil
			n++
		}
	}
	return n, nil
}

// stored returns the live record, not a copy.
func (m *memUsers) stored(id uuid.UUID) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

type recordingInvalidator struct {
	ids []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, id string) {
	r.ids = append(r.ids, id)
}
