package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"schoolhub/internal/authz"
	"schoolhub/internal/handlers"
	"schoolhub/internal/middleware"
	"schoolhub/internal/models"
	"schoolhub/internal/permissions"
	"schoolhub/internal/services"
	"schoolhub/internal/tenancy"
	"schoolhub/pkg/config"
	"schoolhub/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const secret = "0123456789abcdef0123456789abcdef"

func init() {
	gin.SetMode(gin.TestMode)
}

type tenantTable map[string]*models.Tenant

func (t tenantTable) FindByID(_ context.Context, id string) (*models.Tenant, error) {
	if tenant, ok := t[id]; ok {
		copied := *tenant
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// oneRole is a directory holding the single Basic role.
type oneRole struct {
	services.RoleDirectory
	role models.Role
}

func (d *oneRole) FindByID(_ context.Context, _ *models.Tenant, id uuid.UUID) (*models.Role, error) {
	if id != d.role.ID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := d.role
	return &copied, nil
}

func (d *oneRole) FindByName(_ context.Context, _ *models.Tenant, name string) (*models.Role, error) {
	if name != d.role.Name {
		return nil, gorm.ErrRecordNotFound
	}
	copied := d.role
	return &copied, nil
}

func (d *oneRole) List(context.Context, *models.Tenant) ([]models.Role, error) {
	return []models.Role{d.role}, nil
}

func (d *oneRole) Claims(context.Context, *models.Tenant, *models.Role) (authz.ClaimSet, error) {
	return nil, nil
}

func (d *oneRole) ReplaceClaims(context.Context, *models.Tenant, *models.Role, string, []models.RoleClaim) error {
	return nil
}

// oneUser is a directory holding a single user with no roles.
type oneUser struct {
	services.UserDirectory
	user models.User
}

func (d *oneUser) FindByID(_ context.Context, _ *models.Tenant, id uuid.UUID) (*models.User, error) {
	if id != d.user.ID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := d.user
	return &copied, nil
}

func (d *oneUser) RoleNames(context.Context, *models.Tenant, *models.User) ([]string, error) {
	return nil, nil
}

func (d *oneUser) AddToRole(context.Context, *models.Tenant, *models.User, string) error {
	return nil
}

type fixture struct {
	engine *gin.Engine
	tokens *jwt.Manager
	role   uuid.UUID
	user   uuid.UUID
}

func newFixture() *fixture {
	tokens := jwt.NewManager(secret, time.Hour)
	tenants := tenantTable{"alpha": {ID: "alpha", Identifier: "alpha", IsActive: true}}
	resolver := tenancy.NewResolver("tenant", tenants, tokens, nil, time.Minute)
	authorizer, policies := authz.NewDefaultAuthorizer(permissions.Names())

	roles := &oneRole{role: models.Role{BaseModel: models.BaseModel{ID: uuid.New()}, TenantID: "alpha", Name: models.RoleBasic}}
	users := &oneUser{user: models.User{BaseModel: models.BaseModel{ID: uuid.New()}, TenantID: "alpha", Email: "staff@alpha.test"}}

	engine := SetupRouter(Deps{
		Config:  &config.Config{CORS: config.CORSConfig{AllowOrigins: []string{"*"}}},
		Tenant:  middleware.NewTenantMiddleware(resolver),
		Auth:    middleware.NewAuthMiddleware(tokens, authorizer, policies),
		Tokens:  handlers.NewTokenHandler(nil, resolver),
		Tenants: handlers.NewTenantHandler(nil),
		Users:   handlers.NewUserHandler(services.NewUserService(users, roles)),
		Roles:   handlers.NewRoleHandler(services.NewRoleService(roles, "root")),
		Health:  handlers.NewHealthHandler(func(context.Context) error { return nil }),
	})
	return &fixture{engine: engine, tokens: tokens, role: roles.role.ID, user: users.user.ID}
}

func (f *fixture) token(t *testing.T, perms ...string) string {
	t.Helper()
	set := authz.ClaimSet{
		authz.NewClaim(authz.ClaimNameIdentifier, "caller"),
		authz.NewClaim(authz.ClaimTenant, "alpha"),
	}
	for _, p := range perms {
		set = append(set, authz.PermissionClaim(p))
	}
	token, _, err := f.tokens.Generate(set)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return token
}

func (f *fixture) do(method, path, token, body string) int {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w.Code
}

func TestDirectoryRoutesRequireTheirPermission(t *testing.T) {
	f := newFixture()
	rolePath := "/api/v1/roles/" + f.role.String() + "/claims"
	userPath := "/api/v1/users/" + f.user.String()

	cases := []struct {
		method, path, body, permission string
	}{
		{http.MethodGet, "/api/v1/roles", "", "Permission.Roles.Read"},
		{http.MethodGet, rolePath, "", "Permission.RoleClaims.Read"},
		{http.MethodPut, rolePath, `{"permissions":["Permission.Schools.Read"]}`, "Permission.RoleClaims.Update"},
		{http.MethodGet, userPath, "", "Permission.Users.Read"},
		{http.MethodGet, userPath + "/roles", "", "Permission.UserRoles.Read"},
		{http.MethodPut, userPath + "/roles", `{"userRoles":[{"roleName":"Basic","enabled":true}]}`, "Permission.UserRoles.Update"},
	}
	for _, tc := range cases {
		name := tc.method + " " + tc.path
		if code := f.do(tc.method, tc.path, "", tc.body); code != http.StatusUnauthorized {
			t.Fatalf("%s without token: status %d, want 401", name, code)
		}
		if code := f.do(tc.method, tc.path, f.token(t, "Permission.Schools.Read"), tc.body); code != http.StatusForbidden {
			t.Fatalf("%s without %s: status %d, want 403", name, tc.permission, code)
		}
		if code := f.do(tc.method, tc.path, f.token(t, tc.permission), tc.body); code != http.StatusOK {
			t.Fatalf("%s with %s: status %d, want 200", name, tc.permission, code)
		}
	}
}

func TestUserRoutesSeparateMeFromIDs(t *testing.T) {
	f := newFixture()

	if code := f.do(http.MethodGet, "/api/v1/users/me", f.token(t), ""); code != http.StatusOK {
		t.Fatalf("/users/me: status %d", code)
	}
	if code := f.do(http.MethodGet, "/api/v1/users/not-a-uuid", f.token(t, "Permission.Users.Read"), ""); code != http.StatusBadRequest {
		t.Fatalf("malformed id: status %d, want 400", code)
	}
	if code := f.do(http.MethodGet, "/api/v1/users/"+uuid.NewString(), f.token(t, "Permission.Users.Read"), ""); code != http.StatusNotFound {
		t.Fatalf("unknown user: status %d, want 404", code)
	}
}
