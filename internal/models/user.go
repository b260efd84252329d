package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User is a directory entry. Username and email are unique per tenant.
type User struct {
	BaseModel
	TenantID               string     `json:"tenantId" gorm:"not null;size:64;uniqueIndex:idx_users_tenant_username;uniqueIndex:idx_users_tenant_email"`
	Username               string     `json:"username" gorm:"not null;size:100;uniqueIndex:idx_users_tenant_username"`
	Email                  string     `json:"email" gorm:"not null;size:100;uniqueIndex:idx_users_tenant_email"`
	FirstName              string     `json:"firstName" gorm:"size:100"`
	LastName               string     `json:"lastName" gorm:"size:100"`
	PhoneNumber            string     `json:"phoneNumber" gorm:"size:32"`
	PasswordHash           string     `json:"-" gorm:"not null;size:255"`
	IsActive               bool       `json:"isActive" gorm:"default:false"`
	EmailConfirmed         bool       `json:"emailConfirmed" gorm:"default:false"`
	PhoneNumberConfirmed   bool       `json:"phoneNumberConfirmed" gorm:"default:false"`
	RefreshToken           string     `json:"-" gorm:"size:128;index"`
	RefreshTokenExpiryTime *time.Time `json:"-"`

	Roles []Role `json:"roles,omitempty" gorm:"many2many:user_roles;"`
}

func (u *User) TableName() string {
	return "users"
}

// SetPassword stores the bcrypt hash of password.
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// RefreshTokenValid reports whether token is the stored one and still live.
func (u *User) RefreshTokenValid(token string, now time.Time) bool {
	if u.RefreshToken == "" || u.RefreshToken != token {
		return false
	}
	return u.RefreshTokenExpiryTime != nil && u.RefreshTokenExpiryTime.After(now)
}

// UserRole joins users to roles.
type UserRole struct {
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;primaryKey"`
	RoleID    uuid.UUID `json:"roleId" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"createdAt"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

// UserClaim is a claim granted to one user directly rather than through a role.
type UserClaim struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	ClaimType  string    `json:"claimType" gorm:"not null;size:100"`
	ClaimValue string    `json:"claimValue" gorm:"not null;size:255"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (UserClaim) TableName() string {
	return "user_claims"
}
