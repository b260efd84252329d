package models

import "time"

// Tenant is one customer partition. ID doubles as the value clients send in
// the tenant header.
type Tenant struct {
	ID               string    `json:"id" gorm:"primarykey;size:64"`
	Identifier       string    `json:"identifier" gorm:"uniqueIndex;not null;size:64"`
	Name             string    `json:"name" gorm:"not null;size:100"`
	ConnectionString string    `json:"connectionString,omitempty" gorm:"size:512"`
	Email            string    `json:"email" gorm:"size:100"`
	FirstName        string    `json:"firstName" gorm:"size:100"`
	LastName         string    `json:"lastName" gorm:"size:100"`
	ValidUpTo        time.Time `json:"validUpTo"`
	IsActive         bool      `json:"isActive" gorm:"default:false"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (t *Tenant) TableName() string {
	return "tenants"
}

// SubscriptionExpired reports whether ValidUpTo lies before now.
func (t *Tenant) SubscriptionExpired(now time.Time) bool {
	return t.ValidUpTo.Before(now)
}

// Activate flips the tenant on.
func (t *Tenant) Activate() {
	t.IsActive = true
}

// Deactivate clears IsActive.
func (t *Tenant) Deactivate() {
	t.IsActive = false
}

// ExtendTo moves the subscription end date. It never shortens it.
func (t *Tenant) ExtendTo(validUpTo time.Time) {
	if validUpTo.After(t.ValidUpTo) {
		t.ValidUpTo = validUpTo
	}
}
