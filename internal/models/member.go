// Package models defines the local member and vehicle records mirrored to the CRM.
package models

import "time"

// Gender is the locally stored gender code.
type Gender int

const (
	GenderUnspecified Gender = iota
	GenderMale
	GenderFemale
	GenderOther
)

// Tier is the membership tier code.
type Tier int

const (
	TierUnknown Tier = iota
	TierBasic
	TierSilver
	TierGold
	TierPlatinum
)

// Member is a registered member of the application.
type Member struct {
	// ID is the local identifier; it doubles as the CRM external id.
	ID        string
	Email     string
	FirstName string
	LastName  string
	Phone     string
	BirthDate time.Time
	Gender    Gender
	Tier      Tier
	// DealerCode references the member's preferred dealer, empty if none.
	DealerCode     string
	MarketingOptIn bool

	// RemoteID is the CRM record id, empty until the first successful sync.
	RemoteID string
	// IsVerified caches a positive CRM verification; once true it is never re-polled.
	IsVerified bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
