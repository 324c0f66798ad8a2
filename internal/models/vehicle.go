package models

import "time"

// PurchaseType describes how the owner acquired the vehicle.
type PurchaseType int

const (
	PurchaseUnknown PurchaseType = iota
	PurchaseNew
	PurchaseUsed
	PurchaseLease
)

// FuelType is the vehicle's fuel code.
type FuelType int

const (
	FuelUnknown FuelType = iota
	FuelGasoline
	FuelDiesel
	FuelHybrid
	FuelElectric
)

// Vehicle is a product registered by a member.
type Vehicle struct {
	ID string
	// OwnerID is the local id of the owning member.
	OwnerID      string
	VIN          string
	ModelCode    string
	ModelYear    int
	Color        string
	PlateNumber  string
	PurchaseDate time.Time
	PurchaseType PurchaseType
	FuelType     FuelType
	Mileage      int

	RemoteID   string
	IsVerified bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
