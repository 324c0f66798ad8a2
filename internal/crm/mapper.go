package crm

import (
	"strings"
	"time"

	"github.com/atinyakov/crmsync/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const dateLayout = "2006-01-02"

var (
	genderLabels = map[models.Gender]string{
		models.GenderMale:   "Male",
		models.GenderFemale: "Female",
		models.GenderOther:  "Other",
	}
	tierLabels = map[models.Tier]string{
		models.TierBasic:    "Basic",
		models.TierSilver:   "Silver",
		models.TierGold:     "Gold",
		models.TierPlatinum: "Platinum",
	}
	purchaseTypeLabels = map[models.PurchaseType]string{
		models.PurchaseNew:   "New",
		models.PurchaseUsed:  "Used",
		models.PurchaseLease: "Lease",
	}
	fuelTypeLabels = map[models.FuelType]string{
		models.FuelGasoline: "Gasoline",
		models.FuelDiesel:   "Diesel",
		models.FuelHybrid:   "Hybrid",
		models.FuelElectric: "Electric",
	}
)

// GenderLabel returns the CRM picklist label, "Unspecified" for unknown codes.
func GenderLabel(g models.Gender) string {
	if label, ok := genderLabels[g]; ok {
		return label
	}
	return "Unspecified"
}

// TierLabel returns the CRM picklist label or "" for unknown codes.
func TierLabel(t models.Tier) string {
	return tierLabels[t]
}

// PurchaseTypeLabel returns the CRM picklist label or "" for unknown codes.
func PurchaseTypeLabel(p models.PurchaseType) string {
	return purchaseTypeLabels[p]
}

// FuelTypeLabel returns the CRM picklist label or "" for unknown codes.
func FuelTypeLabel(f models.FuelType) string {
	return fuelTypeLabels[f]
}

// ToCreateMemberPayload maps a member to its creation body.
func ToCreateMemberPayload(m models.Member) CreateMemberPayload {
	return CreateMemberPayload{
		ExternalID:     strings.TrimSpace(m.ID),
		FirstName:      text(m.FirstName),
		LastName:       text(m.LastName),
		Email:          email(m.Email),
		Phone:          strings.TrimSpace(m.Phone),
		BirthDate:      date(m.BirthDate),
		Gender:         GenderLabel(m.Gender),
		Tier:           TierLabel(m.Tier),
		Dealer:         dealerRef(m.DealerCode),
		MarketingOptIn: m.MarketingOptIn,
	}
}

// ToUpdateMemberPayload maps a member to its update body.
func ToUpdateMemberPayload(m models.Member) UpdateMemberPayload {
	return UpdateMemberPayload{
		FirstName:      text(m.FirstName),
		LastName:       text(m.LastName),
		Email:          email(m.Email),
		Phone:          strings.TrimSpace(m.Phone),
		Gender:         GenderLabel(m.Gender),
		Tier:           TierLabel(m.Tier),
		Dealer:         dealerRef(m.DealerCode),
		MarketingOptIn: m.MarketingOptIn,
	}
}

// ToCreateVehiclePayload maps a vehicle to its creation body.
func ToCreateVehiclePayload(v models.Vehicle) CreateVehiclePayload {
	var owner *MemberRef
	if id := strings.TrimSpace(v.OwnerID); id != "" {
		owner = &MemberRef{ExternalID: id}
	}
	return CreateVehiclePayload{
		ExternalID:   strings.TrimSpace(v.ID),
		VIN:          vin(v.VIN),
		Model:        modelRef(v.ModelCode),
		Owner:        owner,
		ModelYear:    v.ModelYear,
		Color:        color(v.Color),
		PlateNumber:  strings.ToUpper(strings.TrimSpace(v.PlateNumber)),
		PurchaseDate: date(v.PurchaseDate),
		PurchaseType: PurchaseTypeLabel(v.PurchaseType),
		FuelType:     FuelTypeLabel(v.FuelType),
		Mileage:      v.Mileage,
	}
}

// ToUpdateVehiclePayload maps a vehicle to its update body.
func ToUpdateVehiclePayload(v models.Vehicle) UpdateVehiclePayload {
	return UpdateVehiclePayload{
		VIN:          vin(v.VIN),
		Model:        modelRef(v.ModelCode),
		Color:        color(v.Color),
		PlateNumber:  strings.ToUpper(strings.TrimSpace(v.PlateNumber)),
		PurchaseType: PurchaseTypeLabel(v.PurchaseType),
		Mileage:      v.Mileage,
	}
}

func dealerRef(code string) *DealerRef {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	return &DealerRef{ExternalID: code}
}

func modelRef(code string) *ModelRef {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	return &ModelRef{ExternalID: code}
}

// text trims and NFC-normalizes free text so composed and decomposed input
// produce the same CRM value.
func text(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func vin(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// color is title-cased; a Caser is not safe for concurrent use, so one is built per call.
func color(s string) string {
	s = text(s)
	if s == "" {
		return ""
	}
	return cases.Title(language.English).String(s)
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
