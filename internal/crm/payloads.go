package crm

import "encoding/json"

// Reference objects: the CRM resolves lookups by external id rather than by its
// own primary key, so related records are sent as nested {"<Ref>_ExternalId__c": v}.

type DealerRef struct {
	ExternalID string `json:"Dealer_ExternalId__c"`
}

type MemberRef struct {
	ExternalID string `json:"Member_ExternalId__c"`
}

type ModelRef struct {
	ExternalID string `json:"Model_ExternalId__c"`
}

// CreateMemberPayload is the full Member__c body sent on creation.
type CreateMemberPayload struct {
	ExternalID     string     `json:"Member_ExternalId__c"`
	FirstName      string     `json:"First_Name__c"`
	LastName       string     `json:"Last_Name__c"`
	Email          string     `json:"Email__c"`
	Phone          string     `json:"Phone__c,omitempty"`
	BirthDate      string     `json:"Birth_Date__c,omitempty"`
	Gender         string     `json:"Gender__c,omitempty"`
	Tier           string     `json:"Tier__c,omitempty"`
	Dealer         *DealerRef `json:"Dealer__r,omitempty"`
	MarketingOptIn bool       `json:"Marketing_Opt_In__c"`
}

// UpdateMemberPayload is the partial Member__c body sent on update. Identity
// fields are absent; the target record is addressed by its remote id.
type UpdateMemberPayload struct {
	FirstName      string     `json:"First_Name__c"`
	LastName       string     `json:"Last_Name__c"`
	Email          string     `json:"Email__c"`
	Phone          string     `json:"Phone__c,omitempty"`
	Gender         string     `json:"Gender__c,omitempty"`
	Tier           string     `json:"Tier__c,omitempty"`
	Dealer         *DealerRef `json:"Dealer__r,omitempty"`
	MarketingOptIn bool       `json:"Marketing_Opt_In__c"`
}

// CreateVehiclePayload is the full Vehicle__c body sent on creation.
type CreateVehiclePayload struct {
	ExternalID   string     `json:"Vehicle_ExternalId__c"`
	VIN          string     `json:"VIN__c"`
	Model        *ModelRef  `json:"Model__r,omitempty"`
	Owner        *MemberRef `json:"Owner__r,omitempty"`
	ModelYear    int        `json:"Model_Year__c,omitempty"`
	Color        string     `json:"Color__c,omitempty"`
	PlateNumber  string     `json:"Plate_Number__c,omitempty"`
	PurchaseDate string     `json:"Purchase_Date__c,omitempty"`
	PurchaseType string     `json:"Purchase_Type__c,omitempty"`
	FuelType     string     `json:"Fuel_Type__c,omitempty"`
	Mileage      int        `json:"Mileage__c"`
}

// UpdateVehiclePayload is the partial Vehicle__c body sent on update.
type UpdateVehiclePayload struct {
	VIN          string    `json:"VIN__c"`
	Model        *ModelRef `json:"Model__r,omitempty"`
	Color        string    `json:"Color__c,omitempty"`
	PlateNumber  string    `json:"Plate_Number__c,omitempty"`
	PurchaseType string    `json:"Purchase_Type__c,omitempty"`
	Mileage      int       `json:"Mileage__c"`
}

// ReferenceFieldUpdate pushes one lookup value together with its reference
// object: {"<Ref>_Code__c": v, "<Ref>__r": {"<Ref>_ExternalId__c": v}}.
type ReferenceFieldUpdate struct {
	Reference string
	Value     string
}

func (u ReferenceFieldUpdate) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		u.Reference + "_Code__c": u.Value,
		u.Reference + "__r": map[string]string{
			u.Reference + "_ExternalId__c": u.Value,
		},
	})
}

// createResponse is the create answer. Success is optional; only an explicit
// false marks the create as failed.
type createResponse struct {
	ID      string       `json:"id"`
	Success *bool        `json:"success"`
	Errors  []FieldError `json:"errors"`
}

type statusResponse struct {
	Status string `json:"Verification_Status__c"`
}
