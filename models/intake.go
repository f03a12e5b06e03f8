package models

// Field is a canonical intake key as sent by the client
type Field string

const (
	// Identity
	FieldName           Field = "name"
	FieldAge            Field = "age"
	FieldNationality    Field = "nationality"
	FieldMaritalStatus  Field = "maritalStatus"
	FieldPassportNumber Field = "passportNumber"
	FieldHomeAddress    Field = "homeAddress"

	// Travel plan
	FieldDestination   Field = "destination"
	FieldVisaType      Field = "visaType"
	FieldPurpose       Field = "purpose"
	FieldTravelDates   Field = "travelDates"
	FieldTripDuration  Field = "tripDuration"
	FieldAccommodation Field = "accommodation"
	FieldInvitation    Field = "invitation"
	FieldItinerary     Field = "itinerary"

	// Employment and finance
	FieldOccupation         Field = "occupation"
	FieldEmployer           Field = "employer"
	FieldEmploymentDuration Field = "employmentDuration"
	FieldIncome             Field = "income"
	FieldBankBalance        Field = "currentBankBalance"
	FieldTripCost           Field = "estimatedTripCost"
	FieldFunding            Field = "funding"
	FieldSelfSponsored      Field = "selfSponsored"

	// Ties to home country
	FieldPropertyDetails     Field = "propertyDetails"
	FieldBusinessCommitments Field = "businessCommitments"
	FieldFamilyDependents    Field = "familyDependents"

	// Travel and visa history
	FieldApplicationType   Field = "applicationType"
	FieldTravelHistory     Field = "travelHistory"
	FieldVisaRefusals      Field = "visaRefusals"
	FieldComplianceHistory Field = "complianceHistory"

	// Sponsor
	FieldSponsorName         Field = "sponsorName"
	FieldSponsorRelationship Field = "sponsorRelationship"
	FieldSponsorOccupation   Field = "sponsorOccupation"
	FieldSponsorIncome       Field = "sponsorIncome"
	FieldSponsorDocuments    Field = "sponsorDocuments"

	// Additional context
	FieldWeaknesses          Field = "weaknesses"
	FieldNewEvidence         Field = "newEvidence"
	FieldLargeTransactions   Field = "largeTransactions"
	FieldBankStatementNotes  Field = "bankStatementNotes"
	FieldSupportingDocuments Field = "supportingDocuments"
	FieldAdditionalDocuments Field = "additionalDocuments"
	FieldAdditionalInfo      Field = "additionalInfo"

	// Branding and embassy
	FieldEmbassyName    Field = "embassyName"
	FieldEmbassyAddress Field = "embassyAddress"
	FieldLetterDate     Field = "letterDate"
	FieldCompanyName    Field = "companyName"
)

// FieldGroup orders the sections of the fact sheet
type FieldGroup int

const (
	GroupIdentity FieldGroup = iota
	GroupTravel
	GroupFinance
	GroupTies
	GroupHistory
	GroupSponsor
	GroupAdditional
	GroupBranding
)

// FieldSpec describes how a canonical field is validated and rendered
type FieldSpec struct {
	Field    Field
	Label    string
	Group    FieldGroup
	Required bool
	// Summarized fields are not rendered on their own line; they feed the
	// "Supporting Documents" summary instead.
	Summarized bool
}

// PayloadSchema lists every canonical field in fact-sheet order.
// Labels are matched by anchored patterns downstream, so they must stay stable.
var PayloadSchema = []FieldSpec{
	{Field: FieldName, Label: "Applicant Name", Group: GroupIdentity, Required: true},
	{Field: FieldAge, Label: "Age", Group: GroupIdentity, Required: true},
	{Field: FieldNationality, Label: "Nationality", Group: GroupIdentity, Required: true},
	{Field: FieldMaritalStatus, Label: "Marital Status", Group: GroupIdentity},
	{Field: FieldPassportNumber, Label: "Passport Number", Group: GroupIdentity},
	{Field: FieldHomeAddress, Label: "Home Address", Group: GroupIdentity},

	{Field: FieldDestination, Label: "Destination", Group: GroupTravel, Required: true},
	{Field: FieldVisaType, Label: "Visa Type", Group: GroupTravel, Required: true},
	{Field: FieldPurpose, Label: "Purpose of Travel", Group: GroupTravel, Required: true},
	{Field: FieldTravelDates, Label: "Intended Travel Dates", Group: GroupTravel},
	{Field: FieldTripDuration, Label: "Duration of Stay", Group: GroupTravel},
	{Field: FieldAccommodation, Label: "Accommodation", Group: GroupTravel},
	{Field: FieldInvitation, Label: "Invitation", Group: GroupTravel},
	{Field: FieldItinerary, Label: "Itinerary", Group: GroupTravel},

	{Field: FieldOccupation, Label: "Occupation", Group: GroupFinance},
	{Field: FieldEmployer, Label: "Employer", Group: GroupFinance},
	{Field: FieldEmploymentDuration, Label: "Employment Duration", Group: GroupFinance},
	{Field: FieldIncome, Label: "Monthly Income", Group: GroupFinance, Required: true},
	{Field: FieldBankBalance, Label: "Current Bank Balance", Group: GroupFinance},
	{Field: FieldTripCost, Label: "Estimated Trip Cost", Group: GroupFinance},
	{Field: FieldFunding, Label: "Funding Source", Group: GroupFinance},
	{Field: FieldSelfSponsored, Label: "Self Sponsored", Group: GroupFinance},

	{Field: FieldPropertyDetails, Label: "Property Ownership", Group: GroupTies},
	{Field: FieldBusinessCommitments, Label: "Business/Employment Commitments", Group: GroupTies},
	{Field: FieldFamilyDependents, Label: "Family/Dependents", Group: GroupTies},

	{Field: FieldApplicationType, Label: "Application Type", Group: GroupHistory},
	{Field: FieldTravelHistory, Label: "Travel History", Group: GroupHistory},
	{Field: FieldVisaRefusals, Label: "Previous Visa Refusals", Group: GroupHistory},
	{Field: FieldComplianceHistory, Label: "Visa Compliance History", Group: GroupHistory},

	{Field: FieldSponsorName, Label: "Sponsor Name", Group: GroupSponsor},
	{Field: FieldSponsorRelationship, Label: "Sponsor Relationship", Group: GroupSponsor},
	{Field: FieldSponsorOccupation, Label: "Sponsor Occupation", Group: GroupSponsor},
	{Field: FieldSponsorIncome, Label: "Sponsor Income", Group: GroupSponsor},
	{Field: FieldSponsorDocuments, Label: "Sponsor Documents", Group: GroupSponsor, Summarized: true},

	{Field: FieldWeaknesses, Label: "Disclosed Weaknesses", Group: GroupAdditional},
	{Field: FieldNewEvidence, Label: "New Evidence Since Refusal", Group: GroupAdditional},
	{Field: FieldLargeTransactions, Label: "Large Transaction Explanation", Group: GroupAdditional},
	{Field: FieldBankStatementNotes, Label: "Bank Statement Clarification", Group: GroupAdditional},
	{Field: FieldSupportingDocuments, Label: "Supporting Documents", Group: GroupAdditional, Summarized: true},
	{Field: FieldAdditionalDocuments, Label: "Additional Documents", Group: GroupAdditional, Summarized: true},
	{Field: FieldAdditionalInfo, Label: "Additional Information", Group: GroupAdditional},

	{Field: FieldEmbassyName, Label: "Embassy/Consulate", Group: GroupBranding},
	{Field: FieldEmbassyAddress, Label: "Embassy Address", Group: GroupBranding},
	{Field: FieldLetterDate, Label: "Letter Date", Group: GroupBranding},
	{Field: FieldCompanyName, Label: "Company", Group: GroupBranding},
}

// RequiredFields returns the always-required fields in schema order
func RequiredFields() []Field {
	fields := make([]Field, 0, 7)
	for _, spec := range PayloadSchema {
		if spec.Required {
			fields = append(fields, spec.Field)
		}
	}
	return fields
}

// LabelFor returns the fact-sheet label of a field
func LabelFor(f Field) string {
	for _, spec := range PayloadSchema {
		if spec.Field == f {
			return spec.Label
		}
	}
	return string(f)
}

// Payload is the canonical intake record. Every stored value is a non-empty,
// trimmed string; absent fields are simply not stored.
type Payload struct {
	values    map[Field]string
	defaulted map[Field]bool
}

// NewPayload copies values into a Payload, dropping empty entries.
// defaulted marks fields whose value was filled in rather than supplied.
func NewPayload(values map[Field]string, defaulted map[Field]bool) Payload {
	p := Payload{
		values:    make(map[Field]string, len(values)),
		defaulted: make(map[Field]bool, len(defaulted)),
	}
	for k, v := range values {
		if v == "" {
			continue
		}
		p.values[k] = v
	}
	for k, d := range defaulted {
		if d && p.values[k] != "" {
			p.defaulted[k] = true
		}
	}
	return p
}

// Get returns the value of f and whether it is present
func (p Payload) Get(f Field) (string, bool) {
	v, ok := p.values[f]
	return v, ok
}

// Value returns the value of f or "" when absent
func (p Payload) Value(f Field) string {
	return p.values[f]
}

// Has reports whether f is present
func (p Payload) Has(f Field) bool {
	_, ok := p.values[f]
	return ok
}

// IsDefaulted reports whether f holds a default rather than a supplied value
func (p Payload) IsDefaulted(f Field) bool {
	return p.defaulted[f]
}

// Len returns the number of present fields
func (p Payload) Len() int {
	return len(p.values)
}

// AsMap returns a copy of the present fields keyed by their JSON names
func (p Payload) AsMap() map[string]string {
	out := make(map[string]string, len(p.values))
	for k, v := range p.values {
		out[string(k)] = v
	}
	return out
}
