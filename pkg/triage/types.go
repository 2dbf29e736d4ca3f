// Package triage holds the shared case-state record types passed between
// pipeline stages: classification, verification, match, authorization and
// report. Stages produce these once per case; downstream stages treat them
// as read-only.
package triage

import (
	"fmt"
	"strings"

	"mediroute/pkg/registry"
)

// Category is the emergency classification assigned by the classification stage.
type Category string

const (
	CategoryCardiac      Category = "CARDIAC"
	CategoryTrauma       Category = "TRAUMA"
	CategoryRespiratory  Category = "RESPIRATORY"
	CategoryNeurological Category = "NEUROLOGICAL"
	CategoryBurns        Category = "BURNS"
	CategoryGeneral      Category = "GENERAL"
)

// Categories returns every category in declaration order.
func Categories() []Category {
	return []Category{
		CategoryCardiac,
		CategoryTrauma,
		CategoryRespiratory,
		CategoryNeurological,
		CategoryBurns,
		CategoryGeneral,
	}
}

// CategoryNames returns the category values as plain strings, for schema
// enum lists.
func CategoryNames() []string {
	cats := Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return names
}

// Valid reports whether c is a known category value.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// NormalizeCategory maps a raw oracle string to a category, falling back to
// GENERAL when the value is not recognized.
func NormalizeCategory(raw string) Category {
	c := Category(strings.ToUpper(strings.TrimSpace(raw)))
	if c.Valid() {
		return c
	}
	return CategoryGeneral
}

// Severity is the urgency tier of a classified case.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityUrgent   Severity = "URGENT"
	SeverityModerate Severity = "MODERATE"
)

// Severities returns every severity tier in declaration order.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityUrgent, SeverityModerate}
}

// SeverityNames returns the severity values as plain strings.
func SeverityNames() []string {
	sevs := Severities()
	names := make([]string, len(sevs))
	for i, s := range sevs {
		names[i] = string(s)
	}
	return names
}

// Valid reports whether s is a known severity value.
func (s Severity) Valid() bool {
	for _, known := range Severities() {
		if s == known {
			return true
		}
	}
	return false
}

// NormalizeSeverity maps a raw oracle string to a severity, defaulting to
// URGENT when the value is not recognized.
func NormalizeSeverity(raw string) Severity {
	s := Severity(strings.ToUpper(strings.TrimSpace(raw)))
	if s.Valid() {
		return s
	}
	return SeverityUrgent
}

// Confidence is the classification stage's self-reported confidence tier.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// ConfidenceNames returns the confidence values as plain strings.
func ConfidenceNames() []string {
	return []string{string(ConfidenceHigh), string(ConfidenceMedium), string(ConfidenceLow)}
}

// Valid reports whether c is a known confidence value.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// NormalizeConfidence maps a raw oracle string to a confidence tier,
// defaulting to LOW when the value is not recognized.
func NormalizeConfidence(raw string) Confidence {
	c := Confidence(strings.ToUpper(strings.TrimSpace(raw)))
	if c.Valid() {
		return c
	}
	return ConfidenceLow
}

// Classification is the structured intake record extracted once per case.
// All downstream stages read it; none may modify it.
// Intake carries the structured fields of a single-shot case submission.
// Location and payer arrive as facts, not as text for the oracle to extract.
type Intake struct {
	Symptoms         string `json:"symptoms"`
	Location         string `json:"location"`
	Insurance        string `json:"insurance"`
	CurrentSituation string `json:"current_situation,omitempty"`
}

// Summary renders the intake as the labeled text fed to classification.
func (in Intake) Summary() string {
	s := fmt.Sprintf("Symptoms: %s. Location: %s. Insurance provider: %s.",
		in.Symptoms, in.Location, in.Insurance)
	if in.CurrentSituation != "" {
		s += fmt.Sprintf(" Current situation: %s.", in.CurrentSituation)
	}
	return s
}

type Classification struct {
	Symptoms          string     `json:"symptoms"`
	Category          Category   `json:"classification_type"`
	Severity          Severity   `json:"severity"`
	Confidence        Confidence `json:"confidence"`
	DispatchRequired  bool       `json:"dispatch_required"`
	DispatchRationale string     `json:"dispatch_rationale"`
	Location          string     `json:"location"`
	InsuranceProvider string     `json:"insurance_provider"`
	PreferredHospital string     `json:"preferred_hospital,omitempty"`
	CurrentSituation  string     `json:"current_situation,omitempty"`
}

// FallbackClassification is the conservative record used when the oracle's
// classification output cannot be parsed. It never blocks pipeline progress.
func FallbackClassification(situation string) Classification {
	return Classification{
		Symptoms:          "unknown",
		Category:          CategoryGeneral,
		Severity:          SeverityUrgent,
		Confidence:        ConfidenceLow,
		DispatchRequired:  false,
		DispatchRationale: "classification unavailable",
		Location:          "unknown",
		InsuranceProvider: "unknown",
		CurrentSituation:  situation,
	}
}

// Claim is one approved insurance claim, as reported in a verification record.
type Claim struct {
	ClaimID      string  `json:"claim_id"`
	PolicyNumber string  `json:"policy_number"`
	ClaimDate    string  `json:"claim_date"`
	Amount       float64 `json:"claim_amount"`
	ServiceType  string  `json:"service_type"`
	Hospital     string  `json:"hospital"`
	Status       string  `json:"status"`
	Description  string  `json:"description"`
}

// Verification is the insurance eligibility record produced by the
// verification stage. When Verified is false only Reason and whatever policy
// identifiers could be resolved are populated.
type Verification struct {
	Verified          bool    `json:"verified"`
	Reason            string  `json:"reason,omitempty"`
	PolicyNumber      string  `json:"policy_number,omitempty"`
	FullName          string  `json:"full_name,omitempty"`
	DateOfBirth       string  `json:"date_of_birth,omitempty"`
	InsuranceProvider string  `json:"insurance_provider,omitempty"`
	PlanName          string  `json:"plan_name,omitempty"`
	PlanType          string  `json:"plan_type,omitempty"`
	CoverageType      string  `json:"coverage_type,omitempty"`
	ValidFrom         string  `json:"valid_from,omitempty"`
	ValidUntil        string  `json:"valid_until,omitempty"`
	Status            string  `json:"status,omitempty"`
	Dependents        int     `json:"dependents"`
	MaxBenefitLimit   float64 `json:"max_benefit_limit"`
	RoomAndBoardLimit float64 `json:"room_and_board_limit"`
	UsedBenefits      float64 `json:"used_benefits"`
	RemainingBenefits float64 `json:"remaining_benefits"`
	ClaimsHistory     []Claim `json:"claims_history,omitempty"`
}

// Candidate is one ranked facility option offered for patient choice.
type Candidate struct {
	FacilityID       string  `json:"hospital_id"`
	FacilityName     string  `json:"hospital_name"`
	Address          string  `json:"address"`
	Contact          string  `json:"contact"`
	EmergencyContact string  `json:"emergency_contact"`
	DistanceKm       float64 `json:"distance_km"`
}

// ResolvedFacility is the single facility a match resolved to, with its
// computed distance and the raw registry record.
type ResolvedFacility struct {
	Facility   registry.Facility `json:"hospital_raw"`
	DistanceKm float64           `json:"distance_km"`
}

// MatchResult is the outcome of the hospital matching stage. Exactly one of
// three shapes holds: Resolved is set (single facility, with PreferredUsed or
// AutoSelected explaining how), Candidates is non-empty (patient must choose),
// or Matched is false with NoMatchReason set.
type MatchResult struct {
	Matched             bool              `json:"matched"`
	Resolved            *ResolvedFacility `json:"resolved,omitempty"`
	PreferredUsed       bool              `json:"preferred_used"`
	AutoSelected        bool              `json:"auto_selected"`
	Candidates          []Candidate       `json:"top_hospitals,omitempty"`
	PreferredFailReason string            `json:"preferred_hospital_fail_reason,omitempty"`
	NoMatchReason       string            `json:"no_match_reason,omitempty"`
}

// HasResolved reports whether the match ended on a single facility.
func (m MatchResult) HasResolved() bool {
	return m.Matched && m.Resolved != nil
}

// HasCandidates reports whether the match produced a choice list.
func (m MatchResult) HasCandidates() bool {
	return m.Matched && m.Resolved == nil && len(m.Candidates) > 0
}

// Authorization is the immutable LOA record. Regenerating for the same case
// produces a new LOANumber and timestamps; all other fields are derived
// deterministically from state except the two oracle-written narrative fields.
type Authorization struct {
	Generated bool `json:"generated"`

	LOANumber  string `json:"loa_number"`
	DateIssued string `json:"date_issued"`
	ValidUntil string `json:"valid_until"`

	InsuranceProvider string `json:"insurance_provider"`

	Symptoms         string   `json:"symptoms"`
	Category         Category `json:"classification_type"`
	Severity         Severity `json:"severity"`
	CurrentSituation string   `json:"current_situation"`

	HospitalID       string  `json:"hospital_id"`
	HospitalName     string  `json:"hospital_name"`
	Address          string  `json:"address"`
	Contact          string  `json:"contact"`
	EmergencyContact string  `json:"emergency_contact"`
	DistanceKm       float64 `json:"distance_km"`

	ApprovedServices []string `json:"approved_services"`
	RoomType         string   `json:"room_type"`
	Exclusions       []string `json:"exclusions"`

	ClinicalJustification string `json:"clinical_justification"`
	Remarks               string `json:"remarks"`

	Reason string `json:"reason,omitempty"`
}

// Summary renders the human-readable narrative appended to conversation
// history after issuance. Built from deterministic fields only.
func (a Authorization) Summary() string {
	if !a.Generated {
		return fmt.Sprintf("Authorization could not be generated: %s", a.Reason)
	}
	return fmt.Sprintf(
		"LOA %s issued for %s admission at %s (%s, %.2f km away). "+
			"Approved services: %s. Room type: %s. Valid until %s.",
		a.LOANumber, a.Category, a.HospitalName, a.Address, a.DistanceKm,
		strings.Join(a.ApprovedServices, ", "), a.RoomType, a.ValidUntil,
	)
}

// Report is the denormalized case report: oracle-written narrative fields
// merged with authorization and classification data so it renders standalone.
type Report struct {
	Generated bool `json:"generated"`

	CaseSummary          string `json:"case_summary"`
	RecommendationReason string `json:"hospital_recommendation_reason"`
	NextSteps            string `json:"next_steps"`

	Symptoms          string   `json:"symptoms"`
	CurrentSituation  string   `json:"current_situation"`
	Category          Category `json:"classification_type"`
	Severity          Severity `json:"severity"`
	DispatchRequired  bool     `json:"dispatch_required"`
	DispatchRationale string   `json:"dispatch_rationale"`

	InsuranceProvider string `json:"insurance_provider"`

	LOANumber             string `json:"loa_number"`
	DateIssued            string `json:"date_issued"`
	ValidUntil            string `json:"valid_until"`
	ClinicalJustification string `json:"clinical_justification"`
	Remarks               string `json:"remarks"`

	HospitalID       string  `json:"hospital_id"`
	HospitalName     string  `json:"hospital_name"`
	Address          string  `json:"address"`
	Contact          string  `json:"contact"`
	EmergencyContact string  `json:"emergency_contact"`
	DistanceKm       float64 `json:"distance_km"`

	ApprovedServices []string `json:"approved_services"`
	RoomType         string   `json:"room_type"`
	Exclusions       []string `json:"exclusions"`

	Reason string `json:"reason,omitempty"`
}
