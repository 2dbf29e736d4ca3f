package ledger

import "mediroute/pkg/triage"

// Reference dataset. Amounts are in PHP.
var seedPolicies = []Policy{
	{
		PolicyNumber:      "MAX-2024-00123",
		FullName:          "Juan dela Cruz",
		DateOfBirth:       "1988-04-12",
		InsuranceProvider: "Maxicare",
		PlanName:          "Maxicare Platinum Plus",
		PlanType:          "INDIVIDUAL",
		CoverageType:      "Inpatient, outpatient and emergency care",
		ValidFrom:         "2026-01-01",
		ValidUntil:        "2027-01-01",
		Status:            PolicyStatusActive,
		Dependents:        2,
		MaxBenefitLimit:   500000.00,
		RoomAndBoardLimit: 5000.00,
	},
	{
		PolicyNumber:      "INS-2024-00789",
		FullName:          "Roberto Reyes",
		DateOfBirth:       "1975-11-03",
		InsuranceProvider: "Insular Life Assurance Company",
		PlanName:          "Insular Health Shield",
		PlanType:          "FAMILY",
		CoverageType:      "Inpatient and emergency care",
		ValidFrom:         "2025-03-01",
		ValidUntil:        "2026-03-01",
		Status:            PolicyStatusActive,
		Dependents:        3,
		MaxBenefitLimit:   750000.00,
		RoomAndBoardLimit: 4000.00,
	},
	{
		PolicyNumber:      "AIA-2024-00456",
		FullName:          "Maria Santos",
		DateOfBirth:       "1992-07-28",
		InsuranceProvider: "AIA Philippines Life",
		PlanName:          "AIA Med-Assist Elite",
		PlanType:          "INDIVIDUAL",
		CoverageType:      "Comprehensive inpatient and emergency care",
		ValidFrom:         "2024-06-01",
		ValidUntil:        "2025-06-01",
		Status:            "EXPIRED",
		Dependents:        0,
		MaxBenefitLimit:   1000000.00,
		RoomAndBoardLimit: 8000.00,
	},
}

var seedClaims = []triage.Claim{
	{
		ClaimID:      "CLM-2026-001",
		PolicyNumber: "MAX-2024-00123",
		ClaimDate:    "2026-01-15",
		Amount:       45000.00,
		ServiceType:  "Emergency Room Visit",
		Hospital:     "Makati Medical Center",
		Status:       "APPROVED",
		Description:  "Emergency treatment for minor laceration",
	},
	{
		ClaimID:      "CLM-2026-002",
		PolicyNumber: "MAX-2024-00123",
		ClaimDate:    "2026-02-03",
		Amount:       125000.00,
		ServiceType:  "Hospitalization",
		Hospital:     "St. Luke's Medical Center",
		Status:       "APPROVED",
		Description:  "3-day hospitalization for pneumonia treatment",
	},
	{
		ClaimID:      "CLM-2025-045",
		PolicyNumber: "INS-2024-00789",
		ClaimDate:    "2025-05-12",
		Amount:       85000.00,
		ServiceType:  "Outpatient Surgery",
		Hospital:     "Asian Hospital and Medical Center",
		Status:       "APPROVED",
		Description:  "Minor surgical procedure",
	},
	{
		ClaimID:      "CLM-2025-067",
		PolicyNumber: "INS-2024-00789",
		ClaimDate:    "2025-08-20",
		Amount:       32000.00,
		ServiceType:  "Laboratory Tests",
		Hospital:     "The Medical City",
		Status:       "APPROVED",
		Description:  "Comprehensive health screening",
	},
	{
		ClaimID:      "CLM-2025-089",
		PolicyNumber: "INS-2024-00789",
		ClaimDate:    "2025-11-05",
		Amount:       58000.00,
		ServiceType:  "Emergency Room Visit",
		Hospital:     "Manila Doctors Hospital",
		Status:       "APPROVED",
		Description:  "Emergency treatment for chest pain",
	},
	{
		ClaimID:      "CLM-2024-234",
		PolicyNumber: "AIA-2024-00456",
		ClaimDate:    "2024-09-15",
		Amount:       250000.00,
		ServiceType:  "Hospitalization",
		Hospital:     "Philippine General Hospital",
		Status:       "APPROVED",
		Description:  "7-day hospitalization for dengue fever",
	},
	{
		ClaimID:      "CLM-2025-012",
		PolicyNumber: "AIA-2024-00456",
		ClaimDate:    "2025-01-20",
		Amount:       180000.00,
		ServiceType:  "Emergency Surgery",
		Hospital:     "Veterans Memorial Medical Center",
		Status:       "APPROVED",
		Description:  "Emergency appendectomy",
	},
}
