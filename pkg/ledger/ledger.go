// Package ledger provides the insurance policy and claims reference data as
// an in-memory SQLite database. The dataset is seeded at open time and read
// only afterwards; it stands in for the payer's policy system.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mediroute/pkg/logx"
	"mediroute/pkg/triage"
)

// ErrPolicyNotFound is returned when no policy matches the patient name.
var ErrPolicyNotFound = errors.New("policy not found")

// PolicyStatusActive is the only status under which a policy verifies.
const PolicyStatusActive = "ACTIVE"

// Policy is one insurance policy record.
type Policy struct {
	PolicyNumber      string
	FullName          string
	DateOfBirth       string
	InsuranceProvider string
	PlanName          string
	PlanType          string
	CoverageType      string
	ValidFrom         string
	ValidUntil        string
	Status            string
	Dependents        int
	MaxBenefitLimit   float64
	RoomAndBoardLimit float64
}

// Validity checks whether the policy is usable as of today.
// Status is checked before the validity window.
func (p Policy) Validity(today time.Time) (bool, string) {
	if p.Status != PolicyStatusActive {
		return false, fmt.Sprintf("Policy is %s", strings.ToLower(p.Status))
	}
	until, err := time.Parse("2006-01-02", p.ValidUntil)
	if err != nil {
		return false, fmt.Sprintf("Policy has an unreadable validity date %q", p.ValidUntil)
	}
	if today.After(until) {
		return false, fmt.Sprintf("Policy expired on %s", p.ValidUntil)
	}
	return true, "Policy is active and valid"
}

// Usage summarizes a policy's benefit consumption within its validity window.
type Usage struct {
	Claims    []triage.Claim
	Used      float64
	Remaining float64
}

// Ledger is a read-only handle over the seeded policy database.
type Ledger struct {
	db     *sql.DB
	logger *logx.Logger
}

// Open creates the in-memory database, installs the schema and seeds the
// reference records.
func Open() (*Ledger, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	// A single connection keeps the in-memory database alive for the
	// handle's lifetime and sidesteps SQLite's single-writer limitation.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping ledger database: %w", err)
	}

	l := &Ledger{db: db, logger: logx.NewLogger("ledger")}
	if err := l.createSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := l.seed(); err != nil {
		_ = db.Close()
		return nil, err
	}

	l.logger.Info("Ledger initialized: %d policies, %d claims", len(seedPolicies), len(seedClaims))
	return l, nil
}

// Close releases the database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	_, err := l.db.Exec(`
		CREATE TABLE policies (
			policy_number        TEXT PRIMARY KEY,
			full_name            TEXT NOT NULL,
			date_of_birth        TEXT NOT NULL,
			insurance_provider   TEXT NOT NULL,
			plan_name            TEXT NOT NULL,
			plan_type            TEXT NOT NULL,
			coverage_type        TEXT NOT NULL,
			valid_from           TEXT NOT NULL,
			valid_until          TEXT NOT NULL,
			status               TEXT NOT NULL,
			dependents           INTEGER NOT NULL,
			max_benefit_limit    REAL NOT NULL,
			room_and_board_limit REAL NOT NULL
		);

		CREATE TABLE claims (
			claim_id      TEXT PRIMARY KEY,
			policy_number TEXT NOT NULL REFERENCES policies(policy_number),
			claim_date    TEXT NOT NULL,
			claim_amount  REAL NOT NULL,
			service_type  TEXT NOT NULL,
			hospital      TEXT NOT NULL,
			status        TEXT NOT NULL,
			description   TEXT NOT NULL
		);

		CREATE INDEX idx_claims_policy ON claims(policy_number, claim_date);
	`)
	if err != nil {
		return fmt.Errorf("failed to create ledger schema: %w", err)
	}
	return nil
}

func (l *Ledger) seed() error {
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range seedPolicies {
		if _, err := tx.Exec(`
			INSERT INTO policies VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, p.PolicyNumber, p.FullName, p.DateOfBirth, p.InsuranceProvider,
			p.PlanName, p.PlanType, p.CoverageType, p.ValidFrom, p.ValidUntil,
			p.Status, p.Dependents, p.MaxBenefitLimit, p.RoomAndBoardLimit); err != nil {
			return fmt.Errorf("failed to seed policy %s: %w", p.PolicyNumber, err)
		}
	}

	for _, c := range seedClaims {
		if _, err := tx.Exec(`
			INSERT INTO claims VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ClaimID, c.PolicyNumber, c.ClaimDate, c.Amount,
			c.ServiceType, c.Hospital, c.Status, c.Description); err != nil {
			return fmt.Errorf("failed to seed claim %s: %w", c.ClaimID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}
	return nil
}

// LookupByName finds a policy by the holder's full name, case-insensitively.
func (l *Ledger) LookupByName(ctx context.Context, fullName string) (Policy, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT policy_number, full_name, date_of_birth, insurance_provider,
		       plan_name, plan_type, coverage_type, valid_from, valid_until,
		       status, dependents, max_benefit_limit, room_and_board_limit
		FROM policies
		WHERE LOWER(full_name) = LOWER(?)
		LIMIT 1
	`, strings.TrimSpace(fullName))

	var p Policy
	err := row.Scan(&p.PolicyNumber, &p.FullName, &p.DateOfBirth,
		&p.InsuranceProvider, &p.PlanName, &p.PlanType, &p.CoverageType,
		&p.ValidFrom, &p.ValidUntil, &p.Status, &p.Dependents,
		&p.MaxBenefitLimit, &p.RoomAndBoardLimit)
	if errors.Is(err, sql.ErrNoRows) {
		return Policy{}, ErrPolicyNotFound
	}
	if err != nil {
		return Policy{}, fmt.Errorf("failed to look up policy for %q: %w", fullName, err)
	}
	return p, nil
}

// ClaimsInPeriod returns the approved claims for a policy whose claim date
// falls inside [validFrom, validUntil], ordered by claim date.
func (l *Ledger) ClaimsInPeriod(ctx context.Context, policyNumber, validFrom, validUntil string) ([]triage.Claim, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT claim_id, policy_number, claim_date, claim_amount,
		       service_type, hospital, status, description
		FROM claims
		WHERE policy_number = ?
		  AND status = 'APPROVED'
		  AND claim_date >= ?
		  AND claim_date <= ?
		ORDER BY claim_date
	`, policyNumber, validFrom, validUntil)
	if err != nil {
		return nil, fmt.Errorf("failed to query claims for %s: %w", policyNumber, err)
	}
	defer func() { _ = rows.Close() }()

	var claims []triage.Claim
	for rows.Next() {
		var c triage.Claim
		if err := rows.Scan(&c.ClaimID, &c.PolicyNumber, &c.ClaimDate, &c.Amount,
			&c.ServiceType, &c.Hospital, &c.Status, &c.Description); err != nil {
			return nil, fmt.Errorf("failed to scan claim row: %w", err)
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claim rows: %w", err)
	}
	return claims, nil
}

// BenefitUsage computes the policy's used and remaining benefits from its
// approved claims in the current validity window. Remaining never goes
// negative.
func (l *Ledger) BenefitUsage(ctx context.Context, p Policy) (Usage, error) {
	claims, err := l.ClaimsInPeriod(ctx, p.PolicyNumber, p.ValidFrom, p.ValidUntil)
	if err != nil {
		return Usage{}, err
	}

	var used float64
	for _, c := range claims {
		used += c.Amount
	}

	remaining := p.MaxBenefitLimit - used
	if remaining < 0 {
		remaining = 0
	}

	return Usage{Claims: claims, Used: used, Remaining: remaining}, nil
}
