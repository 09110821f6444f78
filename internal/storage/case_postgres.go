package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/lexorch/agent/internal/casestore"
	"github.com/lexorch/agent/pkg/models"
)

// CasePostgresStore implements casestore.Store against a single
// case_documents table holding the case, its case_details tree, and the
// processing-state checkpoint as JSONB columns, per SPEC_FULL.md §4.2's
// resolution of the knowledge-base/case-store backend question.
type CasePostgresStore struct {
	db *sql.DB
}

// NewCasePostgresStore wraps an already-opened, already-pinged *sql.DB.
func NewCasePostgresStore(db *sql.DB) *CasePostgresStore {
	return &CasePostgresStore{db: db}
}

var _ casestore.Store = (*CasePostgresStore)(nil)

func (s *CasePostgresStore) LoadCase(ctx context.Context, caseID string) (*models.Case, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT case_data FROM case_documents WHERE case_id = $1`, caseID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load case %s: %w", caseID, err)
	}
	var c models.Case
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode case %s: %w", caseID, err)
	}
	return &c, nil
}

func (s *CasePostgresStore) SaveCase(ctx context.Context, c *models.Case) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode case %s: %w", c.CaseID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO case_documents (case_id, case_data, case_details, updated_at)
		VALUES ($1, $2, '{}'::jsonb, now())
		ON CONFLICT (case_id) DO UPDATE SET case_data = EXCLUDED.case_data, updated_at = now()
	`, c.CaseID, data)
	if err != nil {
		return fmt.Errorf("save case %s: %w", c.CaseID, err)
	}
	return nil
}

func (s *CasePostgresStore) LoadDetails(ctx context.Context, caseID string) (*models.CaseDetails, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT case_details FROM case_documents WHERE case_id = $1`, caseID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewCaseDetails(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load case_details %s: %w", caseID, err)
	}
	details := models.NewCaseDetails()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, details); err != nil {
			return nil, fmt.Errorf("decode case_details %s: %w", caseID, err)
		}
	}
	return details, nil
}

// SaveDetails writes the full case_details document transactionally,
// row-locking the document first so concurrent apply_updates calls for the
// same case (which should already be excluded by the single-writer lock)
// cannot interleave.
func (s *CasePostgresStore) SaveDetails(ctx context.Context, caseID string, details *models.CaseDetails) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM case_documents WHERE case_id = $1 FOR UPDATE)`, caseID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("lock case_documents row for %s: %w", caseID, err)
	}

	data, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encode case_details %s: %w", caseID, err)
	}

	if exists {
		_, err = tx.ExecContext(ctx,
			`UPDATE case_documents SET case_details = $2, updated_at = now() WHERE case_id = $1`,
			caseID, data)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO case_documents (case_id, case_data, case_details, updated_at) VALUES ($1, '{}'::jsonb, $2, now())`,
			caseID, data)
	}
	if err != nil {
		return fmt.Errorf("write case_details %s: %w", caseID, err)
	}

	return tx.Commit()
}

func (s *CasePostgresStore) LoadProcessingState(ctx context.Context, caseID string) (*models.ProcessingState, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT case_processing_state FROM case_documents WHERE case_id = $1`, caseID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) || len(raw) == 0 {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load processing state %s: %w", caseID, err)
	}
	var state models.ProcessingState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode processing state %s: %w", caseID, err)
	}
	return &state, nil
}

func (s *CasePostgresStore) SaveProcessingState(ctx context.Context, caseID string, state *models.ProcessingState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode processing state %s: %w", caseID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE case_documents SET case_processing_state = $2, updated_at = now() WHERE case_id = $1`,
		caseID, data)
	return err
}

func (s *CasePostgresStore) ClearProcessingState(ctx context.Context, caseID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE case_documents SET case_processing_state = NULL, updated_at = now() WHERE case_id = $1`,
		caseID)
	return err
}

// PartyPostgresStore persists PII-bearing party records in their own table,
// never joined into any query that flows toward an LLM client.
type PartyPostgresStore struct {
	db *sql.DB
}

func NewPartyPostgresStore(db *sql.DB) *PartyPostgresStore {
	return &PartyPostgresStore{db: db}
}

func (s *PartyPostgresStore) Get(ctx context.Context, partyID string) (*models.Party, error) {
	var p models.Party
	err := s.db.QueryRowContext(ctx, `
		SELECT party_id, kind, first_name, last_name, legal_name, national_id,
		       fiscal_code, registration_number, registered_address, contact_email, contact_phone
		FROM parties WHERE party_id = $1
	`, partyID).Scan(
		&p.PartyID, &p.Kind, &p.FirstName, &p.LastName, &p.LegalName, &p.NationalID,
		&p.FiscalCode, &p.RegistrationNumber, &p.RegisteredAddress, &p.ContactEmail, &p.ContactPhone,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load party %s: %w", partyID, err)
	}
	return &p, nil
}

func (s *PartyPostgresStore) Create(ctx context.Context, p *models.Party) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO parties (party_id, kind, first_name, last_name, legal_name, national_id,
		                      fiscal_code, registration_number, registered_address, contact_email, contact_phone)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, p.PartyID, p.Kind, p.FirstName, p.LastName, p.LegalName, p.NationalID,
		p.FiscalCode, p.RegistrationNumber, p.RegisteredAddress, p.ContactEmail, p.ContactPhone)
	if err != nil {
		return fmt.Errorf("create party %s: %w", p.PartyID, err)
	}
	return nil
}

// FindByReference resolves a user-supplied reference string (a name
// fragment, an email, a partial fiscal code) against the parties attached
// to one case. It only searches attachedPartyIDs — get_party_id_by_reference
// never leaks ids belonging to other cases.
func (s *PartyPostgresStore) FindByReference(ctx context.Context, attachedPartyIDs []string, reference string) (string, error) {
	if len(attachedPartyIDs) == 0 {
		return "", ErrNotFound
	}
	var partyID string
	err := s.db.QueryRowContext(ctx, `
		SELECT party_id FROM parties
		WHERE party_id = ANY($1)
		  AND (first_name ILIKE '%'||$2||'%' OR last_name ILIKE '%'||$2||'%'
		       OR legal_name ILIKE '%'||$2||'%' OR contact_email ILIKE '%'||$2||'%')
		LIMIT 1
	`, pq.Array(attachedPartyIDs), reference).Scan(&partyID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find party by reference: %w", err)
	}
	return partyID, nil
}
