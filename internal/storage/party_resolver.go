package storage

import (
	"context"
	"fmt"
)

// PartyResolver authorizes and resolves PII fields for generate_draft: the
// only read path in the system permitted to return PII, and only for a
// party already attached to the requesting case.
type PartyResolver struct {
	parties *PartyPostgresStore
}

func NewPartyResolver(parties *PartyPostgresStore) *PartyResolver {
	return &PartyResolver{parties: parties}
}

// ResolveForDraft returns the requested field values for partyID, after
// checking partyID appears in attachedPartyIDs.
func (r *PartyResolver) ResolveForDraft(ctx context.Context, attachedPartyIDs []string, partyID string, fields []string) (map[string]string, error) {
	attached := false
	for _, id := range attachedPartyIDs {
		if id == partyID {
			attached = true
			break
		}
	}
	if !attached {
		return nil, fmt.Errorf("party %s is not attached to this case", partyID)
	}

	party, err := r.parties.Get(ctx, partyID)
	if err != nil {
		return nil, fmt.Errorf("load party %s: %w", partyID, err)
	}

	values := make(map[string]string, len(fields))
	for _, f := range fields {
		values[f] = party.Field(f)
	}
	return values, nil
}

// PartyValueReader backs tools.PartyValueReader: it reads the same party
// records as PartyResolver, but returns a flat, nameless bag of values for
// internal/piiguard's leak check rather than named fields for a draft.
type PartyValueReader struct {
	parties *PartyPostgresStore
}

func NewPartyValueReader(parties *PartyPostgresStore) *PartyValueReader {
	return &PartyValueReader{parties: parties}
}

// ValuesForParties loads each attached party and flattens its non-empty PII
// fields into one slice. Unlike ResolveForDraft it does not authorize
// against a requested partyID: every id in attachedPartyIDs is already
// scoped to the case by the caller.
func (r *PartyValueReader) ValuesForParties(ctx context.Context, attachedPartyIDs []string) ([]string, error) {
	var values []string
	for _, id := range attachedPartyIDs {
		party, err := r.parties.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load party %s: %w", id, err)
		}
		values = append(values, party.Values()...)
	}
	return values, nil
}
