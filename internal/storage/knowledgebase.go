package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/lexorch/agent/pkg/models"
)

// KnowledgeBaseStore backs the research_query tool: legislation and
// jurisprudence records queried by keyword. Resolved per SPEC_FULL.md §4.1's
// Open Question as a Postgres/CockroachDB table with full-text keyword
// matching (body_tsv @@ plainto_tsquery),
// rather than an external search API — the teacher's storage layer has no
// HTTP search client anywhere in its dependency surface, but does have a
// SQL-backed document store this generalizes cleanly from.
type KnowledgeBaseStore struct {
	db *sql.DB
}

func NewKnowledgeBaseStore(db *sql.DB) *KnowledgeBaseStore {
	return &KnowledgeBaseStore{db: db}
}

// Query mode constants mirror spec.md §4.1's research_query contract.
const (
	ModeSummaries = "summaries"
	ModeFullText  = "full_text"
)

// QueryOptions describes one research_query invocation.
type QueryOptions struct {
	Source   models.ResearchSource
	Keywords []string
	Mode     string
	DocIDs   []string
	Limit    int
}

// Query searches the legislation or jurisprudence table for keyword or
// doc_id matches and returns at most Limit records in relevance order; a
// Limit that is not positive or is above 10 is treated as 10.
func (s *KnowledgeBaseStore) Query(ctx context.Context, opts QueryOptions) ([]models.ResearchRecord, error) {
	table := "legislation_documents"
	if opts.Source == models.SourceJurisprudence {
		table = "jurisprudence_documents"
	}

	limit := opts.Limit
	if limit <= 0 || limit > 10 {
		limit = 10
	}

	columns := "doc_id, title, summary, relevance"
	if opts.Mode == ModeFullText {
		columns = "doc_id, title, full_text, relevance"
	}

	var (
		rows *sql.Rows
		err  error
	)
	if len(opts.DocIDs) > 0 {
		rows, err = s.db.QueryContext(ctx,
			fmt.Sprintf(`SELECT %s FROM %s WHERE doc_id = ANY($1) ORDER BY relevance DESC LIMIT $2`, columns, table),
			pq.Array(opts.DocIDs), limit,
		)
	} else {
		rows, err = s.db.QueryContext(ctx,
			fmt.Sprintf(`SELECT %s FROM %s WHERE body_tsv @@ plainto_tsquery('simple', $1) ORDER BY relevance DESC LIMIT $2`, columns, table),
			joinKeywords(opts.Keywords), limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var records []models.ResearchRecord
	for rows.Next() {
		var rec models.ResearchRecord
		if opts.Mode == ModeFullText {
			if err := rows.Scan(&rec.DocID, &rec.Title, &rec.FullText, &rec.Relevance); err != nil {
				return nil, fmt.Errorf("scan %s row: %w", table, err)
			}
		} else {
			if err := rows.Scan(&rec.DocID, &rec.Title, &rec.Summary, &rec.Relevance); err != nil {
				return nil, fmt.Errorf("scan %s row: %w", table, err)
			}
		}
		rec.Status = models.ResearchConsidered
		records = append(records, rec)
	}
	return records, rows.Err()
}

// KnowledgeBaseAdapter adapts KnowledgeBaseStore's options-struct Query to
// the flat-argument shape the research_query tool expects.
type KnowledgeBaseAdapter struct {
	Store *KnowledgeBaseStore
}

func (a *KnowledgeBaseAdapter) Query(ctx context.Context, source models.ResearchSource, keywords []string, mode string, docIDs []string, limit int) ([]models.ResearchRecord, error) {
	return a.Store.Query(ctx, QueryOptions{Source: source, Keywords: keywords, Mode: mode, DocIDs: docIDs, Limit: limit})
}

func joinKeywords(keywords []string) string {
	out := ""
	for i, k := range keywords {
		if i > 0 {
			out += " "
		}
		out += k
	}
	return out
}
