package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/lexorch/agent/pkg/models"
)

type fakeKnowledgeBase struct {
	records []models.ResearchRecord
	err     error
	calls   int
}

func (f *fakeKnowledgeBase) Query(ctx context.Context, source models.ResearchSource, keywords []string, mode string, docIDs []string, limit int) ([]models.ResearchRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func TestResearchQueryTool_ZeroSummaryLimit_NeverCallsKnowledgeBase(t *testing.T) {
	kb := &fakeKnowledgeBase{records: []models.ResearchRecord{{DocID: "doc-1"}}}
	tool := NewResearchQueryTool(kb, 0)

	input, _ := json.Marshal(map[string]any{
		"source":   "legislation",
		"keywords": []string{"contract"},
		"mode":     "summaries",
	})
	result := tool.Execute(context.Background(), input)

	if result.OK {
		t.Fatalf("result.OK = true, want a validation failure when summary limit is 0")
	}
	if result.ErrKind != models.ErrInvalidInput {
		t.Errorf("result.ErrKind = %v, want ErrInvalidInput", result.ErrKind)
	}
	if kb.calls != 0 {
		t.Errorf("knowledge base was queried %d times, want 0", kb.calls)
	}
}

func TestResearchQueryTool_PositiveSummaryLimit_QueriesKnowledgeBase(t *testing.T) {
	kb := &fakeKnowledgeBase{records: []models.ResearchRecord{{DocID: "doc-1"}}}
	tool := NewResearchQueryTool(kb, 5)

	input, _ := json.Marshal(map[string]any{
		"source":   "legislation",
		"keywords": []string{"contract"},
		"mode":     "summaries",
	})
	result := tool.Execute(context.Background(), input)

	if !result.OK {
		t.Fatalf("result = %+v, want success", result)
	}
	if kb.calls != 1 {
		t.Errorf("knowledge base was queried %d times, want 1", kb.calls)
	}
}
