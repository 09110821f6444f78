package nodes

import (
	"strings"
	"testing"

	"github.com/lexorch/agent/pkg/models"
)

func TestContextDigest_WithinBudget_NoOverflow(t *testing.T) {
	details := models.NewCaseDetails()
	details.Summary.Current = "caz simplu"

	digest, overflow := contextDigest(details, 65_536)
	if overflow {
		t.Fatalf("overflow = true, want false for a small digest")
	}
	if !strings.Contains(digest, "caz simplu") {
		t.Errorf("digest = %q, want it to contain the summary", digest)
	}
}

func TestContextDigest_OverBudget_ReportsOverflowWithoutTruncating(t *testing.T) {
	details := models.NewCaseDetails()
	details.Summary.Current = strings.Repeat("x", 1000)

	digest, overflow := contextDigest(details, 10)
	if !overflow {
		t.Fatal("overflow = false, want true when the digest exceeds the budget")
	}
	if len(digest) <= 10 {
		t.Errorf("len(digest) = %d, want the full untruncated digest returned alongside overflow=true", len(digest))
	}
}
