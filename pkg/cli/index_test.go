package cli

import (
	"bytes"
	"testing"

	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/insurdesk/concierge/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	printStatus(&buf, types.SourceTypeFAQ, &model.IndexStatus{Total: 3, Vectorized: 1, Unvectorized: 2})

	out := buf.String()
	gt.String(t, out).Contains("Index status (faq)")
	gt.String(t, out).Contains("total:        3")
	gt.String(t, out).Contains("unvectorized: 2")
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, &model.IndexResult{Success: true, Processed: 4, Errors: []string{}})
	gt.String(t, buf.String()).Contains("Indexed 4 entries")

	buf.Reset()
	printResult(&buf, &model.IndexResult{Failed: 2, Errors: []string{"batch mismatch"}})
	gt.String(t, buf.String()).Contains("Indexing failed for 2 entries")
	gt.String(t, buf.String()).Contains("- batch mismatch")
}
