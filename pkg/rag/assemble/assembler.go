// Package assemble turns scored retrieval hits into the bounded context block
// handed to the synthesizer.
package assemble

import (
	"bytes"
	"fmt"
	"sort"

	"clinical-assist-be/internal/entity"
)

// Assembler orders, deduplicates and size-bounds retrieved records. Output is
// deterministic for any permutation of the same input set.
type Assembler struct {
	budgetChars int
}

func NewAssembler(budgetChars int) *Assembler {
	return &Assembler{budgetChars: budgetChars}
}

func (a *Assembler) Assemble(records []entity.RetrievedRecord) *entity.AssembledContext {
	if len(records) == 0 {
		return &entity.AssembledContext{}
	}

	ordered := make([]entity.RetrievedRecord, len(records))
	copy(ordered, records)

	// similarity desc, then recorded_at desc, then record id asc. The full
	// tie-break chain makes the ordering total, so identical input sets
	// always assemble identically regardless of arrival order.
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Similarity != ordered[j].Similarity {
			return ordered[i].Similarity > ordered[j].Similarity
		}
		if !ordered[i].RecordedAt.Equal(ordered[j].RecordedAt) {
			return ordered[i].RecordedAt.After(ordered[j].RecordedAt)
		}
		return ordered[i].RecordID.String() < ordered[j].RecordID.String()
	})

	dropped := 0

	// Exact-snippet dedupe. The list is already score-ordered, so the first
	// occurrence is the one to keep.
	seen := make(map[string]struct{}, len(ordered))
	deduped := ordered[:0]
	for _, r := range ordered {
		if _, dup := seen[r.Snippet]; dup {
			dropped++
			continue
		}
		seen[r.Snippet] = struct{}{}
		deduped = append(deduped, r)
	}

	var buf bytes.Buffer
	citations := make([]entity.SourceCitation, 0, len(deduped))
	included := 0

	for i, r := range deduped {
		block := formatBlock(included+1, &r)
		// Whole records only, never a partial snippet. Once the budget is
		// hit everything below this score is cut too, so the context never
		// skips a high-scoring record in favor of a shorter low-scoring one.
		if buf.Len()+len(block) > a.budgetChars {
			dropped += len(deduped) - i
			break
		}
		buf.WriteString(block)
		included++
		citations = append(citations, entity.SourceCitation{
			RecordID:   r.RecordID,
			SourceType: r.SourceType,
			Date:       r.RecordedAt,
			Snippet:    r.Snippet,
			Similarity: r.Similarity,
		})
	}

	return &entity.AssembledContext{
		Text:      buf.String(),
		Citations: citations,
		Included:  included,
		Dropped:   dropped,
	}
}

func formatBlock(n int, r *entity.RetrievedRecord) string {
	return fmt.Sprintf("[Source %d | %s | %s]\n%s\n\n",
		n, r.SourceType, r.RecordedAt.Format("2006-01-02"), r.Snippet)
}
