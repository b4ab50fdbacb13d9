package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"clinical-assist-be/internal/entity"
)

// genesisHash seeds the chain before any entry exists.
const genesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// ComputeEntryHash derives the tamper-evidence hash for an entry given the
// hash of the previous entry. The digest covers every field that matters for
// the audit trail, so editing any recorded fact breaks the chain.
func ComputeEntryHash(prevHash string, e *entity.AuditEntry) string {
	var sb strings.Builder
	sb.WriteString(prevHash)
	sb.WriteString("|")
	sb.WriteString(e.QueryID.String())
	sb.WriteString("|")
	sb.WriteString(e.PrincipalID.String())
	sb.WriteString("|")
	sb.WriteString(e.PatientID)
	sb.WriteString("|")
	sb.WriteString(string(e.Action))
	sb.WriteString("|")
	sb.WriteString(string(e.Outcome))
	sb.WriteString("|")
	sb.WriteString(e.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"))
	sb.WriteString("|")
	sb.WriteString(fmt.Sprintf("%d", e.LatencyMs))
	sb.WriteString("|")
	sb.WriteString(canonicalDetails(e.Details))

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// canonicalDetails renders the details map with sorted keys so the hash is
// stable regardless of map iteration order.
func canonicalDetails(details map[string]interface{}) string {
	if len(details) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(",")
		}
		v, err := json.Marshal(details[k])
		if err != nil {
			v = []byte(`"<unencodable>"`)
		}
		sb.WriteString(fmt.Sprintf("%q:%s", k, v))
	}
	sb.WriteString("}")
	return sb.String()
}

// ChainBreak describes the first point where chain verification failed.
type ChainBreak struct {
	Index    int
	QueryID  string
	Expected string
	Actual   string
}

func (b *ChainBreak) Error() string {
	return fmt.Sprintf("audit chain broken at entry %d (query_id=%s): expected hash %s, got %s",
		b.Index, b.QueryID, b.Expected, b.Actual)
}

// VerifyChain walks entries in insertion order and recomputes every hash.
// It returns nil when the chain is intact, or a *ChainBreak pinpointing the
// first tampered or reordered entry.
func VerifyChain(entries []*entity.AuditEntry) error {
	prev := genesisHash
	for i, e := range entries {
		if e.PrevHash != prev {
			return &ChainBreak{Index: i, QueryID: e.QueryID.String(), Expected: prev, Actual: e.PrevHash}
		}
		expected := ComputeEntryHash(prev, e)
		if e.EntryHash != expected {
			return &ChainBreak{Index: i, QueryID: e.QueryID.String(), Expected: expected, Actual: e.EntryHash}
		}
		prev = e.EntryHash
	}
	return nil
}
