// JSON record structures for the data files that are not plain records.
package sqlite

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/docket/pkg/types"
)

// counterJSON represents one allocation counter in counters.jsonl.
type counterJSON struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

const (
	counterIntakeOrder = "intake_order"
	counterTempPrefix  = "temp_ordinal:"
)

// encodeCounters renders the snapshot counters as JSONL lines in a stable
// order.
func encodeCounters(snap *types.Snapshot) ([]json.RawMessage, error) {
	counters := []counterJSON{{Name: counterIntakeOrder, Value: snap.NextIntakeOrder}}
	var names []string
	for ns := range snap.NextTempOrdinal {
		names = append(names, string(ns))
	}
	sort.Strings(names)
	for _, ns := range names {
		counters = append(counters, counterJSON{
			Name:  counterTempPrefix + ns,
			Value: int64(snap.NextTempOrdinal[types.Namespace(ns)]),
		})
	}
	return marshalLines(counters)
}

// applyCounters sets snapshot counters from counters.jsonl lines. Unknown
// counter names are ignored.
func applyCounters(snap *types.Snapshot, lines []json.RawMessage) {
	for _, line := range lines {
		var c counterJSON
		if err := json.Unmarshal(line, &c); err != nil {
			continue
		}
		switch {
		case c.Name == counterIntakeOrder:
			snap.NextIntakeOrder = c.Value
		case strings.HasPrefix(c.Name, counterTempPrefix):
			ns := types.Namespace(strings.TrimPrefix(c.Name, counterTempPrefix))
			if ns.IsValid() {
				snap.NextTempOrdinal[ns] = int(c.Value)
			}
		}
	}
}

// reconcileCounters raises counters that fall behind the records, which
// happens when the process stopped between writing records.jsonl and
// counters.jsonl.
func reconcileCounters(snap *types.Snapshot) {
	for _, r := range snap.Records {
		if r.IntakeOrder >= snap.NextIntakeOrder {
			snap.NextIntakeOrder = r.IntakeOrder + 1
		}
		if r.TempID == "" {
			continue
		}
		id, err := types.ParseID(r.TempID)
		if err != nil || !id.Temporary {
			continue
		}
		if id.Number >= snap.NextTempOrdinal[id.Namespace] {
			snap.NextTempOrdinal[id.Namespace] = id.Number + 1
		}
	}
}

func marshalLines[T any](items []T) ([]json.RawMessage, error) {
	lines := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("encoding %T: %w", item, err)
		}
		lines = append(lines, b)
	}
	return lines, nil
}
