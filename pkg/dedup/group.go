package dedup

import (
	"sort"
	"strings"

	"github.com/mesh-intelligence/docket/pkg/types"
)

// Group is a set of records that share at least one identifier, directly
// or through other members.
type Group struct {
	Namespace types.Namespace
	// Members are ordered by intake order.
	Members []*types.EvidenceRecord
	// Keys are the normalized identifier values held by more than one member.
	Keys []string
}

// GroupRecords returns the duplicate groups among records. Removed records and
// records without identifiers are ignored. Groups are ordered by the
// lowest intake order among their members.
func GroupRecords(records []*types.EvidenceRecord) []Group {
	var live []*types.EvidenceRecord
	for _, r := range records {
		if r.IsLive() {
			live = append(live, r)
		}
	}
	sort.SliceStable(live, func(i, j int) bool {
		if live[i].IntakeOrder != live[j].IntakeOrder {
			return live[i].IntakeOrder < live[j].IntakeOrder
		}
		return live[i].RecordID < live[j].RecordID
	})

	uf := newUnionFind(len(live))
	owner := make(map[string]int)
	shared := make(map[string]bool)
	for i, r := range live {
		for _, k := range identityKeys(r) {
			if j, ok := owner[k]; ok {
				shared[k] = true
				uf.union(i, j)
				continue
			}
			owner[k] = i
		}
	}

	byRoot := make(map[int]*Group)
	var roots []int
	for i, r := range live {
		root := uf.find(i)
		g, ok := byRoot[root]
		if !ok {
			g = &Group{Namespace: r.Namespace}
			byRoot[root] = g
			roots = append(roots, root)
		}
		g.Members = append(g.Members, r)
	}
	for k := range shared {
		g := byRoot[uf.find(owner[k])]
		g.Keys = append(g.Keys, k)
	}

	// roots is in order of first appearance, and live is in intake order.
	var groups []Group
	for _, root := range roots {
		g := byRoot[root]
		if len(g.Members) < 2 {
			continue
		}
		sort.Strings(g.Keys)
		for i, k := range g.Keys {
			g.Keys[i] = k[strings.IndexByte(k, 0)+1:]
		}
		groups = append(groups, *g)
	}
	return groups
}

// identityKeys returns the namespace-scoped normalized identifier values of r.
func identityKeys(r *types.EvidenceRecord) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, v := range []string{r.TempID, r.FinalID, r.DisplayNumber} {
		n := normalize(v)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		keys = append(keys, string(r.Namespace)+"\x00"+n)
	}
	return keys
}

func normalize(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] || (u.rank[ra] == u.rank[rb] && rb < ra) {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}
