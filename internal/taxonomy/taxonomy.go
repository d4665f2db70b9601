// Package taxonomy defines the categorical ordering of log actions.
// The order is injected configuration, not a process-wide constant, so the
// ranking can be exercised with synthetic orders in tests.
package taxonomy

// Order ranks action names by their position in a fixed list. Actions
// absent from the list rank after every listed action.
type Order struct {
	names []string
	ranks map[string]int
}

// New builds an Order from the given action names. Duplicates keep their
// first position.
func New(names []string) *Order {
	ranks := make(map[string]int, len(names))
	kept := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := ranks[name]; ok {
			continue
		}
		ranks[name] = len(kept)
		kept = append(kept, name)
	}
	return &Order{names: kept, ranks: ranks}
}

// Rank returns the categorical rank of an action. Unknown actions get the
// sentinel rank, sorting them after all known ones.
func (o *Order) Rank(action string) int {
	if rank, ok := o.ranks[action]; ok {
		return rank
	}
	return len(o.names)
}

// Sentinel is the rank assigned to actions outside the order.
func (o *Order) Sentinel() int {
	return len(o.names)
}

// Names returns the ordered action names.
func (o *Order) Names() []string {
	out := make([]string, len(o.names))
	copy(out, o.names)
	return out
}

// Len reports how many actions are ranked.
func (o *Order) Len() int {
	return len(o.names)
}
