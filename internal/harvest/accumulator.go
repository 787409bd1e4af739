package harvest

// Accumulator is an insertion-ordered set of extracted values for one filter.
// It is not safe for concurrent use; RunState serializes access to the active one.
type Accumulator struct {
	seen   map[string]struct{}
	values []string
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		seen: make(map[string]struct{}),
	}
}

// Add inserts v and reports whether it was new. Re-adding an existing value
// changes neither the size nor the order.
func (a *Accumulator) Add(v string) bool {
	if _, ok := a.seen[v]; ok {
		return false
	}
	a.seen[v] = struct{}{}
	a.values = append(a.values, v)
	return true
}

// Merge adds every value in order and returns how many were new.
func (a *Accumulator) Merge(values []string) int {
	added := 0
	for _, v := range values {
		if a.Add(v) {
			added++
		}
	}
	return added
}

func (a *Accumulator) Len() int {
	return len(a.values)
}

// Values returns a copy of the members in insertion order.
func (a *Accumulator) Values() []string {
	out := make([]string, len(a.values))
	copy(out, a.values)
	return out
}
