package symtab

import "sort"

type Symbol struct {
	Name  string
	Value uint64
}

// Table holds the symbols of one mapped object. BaseAddress is where the
// object was mapped; BaseOffset is subtracted from a query address before it
// is compared against symbol values.
type Table struct {
	Path        string
	Symbols     []Symbol
	BaseAddress uint64
	BaseOffset  uint64
}

func NewTable(path string, symbols []Symbol, baseAddress, baseOffset uint64) *Table {
	sorted := make([]Symbol, len(symbols))
	copy(sorted, symbols)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })
	return &Table{
		Path:        path,
		Symbols:     sorted,
		BaseAddress: baseAddress,
		BaseOffset:  baseOffset,
	}
}

// Lookup finds the nearest symbol at or below key. Keys outside
// [first, last] symbol value are unresolved.
func (t *Table) Lookup(key uint64) (sym Symbol, ok bool) {
	count := len(t.Symbols)
	if count < 1 || key < t.Symbols[0].Value || key > t.Symbols[count-1].Value {
		return
	}

	left, right := 0, count
	for left+1 < right {
		middle := (left + right) / 2
		value := t.Symbols[middle].Value
		if value > key {
			right = middle
		} else if value < key {
			left = middle
		} else {
			left = middle
			break
		}
	}
	return t.Symbols[left], true
}
