package symtab

type Resolution struct {
	Name       string
	Offset     uint64
	BaseOffset uint64
	Path       string
}

// Registry is the set of tables built for one traced process. It is not
// modified after construction, so lookups may run concurrently.
type Registry struct {
	tables []*Table
}

func NewRegistry(tables ...*Table) *Registry {
	return &Registry{tables: tables}
}

func (r *Registry) Add(table *Table) {
	r.tables = append(r.tables, table)
}

func (r *Registry) Tables() []*Table {
	return r.tables
}

func (r *Registry) Len() int {
	return len(r.tables)
}

// Select picks the table with the highest base address not above addr. On
// equal base addresses the earliest registered table wins.
func (r *Registry) Select(addr uint64) (nearest *Table, ok bool) {
	for _, table := range r.tables {
		if table.BaseAddress > addr {
			continue
		}
		if nearest == nil || table.BaseAddress > nearest.BaseAddress {
			nearest = table
		}
	}
	return nearest, nearest != nil
}

// Resolve never falls back to a second table: if the selected table has no
// symbol covering addr the address is unresolved.
func (r *Registry) Resolve(addr uint64) (res Resolution, ok bool) {
	table, ok := r.Select(addr)
	if !ok {
		return
	}
	key := addr - table.BaseOffset
	sym, ok := table.Lookup(key)
	if !ok {
		return
	}
	return Resolution{
		Name:       sym.Name,
		Offset:     key - sym.Value,
		BaseOffset: table.BaseOffset,
		Path:       table.Path,
	}, true
}
