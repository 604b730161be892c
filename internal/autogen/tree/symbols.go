package tree

// SymbolID addresses a symbol in a SymbolTable.
type SymbolID int32

const (
	// NoSymbol marks an absent symbol. It has no name and no owner.
	NoSymbol SymbolID = -1

	// Root is the owner of every top-level constant.
	Root SymbolID = 0

	// PackageRegistry owns the classes declared by package files (__package.rb).
	PackageRegistry SymbolID = 1
)

const (
	rootName            = "<root>"
	packageRegistryName = "<PackageRegistry>"
)

type symbolKey struct {
	owner SymbolID
	name  string
}

// SymbolTable is an arena of named symbols. Owners are stored as indices into
// the same arena, so walking to the root is a bounded loop over integers.
type SymbolTable struct {
	names  []string
	owners []SymbolID
	index  map[symbolKey]SymbolID
}

// NewSymbolTable creates a table holding only the reserved symbols.
func NewSymbolTable() *SymbolTable {
	st := &SymbolTable{
		index: make(map[symbolKey]SymbolID),
	}
	st.names = append(st.names, rootName, packageRegistryName)
	st.owners = append(st.owners, NoSymbol, Root)
	return st
}

// Enter returns the symbol named name under owner, creating it if needed.
func (st *SymbolTable) Enter(owner SymbolID, name string) SymbolID {
	key := symbolKey{owner: owner, name: name}
	if id, ok := st.index[key]; ok {
		return id
	}
	id := SymbolID(len(st.names))
	st.names = append(st.names, name)
	st.owners = append(st.owners, owner)
	st.index[key] = id
	return id
}

// Lookup finds the symbol named name directly under owner.
func (st *SymbolTable) Lookup(owner SymbolID, name string) (SymbolID, bool) {
	id, ok := st.index[symbolKey{owner: owner, name: name}]
	return id, ok
}

// Exists reports whether id refers to a symbol in this table.
func (st *SymbolTable) Exists(id SymbolID) bool {
	return id >= 0 && int(id) < len(st.names)
}

// Name returns the bare name of id, or "" when it does not exist.
func (st *SymbolTable) Name(id SymbolID) string {
	if !st.Exists(id) {
		return ""
	}
	return st.names[id]
}

// Owner returns the owner of id. Root and missing symbols have no owner.
func (st *SymbolTable) Owner(id SymbolID) SymbolID {
	if !st.Exists(id) {
		return NoSymbol
	}
	return st.owners[id]
}

// Len returns the number of symbols, reserved ones included.
func (st *SymbolTable) Len() int {
	return len(st.names)
}
