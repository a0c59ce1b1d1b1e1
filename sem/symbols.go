package sem

// Type is the coarse value category the analyzer tracks. There is no
// inference beyond simple compatibility checks, so a flat enum covers
// it.
type Type string

const (
	TypeInt     Type = "int"
	TypeFloat   Type = "float"
	TypeBool    Type = "bool"
	TypeString  Type = "string"
	TypeFunc    Type = "function"
	TypeUnknown Type = "unknown"
)

func (t Type) IsNumeric() bool {
	return t == TypeInt || t == TypeFloat
}

// Symbol is one variable or function binding.
type Symbol struct {
	Name   string
	Type   Type
	Line   int
	Params []string // function parameter names, in declaration order
}

// SymbolTable is a stack of nested scopes. Resolution walks from the
// innermost scope outward; declaration always lands in the innermost.
type SymbolTable struct {
	scopes []map[string]*Symbol
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		scopes: []map[string]*Symbol{{}},
	}
}

func (t *SymbolTable) Push() {
	t.scopes = append(t.scopes, map[string]*Symbol{})
}

func (t *SymbolTable) Pop() {
	t.scopes = t.scopes[:len(t.scopes)-1]
}

func (t *SymbolTable) Declare(sym *Symbol) {
	t.scopes[len(t.scopes)-1][sym.Name] = sym
}

func (t *SymbolTable) Resolve(name string) *Symbol {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if sym, ok := t.scopes[i][name]; ok {
			return sym
		}
	}

	return nil
}
