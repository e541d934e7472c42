package ast

type DataType string

const (
	Integer   DataType = "ENTIER"
	Real      DataType = "REEL"
	Boolean   DataType = "BOOLEEN"
	String    DataType = "CHAINE"
	Character DataType = "CARACTERE"
	Array     DataType = "TABLEAU"
	List      DataType = "LISTE"
	Unknown   DataType = "UNKNOWN"
)

// LookupDataType maps a type keyword to its DataType.
func LookupDataType(word string) (DataType, bool) {
	switch dt := DataType(word); dt {
	case Integer, Real, Boolean, String, Character, Array, List:
		return dt, true
	}
	return Unknown, false
}

func (t DataType) IsNumeric() bool {
	return t == Integer || t == Real
}

func (t DataType) IsText() bool {
	return t == String || t == Character
}

func (t DataType) IsSequence() bool {
	return t == Array || t == List
}

type Node interface {
	Pos() int
}

type Program struct {
	Name      string
	Variables []VariableDeclaration
	Functions []*FunctionDecl
	Body      []Statement
	Line      int
}

func (p *Program) Pos() int { return p.Line }

type VariableDeclaration struct {
	Name string
	Type DataType
	Size int // -1 when no size was given
	Line int
}

func (d VariableDeclaration) Pos() int { return d.Line }

type Param struct {
	Name string
	Type DataType
}

type FunctionDecl struct {
	Name       string
	Params     []Param
	ReturnType DataType
	Body       []Statement
	Line       int
}

func (f *FunctionDecl) Pos() int { return f.Line }

type Statement interface {
	Node
	isStatement()
}

type Expr interface {
	Node
	isExpr()
}

// Target is what an assignment may write to: *Identifier or *ArrayAccess.
type Target interface {
	Expr
	TargetName() string
}

type Assignment struct {
	Target Target
	Value  Expr
	Line   int
}

type IfStmt struct {
	Cond    Expr
	Then    []Statement
	Else    []Statement
	HasElse bool
	Line    int
}

type WhileStmt struct {
	Cond Expr
	Body []Statement
	Line int
}

type ForStmt struct {
	Var   string
	Start Expr
	End   Expr
	Step  Expr // nil means 1
	Body  []Statement
	Line  int
}

type ReturnStmt struct {
	Value Expr
	Line  int
}

type PrintStmt struct {
	Args []Expr
	Line int
}

type ReadStmt struct {
	Target *Identifier
	Line   int
}

func (s *Assignment) Pos() int { return s.Line }
func (s *IfStmt) Pos() int     { return s.Line }
func (s *WhileStmt) Pos() int  { return s.Line }
func (s *ForStmt) Pos() int    { return s.Line }
func (s *ReturnStmt) Pos() int { return s.Line }
func (s *PrintStmt) Pos() int  { return s.Line }
func (s *ReadStmt) Pos() int   { return s.Line }

func (*Assignment) isStatement() {}
func (*IfStmt) isStatement()     {}
func (*WhileStmt) isStatement()  {}
func (*ForStmt) isStatement()    {}
func (*ReturnStmt) isStatement() {}
func (*PrintStmt) isStatement()  {}
func (*ReadStmt) isStatement()   {}

type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
	Line  int
}

type UnaryExpr struct {
	Op      string
	Operand Expr
	Line    int
}

type Identifier struct {
	Name string
	Line int
}

type NumberLit struct {
	Value float64
	Line  int
}

type StringLit struct {
	Value string
	Line  int
}

type BoolLit struct {
	Value bool
	Line  int
}

type ArrayAccess struct {
	Array *Identifier
	Index Expr
	Line  int
}

// CallExpr is both an expression and, on its own line, a statement.
type CallExpr struct {
	Name string
	Args []Expr
	Line int
}

func (e *BinaryExpr) Pos() int  { return e.Line }
func (e *UnaryExpr) Pos() int   { return e.Line }
func (e *Identifier) Pos() int  { return e.Line }
func (e *NumberLit) Pos() int   { return e.Line }
func (e *StringLit) Pos() int   { return e.Line }
func (e *BoolLit) Pos() int     { return e.Line }
func (e *ArrayAccess) Pos() int { return e.Line }
func (e *CallExpr) Pos() int    { return e.Line }

func (*BinaryExpr) isExpr()  {}
func (*UnaryExpr) isExpr()   {}
func (*Identifier) isExpr()  {}
func (*NumberLit) isExpr()   {}
func (*StringLit) isExpr()   {}
func (*BoolLit) isExpr()     {}
func (*ArrayAccess) isExpr() {}
func (*CallExpr) isExpr()    {}

func (*CallExpr) isStatement() {}

func (e *Identifier) TargetName() string  { return e.Name }
func (e *ArrayAccess) TargetName() string { return e.Array.Name }
