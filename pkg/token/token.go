package token

type Type int

const (
	EOF Type = iota
	Comment
	Newline
	Ident
	String
	Char
	Int // decimal number or the raw content of a [ ... ] group
	If
	OrIf
	Else
	Switch
	Case
	Fallthrough
	Default
	Loop
	For
	In
	Defer
	Return
	Break
	Continue
	Struct
	Enum
	And
	Or
	True
	False
	LParen
	RParen
	LBrace
	RBrace
	Colon
	DoubleColon
	Semi
	Comma
	Pipe
	Caret
	Amp
	Dollar
	At
	Eq
	Lt
	Gt
	Bang
)

var KeywordMap = map[string]Type{
	"if":          If,
	"orif":        OrIf,
	"else":        Else,
	"switch":      Switch,
	"case":        Case,
	"fallthrough": Fallthrough,
	"default":     Default,
	"loop":        Loop,
	"for":         For,
	"in":          In,
	"defer":       Defer,
	"return":      Return,
	"break":       Break,
	"continue":    Continue,
	"struct":      Struct,
	"enum":        Enum,
	"and":         And,
	"or":          Or,
	"true":        True,
	"false":       False,
}

// Reverse mapping from Type to the keyword string
var TypeStrings = map[Type]string{
	EOF: "end of file", Comment: "comment", Newline: "newline", Ident: "identifier",
	String: "string", Char: "char", Int: "integer", LParen: "(", RParen: ")",
	LBrace: "{", RBrace: "}", Colon: ":", DoubleColon: "::", Semi: ";", Comma: ",",
	Pipe: "|", Caret: "^", Amp: "&", Dollar: "$", At: "@", Eq: "=", Lt: "<", Gt: ">",
	Bang: "!",
}

func init() {
	for str, typ := range KeywordMap {
		TypeStrings[typ] = str
	}
}

func (t Type) String() string {
	if s, ok := TypeStrings[t]; ok {
		return s
	}
	return "unknown"
}

type Token struct {
	Type      Type
	Value     string
	FileIndex int
	Line      int
	Column    int
	Len       int
}

// Text renders the token roughly as it appeared in the source.
func (t Token) Text() string {
	switch t.Type {
	case Ident:
		return t.Value
	case String:
		return "\"" + t.Value + "\""
	case Char:
		return "'" + t.Value + "'"
	case Int:
		return t.Value
	}
	return t.Type.String()
}

// IsTrivia reports tokens the parser skips between statements.
func (t Token) IsTrivia() bool { return t.Type == Comment || t.Type == Newline }
