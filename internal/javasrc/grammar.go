package javasrc

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// The grammar covers declarations only. Bodies, initializers and annotation
// arguments are matched as balanced token runs and never interpreted.

type compilationUnit struct {
	Package *packageDecl   `@@?`
	Imports []*importDecl  `@@*`
	Decls   []*declaration `@@*`
}

type packageDecl struct {
	Pos    lexer.Position
	Tokens []lexer.Token

	Name string `"package" @Ident ( @"." @Ident )* ";"`
}

type importDecl struct {
	Pos    lexer.Position
	Tokens []lexer.Token

	Static bool   `"import" @"static"?`
	Name   string `@Ident ( @"." ( @Ident | @"*" ) )* ";"`
}

// declaration is anything that may appear at top level or inside a type body.
type declaration struct {
	Pos    lexer.Position
	Tokens []lexer.Token

	Empty     bool        `  @";"`
	Modifiers []*modifier `| @@*`
	Init      *block      `  ( @@`
	Type      *typeDecl   `  | @@`
	Member    *memberDecl `  | @@ )`
}

type modifier struct {
	Annotation *annotation `  @@`
	Keyword    string      `| @( "public" | "protected" | "private" | "static" | "abstract" | "final" | "default" | "native" | "synchronized" | "transient" | "volatile" | "strictfp" | "sealed" | "non-sealed" )`
}

type annotation struct {
	Name string      `"@" @Ident ( @"." @Ident )*`
	Args *parenGroup `@@?`
}

type typeDecl struct {
	Class  *classDecl  `  @@`
	Enum   *enumDecl   `| @@`
	Record *recordDecl `| @@`
}

type classDecl struct {
	Keyword    string      `@( "class" | "interface" | "@" "interface" )`
	Name       string      `@Ident`
	TypeParams *typeParams `@@?`
	Extends    []*typeRef  `( "extends" @@ ( "," @@ )* )?`
	Implements []*typeRef  `( "implements" @@ ( "," @@ )* )?`
	Permits    []*typeRef  `( "permits" @@ ( "," @@ )* )?`
	Body       *classBody  `@@`
}

type enumDecl struct {
	Name       string     `"enum" @Ident`
	Implements []*typeRef `( "implements" @@ ( "," @@ )* )?`
	Body       *enumBody  `@@`
}

type recordDecl struct {
	Name       string      `"record" @Ident`
	TypeParams *typeParams `@@?`
	Components *paramList  `@@`
	Implements []*typeRef  `( "implements" @@ ( "," @@ )* )?`
	Body       *classBody  `@@`
}

type classBody struct {
	Members []*declaration `"{" @@* "}"`
}

type enumBody struct {
	Constants []*enumConstant `"{" ( @@ ( "," @@ )* )? ","?`
	Members   []*declaration  `( ";" @@* )? "}"`
}

type enumConstant struct {
	Annotations []*annotation `@@*`
	Name        string        `@Ident`
	Args        *parenGroup   `@@?`
	Body        *classBody    `@@?`
}

// memberDecl covers methods, constructors and fields; they share a prefix
// up to the first identifier after the type.
type memberDecl struct {
	TypeParams *typeParams `@@?`
	Type       *typeRef    `@@`
	Ctor       *methodTail `(   @@`
	Named      *namedTail  `  | @@ )`
}

type namedTail struct {
	Name   string      `@( Ident | "record" | "sealed" | "permits" )`
	Method *methodTail `(   @@`
	Field  *fieldTail  `  | @@ )`
}

type methodTail struct {
	Params  *paramList   `@@`
	Dims    []string     `( @"[" "]" )*`
	Throws  []*typeRef   `( "throws" @@ ( "," @@ )* )?`
	Default *defaultTail `@@?`
	Body    *block       `(   @@`
	Semi    bool         `  | @";" )`
}

type defaultTail struct {
	Tokens []string `"default" @~";"+`
}

type fieldTail struct {
	Items []*initItem `@@* ";"`
}

type initItem struct {
	Block *block `  @@`
	Token string `| @~( ";" | "{" | "}" )`
}

type paramList struct {
	Params []*param `"(" ( @@ ( "," @@ )* )? ")"`
}

type param struct {
	Modifiers []*modifier `@@*`
	Type      *typeRef    `@@`
	Name      string      `@( Ident | "record" | "sealed" | "permits" )`
	Dims      []string    `( @"[" "]" )*`
}

type typeRef struct {
	Name    string    `@Ident ( @"." @Ident )*`
	Args    *typeArgs `@@?`
	Dims    []string  `( @"[" "]" )*`
	Varargs bool      `@Ellipsis?`
}

type typeArgs struct {
	Args []*typeArg `"<" ( @@ ( "," @@ )* )? ">"`
}

type typeArg struct {
	Wildcard bool     `(  @"?"`
	Bound    *typeRef `   ( ( "extends" | "super" ) @@ )?`
	Type     *typeRef `| @@ )`
}

type typeParams struct {
	Params []*typeParam `"<" @@ ( "," @@ )* ">"`
}

type typeParam struct {
	Annotations []*annotation `@@*`
	Name        string        `@Ident`
	Bounds      []*typeRef    `( "extends" @@ ( "&" @@ )* )?`
}

type block struct {
	Items []*blockItem `"{" @@* "}"`
}

type blockItem struct {
	Block *block `  @@`
	Token string `| @~( "{" | "}" )`
}

type parenGroup struct {
	Items []*parenItem `"(" @@* ")"`
}

type parenItem struct {
	Group *parenGroup `  @@`
	Token string      `| @~( "(" | ")" )`
}
