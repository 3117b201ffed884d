package tree

// Kind tags the declaration category of a Node.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindFile
	KindPackage
	KindImportList
	KindImport
	KindClass
	KindInterface
	KindEnum
	KindRecord
	KindAnnotation // @interface
	KindMethod
	KindConstructor
	KindField
	KindInitializer
	kindCount
)

var kindNames = [...]string{
	KindInvalid:     "invalid",
	KindFile:        "file",
	KindPackage:     "package",
	KindImportList:  "import-list",
	KindImport:      "import",
	KindClass:       "class",
	KindInterface:   "interface",
	KindEnum:        "enum",
	KindRecord:      "record",
	KindAnnotation:  "annotation",
	KindMethod:      "method",
	KindConstructor: "constructor",
	KindField:       "field",
	KindInitializer: "initializer",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// NumKinds is the size of a table indexed by Kind.
const NumKinds = int(kindCount)

// IsTypeDecl reports whether nodes of this kind declare a type.
func (k Kind) IsTypeDecl() bool {
	switch k {
	case KindClass, KindInterface, KindEnum, KindRecord, KindAnnotation:
		return true
	}
	return false
}

// IsInterfaceLike reports whether members of this kind of type are implicitly abstract.
func (k Kind) IsInterfaceLike() bool {
	return k == KindInterface || k == KindAnnotation
}

// TypeDeclKinds lists every type declaration kind.
var TypeDeclKinds = []Kind{KindClass, KindInterface, KindEnum, KindRecord, KindAnnotation}
