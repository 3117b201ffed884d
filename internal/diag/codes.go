package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Парсерные
	SynInfo            Code = 2000
	SynUnexpectedToken Code = 2001

	IOLoadFileError  Code = 4001
	IOWriteFileError Code = 4002

	ProjInfo            Code = 5000
	ProjManifestInvalid Code = 5001

	// imports
	ImpInfo                  Code = 6000
	ImpRedundantImplicitName Code = 6001

	// class layout
	LayInfo                  Code = 7000
	LayRedundantAbstractDecl Code = 7001
)

var codeDescription = map[Code]string{
	UnknownCode:              "Unknown error",
	SynInfo:                  "Syntax information",
	SynUnexpectedToken:       "Unexpected token",
	IOLoadFileError:          "I/O load file error",
	IOWriteFileError:         "I/O write file error",
	ProjInfo:                 "Project information",
	ProjManifestInvalid:      "Invalid project manifest",
	ImpInfo:                  "Import information",
	ImpRedundantImplicitName: "Unnecessary import from an implicit package",
	LayInfo:                  "Class layout information",
	LayRedundantAbstractDecl: "Abstract method overrides abstract method",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("IMP%04d", ic)
	case ic >= 7000 && ic < 8000:
		return fmt.Sprintf("LAY%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
