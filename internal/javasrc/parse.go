// Package javasrc turns Java source files into declaration trees.
package javasrc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"fortio.org/safecast"
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"jinspect/internal/source"
	"jinspect/internal/tree"
)

var parser = participle.MustBuild[compilationUnit](
	participle.Lexer(javaLexer),
	participle.Elide(elidedTokens...),
	participle.UseLookahead(4),
)

// SyntaxError reports input the front end could not parse.
type SyntaxError struct {
	Span source.Span
	Msg  string
}

func (e *SyntaxError) Error() string { return e.Msg }

// Parse builds the declaration tree for file. Bodies are skipped; only
// declarations, imports and the package clause become nodes.
func Parse(file *source.File) (*tree.Tree, error) {
	if file == nil {
		return nil, errors.New("javasrc: nil file")
	}
	if _, err := safecast.Conv[uint32](len(file.Content)); err != nil {
		return nil, fmt.Errorf("javasrc: %s: %w", file.Path, err)
	}

	unit, err := parser.ParseBytes(file.Path, file.Content)
	if err != nil {
		return nil, syntaxError(file, err)
	}

	b := &builder{file: file, tree: tree.New(file)}
	b.unit(unit)
	return b.tree, nil
}

func syntaxError(file *source.File, err error) error {
	var perr participle.Error
	if !errors.As(err, &perr) {
		return &SyntaxError{Span: source.Span{File: file.ID}, Msg: err.Error()}
	}
	off := uint32(max(perr.Position().Offset, 0))
	if int(off) > len(file.Content) {
		off = uint32(len(file.Content))
	}
	end := off
	for int(end) < len(file.Content) && !isSpace(file.Content[end]) {
		end++
	}
	return &SyntaxError{
		Span: source.Span{File: file.ID, Start: off, End: end},
		Msg:  perr.Message(),
	}
}

type builder struct {
	file *source.File
	tree *tree.Tree
}

func (b *builder) unit(u *compilationUnit) {
	root := b.tree.Root()
	var listStart uint32

	if u.Package != nil {
		span := b.span(u.Package.Pos.Offset, u.Package.Tokens)
		b.tree.Add(root, tree.Node{Kind: tree.KindPackage, Name: u.Package.Name, Span: span})
		listStart = span.End
	}

	listSpan := source.Span{File: b.file.ID, Start: listStart, End: listStart}
	if len(u.Imports) > 0 {
		first := b.span(u.Imports[0].Pos.Offset, u.Imports[0].Tokens)
		last := b.span(u.Imports[len(u.Imports)-1].Pos.Offset, u.Imports[len(u.Imports)-1].Tokens)
		listSpan = first.Cover(last)
	}
	list := b.tree.Add(root, tree.Node{Kind: tree.KindImportList, Span: listSpan})
	for _, imp := range u.Imports {
		name, onDemand := strings.CutSuffix(imp.Name, ".*")
		b.tree.Add(list, tree.Node{
			Kind:     tree.KindImport,
			Name:     name,
			OnDemand: onDemand,
			Static:   imp.Static,
			Span:     b.span(imp.Pos.Offset, imp.Tokens),
		})
	}

	for _, d := range u.Decls {
		b.decl(root, d)
	}
}

func (b *builder) decl(parent tree.NodeID, d *declaration) {
	if d == nil || d.Empty {
		return
	}
	span := b.declSpan(d)
	mods := modifiers(d.Modifiers)

	switch {
	case d.Init != nil:
		b.tree.Add(parent, tree.Node{Kind: tree.KindInitializer, Mods: mods, Span: span, HasBody: true})

	case d.Type != nil:
		b.typeDecl(parent, d.Type, mods, span)

	case d.Member != nil:
		b.member(parent, d.Member, mods, span)
	}
}

func (b *builder) typeDecl(parent tree.NodeID, t *typeDecl, mods tree.Modifiers, span source.Span) {
	switch {
	case t.Class != nil:
		c := t.Class
		kind := tree.KindClass
		switch c.Keyword {
		case "interface":
			kind = tree.KindInterface
		case "@interface":
			kind = tree.KindAnnotation
		}
		id := b.tree.Add(parent, tree.Node{
			Kind:       kind,
			Name:       c.Name,
			Mods:       mods,
			Span:       span,
			TypeParams: typeParamsOf(c.TypeParams),
			Extends:    supertypeRefs(c.Extends),
			Implements: supertypeRefs(c.Implements),
			HasBody:    true,
		})
		for _, m := range c.Body.Members {
			b.decl(id, m)
		}

	case t.Enum != nil:
		e := t.Enum
		id := b.tree.Add(parent, tree.Node{
			Kind:       tree.KindEnum,
			Name:       e.Name,
			Mods:       mods,
			Span:       span,
			Implements: supertypeRefs(e.Implements),
			HasBody:    true,
		})
		for _, m := range e.Body.Members {
			b.decl(id, m)
		}

	case t.Record != nil:
		r := t.Record
		id := b.tree.Add(parent, tree.Node{
			Kind:       tree.KindRecord,
			Name:       r.Name,
			Mods:       mods,
			Span:       span,
			TypeParams: typeParamsOf(r.TypeParams),
			Implements: supertypeRefs(r.Implements),
			HasBody:    true,
		})
		for _, m := range r.Body.Members {
			b.decl(id, m)
		}
	}
}

func (b *builder) member(parent tree.NodeID, m *memberDecl, mods tree.Modifiers, span source.Span) {
	switch {
	case m.Ctor != nil:
		b.tree.Add(parent, tree.Node{
			Kind:       tree.KindConstructor,
			Name:       m.Type.Name,
			Mods:       mods,
			Span:       span,
			TypeParams: typeParamsOf(m.TypeParams),
			Params:     params(m.Ctor.Params),
			HasBody:    m.Ctor.Body != nil,
		})

	case m.Named != nil && m.Named.Method != nil:
		tail := m.Named.Method
		result := typeRefOf(m.Type)
		result.Dims += len(tail.Dims)
		b.tree.Add(parent, tree.Node{
			Kind:       tree.KindMethod,
			Name:       m.Named.Name,
			Mods:       mods,
			Span:       span,
			TypeParams: typeParamsOf(m.TypeParams),
			Params:     params(tail.Params),
			Result:     result,
			HasBody:    tail.Body != nil,
		})

	case m.Named != nil:
		b.tree.Add(parent, tree.Node{
			Kind:   tree.KindField,
			Name:   m.Named.Name,
			Mods:   mods,
			Span:   span,
			Result: typeRefOf(m.Type),
		})
	}
}

// declSpan covers the declaration and a doc comment directly above it.
func (b *builder) declSpan(d *declaration) source.Span {
	span := b.span(d.Pos.Offset, d.Tokens)
	span.Start = docCommentStart(b.file.Content, span.Start)
	return span
}

func (b *builder) span(start int, tokens []lexer.Token) source.Span {
	end := start
	for i := len(tokens) - 1; i >= 0; i-- {
		if significant(tokens[i]) {
			end = tokens[i].Pos.Offset + len(tokens[i].Value)
			break
		}
	}
	return source.Span{File: b.file.ID, Start: uint32(start), End: uint32(end)}
}

// docCommentStart moves start back over a /** ... */ comment separated from
// the declaration by whitespace only.
func docCommentStart(content []byte, start uint32) uint32 {
	i := int(start)
	for i > 0 && isSpace(content[i-1]) {
		i--
	}
	if !bytes.HasSuffix(content[:i], []byte("*/")) {
		return start
	}
	open := bytes.LastIndex(content[:i-2], []byte("/*"))
	if open < 0 || !bytes.HasPrefix(content[open:], []byte("/**")) {
		return start
	}
	// the comment must start its own line
	j := open
	for j > 0 && (content[j-1] == ' ' || content[j-1] == '\t') {
		j--
	}
	if j > 0 && content[j-1] != '\n' {
		return start
	}
	return uint32(open)
}

func modifiers(mods []*modifier) tree.Modifiers {
	var out tree.Modifiers
	for _, m := range mods {
		if m.Keyword == "" {
			continue
		}
		if bit, ok := tree.ParseModifier(m.Keyword); ok {
			out |= bit
		}
	}
	return out
}

func typeRefOf(t *typeRef) tree.TypeRef {
	if t == nil {
		return tree.TypeRef{}
	}
	return tree.TypeRef{Name: t.Name, Dims: len(t.Dims), Varargs: t.Varargs}
}

func typeRefs(ts []*typeRef) []tree.TypeRef {
	if len(ts) == 0 {
		return nil
	}
	out := make([]tree.TypeRef, 0, len(ts))
	for _, t := range ts {
		out = append(out, typeRefOf(t))
	}
	return out
}

// supertypeRefs keeps the type arguments: override matching substitutes
// them for the supertype's type variables.
func supertypeRefs(ts []*typeRef) []tree.TypeRef {
	if len(ts) == 0 {
		return nil
	}
	out := make([]tree.TypeRef, 0, len(ts))
	for _, t := range ts {
		out = append(out, typeRefWithArgs(t))
	}
	return out
}

func typeRefWithArgs(t *typeRef) tree.TypeRef {
	ref := typeRefOf(t)
	if t == nil || t.Args == nil {
		return ref
	}
	for _, a := range t.Args.Args {
		switch {
		case a == nil:
		case a.Wildcard:
			ref.Args = append(ref.Args, tree.TypeRef{Name: "?"})
		default:
			ref.Args = append(ref.Args, typeRefWithArgs(a.Type))
		}
	}
	return ref
}

func typeParamsOf(tp *typeParams) []tree.TypeParam {
	if tp == nil || len(tp.Params) == 0 {
		return nil
	}
	out := make([]tree.TypeParam, 0, len(tp.Params))
	for _, p := range tp.Params {
		out = append(out, tree.TypeParam{Name: p.Name, Bounds: typeRefs(p.Bounds)})
	}
	return out
}

func params(pl *paramList) []tree.TypeRef {
	if pl == nil || len(pl.Params) == 0 {
		return nil
	}
	out := make([]tree.TypeRef, 0, len(pl.Params))
	for _, p := range pl.Params {
		ref := typeRefOf(p.Type)
		ref.Dims += len(p.Dims)
		out = append(out, ref)
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
