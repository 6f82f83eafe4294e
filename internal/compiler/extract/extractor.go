package extract

import (
	"context"
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/nino-go/nino/internal/compiler/errors"
	"github.com/nino-go/nino/internal/compiler/metadata"
)

// GeneratedFileName is the artifact emitted into each user package.
// Its presence in a dependency marks an already generated codec the
// emitter should call instead of re-emitting.
const GeneratedFileName = "nino.gen.go"

// annotated captures one directly annotated declaration found in pass 1.
type annotated struct {
	named *types.Named
	opts  Options
	pos   token.Position
}

// Extractor projects annotated types from loaded packages into NinoType
// records. It holds no mutable state besides the shared projector, so a
// single extractor may serve concurrent host callbacks.
type Extractor struct {
	projector *metadata.Projector
}

// NewExtractor creates an extractor over the given projector.
func NewExtractor(projector *metadata.Projector) *Extractor {
	return &Extractor{projector: projector}
}

// Result is the output of one extraction batch.
type Result struct {
	Types       []*metadata.NinoType
	Diagnostics []*errors.Diagnostic
}

// Extract walks the loaded packages and returns one NinoType per
// surviving annotated type, ordered by fully qualified name. Types that
// fail generic validity are silently skipped per the structural-reject
// rule; malformed directives produce diagnostics.
func (e *Extractor) Extract(ctx context.Context, pkgs []*packages.Package) (*Result, error) {
	res := &Result{}

	direct, diags, err := e.collectDirect(ctx, pkgs)
	if err != nil {
		return nil, err
	}
	res.Diagnostics = append(res.Diagnostics, diags...)

	// Annotated interfaces in deterministic declaration order, used
	// both for implements checks and parent ordering.
	ifaces := annotatedInterfaces(direct)

	// Dependencies with syntax participate too: their annotated types
	// must exist in the graph for cross-package members to resolve,
	// even though only the requested packages get artifacts.
	for _, pkg := range allSyntaxPackages(pkgs) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scan := newPackageScan(pkg)
		for _, decl := range scan.typeDecls {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			named, ok := scan.namedFor(decl)
			if !ok {
				continue
			}
			ann, isDirect := direct[named]
			if !isDirect {
				opts, ok := e.inheritedOptions(named, direct, ifaces)
				if !ok {
					continue
				}
				ann = annotated{named: named, opts: opts}
			}

			nt, err := e.buildNinoType(ctx, scan, named, ann.opts, isDirect, direct, ifaces)
			if err != nil {
				return nil, err
			}
			if nt == nil {
				continue // structural reject, silent
			}
			res.Types = append(res.Types, nt)
		}
	}

	sort.Slice(res.Types, func(i, j int) bool {
		return res.Types[i].Info.FullName < res.Types[j].Info.FullName
	})
	return res, nil
}

// collectDirect finds every //nino:type annotation in the loaded
// packages, including dependencies, so inheritance collection can see
// annotations declared upstream.
func (e *Extractor) collectDirect(ctx context.Context, pkgs []*packages.Package) (map[*types.Named]annotated, []*errors.Diagnostic, error) {
	direct := make(map[*types.Named]annotated)
	var diags []*errors.Diagnostic

	visit := func(pkg *packages.Package) error {
		scan := newPackageScan(pkg)
		for _, decl := range scan.typeDecls {
			if err := ctx.Err(); err != nil {
				return err
			}
			opts, found, err := findTypeDirective(decl.doc)
			if !found {
				continue
			}
			named, ok := scan.namedFor(decl)
			if !ok {
				continue
			}
			pos := pkg.Fset.Position(decl.spec.Pos())
			if err != nil {
				diags = append(diags, errors.NewBadDirective(
					named.Obj().Name(),
					metadata.SourceLocation{File: pos.Filename, Line: pos.Line, Column: pos.Column},
					decl.doc.Text()))
				continue
			}
			direct[named] = annotated{named: named, opts: opts, pos: pos}
		}
		return nil
	}

	seen := make(map[string]bool)
	var walk func(pkg *packages.Package) error
	walk = func(pkg *packages.Package) error {
		if seen[pkg.PkgPath] {
			return nil
		}
		seen[pkg.PkgPath] = true
		if len(pkg.Syntax) > 0 {
			if err := visit(pkg); err != nil {
				return err
			}
		}
		for _, imp := range pkg.Imports {
			if err := walk(imp); err != nil {
				return err
			}
		}
		return nil
	}
	for _, pkg := range pkgs {
		if err := walk(pkg); err != nil {
			return nil, nil, err
		}
	}
	return direct, diags, nil
}

// inheritedOptions searches self → embedded chain → interfaces for an
// inheritable annotation. The search stops cold at a non-self match
// carrying allow-inheritance=false.
func (e *Extractor) inheritedOptions(named *types.Named, direct map[*types.Named]annotated, ifaces []annotated) (Options, bool) {
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return Options{}, false
	}

	// Embedded chain, depth-first.
	var walkEmbedded func(s *types.Struct) (Options, int)
	walkEmbedded = func(s *types.Struct) (Options, int) {
		for i := 0; i < s.NumFields(); i++ {
			f := s.Field(i)
			if !f.Embedded() {
				continue
			}
			base, ok := types.Unalias(f.Type()).(*types.Named)
			if !ok {
				continue
			}
			if ann, ok := direct[base]; ok {
				if !ann.opts.AllowInheritance {
					return Options{}, searchStop
				}
				return ann.opts, searchFound
			}
			if baseStruct, ok := base.Underlying().(*types.Struct); ok {
				if opts, state := walkEmbedded(baseStruct); state != searchMiss {
					return opts, state
				}
			}
		}
		return Options{}, searchMiss
	}
	if opts, state := walkEmbedded(st); state == searchFound {
		return opts, true
	} else if state == searchStop {
		return Options{}, false
	}

	for _, ann := range ifaces {
		iface := ann.named.Underlying().(*types.Interface)
		if types.Implements(named, iface) || types.Implements(types.NewPointer(named), iface) {
			if !ann.opts.AllowInheritance {
				return Options{}, false
			}
			return ann.opts, true
		}
	}
	return Options{}, false
}

const (
	searchMiss = iota
	searchFound
	searchStop
)

func annotatedInterfaces(direct map[*types.Named]annotated) []annotated {
	var out []annotated
	for _, ann := range direct {
		if _, ok := ann.named.Underlying().(*types.Interface); ok {
			out = append(out, ann)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].pos.Filename != out[j].pos.Filename {
			return out[i].pos.Filename < out[j].pos.Filename
		}
		return out[i].pos.Line < out[j].pos.Line
	})
	return out
}

// buildNinoType assembles the full record for one collected type.
// A nil result with nil error is a silent structural reject.
func (e *Extractor) buildNinoType(ctx context.Context, scan *packageScan, named *types.Named, opts Options, isDirect bool, direct map[*types.Named]annotated, ifaces []annotated) (*metadata.NinoType, error) {
	info, err := e.projector.Project(ctx, named)
	if err != nil {
		return nil, err
	}
	if info.IsGenericDef || metadata.HasInvalidLeaf(info) {
		return nil, nil
	}

	nt := &metadata.NinoType{
		Info:             info,
		AutoCollect:      opts.AutoCollect,
		ContainPrivate:   opts.ContainPrivate,
		AllowInheritance: opts.AllowInheritance,
		DirectAttribute:  isDirect,
	}

	if st, ok := named.Underlying().(*types.Struct); ok {
		if err := e.extractMembers(ctx, scan, nt, st, opts, direct); err != nil {
			return nil, err
		}
		if err := e.extractFactories(ctx, scan, nt, named); err != nil {
			return nil, err
		}
	}

	// Interface parents, after embedded-struct parents.
	nt.ImplementsByValue = true
	hasIfaceParent := false
	for _, ann := range ifaces {
		if ann.named == named {
			continue
		}
		iface := ann.named.Underlying().(*types.Interface)
		byValue := types.Implements(named, iface)
		implements := byValue
		if _, isIface := named.Underlying().(*types.Interface); !isIface {
			implements = implements || types.Implements(types.NewPointer(named), iface)
		}
		if implements {
			hasIfaceParent = true
			if !byValue {
				nt.ImplementsByValue = false
			}
			parent, err := e.projector.Project(ctx, ann.named)
			if err != nil {
				return nil, err
			}
			nt.ParentIDs = append(nt.ParentIDs, parent.TypeID)
			nt.ParentNames = append(nt.ParentNames, parent.FullName)
		}
	}
	if !hasIfaceParent {
		nt.ImplementsByValue = false
	}

	e.discoverForeignCodec(scan, nt, named)

	// Feed the selected factory's parameters back into member flags.
	ctor := nt.SelectConstructor()
	if !ctor.IsLiteral() {
		for i := range nt.Members {
			for _, p := range ctor.Params {
				if strings.EqualFold(p.Name, nt.Members[i].Name) {
					nt.Members[i].IsCtorParameter = true
				}
			}
		}
	}
	return nt, nil
}

func (e *Extractor) extractMembers(ctx context.Context, scan *packageScan, nt *metadata.NinoType, st *types.Struct, opts Options, direct map[*types.Named]annotated) error {
	decl := scan.structDeclFor(nt.Info.Name)
	for i := 0; i < st.NumFields(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := st.Field(i)
		tag := parseMemberTag(st.Tag(i))

		if f.Embedded() {
			// An embedded nino type is a parent, not a member.
			if base, ok := types.Unalias(f.Type()).(*types.Named); ok {
				if _, isNino := direct[base]; isNino {
					parent, err := e.projector.Project(ctx, base)
					if err != nil {
						return err
					}
					nt.ParentIDs = append(nt.ParentIDs, parent.TypeID)
					nt.ParentNames = append(nt.ParentNames, parent.FullName)
					continue
				}
			}
		}

		if tag.Ignore {
			continue
		}
		if !f.Exported() && !opts.ContainPrivate {
			continue
		}
		if !opts.AutoCollect && !tag.Include {
			continue
		}

		mtype, err := e.projector.Project(ctx, f.Type())
		if err != nil {
			return err
		}

		member := metadata.NinoMember{
			Name:      f.Name(),
			Type:      mtype,
			IsPrivate: !f.Exported(),
			IsUTF8:    tag.UTF8 && mtype.Kind == metadata.KindString,
			Loc:       scan.fieldLoc(decl, f.Name()),
		}
		if tag.Formatter != "" {
			if ft := scan.lookupNamed(tag.Formatter); ft != nil {
				fi, err := e.projector.Project(ctx, ft)
				if err != nil {
					return err
				}
				member.CustomFormatter = &fi
			}
		}
		nt.Members = append(nt.Members, member)
	}
	return nil
}

// extractFactories collects exported package-level functions returning
// the type, plus the ref-deserialization factory.
func (e *Extractor) extractFactories(ctx context.Context, scan *packageScan, nt *metadata.NinoType, named *types.Named) error {
	for _, fd := range scan.funcDecls {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn, ok := scan.funcFor(fd)
		if !ok || !fn.Exported() || fd.decl.Recv != nil {
			continue
		}
		sig := fn.Type().(*types.Signature)
		if sig.Results().Len() != 1 || !returnsType(sig.Results().At(0).Type(), named) {
			continue
		}

		if hasRefFactoryDirective(fd.decl.Doc) && sig.Params().Len() == 0 {
			nt.RefFactory = fn.Name()
			continue
		}

		ctor := metadata.ConstructorInfo{Name: fn.Name()}
		_, ctor.ReturnsPointer = types.Unalias(sig.Results().At(0).Type()).(*types.Pointer)
		ctor.ParamOrder, ctor.HasOrderDirective = ctorParamOrder(fd.decl.Doc)
		for i := 0; i < sig.Params().Len(); i++ {
			p := sig.Params().At(i)
			pt, err := e.projector.Project(ctx, p.Type())
			if err != nil {
				return err
			}
			ctor.Params = append(ctor.Params, metadata.FactoryParam{Name: p.Name(), Type: pt})
		}
		ctor.IsPrimary = paramsMatchMembers(ctor.Params, nt.Members)
		nt.Constructors = append(nt.Constructors, ctor)
	}
	sort.Slice(nt.Constructors, func(i, j int) bool {
		return nt.Constructors[i].Name < nt.Constructors[j].Name
	})
	return nil
}

// discoverForeignCodec records the already generated codec pair when
// the declaring package carries a generated artifact from an earlier
// run. Emitters in other packages call the recorded names instead of
// re-emitting; types with neither an artifact nor a slot in the current
// generation set stay unresolvable.
func (e *Extractor) discoverForeignCodec(scan *packageScan, nt *metadata.NinoType, named *types.Named) {
	for _, f := range scan.pkg.GoFiles {
		if filepath.Base(f) == GeneratedFileName {
			nt.CustomSerializer = "Serialize" + named.Obj().Name()
			nt.CustomDeserializer = "Deserialize" + named.Obj().Name()
			return
		}
	}
}

// allSyntaxPackages flattens the requested packages plus every
// transitive dependency that was loaded with syntax.
func allSyntaxPackages(pkgs []*packages.Package) []*packages.Package {
	seen := make(map[string]bool)
	var out []*packages.Package
	var walk func(p *packages.Package)
	walk = func(p *packages.Package) {
		if seen[p.PkgPath] {
			return
		}
		seen[p.PkgPath] = true
		if len(p.Syntax) > 0 {
			out = append(out, p)
		}
		paths := make([]string, 0, len(p.Imports))
		for path := range p.Imports {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			walk(p.Imports[path])
		}
	}
	for _, p := range pkgs {
		walk(p)
	}
	return out
}

func returnsType(result types.Type, named *types.Named) bool {
	result = types.Unalias(result)
	if ptr, ok := result.(*types.Pointer); ok {
		result = types.Unalias(ptr.Elem())
	}
	got, ok := result.(*types.Named)
	return ok && got.Obj() == named.Obj()
}

func paramsMatchMembers(params []metadata.FactoryParam, members []metadata.NinoMember) bool {
	if len(params) == 0 {
		return false
	}
	for _, p := range params {
		found := false
		for _, m := range members {
			if strings.EqualFold(p.Name, m.Name) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// packageScan indexes one package's syntax for directive and location
// lookups.
type packageScan struct {
	pkg       *packages.Package
	typeDecls []typeDecl
	funcDecls []funcDecl
}

type typeDecl struct {
	spec *ast.TypeSpec
	doc  *ast.CommentGroup
}

type funcDecl struct {
	decl *ast.FuncDecl
}

func newPackageScan(pkg *packages.Package) *packageScan {
	scan := &packageScan{pkg: pkg}
	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.GenDecl:
				if d.Tok != token.TYPE {
					continue
				}
				for _, spec := range d.Specs {
					ts, ok := spec.(*ast.TypeSpec)
					if !ok {
						continue
					}
					doc := ts.Doc
					if doc == nil && len(d.Specs) == 1 {
						doc = d.Doc
					}
					scan.typeDecls = append(scan.typeDecls, typeDecl{spec: ts, doc: doc})
				}
			case *ast.FuncDecl:
				scan.funcDecls = append(scan.funcDecls, funcDecl{decl: d})
			}
		}
	}
	return scan
}

func (s *packageScan) namedFor(decl typeDecl) (*types.Named, bool) {
	obj, ok := s.pkg.TypesInfo.Defs[decl.spec.Name].(*types.TypeName)
	if !ok {
		return nil, false
	}
	named, ok := obj.Type().(*types.Named)
	return named, ok
}

func (s *packageScan) funcFor(fd funcDecl) (*types.Func, bool) {
	fn, ok := s.pkg.TypesInfo.Defs[fd.decl.Name].(*types.Func)
	return fn, ok
}

func (s *packageScan) lookupNamed(name string) types.Type {
	obj := s.pkg.Types.Scope().Lookup(name)
	if obj == nil {
		return nil
	}
	return obj.Type()
}

func (s *packageScan) structDeclFor(name string) *ast.StructType {
	for _, decl := range s.typeDecls {
		if decl.spec.Name.Name == name {
			if st, ok := decl.spec.Type.(*ast.StructType); ok {
				return st
			}
		}
	}
	return nil
}

func (s *packageScan) fieldLoc(st *ast.StructType, fieldName string) metadata.SourceLocation {
	if st == nil {
		return metadata.SourceLocation{}
	}
	for _, f := range st.Fields.List {
		for _, n := range f.Names {
			if n.Name == fieldName {
				pos := s.pkg.Fset.Position(n.Pos())
				return metadata.SourceLocation{File: pos.Filename, Line: pos.Line, Column: pos.Column}
			}
		}
	}
	return metadata.SourceLocation{}
}
