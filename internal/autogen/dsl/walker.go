package dsl

import "github.com/mvp-joe/propscan/internal/autogen/tree"

// walker extracts ClassRecords while visiting one file.
type walker struct {
	symbols SymbolLookup
	file    string
	mode    ScopeMode
	scopes  ScopeTracker

	// targets parallels the tracker's class stack. A nil entry is a reopened
	// class whose declarations are not recorded.
	targets []*ClassRecord
	classes map[string]*ClassRecord
}

func newWalker(symbols SymbolLookup, file string, mode ScopeMode) *walker {
	return &walker{
		symbols: symbols,
		file:    file,
		mode:    mode,
		scopes:  NewScopeTracker(mode),
		classes: make(map[string]*ClassRecord),
	}
}

func (w *walker) isPackage(def *tree.ClassDef) bool {
	return w.symbols.Owner(def.Symbol) == tree.PackageRegistry
}

func (w *walker) PreClassDef(def *tree.ClassDef) {
	if w.isPackage(def) {
		return
	}

	ancestors := make([]QualifiedName, 0, len(def.Ancestors))
	for _, expr := range def.Ancestors {
		cnst, ok := expr.(*tree.ConstantLit)
		if !ok || !cnst.Original {
			continue
		}
		ancestors = append(ancestors, SymbolName(w.symbols, cnst.Symbol))
	}

	name := SymbolName(w.symbols, def.Symbol)
	w.scopes.EnterClass(name)

	if existing, ok := w.classes[name.Key()]; ok {
		if w.mode == ScopeLegacy {
			w.push(existing)
		} else {
			w.push(nil)
		}
		return
	}

	rec := &ClassRecord{
		Name:             name,
		Properties:       []PropertyDeclaration{},
		Ancestors:        ancestors,
		SourceFile:       w.file,
		ProblemLocations: []ProblemLocation{},
	}
	w.classes[name.Key()] = rec
	w.push(rec)
}

func (w *walker) PostClassDef(def *tree.ClassDef) {
	if w.isPackage(def) {
		return
	}
	w.scopes.ExitClass()
	w.sync()
}

func (w *walker) PreMethodDef(*tree.MethodDef) {
	w.scopes.EnterMethod()
}

func (w *walker) PostMethodDef(*tree.MethodDef) {
	w.scopes.ExitMethod()
}

func (w *walker) PreSend(send *tree.Send) {
	if w.scopes.Depth() == 0 {
		return
	}
	rec := w.targets[len(w.targets)-1]

	macro := LookupMacro(send.Fun)
	switch {
	case macro.IsProperty():
		if rec == nil {
			return
		}
		if !w.scopes.Valid() {
			rec.ProblemLocations = append(rec.ProblemLocations, send.Pos())
			return
		}
		decl, ok := parseProp(macro, send)
		if !ok {
			rec.ProblemLocations = append(rec.ProblemLocations, send.Pos())
			return
		}
		rec.Properties = append(rec.Properties, decl)

	case macro == MacroModel:
		if rec == nil || !w.scopes.Valid() {
			return
		}
		args := send.PositionalArgs()
		if len(args) == 0 {
			return
		}
		cnst, ok := args[0].(*tree.ConstantLit)
		if !ok || !cnst.Original {
			return
		}
		rec.ModelReference = SymbolName(w.symbols, cnst.Symbol)
	}
}

func (w *walker) push(rec *ClassRecord) {
	w.targets = append(w.targets, rec)
}

// sync trims targets to the tracker's depth after an exit.
func (w *walker) sync() {
	if depth := w.scopes.Depth(); depth < len(w.targets) {
		w.targets = w.targets[:depth]
	}
}
