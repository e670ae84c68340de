// Package project holds the static description of a program under
// analysis: its modules, global variables, and functions. Parsing ELF
// binaries or LLVM bitcode into a Project is an external collaborator
// named only by interface here - the front-end parsers, architecture
// decoders, and demangling live outside this engine's scope.
package project

// GlobalVar is a module-level variable. Initializer is nil for a bare
// declaration (no initializer, skipped during global allocation).
type GlobalVar struct {
	Name        string
	SizeBits    uint64
	Initializer []byte
}

// FunctionDecl names a function; its own address is allocated as a
// pointer-sized slot so that taking its address works like any other
// global.
type FunctionDecl struct {
	Name string
}

type Module struct {
	Name      string
	Globals   []GlobalVar
	Functions []FunctionDecl
}

// Project is the immutable, already-parsed program: every state
// constructed for a run shares one Project by reference.
type Project struct {
	Name             string
	Arch             string
	PointerWidth     uint32
	DefaultAlignment uint32
	Modules          []Module
	EntryFunction    string
}

func (p *Project) FindFunction(name string) (*FunctionDecl, bool) {
	for mi := range p.Modules {
		for fi := range p.Modules[mi].Functions {
			if p.Modules[mi].Functions[fi].Name == name {
				return &p.Modules[mi].Functions[fi], true
			}
		}
	}
	return nil, false
}
