package project

import (
	"debug/elf"

	"github.com/archsymex/symex/pkg/engerrors"
)

// supportedMachines maps the ELF e_machine field to the architecture
// names the executor accepts. Instruction decoding itself is out of
// scope; this is only enough to fail fast on a binary the decoders
// named elsewhere in the toolchain could not handle anyway.
var supportedMachines = map[elf.Machine]string{
	elf.EM_ARM: "armv7e-m",
}

// DetectArch opens path as an ELF file and reports its architecture
// without decoding any instructions. The full ELF/bitcode front-end that
// produces a Project's Modules lives outside this package.
func DetectArch(path string) (string, error) {
	f, err := elf.Open(path)
	if err != nil {
		return "", &engerrors.UnableToParseElfError{Cause: err}
	}
	defer f.Close()

	arch, ok := supportedMachines[f.Machine]
	if !ok {
		return "", &engerrors.UnsupportedArchitectureError{Arch: f.Machine.String()}
	}
	return arch, nil
}
