package state

// Location identifies an instruction in the program: which module,
// function, and basic block it lives in, and its index within the
// block's linear instruction stream.
type Location struct {
	Module      string
	Function    string
	Block       string
	Instruction int
}

func (l Location) WithInstruction(i int) Location {
	l.Instruction = i
	return l
}

func (l Location) WithBlock(block string) Location {
	l.Block = block
	l.Instruction = 0
	return l
}
