package guest

// Bundle is a pre-configured set of related entry points.
type Bundle interface {
	// EntryPoints returns a map of names to entry points.
	EntryPoints() map[string]EntryPoint
}

// StaticBundle implements Bundle with a fixed set of entry points.
type StaticBundle map[string]EntryPoint

// EntryPoints implements Bundle.
func (b StaticBundle) EntryPoints() map[string]EntryPoint {
	return b
}

// Builtins returns the contract-exercising entry points: rev and cp.
func Builtins() Bundle {
	return StaticBundle{
		"rev": Reverse,
		"cp":  Codepoints,
	}
}
