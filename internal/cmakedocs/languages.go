package cmakedocs

// knownLanguages is the fixed set of language names substituted for the
// _LANG_ placeholder in templated file names, in emission order.
var knownLanguages = []string{
	"ASM",
	"ASM_NASM",
	"ASM_MARMASM",
	"ASM_MASM",
	"ASM-ATT",
	"C",
	"CSharp",
	"CUDA",
	"CXX",
	"Fortran",
	"HIP",
	"ISPC",
	"OBJC",
	"OBJCXX",
	"Swift",
}

// KnownLanguages returns the language names substituted for the _LANG_
// placeholder, in the order expanded records are emitted.
func KnownLanguages() []string {
	out := make([]string, len(knownLanguages))
	copy(out, knownLanguages)
	return out
}
