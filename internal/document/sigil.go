package document

// Sigil is the single letter that declares a block's semantic role.
type Sigil byte

const (
	Rule     Sigil = 'R'
	Priority Sigil = 'P'
	Negation Sigil = 'N'
	Sequence Sigil = 'S'
	Tone     Sigil = 'T'
	Exact    Sigil = 'X'
	Zone     Sigil = 'Z'
	Constant Sigil = 'C'
	Blob     Sigil = 'B'
)

var sigils = []Sigil{Rule, Priority, Negation, Sequence, Tone, Exact, Zone, Constant, Blob}

var sigilNames = map[Sigil]string{
	Rule:     "rule",
	Priority: "priority",
	Negation: "negation",
	Sequence: "sequence",
	Tone:     "tone",
	Exact:    "exact",
	Zone:     "zone",
	Constant: "constant",
	Blob:     "blob",
}

// Sigils returns every known sigil in canonical order.
func Sigils() []Sigil {
	out := make([]Sigil, len(sigils))
	copy(out, sigils)
	return out
}

// ParseSigil converts a one-letter string to a known sigil.
func ParseSigil(s string) (Sigil, bool) {
	if len(s) != 1 {
		return 0, false
	}
	sig := Sigil(s[0])
	return sig, sig.Known()
}

// Known reports whether s is part of the vocabulary.
func (s Sigil) Known() bool {
	_, ok := sigilNames[s]
	return ok
}

func (s Sigil) String() string {
	return string(rune(s))
}

// Name returns the long name of the sigil, e.g. "negation".
func (s Sigil) Name() string {
	if name, ok := sigilNames[s]; ok {
		return name
	}
	return "unknown"
}

// Verbatim reports whether block content is kept byte-for-byte and never
// interpreted as notation.
func (s Sigil) Verbatim() bool {
	return s == Exact || s == Blob
}
