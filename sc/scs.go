package sc

// SCs is a fragment of SCs text, optionally generated into an output structure.
type SCs struct {
	Text         string
	OutputStruct Addr
}

// SCsText builds fragments without output structures.
func SCsText(texts ...string) []SCs {
	out := make([]SCs, len(texts))
	for i, text := range texts {
		out[i] = SCs{Text: text}
	}
	return out
}
