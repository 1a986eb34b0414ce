package sc

// IdtfResolveParams looks up a keynode by its system identifier. A non-Unknown Type
// asks the server to generate the keynode when it does not exist.
type IdtfResolveParams struct {
	Idtf string
	Type Type
}
