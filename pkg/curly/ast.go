package curly

// ParseNode is the generic tree produced by the tag parser. It is consumed by
// the compiler and never reaches a render.
type ParseNode struct {
	Tag      string       `cbor:"1,keyasint"`
	Content  string       `cbor:"2,keyasint,omitempty"`
	Children []*ParseNode `cbor:"3,keyasint,omitempty"`
}

const (
	tagGroup = "group"
	tagText  = "text"
	tagEval  = "eval"
	tagIf    = "if"
	tagEach  = "each"
	tagElse  = "else"
	tagCache = "cache"
)

// structural reports whether a tag owns a body closed by {{/tag}}.
func structural(tag string) bool {
	return tag == tagIf || tag == tagEach || tag == tagCache
}

// controlTag reports whether name is handled by the parser itself rather than
// the registry.
func controlTag(name string) bool {
	return structural(name) || name == tagElse
}

// Signal is returned by node execution to carry loop control outwards.
type Signal int

const (
	Continue Signal = iota
	Break
)

// Node is an executable template node. Nodes hold only compile-time state and
// may be executed concurrently against distinct contexts.
type Node interface {
	Execute(ctx *Context) (Signal, error)
}

// Document is one compiled template.
type Document struct {
	Name string
	Root Node
	// Nodes lists every node of the tree in compilation order.
	Nodes []Node
	// Fingerprint identifies the parsed source; equal sources share it.
	Fingerprint [32]byte

	reg *Registry
}

// ParseKey parses a rendering key for a tag factory, checking :: function
// names against the registry the document is compiled with.
func (d *Document) ParseKey(text string, expected KeyType) (Key, error) {
	return d.reg.ParseKey(text, expected)
}

// add records n in the flat node list and returns it.
func (d *Document) add(n Node) Node {
	d.Nodes = append(d.Nodes, n)
	return n
}
