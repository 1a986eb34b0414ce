package sc

import "fmt"

// CommandKind is the element class generated by a ConstructionCommand.
type CommandKind int

const (
	CommandNode CommandKind = iota
	CommandConnector
	CommandLink
)

func (k CommandKind) String() string {
	switch k {
	case CommandNode:
		return "node"
	case CommandConnector:
		return "edge"
	case CommandLink:
		return "link"
	}
	return "unknown"
}

// Ref points a connector end at either an existing address or an alias declared
// earlier in the same construction.
type Ref struct {
	Addr  Addr
	Alias string
}

func AddrRef(a Addr) Ref { return Ref{Addr: a} }

func AliasRef(alias string) Ref { return Ref{Alias: alias} }

// IsAlias reports whether the reference is resolved inside the construction.
func (r Ref) IsAlias() bool { return r.Alias != "" }

// ConstructionCommand is one element to generate.
type ConstructionCommand struct {
	Kind    CommandKind
	Type    Type
	Source  Ref
	Target  Ref
	Content LinkContent
}

// Construction is an ordered batch of elements generated in one request.
type Construction struct {
	aliases  map[string]int
	commands []ConstructionCommand
}

func NewConstruction() *Construction {
	return &Construction{aliases: make(map[string]int)}
}

// GenerateNode appends a node. An empty alias leaves the command unnamed.
func (c *Construction) GenerateNode(t Type, alias string) error {
	if !t.IsNode() {
		return fmt.Errorf("%w: you should pass the node type here, got %s", ErrInvalidType, t)
	}
	c.add(ConstructionCommand{Kind: CommandNode, Type: t}, alias)
	return nil
}

// GenerateConnector appends a connector between source and target.
func (c *Construction) GenerateConnector(t Type, source, target Ref, alias string) error {
	if !t.IsConnector() {
		return fmt.Errorf("%w: you should pass the connector type here, got %s", ErrInvalidType, t)
	}
	c.add(ConstructionCommand{Kind: CommandConnector, Type: t, Source: source, Target: target}, alias)
	return nil
}

// GenerateLink appends a link holding content.
func (c *Construction) GenerateLink(t Type, content LinkContent, alias string) error {
	if !t.IsLink() {
		return fmt.Errorf("%w: you should pass the link type here, got %s", ErrInvalidType, t)
	}
	c.add(ConstructionCommand{Kind: CommandLink, Type: t, Content: content}, alias)
	return nil
}

func (c *Construction) add(cmd ConstructionCommand, alias string) {
	if c.aliases == nil {
		c.aliases = make(map[string]int)
	}
	if alias != "" {
		c.aliases[alias] = len(c.commands)
	}
	c.commands = append(c.commands, cmd)
}

// GetIndex returns the command index an alias was declared at.
func (c *Construction) GetIndex(alias string) (int, error) {
	idx, ok := c.aliases[alias]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAlias, alias)
	}
	return idx, nil
}

// Commands returns the commands in submission order.
func (c *Construction) Commands() []ConstructionCommand {
	return c.commands
}

func (c *Construction) Len() int {
	return len(c.commands)
}
