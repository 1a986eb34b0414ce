package sc

import "fmt"

// Type is the sc-element type bitmask understood by sc-server.
type Type uint16

const (
	typeNode          Type = 0x0001
	typeLink          Type = 0x0002
	typeCommonEdge    Type = 0x0004
	typeCommonArc     Type = 0x0008
	typeMembershipArc Type = 0x0010
	typeConst         Type = 0x0020
	typeVar           Type = 0x0040

	// connector modifiers
	typePos  Type = 0x0080
	typeNeg  Type = 0x0100
	typeFuz  Type = 0x0200
	typeTemp Type = 0x0400
	typePerm Type = 0x0800

	// node modifiers share bits with connector modifiers
	typeNodeTuple      Type = 0x0080
	typeNodeStructure  Type = 0x0100
	typeNodeRole       Type = 0x0200
	typeNodeNoRole     Type = 0x0400
	typeNodeClass      Type = 0x0800
	typeNodeSuperclass Type = 0x1000
	typeNodeMaterial   Type = 0x2000

	connectorMask Type = typeCommonEdge | typeCommonArc | typeMembershipArc
	constancyMask Type = typeConst | typeVar
	elementMask   Type = typeNode | typeLink | connectorMask
)

const (
	Unknown Type = 0

	Node          = typeNode
	NodeLink      = typeNode | typeLink
	CommonEdge    = typeCommonEdge
	CommonArc     = typeCommonArc
	MembershipArc = typeMembershipArc

	ConstNode           = typeNode | typeConst
	VarNode             = typeNode | typeVar
	ConstNodeLink       = NodeLink | typeConst
	VarNodeLink         = NodeLink | typeVar
	ConstNodeTuple      = ConstNode | typeNodeTuple
	VarNodeTuple        = VarNode | typeNodeTuple
	ConstNodeStructure  = ConstNode | typeNodeStructure
	VarNodeStructure    = VarNode | typeNodeStructure
	ConstNodeRole       = ConstNode | typeNodeRole
	VarNodeRole         = VarNode | typeNodeRole
	ConstNodeNoRole     = ConstNode | typeNodeNoRole
	VarNodeNoRole       = VarNode | typeNodeNoRole
	ConstNodeClass      = ConstNode | typeNodeClass
	VarNodeClass        = VarNode | typeNodeClass
	ConstNodeSuperclass = ConstNode | typeNodeSuperclass
	VarNodeSuperclass   = VarNode | typeNodeSuperclass
	ConstNodeMaterial   = ConstNode | typeNodeMaterial
	VarNodeMaterial     = VarNode | typeNodeMaterial

	ConstCommonEdge = typeCommonEdge | typeConst
	VarCommonEdge   = typeCommonEdge | typeVar
	ConstCommonArc  = typeCommonArc | typeConst
	VarCommonArc    = typeCommonArc | typeVar

	ConstPermPosArc = typeMembershipArc | typeConst | typePos | typePerm
	VarPermPosArc   = typeMembershipArc | typeVar | typePos | typePerm
	ConstPermNegArc = typeMembershipArc | typeConst | typeNeg | typePerm
	VarPermNegArc   = typeMembershipArc | typeVar | typeNeg | typePerm
	ConstTempPosArc = typeMembershipArc | typeConst | typePos | typeTemp
	VarTempPosArc   = typeMembershipArc | typeVar | typePos | typeTemp
	ConstTempNegArc = typeMembershipArc | typeConst | typeNeg | typeTemp
	VarTempNegArc   = typeMembershipArc | typeVar | typeNeg | typeTemp
	ConstFuzArc     = typeMembershipArc | typeConst | typeFuz
	VarFuzArc       = typeMembershipArc | typeVar | typeFuz
)

var typeNames = map[Type]string{
	Unknown:             "Unknown",
	Node:                "Node",
	NodeLink:            "NodeLink",
	CommonEdge:          "CommonEdge",
	CommonArc:           "CommonArc",
	MembershipArc:       "MembershipArc",
	ConstNode:           "ConstNode",
	VarNode:             "VarNode",
	ConstNodeLink:       "ConstNodeLink",
	VarNodeLink:         "VarNodeLink",
	ConstNodeTuple:      "ConstNodeTuple",
	VarNodeTuple:        "VarNodeTuple",
	ConstNodeStructure:  "ConstNodeStructure",
	VarNodeStructure:    "VarNodeStructure",
	ConstNodeRole:       "ConstNodeRole",
	VarNodeRole:         "VarNodeRole",
	ConstNodeNoRole:     "ConstNodeNoRole",
	VarNodeNoRole:       "VarNodeNoRole",
	ConstNodeClass:      "ConstNodeClass",
	VarNodeClass:        "VarNodeClass",
	ConstNodeSuperclass: "ConstNodeSuperclass",
	VarNodeSuperclass:   "VarNodeSuperclass",
	ConstNodeMaterial:   "ConstNodeMaterial",
	VarNodeMaterial:     "VarNodeMaterial",
	ConstCommonEdge:     "ConstCommonEdge",
	VarCommonEdge:       "VarCommonEdge",
	ConstCommonArc:      "ConstCommonArc",
	VarCommonArc:        "VarCommonArc",
	ConstPermPosArc:     "ConstPermPosArc",
	VarPermPosArc:       "VarPermPosArc",
	ConstPermNegArc:     "ConstPermNegArc",
	VarPermNegArc:       "VarPermNegArc",
	ConstTempPosArc:     "ConstTempPosArc",
	VarTempPosArc:       "VarTempPosArc",
	ConstTempNegArc:     "ConstTempNegArc",
	VarTempNegArc:       "VarTempNegArc",
	ConstFuzArc:         "ConstFuzArc",
	VarFuzArc:           "VarFuzArc",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(0x%04x)", uint16(t))
}

// IsNode reports whether t names a node (links included).
func (t Type) IsNode() bool { return t&typeNode != 0 }

// IsLink reports whether t names a link.
func (t Type) IsLink() bool { return t&typeLink != 0 }

// IsConnector reports whether t names any kind of connector.
func (t Type) IsConnector() bool { return t&connectorMask != 0 }

func (t Type) IsEdge() bool { return t&typeCommonEdge != 0 }

func (t Type) IsArc() bool { return t&(typeCommonArc|typeMembershipArc) != 0 }

func (t Type) IsConst() bool { return t&typeConst != 0 }

func (t Type) IsVar() bool { return t&typeVar != 0 }

// IsValid reports whether t names exactly one element class.
func (t Type) IsValid() bool {
	if t == Unknown {
		return false
	}
	kind := t & elementMask
	if t.IsConnector() {
		return kind&^connectorMask == 0
	}
	return kind != 0
}

// Merge combines two types, failing when their element classes or constancy disagree.
func (t Type) Merge(other Type) (Type, error) {
	if a, b := t&elementMask, other&elementMask; a != 0 && b != 0 && a != b {
		return Unknown, fmt.Errorf("%w: cannot merge %s into %s", ErrInvalidType, other, t)
	}
	if a, b := t&constancyMask, other&constancyMask; a != 0 && b != 0 && a != b {
		return Unknown, fmt.Errorf("%w: cannot merge %s into %s", ErrInvalidType, other, t)
	}
	return t | other, nil
}
