package graph

import "errors"

var (
	ErrNodeNotFound           = errors.New("node not found")
	ErrPortNotFound           = errors.New("port not found")
	ErrNotEditable            = errors.New("graph is not editable")
	ErrMalformedSerialization = errors.New("malformed serialized graph")
	ErrUnknownNodeType        = errors.New("unknown node type")
	ErrDuplicateNode          = errors.New("duplicate node")
	ErrPropertyExists         = errors.New("property already exists")
	ErrReservedProperty       = errors.New("property name is reserved")
)
