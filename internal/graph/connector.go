package graph

// Connector is a view of one connection, with Target on the input side. It
// has no authority of its own; Delete goes through the ports.
type Connector struct {
	Source *Port
	Target *Port
}

// NewConnector builds a connector for a and b in either order.
func NewConnector(a, b *Port) Connector {
	source, target := normalize(a, b)
	return Connector{Source: source, Target: target}
}

// ID identifies the connection by its port uuids.
func (c Connector) ID() string {
	return c.Source.id + "->" + c.Target.id
}

// Valid reports whether the underlying ports are still connected.
func (c Connector) Valid() bool {
	return ArePortsConnected(c.Source, c.Target)
}

// Delete disconnects the underlying ports and returns the removed peers.
func (c Connector) Delete() []*Port {
	return c.Target.DisconnectFrom(c.Source)
}

func (c Connector) String() string {
	return c.Source.FullName() + " -> " + c.Target.FullName()
}
