// Package graph is the node-graph data model and evaluation engine: Graph,
// Node, Port and Connector, the connection rules that keep them consistent,
// push and pull evaluation, and serialization.
//
// # Ownership and adjacency
//
// A Graph owns its Nodes and a Node owns its Ports. There is no edge object
// with authority over a connection: each Port keeps the set of ports it is
// connected to and both endpoints always list each other. Connector is a
// value derived from that adjacency for presentation and is regenerated on
// demand.
//
//	Graph ──owns──▶ Node ──owns──▶ Port ◀──sources──▶ Port
//	                                  ▲                  ▲
//	                                  └──── Connector ───┘ (derived view)
//
// # Mechanism and policy
//
// Port is a mechanism: ConnectTo and DisconnectFrom mutate adjacency without
// asking whether they should. The rules in rules.go are the policy and must
// be consulted first; Graph.Connect does that for callers.
//
// # Evaluation
//
// Under Push evaluation a write to an input port evaluates the owning node
// at once and output writes fan out along connections. Under Pull
// evaluation writes only mark nodes dirty and the work happens when an
// output value is read.
//
// # Concurrency
//
// The model is single-threaded. A Graph and everything reachable from it
// must be mutated from one goroutine; hosts that share a graph provide their
// own synchronization.
package graph
