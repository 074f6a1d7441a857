// Package protocol owns the TCPB wire contract and parsing primitives.
//
// Ownership boundary:
// - envelope framing primitives (frame subpackage)
// - tlv payload primitives (tlv subpackage)
// - typed messages, closed enum tables, and their codecs
package protocol
