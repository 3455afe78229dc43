// Package chain talks to a Solana cluster over JSON-RPC.
//
// Client covers the narrow surface the privacy services need: address
// validation, balance reads, transaction submission with confirmation
// polling, and status queries. Every transport or RPC failure is reported
// as domain.ErrUpstreamFailure.
package chain
