// Package proof generates and verifies the opaque proof records that
// anchor privacy sessions.
//
// A proof binds a transaction descriptor, a timestamp and a random nonce
// into a proof hash. The commitment and nullifier are derived from that
// hash under one of two schemes:
//
//   - sha256: hex(sha256("commitment_" + hash)), hex(sha256("nullifier_" + hash))
//   - mimc: MiMC over the BW6-761 scalar field of a domain tag and the hash bytes
//
// Neither scheme is a zero-knowledge proof. Verification re-derives both
// values and enforces a maximum age.
package proof
