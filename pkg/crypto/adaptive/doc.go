// Package adaptive picks an AEAD for the host CPU.
//
// AES-256-GCM is used where the CPU has AES instructions, ChaCha20-Poly1305
// elsewhere. Sealed output carries its nonce as a prefix, so Open needs
// only the key and the same algorithm.
package adaptive
