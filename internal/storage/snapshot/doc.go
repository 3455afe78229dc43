// Package snapshot writes the memory engine to disk and reads it back.
//
// A snapshot file is laid out as
//
//	magic "ZUMISNAP" | u32 header length | header JSON | u32 body length | body | sha256
//
// The body is the JSON entry list, sealed with an adaptive cipher when a
// passphrase is configured. The key is derived with argon2id over a
// per-file salt kept in the header, then expanded with HKDF. Entries keep
// their absolute expiry so a restore never extends a record's lifetime.
package snapshot
