// Package password provides one-way credential hashing with argon2id.
//
// Hashing is deliberately CPU- and memory-expensive; callers should keep it
// off latency-critical paths. Verification is constant-time over the derived
// key and never fails loudly: malformed input verifies false.
package password
