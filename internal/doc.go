// Package internal contains helper utilities that are intentionally private to goVerify,
// including secure code and token generation.
//
// # What this package must NOT do
//
//   - Export types that appear in the public goVerify API.
//   - Be imported by any package outside the goVerify module.
//   - Fall back to math/rand when crypto/rand fails; entropy errors must
//     surface to the caller.
package internal
