// Package password implements Argon2id hashing and the registration password
// policy.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Salt and key are unpadded standard base64. Padded values are accepted on
// verify. If a stored hash was produced with weaker parameters,
// [Hasher.NeedsRehash] returns true so the caller can re-hash after a
// successful login.
//
// # Architecture boundaries
//
// This package owns hashing, verification and [CheckPolicy] only. Account
// uniqueness and persistence belong to the Engine and the user directory.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other goSession package.
//   - Log plaintext passwords.
package password
