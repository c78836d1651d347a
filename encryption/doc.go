// Package encryption seals small secrets, such as stored session tokens,
// with an AEAD cipher keyed from a passphrase.
//
//	enc, err := encryption.New(passphrase, encryption.WithAlgorithm(encryption.AlgorithmChaCha20))
//	sealed, err := enc.Encrypt(token)
//	token, err := enc.Decrypt(sealed)
//
// Output is base64 of nonce||ciphertext. The key is derived with
// HKDF-SHA256, salted by the algorithm name, so one passphrase yields
// unrelated keys for each algorithm.
package encryption
