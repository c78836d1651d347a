// Package auth stores the session token that outbound calls present as
// a bearer credential.
//
// A TokenStore holds one token under the key "session.token". MemoryStore
// keeps it for the life of the process; FileStore persists it to disk,
// optionally sealed with an encryption.Encryptor:
//
//	enc, _ := encryption.New(passphrase, encryption.WithContext(auth.TokenKey))
//	store, err := auth.NewFileStore(dir, auth.WithEncryptor(enc))
//	err = store.SetToken(ctx, token)
//
// Expired and ExpiresAt read the exp claim of a JWT without verifying its
// signature; the server that issued the token remains the authority.
package auth
