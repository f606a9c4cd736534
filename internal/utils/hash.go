package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// SnapshotDigest computes a BLAKE2b-256 digest over an entity snapshot and
// returns it hex-encoded. The digest travels with the queue item and comes
// back from the remote side during pull cycles; matching digests mean the
// replica already holds the remote content.
func SnapshotDigest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SignBody computes an HMAC-SHA256 signature over a request body using the
// shared hash key and returns it hex-encoded. Used for the integrity header
// on outbound sync requests.
//
// Parameters:
//
//	body    - request body to be signed
//	hashKey - secret key shared with the remote system
//
// Returns:
//
//	string - hex-encoded HMAC-SHA256 digest
func SignBody(body []byte, hashKey string) string {
	hasher := hmac.New(sha256.New, []byte(hashKey))
	hasher.Write(body)
	return hex.EncodeToString(hasher.Sum(nil))
}
