package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeEventID computes a deterministic event_id using SHA256.
// Formula: SHA256(seq|kind|actor|beneficiary|base_amount|token_amount|ref_id|timestamp)
// Returns hex-encoded hash (64 characters).
func ComputeEventID(
	seq uint64,
	kind string,
	actor string,
	beneficiary string,
	baseAmount uint64,
	tokenAmount uint64,
	refID int64,
	timestamp int64,
) string {
	data := fmt.Sprintf("%d|%s|%s|%s|%d|%d|%d|%d",
		seq,
		kind,
		actor,
		beneficiary,
		baseAmount,
		tokenAmount,
		refID,
		timestamp,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
