package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"

	"cashlab/internal/domain"
)

// ComputeDatasetID computes a deterministic fingerprint of a trade set
// using SHA256 over the canonical row encoding
// entry|exit|entryPrice|exitPrice|ticker, one row per line, in input
// order. Returns hex-encoded hash (64 characters).
//
// The same trades in the same order always produce the same ID, so a
// stored run can be matched back to its exact input.
func ComputeDatasetID(trades []domain.Trade) string {
	var sb strings.Builder
	for _, t := range trades {
		fmt.Fprintf(&sb, "%s|%s|%s|%s|%s\n",
			domain.Day(t.EntryTime).Format("2006-01-02"),
			domain.Day(t.ExitTime).Format("2006-01-02"),
			t.EntryPrice.String(),
			t.ExitPrice.String(),
			t.Ticker,
		)
	}

	hash := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(hash[:])
}

// RunLabel derives a short human-friendly label from a dataset ID: the
// base58 encoding of the fingerprint's first 8 bytes. Used in file
// names and run listings where 64 hex characters are unwieldy.
func RunLabel(datasetID string) string {
	raw, err := hex.DecodeString(datasetID)
	if err != nil || len(raw) < 8 {
		// Not a fingerprint; label the raw string instead.
		sum := sha256.Sum256([]byte(datasetID))
		raw = sum[:]
	}
	return base58.Encode(raw[:8])
}
