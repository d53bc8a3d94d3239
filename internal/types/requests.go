// Package types provides common type definitions used across the backend
package types

// ClaimRequest is the body of POST /api/claims.
// Signature and proof nodes are 0x-prefixed hex. Message is the exact signed
// byte string; MessageHex may be used instead when the message is not valid UTF-8.
type ClaimRequest struct {
	Signature  string   `json:"signature" binding:"required"`
	Message    string   `json:"message"`
	MessageHex string   `json:"message_hex"`
	Proof      []string `json:"proof" binding:"required"`
}

// RootUpdateRequest is the body of POST /api/admin/root.
type RootUpdateRequest struct {
	NewRoot         string   `json:"new_root" binding:"required"`      // bytes32 hex
	MetaBlockNumber uint64   `json:"meta_block_number"`                // foreign block the root was taken at
	IPFSPath        string   `json:"ipfs_path"`                        // where the root snapshot is published
	AccountProof    []string `json:"account_proof" binding:"required"` // hex nodes, root first
}

// ClaimReceiptResponse is returned for a successful claim.
type ClaimReceiptResponse struct {
	ClaimID      string `json:"claim_id"`
	Signer       string `json:"signer"`
	Destination  string `json:"destination"`
	Amount       string `json:"amount"`
	TotalClaimed string `json:"total_claimed"`
}
