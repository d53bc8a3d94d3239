package services

import (
	"errors"

	"swap-backend/internal/mpt"
	"swap-backend/internal/repository"
	"swap-backend/internal/signer"
)

// Error codes reported to API clients and used as metric labels.
const (
	CodeProofIntegrityMismatch     = "PROOF_INTEGRITY_MISMATCH"
	CodeKeyNotInProof              = "KEY_NOT_IN_PROOF"
	CodeProofTooShort              = "PROOF_TOO_SHORT"
	CodeInvalidNode                = "INVALID_NODE"
	CodeInvalidAccount             = "INVALID_ACCOUNT"
	CodeInvalidRLP                 = "INVALID_RLP"
	CodeProofTooDeep               = "PROOF_TOO_DEEP"
	CodeNodeTooLarge               = "NODE_TOO_LARGE"
	CodeRecoveryFailed             = "RECOVERY_FAILED"
	CodeInvalidEncoding            = "INVALID_ENCODING"
	CodeContentFieldMissing        = "CONTENT_FIELD_MISSING"
	CodePrefixMismatch             = "PREFIX_MISMATCH"
	CodeInvalidDestinationEncoding = "INVALID_DESTINATION_ENCODING"
	CodeNoNewDeposit               = "NO_NEW_DEPOSIT"
	CodePermissionDenied           = "PERMISSION_DENIED"
	CodeClaimInFlight              = "CLAIM_IN_FLIGHT"
	CodeMintFailed                 = "MINT_FAILED"
	CodeInternal                   = "INTERNAL_ERROR"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{mpt.ErrProofIntegrityMismatch, CodeProofIntegrityMismatch},
	{mpt.ErrKeyNotInProof, CodeKeyNotInProof},
	{mpt.ErrProofTooShort, CodeProofTooShort},
	{mpt.ErrInvalidNode, CodeInvalidNode},
	{mpt.ErrInvalidAccount, CodeInvalidAccount},
	{mpt.ErrInvalidRLP, CodeInvalidRLP},
	{mpt.ErrProofTooDeep, CodeProofTooDeep},
	{mpt.ErrNodeTooLarge, CodeNodeTooLarge},
	{signer.ErrRecoveryFailed, CodeRecoveryFailed},
	{ErrInvalidEncoding, CodeInvalidEncoding},
	{ErrContentFieldMissing, CodeContentFieldMissing},
	{ErrPrefixMismatch, CodePrefixMismatch},
	{ErrInvalidDestinationEncoding, CodeInvalidDestinationEncoding},
	{ErrNoNewDeposit, CodeNoNewDeposit},
	{ErrPermissionDenied, CodePermissionDenied},
	{ErrClaimInFlight, CodeClaimInFlight},
	{repository.ErrBalanceOverflow, CodeMintFailed},
}

// ErrorCode maps an error from the claim or root-update path to its API code.
func ErrorCode(err error) string {
	for _, entry := range errorCodes {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}
	return CodeInternal
}

// IsClientError reports whether err was caused by the request contents
// rather than by the service. Such errors are terminal for identical input.
func IsClientError(err error) bool {
	code := ErrorCode(err)
	return code != CodeInternal && code != CodeMintFailed
}
