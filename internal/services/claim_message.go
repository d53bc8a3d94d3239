package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"swap-backend/internal/types"
	"swap-backend/internal/utils"
)

// Claim message errors
var (
	ErrInvalidEncoding            = errors.New("signed message is not valid JSON")
	ErrContentFieldMissing        = errors.New("payload.content missing or not a string")
	ErrPrefixMismatch             = errors.New("content does not start with the required prefix")
	ErrInvalidDestinationEncoding = errors.New("invalid destination encoding")
)

// DefaultClaimPrefix is the literal a signed claim message must start with.
const DefaultClaimPrefix = "swap to "

// ClaimMessageFormat describes where the destination account lives inside the signed content.
type ClaimMessageFormat struct {
	Prefix        string
	DecodedLength int // total base58-decoded length of the destination
	AccountOffset int // start of the account id inside the decoded bytes
}

// DefaultClaimMessageFormat returns the SS58-style layout with the default prefix.
func DefaultClaimMessageFormat() ClaimMessageFormat {
	return ClaimMessageFormat{
		Prefix:        DefaultClaimPrefix,
		DecodedLength: utils.DestinationDecodedLength,
		AccountOffset: utils.DestinationAccountOffset,
	}
}

// ClaimMessageParser extracts the destination account from a signed claim message
type ClaimMessageParser struct {
	format ClaimMessageFormat
}

// NewClaimMessageParser creates a parser. Zero fields take the default format.
func NewClaimMessageParser(format ClaimMessageFormat) *ClaimMessageParser {
	def := DefaultClaimMessageFormat()
	if format.Prefix == "" {
		format.Prefix = def.Prefix
	}
	if format.DecodedLength <= 0 {
		format.DecodedLength = def.DecodedLength
		format.AccountOffset = def.AccountOffset
	}
	return &ClaimMessageParser{format: format}
}

// Format returns the layout the parser enforces.
func (p *ClaimMessageParser) Format() ClaimMessageFormat {
	return p.format
}

// Parse returns the destination account id named in raw.
func (p *ClaimMessageParser) Parse(raw []byte) (types.AccountID, error) {
	content, err := contentField(raw)
	if err != nil {
		return types.AccountID{}, err
	}

	if !strings.HasPrefix(content, p.format.Prefix) {
		return types.AccountID{}, fmt.Errorf("%w: expected %q", ErrPrefixMismatch, p.format.Prefix)
	}

	account, err := utils.DecodeBase58Account(
		strings.TrimPrefix(content, p.format.Prefix),
		p.format.DecodedLength,
		p.format.AccountOffset,
		types.AccountIDLength,
	)
	if err != nil {
		return types.AccountID{}, fmt.Errorf("%w: %v", ErrInvalidDestinationEncoding, err)
	}
	return types.AccountIDFromBytes(account)
}

// contentField reads payload.content. Any other field of the envelope is ignored.
func contentField(raw []byte) (string, error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	// well-formed but not an object: nothing to look payload up in
	if _, ok := doc.(map[string]interface{}); !ok {
		return "", ErrContentFieldMissing
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", ErrContentFieldMissing
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(envelope["payload"], &payload); err != nil || payload == nil {
		return "", ErrContentFieldMissing
	}
	field, ok := payload["content"]
	if !ok {
		return "", ErrContentFieldMissing
	}
	var content string
	if err := json.Unmarshal(field, &content); err != nil {
		return "", ErrContentFieldMissing
	}
	return content, nil
}
