package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"swap-backend/internal/repository"
	"swap-backend/internal/services"
	"swap-backend/internal/types"
	"swap-backend/internal/utils"
)

// ClaimHandler serves claim submission and the claim/balance queries
type ClaimHandler struct {
	admission *services.ClaimAdmission
	ledger    *services.ClaimLedger
	store     repository.ClaimStore
	format    services.ClaimMessageFormat
	logger    *logrus.Logger
}

// NewClaimHandler creates a new ClaimHandler
func NewClaimHandler(admission *services.ClaimAdmission, ledger *services.ClaimLedger, store repository.ClaimStore, format services.ClaimMessageFormat, logger *logrus.Logger) *ClaimHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ClaimHandler{
		admission: admission,
		ledger:    ledger,
		store:     store,
		format:    format,
		logger:    logger,
	}
}

// SubmitClaimHandler POST /api/claims
func (h *ClaimHandler) SubmitClaimHandler(c *gin.Context) {
	var req types.ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", fmt.Sprintf("Invalid request: %v", err))
		return
	}

	sig, err := hexutil.Decode(req.Signature)
	if err != nil {
		badRequest(c, "INVALID_SIGNATURE_HEX", fmt.Sprintf("signature: %v", err))
		return
	}
	message, err := claimMessageBytes(&req)
	if err != nil {
		badRequest(c, "INVALID_MESSAGE", err.Error())
		return
	}
	proof, err := decodeHexList(req.Proof)
	if err != nil {
		badRequest(c, "INVALID_PROOF_HEX", fmt.Sprintf("proof: %v", err))
		return
	}

	receipt, err := h.admission.Submit(c.Request.Context(), sig, message, proof)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": types.ClaimReceiptResponse{
			ClaimID:      receipt.ClaimID,
			Signer:       repository.AddressKey(receipt.Signer),
			Destination:  receipt.Destination.Hex(),
			Amount:       receipt.Amount.Dec(),
			TotalClaimed: receipt.TotalClaimed.Dec(),
		},
	})
}

// GetClaimHandler GET /api/claims/:address
func (h *ClaimHandler) GetClaimHandler(c *gin.Context) {
	addr, err := utils.NormalizeForeignAddress(c.Param("address"))
	if err != nil {
		badRequest(c, "INVALID_ADDRESS", err.Error())
		return
	}

	claimed, err := h.ledger.ClaimedBalance(c.Request.Context(), addr)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	data := gin.H{
		"address":         repository.AddressKey(addr),
		"claimed_balance": claimed.Dec(),
		"claim_count":     0,
	}
	record, err := h.store.GetClaimRecord(c.Request.Context(), addr)
	switch {
	case err == nil:
		data["claim_count"] = record.ClaimCount
		data["last_claim_id"] = record.LastClaimID
		data["updated_at"] = record.UpdatedAt
	case !errors.Is(err, gorm.ErrRecordNotFound):
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// GetClaimHistoryHandler GET /api/claims/:address/history?limit=
func (h *ClaimHandler) GetClaimHistoryHandler(c *gin.Context) {
	addr, err := utils.NormalizeForeignAddress(c.Param("address"))
	if err != nil {
		badRequest(c, "INVALID_ADDRESS", err.Error())
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	history, err := h.ledger.ClaimHistory(c.Request.Context(), addr, limit)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": history, "count": len(history)})
}

// GetAccountBalanceHandler GET /api/accounts/:account/balance
// The account may be given as 32-byte hex or in the destination's base58 form.
func (h *ClaimHandler) GetAccountBalanceHandler(c *gin.Context) {
	account, err := h.parseAccount(c.Param("account"))
	if err != nil {
		badRequest(c, "INVALID_ACCOUNT_ID", err.Error())
		return
	}

	balance, err := h.ledger.AccountBalance(c.Request.Context(), account)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"account": account.Hex(),
			"balance": balance.Dec(),
		},
	})
}

func (h *ClaimHandler) parseAccount(text string) (types.AccountID, error) {
	if strings.HasPrefix(text, "0x") {
		return types.ParseAccountID(text)
	}
	raw, err := utils.DecodeBase58Account(text, h.format.DecodedLength, h.format.AccountOffset, types.AccountIDLength)
	if err != nil {
		return types.AccountID{}, err
	}
	return types.AccountIDFromBytes(raw)
}

// claimMessageBytes returns the exact bytes that were signed.
func claimMessageBytes(req *types.ClaimRequest) ([]byte, error) {
	switch {
	case req.MessageHex != "":
		raw, err := hexutil.Decode(req.MessageHex)
		if err != nil {
			return nil, fmt.Errorf("message_hex: %w", err)
		}
		return raw, nil
	case req.Message != "":
		return []byte(req.Message), nil
	default:
		return nil, errors.New("message or message_hex is required")
	}
}

func decodeHexList(items []string) ([][]byte, error) {
	out := make([][]byte, 0, len(items))
	for i, item := range items {
		raw, err := hexutil.Decode(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, raw)
	}
	return out, nil
}

func badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

// ServiceErrorStatus maps a claim or root-update error to its HTTP status
func ServiceErrorStatus(err error) int {
	switch services.ErrorCode(err) {
	case services.CodeNoNewDeposit, services.CodeClaimInFlight:
		return http.StatusConflict
	case services.CodePermissionDenied:
		return http.StatusForbidden
	case services.CodeInternal, services.CodeMintFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func respondServiceError(c *gin.Context, logger *logrus.Logger, err error) {
	status := ServiceErrorStatus(err)
	code := services.ErrorCode(err)
	if status == http.StatusInternalServerError {
		logger.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path,
			"code":  code,
			"error": err.Error(),
		}).Error("❌ Request failed")
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
		"code":    code,
	})
}
