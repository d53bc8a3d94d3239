package handlers

import (
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"swap-backend/internal/services"
	"swap-backend/internal/types"
)

// OriginContextKey is where the auth middleware stores the caller's types.Origin
const OriginContextKey = "swap_origin"

// RootHandler serves the trusted root
type RootHandler struct {
	registry *services.RootRegistry
	logger   *logrus.Logger
}

// NewRootHandler creates a new RootHandler
func NewRootHandler(registry *services.RootRegistry, logger *logrus.Logger) *RootHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RootHandler{registry: registry, logger: logger}
}

// GetRootHandler GET /api/root
func (h *RootHandler) GetRootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rootInfoJSON(h.registry.Current(), h.registry.DepositContract()),
	})
}

// UpdateRootHandler POST /api/admin/root
// Privilege is decided by the registry from the origin the middleware resolved.
func (h *RootHandler) UpdateRootHandler(c *gin.Context) {
	var req types.RootUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", fmt.Sprintf("Invalid request: %v", err))
		return
	}

	rootBytes, err := hexutil.Decode(req.NewRoot)
	if err != nil {
		badRequest(c, "INVALID_ROOT_HEX", fmt.Sprintf("new_root: %v", err))
		return
	}
	newRoot, err := types.HashFromBytes(rootBytes)
	if err != nil {
		badRequest(c, "INVALID_ROOT_HEX", err.Error())
		return
	}
	proof, err := decodeHexList(req.AccountProof)
	if err != nil {
		badRequest(c, "INVALID_PROOF_HEX", fmt.Sprintf("account_proof: %v", err))
		return
	}

	info, err := h.registry.Update(c.Request.Context(), OriginFromContext(c), newRoot,
		types.RootMeta{BlockNumber: req.MetaBlockNumber, IPFSPath: req.IPFSPath}, proof)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rootInfoJSON(info, h.registry.DepositContract()),
	})
}

// OriginFromContext returns the origin resolved by the auth middleware, unprivileged when absent
func OriginFromContext(c *gin.Context) types.Origin {
	if value, ok := c.Get(OriginContextKey); ok {
		if origin, ok := value.(types.Origin); ok {
			return origin
		}
	}
	return types.UnprivilegedOrigin()
}

func rootInfoJSON(info types.RootInfo, depositContract types.ForeignAddress) gin.H {
	out := gin.H{
		"storage_root":      hexutil.Encode(info.StorageRoot),
		"meta_block_number": info.MetaBlockNumber,
		"ipfs_path":         info.IPFSPath,
		"deposit_contract":  depositContract.Hex(),
	}
	if len(info.StorageRoot) == 0 {
		out["storage_root"] = ""
		return out
	}
	out["state_root"] = info.StateRoot.Hex()
	out["updated_by"] = info.UpdatedBy
	out["updated_at"] = info.UpdatedAt
	return out
}
