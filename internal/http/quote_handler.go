package http

import (
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/amm"
	"github.com/hxuan190/clmm-core/internal/http/httputil"
	"github.com/hxuan190/clmm-core/internal/services/swap"
)

type QuoteHandler struct {
	engine *amm.Engine
}

func NewQuoteHandler(engine *amm.Engine) *QuoteHandler {
	return &QuoteHandler{engine: engine}
}

func (h *QuoteHandler) Routes(r gin.IRoutes) {
	r.POST("", h.quote)
}

func (h *QuoteHandler) Root() string {
	return "/quote"
}

// QuoteRequest describes a swap to simulate. Amounts are decimal strings in the
// token's smallest unit.
type QuoteRequest struct {
	Pool string `json:"pool" binding:"required"`
	// Amount is the exact input for ExactIn and the exact output for ExactOut
	Amount     string `json:"amount" binding:"required"`
	ZeroForOne bool   `json:"zeroForOne"`
	// "ExactIn" or "ExactOut"
	SwapMode string `json:"swapMode" binding:"required,oneof=ExactIn ExactOut"`
	// optional, defaults to the furthest price in the swap direction
	SqrtPriceLimitX64 string `json:"sqrtPriceLimitX64"`
	// optional minimum output (ExactIn) or maximum input (ExactOut)
	OtherAmountThreshold string `json:"otherAmountThreshold"`
}

type QuoteResponse struct {
	Pool              string `json:"pool"`
	AmountIn          string `json:"amountIn"`
	AmountOut         string `json:"amountOut"`
	FeeAmount         string `json:"feeAmount"`
	ProtocolFee       string `json:"protocolFee"`
	SqrtPriceAfterX64 string `json:"sqrtPriceAfterX64"`
	TickAfter         int32  `json:"tickAfter"`
	TicksCrossed      int    `json:"ticksCrossed"`
	PriceLimitReached bool   `json:"priceLimitReached"`
}

func (h *QuoteHandler) quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	poolID, err := solana.PublicKeyFromBase58(req.Pool)
	if err != nil {
		httputil.BadRequest(c, "invalid pool address")
		return
	}
	amount, err := strconv.ParseUint(req.Amount, 10, 64)
	if err != nil || amount == 0 {
		httputil.BadRequest(c, "invalid amount: must be a positive integer")
		return
	}
	var limit uint128.Uint128
	if req.SqrtPriceLimitX64 != "" {
		if limit, err = uint128.FromString(req.SqrtPriceLimitX64); err != nil {
			httputil.BadRequest(c, "invalid sqrtPriceLimitX64")
			return
		}
	}
	var threshold uint64
	if req.OtherAmountThreshold != "" {
		if threshold, err = strconv.ParseUint(req.OtherAmountThreshold, 10, 64); err != nil {
			httputil.BadRequest(c, "invalid otherAmountThreshold")
			return
		}
	}

	res, err := h.engine.QuoteSwap(c.Request.Context(), amm.SwapRequest{
		PoolID: poolID,
		Params: swap.Params{
			AmountSpecified:   amount,
			SqrtPriceLimitX64: limit,
			ZeroForOne:        req.ZeroForOne,
			IsBaseInput:       req.SwapMode == "ExactIn",
		},
		OtherAmountThreshold: threshold,
	})
	if err != nil {
		httputil.CoreError(c, err)
		return
	}
	httputil.Success(c, QuoteResponse{
		Pool:              poolID.String(),
		AmountIn:          strconv.FormatUint(res.AmountIn, 10),
		AmountOut:         strconv.FormatUint(res.AmountOut, 10),
		FeeAmount:         strconv.FormatUint(res.FeeAmount, 10),
		ProtocolFee:       strconv.FormatUint(res.ProtocolFee, 10),
		SqrtPriceAfterX64: res.FinalSqrtPriceX64.String(),
		TickAfter:         res.FinalTick,
		TicksCrossed:      res.TicksCrossed,
		PriceLimitReached: res.PriceLimitReached,
	})
}
