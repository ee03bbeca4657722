package http

import (
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/clmm-core/internal/amm"
	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/http/httputil"
)

type PoolHandler struct {
	engine *amm.Engine
}

func NewPoolHandler(engine *amm.Engine) *PoolHandler {
	return &PoolHandler{engine: engine}
}

func (h *PoolHandler) Routes(r gin.IRoutes) {
	r.GET("/list", h.listPools)
	r.GET("/:address", h.getPool)
	r.GET("/:address/tick-array/:tick", h.getTickArray)
	r.GET("/:address/observations", h.getObservations)
	r.GET("/:address/positions/:owner/:lower/:upper", h.getPosition)
}

func (h *PoolHandler) Root() string {
	return "/pools"
}

// PoolInfo is the summary row of the pool list.
type PoolInfo struct {
	Address     string  `json:"address"`
	TokenMint0  string  `json:"token_mint_0"`
	TokenMint1  string  `json:"token_mint_1"`
	TickSpacing uint16  `json:"tick_spacing"`
	TickCurrent int32   `json:"tick_current"`
	Price       float64 `json:"price"`
}

type PoolListResponse struct {
	Pools []PoolInfo `json:"pools"`
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
	Pages int        `json:"pages"`
}

func (h *PoolHandler) listPools(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	all, err := h.engine.Pools()
	if err != nil {
		httputil.CoreError(c, err)
		return
	}
	total := len(all)
	pages := (total + limit - 1) / limit
	offset := min((page-1)*limit, total)
	end := min(offset+limit, total)

	pools := make([]PoolInfo, 0, end-offset)
	for _, p := range all[offset:end] {
		pools = append(pools, PoolInfo{
			Address:     p.ID.String(),
			TokenMint0:  p.TokenMint0.String(),
			TokenMint1:  p.TokenMint1.String(),
			TickSpacing: p.TickSpacing,
			TickCurrent: p.TickCurrent,
			Price:       p.Price(),
		})
	}
	httputil.Success(c, PoolListResponse{Pools: pools, Total: total, Page: page, Limit: limit, Pages: pages})
}

type RewardInfo struct {
	Index                 int    `json:"index"`
	State                 string `json:"state"`
	OpenTime              uint64 `json:"open_time"`
	EndTime               uint64 `json:"end_time"`
	LastUpdateTime        uint64 `json:"last_update_time"`
	EmissionsPerSecondX64 string `json:"emissions_per_second_x64"`
	TotalEmissioned       uint64 `json:"total_emissioned"`
	Claimed               uint64 `json:"claimed"`
	TokenMint             string `json:"token_mint"`
	TokenVault            string `json:"token_vault"`
	Authority             string `json:"authority"`
	GrowthGlobalX64       string `json:"growth_global_x64"`
}

// PoolDetailResponse is the full accounting state of a pool. 128-bit values are
// decimal strings.
type PoolDetailResponse struct {
	Address             string       `json:"address"`
	AmmConfig           string       `json:"amm_config"`
	TokenMint0          string       `json:"token_mint_0"`
	TokenMint1          string       `json:"token_mint_1"`
	TokenVault0         string       `json:"token_vault_0"`
	TokenVault1         string       `json:"token_vault_1"`
	TickSpacing         uint16       `json:"tick_spacing"`
	TickCurrent         int32        `json:"tick_current"`
	SqrtPriceX64        string       `json:"sqrt_price_x64"`
	Price               float64      `json:"price"`
	Liquidity           string       `json:"liquidity"`
	FeeGrowthGlobal0X64 string       `json:"fee_growth_global_0_x64"`
	FeeGrowthGlobal1X64 string       `json:"fee_growth_global_1_x64"`
	ProtocolFeesToken0  uint64       `json:"protocol_fees_token_0"`
	ProtocolFeesToken1  uint64       `json:"protocol_fees_token_1"`
	SwapInAmountToken0  string       `json:"swap_in_amount_token_0"`
	SwapOutAmountToken0 string       `json:"swap_out_amount_token_0"`
	SwapInAmountToken1  string       `json:"swap_in_amount_token_1"`
	SwapOutAmountToken1 string       `json:"swap_out_amount_token_1"`
	TickArrays          uint         `json:"tick_arrays"`
	OpenTime            uint64       `json:"open_time"`
	Rewards             []RewardInfo `json:"rewards"`
}

// NewPoolDetail renders a pool for display.
func NewPoolDetail(p *domain.PoolState) PoolDetailResponse {
	resp := PoolDetailResponse{
		Address:             p.ID.String(),
		AmmConfig:           p.AmmConfig.String(),
		TokenMint0:          p.TokenMint0.String(),
		TokenMint1:          p.TokenMint1.String(),
		TokenVault0:         p.TokenVault0.String(),
		TokenVault1:         p.TokenVault1.String(),
		TickSpacing:         p.TickSpacing,
		TickCurrent:         p.TickCurrent,
		SqrtPriceX64:        p.SqrtPriceX64.String(),
		Price:               p.Price(),
		Liquidity:           p.Liquidity.String(),
		FeeGrowthGlobal0X64: p.FeeGrowthGlobal0X64.String(),
		FeeGrowthGlobal1X64: p.FeeGrowthGlobal1X64.String(),
		ProtocolFeesToken0:  p.ProtocolFeesToken0,
		ProtocolFeesToken1:  p.ProtocolFeesToken1,
		SwapInAmountToken0:  p.SwapInAmountToken0.String(),
		SwapOutAmountToken0: p.SwapOutAmountToken0.String(),
		SwapInAmountToken1:  p.SwapInAmountToken1.String(),
		SwapOutAmountToken1: p.SwapOutAmountToken1.String(),
		OpenTime:            p.OpenTime,
		Rewards:             make([]RewardInfo, 0, domain.RewardNum),
	}
	if p.TickArrayBitmap != nil {
		resp.TickArrays = p.TickArrayBitmap.Count()
	}
	for i, r := range p.RewardInfos {
		if !r.Initialized() {
			continue
		}
		resp.Rewards = append(resp.Rewards, RewardInfo{
			Index:                 i,
			State:                 r.RewardState.String(),
			OpenTime:              r.OpenTime,
			EndTime:               r.EndTime,
			LastUpdateTime:        r.LastUpdateTime,
			EmissionsPerSecondX64: r.EmissionsPerSecondX64.String(),
			TotalEmissioned:       r.RewardTotalEmissioned,
			Claimed:               r.RewardClaimed,
			TokenMint:             r.TokenMint.String(),
			TokenVault:            r.TokenVault.String(),
			Authority:             r.Authority.String(),
			GrowthGlobalX64:       r.RewardGrowthGlobalX64.String(),
		})
	}
	return resp
}

func parseAddress(c *gin.Context, param string) (solana.PublicKey, bool) {
	key, err := solana.PublicKeyFromBase58(c.Param(param))
	if err != nil {
		httputil.BadRequest(c, "invalid "+param+": "+err.Error())
		return solana.PublicKey{}, false
	}
	return key, true
}

func parseTick(c *gin.Context, param string) (int32, bool) {
	v, err := strconv.ParseInt(c.Param(param), 10, 32)
	if err != nil {
		httputil.BadRequest(c, "invalid "+param+": must be a 32-bit integer")
		return 0, false
	}
	return int32(v), true
}

func (h *PoolHandler) getPool(c *gin.Context) {
	id, ok := parseAddress(c, "address")
	if !ok {
		return
	}
	p, err := h.engine.Pool(id)
	if err != nil {
		httputil.CoreError(c, err)
		return
	}
	httputil.Success(c, NewPoolDetail(p))
}

type TickInfo struct {
	Tick                 int32    `json:"tick"`
	LiquidityNet         string   `json:"liquidity_net"`
	LiquidityGross       string   `json:"liquidity_gross"`
	FeeGrowthOutside0X64 string   `json:"fee_growth_outside_0_x64"`
	FeeGrowthOutside1X64 string   `json:"fee_growth_outside_1_x64"`
	RewardGrowthsOutside []string `json:"reward_growths_outside_x64"`
}

// TickArrayResponse lists the initialized ticks of one array.
type TickArrayResponse struct {
	StartTickIndex       int32      `json:"start_tick_index"`
	InitializedTickCount uint8      `json:"initialized_tick_count"`
	Ticks                []TickInfo `json:"ticks"`
}

func (h *PoolHandler) getTickArray(c *gin.Context) {
	id, ok := parseAddress(c, "address")
	if !ok {
		return
	}
	tick, ok := parseTick(c, "tick")
	if !ok {
		return
	}
	ta, err := h.engine.TickArray(id, tick)
	if err != nil {
		httputil.CoreError(c, err)
		return
	}
	resp := TickArrayResponse{
		StartTickIndex:       ta.StartTickIndex,
		InitializedTickCount: ta.InitializedTickCount,
		Ticks:                make([]TickInfo, 0, ta.InitializedTickCount),
	}
	for i := range ta.Ticks {
		t := &ta.Ticks[i]
		if !t.IsInitialized() {
			continue
		}
		info := TickInfo{
			Tick:                 t.Tick,
			LiquidityNet:         t.Net().String(),
			LiquidityGross:       t.LiquidityGross.String(),
			FeeGrowthOutside0X64: t.FeeGrowthOutside0X64.String(),
			FeeGrowthOutside1X64: t.FeeGrowthOutside1X64.String(),
		}
		for _, g := range t.RewardGrowthsOutsideX64 {
			info.RewardGrowthsOutside = append(info.RewardGrowthsOutside, g.String())
		}
		resp.Ticks = append(resp.Ticks, info)
	}
	httputil.Success(c, resp)
}

type ObservationInfo struct {
	BlockTimestamp uint64 `json:"block_timestamp"`
	TickCumulative int64  `json:"tick_cumulative"`
}

func (h *PoolHandler) getObservations(c *gin.Context) {
	id, ok := parseAddress(c, "address")
	if !ok {
		return
	}
	obs, err := h.engine.Observations(id)
	if err != nil {
		httputil.CoreError(c, err)
		return
	}
	resp := make([]ObservationInfo, 0, len(obs))
	for _, o := range obs {
		resp = append(resp, ObservationInfo{BlockTimestamp: o.BlockTimestamp, TickCumulative: o.TickCumulative})
	}
	httputil.Success(c, resp)
}

type PositionResponse struct {
	Owner                   string   `json:"owner"`
	TickLower               int32    `json:"tick_lower"`
	TickUpper               int32    `json:"tick_upper"`
	Liquidity               string   `json:"liquidity"`
	FeeGrowthInside0LastX64 string   `json:"fee_growth_inside_0_last_x64"`
	FeeGrowthInside1LastX64 string   `json:"fee_growth_inside_1_last_x64"`
	TokenFeesOwed0          uint64   `json:"token_fees_owed_0"`
	TokenFeesOwed1          uint64   `json:"token_fees_owed_1"`
	RewardsOwed             []uint64 `json:"rewards_owed"`
}

func (h *PoolHandler) getPosition(c *gin.Context) {
	id, ok := parseAddress(c, "address")
	if !ok {
		return
	}
	owner, ok := parseAddress(c, "owner")
	if !ok {
		return
	}
	lower, ok := parseTick(c, "lower")
	if !ok {
		return
	}
	upper, ok := parseTick(c, "upper")
	if !ok {
		return
	}
	pos, err := h.engine.Position(domain.PositionKey{PoolID: id, Owner: owner, TickLower: lower, TickUpper: upper})
	if err != nil {
		httputil.CoreError(c, err)
		return
	}
	resp := PositionResponse{
		Owner:                   pos.Owner.String(),
		TickLower:               pos.TickLower,
		TickUpper:               pos.TickUpper,
		Liquidity:               pos.Liquidity.String(),
		FeeGrowthInside0LastX64: pos.FeeGrowthInside0LastX64.String(),
		FeeGrowthInside1LastX64: pos.FeeGrowthInside1LastX64.String(),
		TokenFeesOwed0:          pos.TokenFeesOwed0,
		TokenFeesOwed1:          pos.TokenFeesOwed1,
	}
	for _, r := range pos.RewardInfos {
		resp.RewardsOwed = append(resp.RewardsOwed, r.RewardAmountOwed)
	}
	httputil.Success(c, resp)
}
