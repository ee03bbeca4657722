package http

import (
	"bytes"
	"context"
	"encoding/json"
	gohttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/hxuan190/clmm-core/internal/amm"
	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/fixedpoint"
	"github.com/hxuan190/clmm-core/internal/http/httputil"
	"github.com/hxuan190/clmm-core/internal/store"
)

var (
	testPool  = solana.PublicKey{20}
	testOwner = solana.PublicKey{30}
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := amm.NewEngine(store.NewMemory())
	ctx := context.Background()

	config := solana.PublicKey{10}
	require.NoError(t, engine.PutConfig(ctx, &domain.AmmConfig{ID: config, TradeFeeRate: 3000, TickSpacing: 10}))
	_, err := engine.CreatePool(ctx, amm.CreatePoolRequest{
		ConfigID: config, PoolID: testPool,
		TokenMint0: solana.PublicKey{1}, TokenMint1: solana.PublicKey{2},
		SqrtPriceX64: fixedpoint.Q64,
	})
	require.NoError(t, err)
	_, err = engine.OpenPosition(ctx, amm.IncreaseLiquidityRequest{
		PoolID: testPool, Owner: testOwner, TickLower: -600, TickUpper: 600,
		Liquidity: uint128.From64(1_000_000_000), Amount0Max: 1 << 62, Amount1Max: 1 << 62,
	})
	require.NoError(t, err)
	return NewRouter(engine, nil)
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, httputil.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp httputil.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	w, _ := do(t, r, gohttp.MethodGet, "/health", nil)
	assert.Equal(t, gohttp.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestPoolRoutes(t *testing.T) {
	r := newTestRouter(t)
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{name: "list", path: "/api/v1/pools/list", wantStatus: gohttp.StatusOK},
		{name: "detail", path: "/api/v1/pools/" + testPool.String(), wantStatus: gohttp.StatusOK},
		{name: "unknown pool", path: "/api/v1/pools/" + solana.PublicKey{77}.String(), wantStatus: gohttp.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "bad address", path: "/api/v1/pools/not-a-key", wantStatus: gohttp.StatusBadRequest},
		{name: "tick array", path: "/api/v1/pools/" + testPool.String() + "/tick-array/-600", wantStatus: gohttp.StatusOK},
		{name: "empty tick array", path: "/api/v1/pools/" + testPool.String() + "/tick-array/6000", wantStatus: gohttp.StatusNotFound},
		{name: "bad tick", path: "/api/v1/pools/" + testPool.String() + "/tick-array/x", wantStatus: gohttp.StatusBadRequest},
		{name: "observations", path: "/api/v1/pools/" + testPool.String() + "/observations", wantStatus: gohttp.StatusOK},
		{name: "position", path: "/api/v1/pools/" + testPool.String() + "/positions/" + testOwner.String() + "/-600/600", wantStatus: gohttp.StatusOK},
		{name: "missing position", path: "/api/v1/pools/" + testPool.String() + "/positions/" + testOwner.String() + "/-10/10", wantStatus: gohttp.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := do(t, r, gohttp.MethodGet, tt.path, nil)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantStatus == gohttp.StatusOK, resp.Success)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, resp.Code)
			}
		})
	}
}

func TestPoolDetail(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(gohttp.MethodGet, "/api/v1/pools/"+testPool.String(), nil))
	require.Equal(t, gohttp.StatusOK, w.Code)

	var resp struct {
		Data PoolDetailResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, testPool.String(), resp.Data.Address)
	assert.Equal(t, "1000000000", resp.Data.Liquidity)
	assert.Equal(t, fixedpoint.Q64.String(), resp.Data.SqrtPriceX64)
	assert.Equal(t, uint(2), resp.Data.TickArrays)
	assert.Empty(t, resp.Data.Rewards)
}

func TestQuote(t *testing.T) {
	r := newTestRouter(t)
	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantCode   string
	}{
		{
			name:       "exact in",
			body:       map[string]any{"pool": testPool.String(), "amount": "1000000", "zeroForOne": true, "swapMode": "ExactIn"},
			wantStatus: gohttp.StatusOK,
		},
		{
			name:       "exact out",
			body:       map[string]any{"pool": testPool.String(), "amount": "1000", "swapMode": "ExactOut"},
			wantStatus: gohttp.StatusOK,
		},
		{
			name:       "bad mode",
			body:       map[string]any{"pool": testPool.String(), "amount": "1000", "swapMode": "Both"},
			wantStatus: gohttp.StatusBadRequest,
		},
		{
			name:       "zero amount",
			body:       map[string]any{"pool": testPool.String(), "amount": "0", "swapMode": "ExactIn"},
			wantStatus: gohttp.StatusBadRequest,
		},
		{
			name:       "threshold",
			body:       map[string]any{"pool": testPool.String(), "amount": "1000", "swapMode": "ExactIn", "otherAmountThreshold": "5000"},
			wantStatus: gohttp.StatusUnprocessableEntity,
			wantCode:   "SLIPPAGE_EXCEEDED",
		},
		{
			name:       "limit on wrong side",
			body:       map[string]any{"pool": testPool.String(), "amount": "1000", "zeroForOne": true, "swapMode": "ExactIn", "sqrtPriceLimitX64": fixedpoint.MaxSqrtPriceX64.String()},
			wantStatus: gohttp.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := do(t, r, gohttp.MethodPost, "/api/v1/quote", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, resp.Code)
			}
		})
	}
}

func TestQuoteLeavesPoolUnchanged(t *testing.T) {
	r := newTestRouter(t)
	path := "/api/v1/pools/" + testPool.String()
	before, _ := do(t, r, gohttp.MethodGet, path, nil)

	w, _ := do(t, r, gohttp.MethodPost, "/api/v1/quote", map[string]any{
		"pool": testPool.String(), "amount": "50000000", "zeroForOne": true, "swapMode": "ExactIn",
	})
	require.Equal(t, gohttp.StatusOK, w.Code)

	after, _ := do(t, r, gohttp.MethodGet, path, nil)
	assert.Equal(t, before.Body.String(), after.Body.String())
}

func TestStopBeforeConfigure(t *testing.T) {
	svc := &HTTPService{}
	assert.NotPanics(t, func() {
		require.NoError(t, svc.Stop())
		require.NoError(t, svc.Stop())
	})
}
