package persistence

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/clmm-core/internal/domain"
	"github.com/hxuan190/clmm-core/internal/store"
)

const (
	ConfigsBucket    = "configs"
	PoolsBucket      = "pools"
	TickArraysBucket = "tick_arrays"
	PositionsBucket  = "positions"

	DefaultDBPath = "./data/clmm-core.db"
)

func tickArrayKey(poolID solana.PublicKey, start int32) string {
	return poolID.String() + "/" + strconv.FormatInt(int64(start), 10)
}

func parseTickArrayKey(key string) (store.TickArrayRef, error) {
	poolStr, startStr, ok := strings.Cut(key, "/")
	if !ok {
		return store.TickArrayRef{}, fmt.Errorf("malformed tick array key %q", key)
	}
	poolID, err := solana.PublicKeyFromBase58(poolStr)
	if err != nil {
		return store.TickArrayRef{}, fmt.Errorf("tick array key %q: %w", key, err)
	}
	start, err := strconv.ParseInt(startStr, 10, 32)
	if err != nil {
		return store.TickArrayRef{}, fmt.Errorf("tick array key %q: %w", key, err)
	}
	return store.TickArrayRef{PoolID: poolID, Start: int32(start)}, nil
}

func positionKey(key domain.PositionKey) string {
	return key.String()
}

// arraySpacing recovers the tick spacing from the indexes an array's slots carry.
func arraySpacing(ta *domain.TickArray) uint16 {
	return uint16(ta.Ticks[1].Tick - ta.Ticks[0].Tick)
}

func tickSlot(ta *domain.TickArray, spacing uint16, tick int32) (int, error) {
	offset := tick - ta.StartTickIndex
	if spacing == 0 || offset < 0 || offset%int32(spacing) != 0 || offset/int32(spacing) >= domain.TickArraySize {
		return 0, fmt.Errorf("tick %d outside array %d spacing %d", tick, ta.StartTickIndex, spacing)
	}
	return int(offset / int32(spacing)), nil
}
