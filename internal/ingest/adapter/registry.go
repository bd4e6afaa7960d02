package adapter

import (
	"fmt"

	"execution-core/internal/ingest"
)

// New builds the Adapter for a venue name as configured in LEADER_VENUES.
func New(name string) (ingest.Adapter, error) {
	switch name {
	case "bybit":
		return NewBybit(), nil
	case "binance_futures":
		return NewBinanceFutures(), nil
	case "okx":
		return NewOKX(), nil
	case "gateio":
		return NewGateIO(), nil
	case "bitget":
		return NewBitget(), nil
	default:
		return nil, fmt.Errorf("adapter: unknown leader venue %q", name)
	}
}
