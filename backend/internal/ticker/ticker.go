package ticker

import (
	"log"
	"math/rand"
	"sync"
	"time"
)

// PriceUpdate represents a single quote update for a symbol.
type PriceUpdate struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Ts     int64   `json:"ts"` // Unix timestamp milliseconds
}

var (
	currentPrices = make(map[string]float64)
	mu            sync.RWMutex
	// Channel to broadcast price updates
	PriceUpdates = make(chan PriceUpdate, 100)
)

// The dashboard's simulated markets: crypto pairs plus the forex majors.
var startingPrices = map[string]float64{
	"BTC-USD": 60000.00,
	"ETH-USD": 3000.00,
	"SOL-USD": 150.00,
	"EUR-USD": 1.08,
	"GBP-USD": 1.27,
	"USD-JPY": 151.40,
}

// InitTicker starts the background process that simulates quote changes.
func InitTicker() {
	mu.Lock()
	for symbol, price := range startingPrices {
		currentPrices[symbol] = price
	}
	mu.Unlock()

	log.Println("Initializing price ticker...")
	go runTicker()
}

// runTicker periodically updates quotes and broadcasts them.
func runTicker() {
	t := time.NewTicker(2 * time.Second)
	defer t.Stop()

	for range t.C {
		mu.Lock()
		for symbol := range currentPrices {
			// Simulate a small move (+/- 0.5%)
			oldPrice := currentPrices[symbol]
			changePercent := (rand.Float64() - 0.5) / 100
			newPrice := oldPrice * (1 + changePercent)
			if newPrice <= 0 {
				newPrice = startingPrices[symbol]
			}
			currentPrices[symbol] = newPrice

			update := PriceUpdate{
				Symbol: symbol,
				Price:  newPrice,
				Ts:     time.Now().UnixMilli(),
			}

			// Non-blocking send to avoid stalling the ticker
			select {
			case PriceUpdates <- update:
			default:
				log.Println("Price update channel full, dropping update for", symbol)
			}
		}
		mu.Unlock()
	}
}

// GetCurrentPrices returns a copy of the current quotes.
func GetCurrentPrices() map[string]float64 {
	mu.RLock()
	defer mu.RUnlock()
	pricesCopy := make(map[string]float64, len(currentPrices))
	for k, v := range currentPrices {
		pricesCopy[k] = v
	}
	return pricesCopy
}
