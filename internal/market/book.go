package market

import (
	"math"
	"sort"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

const (
	sizeFloor = 0.01
	// priceEpsilon absorbs float error when snapping prices to the tick grid.
	priceEpsilon = 1e-9
)

func floorTick(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}
	return roundPrice(math.Floor(price/tick+priceEpsilon) * tick)
}

func ceilTick(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}
	return roundPrice(math.Ceil(price/tick-priceEpsilon) * tick)
}

func roundPrice(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}

// normalizeBook sorts bids descending and asks ascending and recomputes the
// cumulative totals.
func normalizeBook(book *models.OrderBook) {
	sort.SliceStable(book.Bids, func(i, j int) bool { return book.Bids[i].Price > book.Bids[j].Price })
	sort.SliceStable(book.Asks, func(i, j int) bool { return book.Asks[i].Price < book.Asks[j].Price })

	var total float64
	for i := range book.Bids {
		total += book.Bids[i].Size
		book.Bids[i].Total = total
	}
	total = 0
	for i := range book.Asks {
		total += book.Asks[i].Size
		book.Asks[i].Total = total
	}
}

func copyBook(book models.OrderBook) models.OrderBook {
	out := book
	out.Bids = append([]models.OrderBookLevel(nil), book.Bids...)
	out.Asks = append([]models.OrderBookLevel(nil), book.Asks...)
	return out
}
