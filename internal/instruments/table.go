package instruments

import "github.com/danielweickdag/kairo-quantum-sub006/internal/models"

var (
	usEquityHours = models.TradingHours{Start: "09:30", End: "16:00", Timezone: "America/New_York"}
	forexHours    = models.TradingHours{Start: "00:00", End: "24:00", Timezone: "America/New_York"}
	globexHours   = models.TradingHours{Start: "17:00", End: "16:00", Timezone: "America/Chicago"}
	cryptoHours   = models.TradingHours{Timezone: "UTC"}
)

// DefaultInstruments returns the built-in instrument table.
func DefaultInstruments() []models.InstrumentConfig {
	return []models.InstrumentConfig{
		stock("AAPL", "Apple Inc.", models.NASDAQ, 189.50, 0.02, 2.9e12),
		stock("MSFT", "Microsoft Corp.", models.NASDAQ, 415.20, 0.018, 3.1e12),
		stock("GOOGL", "Alphabet Inc.", models.NASDAQ, 152.80, 0.022, 1.9e12),
		stock("TSLA", "Tesla Inc.", models.NASDAQ, 245.00, 0.045, 7.8e11),
		stock("NVDA", "NVIDIA Corp.", models.NASDAQ, 875.30, 0.04, 2.2e12),
		{
			Symbol:      "SPY",
			Name:        "SPDR S&P 500 ETF",
			AssetClass:  models.AssetETF,
			Exchange:    models.NYSE,
			TickSize:    0.01,
			MinQuantity: 1,
			MaxQuantity: 50000,
			Hours:       usEquityHours,
			BasePrice:   512.40,
			Volatility:  0.012,
		},
		{
			Symbol:      "TLT",
			Name:        "iShares 20+ Year Treasury Bond ETF",
			AssetClass:  models.AssetBond,
			Exchange:    models.NASDAQ,
			TickSize:    0.01,
			MinQuantity: 1,
			MaxQuantity: 50000,
			Hours:       usEquityHours,
			BasePrice:   92.10,
			Volatility:  0.008,
		},
		crypto("BTCUSD", "Bitcoin", 67250.00, 0.05, 1.3e12),
		crypto("ETHUSD", "Ethereum", 3480.00, 0.06, 4.2e11),
		crypto("SOLUSD", "Solana", 172.40, 0.08, 7.6e10),
		forex("EURUSD", "Euro / US Dollar", 1.0865, 0.0001),
		forex("GBPUSD", "British Pound / US Dollar", 1.2710, 0.0001),
		forex("USDJPY", "US Dollar / Japanese Yen", 151.35, 0.001),
		{
			Symbol:      "ES-FUT",
			Name:        "E-mini S&P 500 Futures",
			AssetClass:  models.AssetFutures,
			Exchange:    models.CME,
			TickSize:    0.25,
			MinQuantity: 1,
			MaxQuantity: 500,
			Hours:       globexHours,
			BasePrice:   5150.00,
			Volatility:  0.015,
		},
		{
			Symbol:      "CL-FUT",
			Name:        "Crude Oil Futures",
			AssetClass:  models.AssetFutures,
			Exchange:    models.CME,
			TickSize:    0.01,
			MinQuantity: 1,
			MaxQuantity: 200,
			Hours:       globexHours,
			BasePrice:   81.20,
			Volatility:  0.03,
		},
		{
			Symbol:      "BTC-PERP",
			Name:        "Bitcoin Perpetual",
			AssetClass:  models.AssetCrypto,
			Exchange:    models.Binance,
			TickSize:    0.5,
			MinQuantity: 0.001,
			MaxQuantity: 50,
			Hours:       cryptoHours,
			BasePrice:   67300.00,
			Volatility:  0.05,
		},
		option("AAPL-C-200-20271217", 9.40, 0.06),
		option("AAPL-P-180-20271217", 7.85, 0.06),
		option("SPY-P-480-20270618", 6.10, 0.05),
		option("TSLA-C-300-20270618", 21.30, 0.09),
	}
}

func stock(symbol, name string, exchange models.Exchange, base, vol, marketCap float64) models.InstrumentConfig {
	return models.InstrumentConfig{
		Symbol:      symbol,
		Name:        name,
		AssetClass:  models.AssetStock,
		Exchange:    exchange,
		TickSize:    0.01,
		MinQuantity: 1,
		MaxQuantity: 10000,
		Hours:       usEquityHours,
		BasePrice:   base,
		Volatility:  vol,
		MarketCap:   marketCap,
	}
}

func crypto(symbol, name string, base, vol, marketCap float64) models.InstrumentConfig {
	return models.InstrumentConfig{
		Symbol:      symbol,
		Name:        name,
		AssetClass:  models.AssetCrypto,
		Exchange:    models.Binance,
		TickSize:    0.01,
		MinQuantity: 0.0001,
		MaxQuantity: 100,
		Hours:       cryptoHours,
		BasePrice:   base,
		Volatility:  vol,
		MarketCap:   marketCap,
	}
}

func forex(symbol, name string, base, tick float64) models.InstrumentConfig {
	return models.InstrumentConfig{
		Symbol:      symbol,
		Name:        name,
		AssetClass:  models.AssetForex,
		Exchange:    models.FXCM,
		TickSize:    tick,
		MinQuantity: 1000,
		MaxQuantity: 10000000,
		Hours:       forexHours,
		BasePrice:   base,
		Volatility:  0.005,
	}
}

func option(symbol string, premium, vol float64) models.InstrumentConfig {
	return models.InstrumentConfig{
		Symbol:      symbol,
		Name:        symbol + " option",
		AssetClass:  models.AssetOptions,
		Exchange:    models.CBOE,
		TickSize:    0.01,
		MinQuantity: 1,
		MaxQuantity: 1000,
		Hours:       usEquityHours,
		BasePrice:   premium,
		Volatility:  vol,
	}
}
