package market

// seedCoins is the initial ticker table.
var seedCoins = []Coin{
	{Symbol: "BNB", Name: "BNB", Price: 861.78, Fiat: 105481.87, Change: 1.06, IsHot: true, Decimals: 2, Volume: "1.2B", Tag: "L1", MarketCap: "130B", Supply: "153M", Dominance: "3.5%"},
	{Symbol: "BTC", Name: "Bitcoin", Price: 88397.50, Fiat: 10819854.00, Change: 1.30, IsHot: true, Decimals: 2, Volume: "45.8B", Tag: "PoW", MarketCap: "1.7T", Supply: "19.6M", Dominance: "52.1%"},
	{Symbol: "ETH", Name: "Ethereum", Price: 2974.97, Fiat: 364136.33, Change: 1.16, IsHot: true, Decimals: 2, Volume: "18.5B", Tag: "L1", MarketCap: "350B", Supply: "120M", Dominance: "17.2%"},
	{Symbol: "SOL", Name: "Solana", Price: 125.50, Fiat: 15361.20, Change: 1.58, Decimals: 2, Volume: "3.2B", Tag: "L1", MarketCap: "56B", Supply: "443M", Dominance: "2.1%"},
	{Symbol: "XRP", Name: "Ripple", Price: 1.8693, Fiat: 228.80, Change: 0.55, Decimals: 4, Volume: "1.5B", Tag: "Pay", MarketCap: "101B", Supply: "54B", Dominance: "3.8%"},
	{Symbol: "ADA", Name: "Cardano", Price: 0.3542, Fiat: 43.35, Change: -0.85, Decimals: 4, Volume: "450M", Tag: "L1", MarketCap: "12B", Supply: "35B", Dominance: "0.8%"},
	{Symbol: "AVAX", Name: "Avalanche", Price: 25.40, Fiat: 3108.96, Change: 2.15, Decimals: 2, Volume: "280M", Tag: "L1", MarketCap: "9B", Supply: "377M", Dominance: "0.5%"},
	{Symbol: "DOGE", Name: "Dogecoin", Price: 0.12313, Fiat: 15.07, Change: -0.14, Decimals: 5, Volume: "890M", Tag: "Meme", MarketCap: "17B", Supply: "143B", Dominance: "0.9%"},
	{Symbol: "DOT", Name: "Polkadot", Price: 4.52, Fiat: 553.24, Change: 0.92, Decimals: 2, Volume: "150M", Tag: "L0", MarketCap: "6B", Supply: "1.4B", Dominance: "0.3%"},
	{Symbol: "TRX", Name: "Tron", Price: 0.2857, Fiat: 34.97, Change: 0.07, Decimals: 4, Volume: "320M", Tag: "L1", MarketCap: "25B", Supply: "87B", Dominance: "1.1%"},
	{Symbol: "LINK", Name: "Chainlink", Price: 10.50, Fiat: 1285.20, Change: 1.45, Decimals: 2, Volume: "180M", Tag: "Oracle", MarketCap: "6B", Supply: "587M", Dominance: "0.3%"},
	{Symbol: "MATIC", Name: "Polygon", Price: 0.4021, Fiat: 49.21, Change: -1.20, Decimals: 4, Volume: "210M", Tag: "L2", MarketCap: "4B", Supply: "9.3B", Dominance: "0.2%"},
	{Symbol: "SHIB", Name: "Shiba Inu", Price: 0.00001745, Fiat: 0.002135, Change: 3.50, Decimals: 8, Volume: "600M", Tag: "Meme", MarketCap: "10B", Supply: "589T", Dominance: "0.6%"},
	{Symbol: "LTC", Name: "Litecoin", Price: 70.15, Fiat: 8586.36, Change: 0.45, Decimals: 2, Volume: "400M", Tag: "PoW", MarketCap: "5B", Supply: "74M", Dominance: "0.3%"},
	{Symbol: "UNI", Name: "Uniswap", Price: 7.55, Fiat: 924.12, Change: -0.55, Decimals: 2, Volume: "120M", Tag: "DeFi", MarketCap: "4.5B", Supply: "598M", Dominance: "0.2%"},
	{Symbol: "PEPE", Name: "Pepe", Price: 0.00000411, Fiat: 0.00050306, Change: 1.23, Decimals: 8, Volume: "350M", Tag: "Meme", MarketCap: "1.7B", Supply: "420T", Dominance: "0.1%"},
	{Symbol: "ZEC", Name: "Zcash", Price: 527.89, Fiat: 64613.74, Change: -1.47, Decimals: 2, Volume: "80M", Tag: "Privacy", MarketCap: "800M", Supply: "16M", Dominance: "0.05%"},
	{Symbol: "AT", Name: "Artfinity", Price: 0.1863, Fiat: 22.80, Change: 18.66, Decimals: 4, Volume: "5M", Tag: "NFT", MarketCap: "120M", Supply: "650M", Dominance: "0.01%"},
	{Symbol: "AUCTION", Name: "Bounce", Price: 5.75, Fiat: 703.80, Change: 17.35, Decimals: 2, Volume: "45M", Tag: "Web3", MarketCap: "38M", Supply: "6.5M", Dominance: "0.002%"},
}
