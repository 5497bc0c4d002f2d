package registry

import "github.com/strangelove-ventures/cctp-payroll/types"

// CCTP V1 deployments keyed by wallet provider blockchain symbol.
// https://developers.circle.com/stablecoins/evm-smart-contracts
var (
	testnetTokenMessenger     = "0x9f3B8679c73C2Fef8b59B4f3444d4e156fb70AA5"
	testnetMessageTransmitter = "0x7865fAfC2db2093669d92c0F33AeEF291086BEFD"

	solanaTokenMessengerMinter = "CCTPiPYPc6AsJuwueEnWgSgucamXDZwBd53dQ11YiKX3"
	solanaMessageTransmitter   = "CCTPmbSD7gX1bxKPAmg77w8oFzNFpaQiQUWD43TKaecd"
)

func evm(symbol string, chainID int64, domain types.Domain, usdc, tokenMessenger, messageTransmitter string) types.ChainInfo {
	return types.ChainInfo{
		Symbol:             symbol,
		Family:             types.FamilyEVM,
		ChainID:            chainID,
		Domain:             domain,
		USDC:               usdc,
		TokenMessenger:     tokenMessenger,
		MessageTransmitter: messageTransmitter,
		Decimals:           types.USDCDecimals,
	}
}

func solana(symbol string, chainID int64, usdc string) types.ChainInfo {
	return types.ChainInfo{
		Symbol:             symbol,
		Family:             types.FamilySolana,
		ChainID:            chainID,
		Domain:             5,
		USDC:               usdc,
		TokenMessenger:     solanaTokenMessengerMinter,
		MessageTransmitter: solanaMessageTransmitter,
		Decimals:           types.USDCDecimals,
	}
}

// Testnet returns the built-in testnet chains.
func Testnet() []types.ChainInfo {
	return []types.ChainInfo{
		evm("ETH-SEPOLIA", 11155111, 0, "0x1c7d4b196cb0c7b01d743fbc6116a902379c7238", testnetTokenMessenger, testnetMessageTransmitter),
		evm("AVAX-FUJI", 43113, 1, "0x5425890298aed601595a70AB815c96711a31Bc65", "0xeb08f243E5d3FCFF26A9E38Ae5520A669f4019d0", "0xa9fB1b3009DCb79E2fe346c16a604B8Fa8aE0a79"),
		evm("OP-SEPOLIA", 11155420, 2, "0x5fd84259d66Cd46123540766Be93DFE6D43130D7", testnetTokenMessenger, testnetMessageTransmitter),
		evm("ARB-SEPOLIA", 421614, 3, "0x75faf114eafb1BDbe2F0316DF893fd58CE46AA4d", testnetTokenMessenger, "0xaCF1ceeF35caAc005e15888dDb8A3515C41B4872"),
		evm("BASE-SEPOLIA", 84532, 6, "0x036CbD53842c5426634e7929541eC2318f3dCF7e", testnetTokenMessenger, testnetMessageTransmitter),
		evm("MATIC-AMOY", 80002, 7, "0x41E94Eb019C0762f9Bfcf9Fb1E58725BfB0e7582", testnetTokenMessenger, testnetMessageTransmitter),
		evm("UNI-SEPOLIA", 1301, 10, "0x31d0220469e10c4E71834a79b1f276d740d3768F", "0x8ed94B8dAd2Dc5453862ea5e316A8e71AAed9782", "0xbc498c326533d675cf571B90A2Ced265ACb7d086"),
		solana("SOL-DEVNET", 103, "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU"),
	}
}

// Mainnet returns the built-in mainnet chains.
func Mainnet() []types.ChainInfo {
	return []types.ChainInfo{
		evm("ETH", 1, 0, "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "0xBd3fa81B58Ba92a82136038B25aDec7066af3155", "0x0a992d191DEeC32aFe36203Ad87D7d289a738F81"),
		evm("AVAX", 43114, 1, "0xB97EF9e8734C71904dC006fc2d93eAA8d99f84eC", "0x6B25532e1060CE10cc3B0A99e5683b91BFDe6982", "0x8186359aF5F57FbB40c6b14A588d2A59C0C29880"),
		evm("OP", 10, 2, "0x0b2c639c533813f4aa9d7837caf62653d097fcc2", "0x2B4069517957735bE00ceE0fadAE88a26365528f", "0x4D41f22c5a0e5c74090899E5a8Fb597a8842b3e8"),
		evm("ARB", 42161, 3, "0xaf88d065e77c8cC223D8E79B95F0Cc232abCDA50", "0x19330d10D9Cc8751218eaf51E8885D058642E08A", "0xC30362313FBBA5cf9163F0bb16a0e01f01A896ca"),
		evm("BASE", 8453, 6, "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", "0x1682Ae6375C4E4A97e4B583BC394c861A46D8962", "0xAD09780d193884d503182aD4588450C416D6F9D4"),
		evm("MATIC", 137, 7, "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", "0x9daF8c91AEFAE50b9c0E69629D3F6Ca40cA3B3FE", "0xF3be9355363857F3e001be68856A2f96b4C39Ba9"),
		solana("SOL", 101, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"),
	}
}

// Defaults returns every built-in chain.
func Defaults() []types.ChainInfo {
	return append(Testnet(), Mainnet()...)
}
