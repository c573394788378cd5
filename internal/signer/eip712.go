package signer

import (
	"context"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	OrderDomainName    = "Polymarket CTF Exchange"
	OrderDomainVersion = "1"

	// Exchange contracts on Polygon
	ExchangeContractAddress        = "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"
	NegRiskExchangeContractAddress = "0xC5d563A36AE78145C45a50134d48A1215220f80a"

	ClobAuthDomainName    = "ClobAuthDomain"
	ClobAuthDomainVersion = "1"
	ClobAuthMessage       = "This message attests that I control the given wallet"

	OrderPrimaryType    = "Order"
	ClobAuthPrimaryType = "ClobAuth"
)

// WalletSigner is the external wallet. It returns a 65-byte 0x-hex signature.
type WalletSigner interface {
	Address() common.Address
	SignTypedData(ctx context.Context, data apitypes.TypedData) (string, error)
}

var OrderTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	OrderPrimaryType: {
		{Name: "salt", Type: "uint256"},
		{Name: "maker", Type: "address"},
		{Name: "signer", Type: "address"},
		{Name: "taker", Type: "address"},
		{Name: "tokenId", Type: "uint256"},
		{Name: "makerAmount", Type: "uint256"},
		{Name: "takerAmount", Type: "uint256"},
		{Name: "expiration", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "feeRateBps", Type: "uint256"},
		{Name: "side", Type: "uint8"},
		{Name: "signatureType", Type: "uint8"},
	},
}

var clobAuthTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
	},
	ClobAuthPrimaryType: {
		{Name: "address", Type: "address"},
		{Name: "timestamp", Type: "string"},
		{Name: "nonce", Type: "uint256"},
		{Name: "message", Type: "string"},
	},
}

// OrderDomain returns the exchange domain; negRisk markets settle on a
// different contract.
func OrderDomain(chainID int64, negRisk bool) apitypes.TypedDataDomain {
	contract := ExchangeContractAddress
	if negRisk {
		contract = NegRiskExchangeContractAddress
	}
	return apitypes.TypedDataDomain{
		Name:              OrderDomainName,
		Version:           OrderDomainVersion,
		ChainId:           math.NewHexOrDecimal256(chainID),
		VerifyingContract: contract,
	}
}

// ClobAuthTypedData is the L1 payload signed to create or derive API keys.
func ClobAuthTypedData(address common.Address, chainID, timestamp int64, nonce uint64) apitypes.TypedData {
	return apitypes.TypedData{
		Types:       clobAuthTypes,
		PrimaryType: ClobAuthPrimaryType,
		Domain: apitypes.TypedDataDomain{
			Name:    ClobAuthDomainName,
			Version: ClobAuthDomainVersion,
			ChainId: math.NewHexOrDecimal256(chainID),
		},
		Message: apitypes.TypedDataMessage{
			"address":   address.Hex(),
			"timestamp": strconv.FormatInt(timestamp, 10),
			"nonce":     (*math.HexOrDecimal256)(new(big.Int).SetUint64(nonce)),
			"message":   ClobAuthMessage,
		},
	}
}

// SignL1 asks the wallet for a ClobAuth signature and packs the L1 headers.
func SignL1(ctx context.Context, wallet WalletSigner, chainID, timestamp int64, nonce uint64) (L1Headers, error) {
	td := ClobAuthTypedData(wallet.Address(), chainID, timestamp, nonce)
	sig, err := wallet.SignTypedData(ctx, td)
	if err != nil {
		return L1Headers{}, err
	}
	return L1Headers{
		Address:   wallet.Address().Hex(),
		Signature: sig,
		Timestamp: strconv.FormatInt(timestamp, 10),
		Nonce:     strconv.FormatUint(nonce, 10),
	}, nil
}
