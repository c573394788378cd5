package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// PrivateKeyWallet is an in-process WalletSigner backed by a raw secp256k1
// key. Used by the key inspector and in tests; production wallets sign
// elsewhere and only return signatures.
type PrivateKeyWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

func NewPrivateKeyWallet(privateKeyHex string) (*PrivateKeyWallet, error) {
	if privateKeyHex == "" {
		return nil, fmt.Errorf("private key is required")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewWalletFromKey(key), nil
}

func NewWalletFromKey(key *ecdsa.PrivateKey) *PrivateKeyWallet {
	return &PrivateKeyWallet{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}
}

func (w *PrivateKeyWallet) Address() common.Address {
	return w.address
}

// SignTypedData hashes per EIP-712 and signs. V is shifted to 27/28, which is
// what the exchange contracts expect.
func (w *PrivateKeyWallet) SignTypedData(_ context.Context, data apitypes.TypedData) (string, error) {
	hash, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return "", fmt.Errorf("hash typed data: %w", err)
	}
	sig, err := crypto.Sign(hash, w.key)
	if err != nil {
		return "", err
	}
	if sig[64] < 27 {
		sig[64] += 27
	}
	return hexutil.Encode(sig), nil
}
