package signer

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// RecoverTypedData returns the address that produced sig over data.
func RecoverTypedData(data apitypes.TypedData, signature string) (common.Address, error) {
	if signature == "" {
		return common.Address{}, fmt.Errorf("signature is required")
	}
	hash, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to hash typed data: %w", err)
	}
	rawSig, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid signature encoding")
	}
	if len(rawSig) != 65 {
		return common.Address{}, fmt.Errorf("invalid signature length")
	}
	// Normalize V to 0/1 for recovery.
	if rawSig[64] >= 27 {
		rawSig[64] -= 27
	}
	pub, err := crypto.SigToPub(hash, rawSig)
	if err != nil {
		return common.Address{}, fmt.Errorf("signature recovery failed")
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifyTypedData checks that want signed data.
func VerifyTypedData(data apitypes.TypedData, signature string, want common.Address) error {
	got, err := RecoverTypedData(data, signature)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("signature mismatch: recovered %s, expected %s", got.Hex(), want.Hex())
	}
	return nil
}
