package order

import (
	"fmt"
	"math/big"

	"github.com/GoPolymarket/polydesk/internal/pkg/apperrors"
	"github.com/ethereum/go-ethereum/common"
)

// SignedOrder is the transport form: integers as decimal strings, side as a
// word, signature type as a number.
type SignedOrder struct {
	Salt          string `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	Side          string `json:"side"`
	SignatureType int    `json:"signatureType"`
	Signature     string `json:"signature"`
}

// WithSignature slots in the signature returned by the wallet.
func (o *UnsignedOrder) WithSignature(signature string) SignedOrder {
	return SignedOrder{
		Salt:          o.Salt.String(),
		Maker:         o.Maker.Hex(),
		Signer:        o.Signer.Hex(),
		Taker:         o.Taker.Hex(),
		TokenID:       o.TokenID.String(),
		MakerAmount:   o.MakerAmount.String(),
		TakerAmount:   o.TakerAmount.String(),
		Expiration:    o.Expiration.String(),
		Nonce:         o.Nonce.String(),
		FeeRateBps:    o.FeeRateBps.String(),
		Side:          o.Side.String(),
		SignatureType: int(o.SignatureType),
		Signature:     signature,
	}
}

// Unsigned rebuilds the order from its transport form so a returned
// signature can be checked against it.
func (s SignedOrder) Unsigned(negRisk bool) (*UnsignedOrder, error) {
	ints := make([]*big.Int, 0, 7)
	for _, field := range []struct{ name, v string }{
		{"salt", s.Salt}, {"tokenId", s.TokenID}, {"makerAmount", s.MakerAmount},
		{"takerAmount", s.TakerAmount}, {"expiration", s.Expiration}, {"nonce", s.Nonce},
		{"feeRateBps", s.FeeRateBps},
	} {
		n, ok := new(big.Int).SetString(field.v, 10)
		if !ok {
			return nil, invalidField(field.name)
		}
		ints = append(ints, n)
	}
	for _, addr := range []struct{ name, v string }{{"maker", s.Maker}, {"signer", s.Signer}, {"taker", s.Taker}} {
		if !common.IsHexAddress(addr.v) {
			return nil, invalidField(addr.name)
		}
	}
	side, err := ParseSide(s.Side)
	if err != nil {
		return nil, err
	}
	st := s.SignatureType
	sigType, err := resolveSignatureType(&st)
	if err != nil {
		return nil, err
	}
	return &UnsignedOrder{
		Salt:          ints[0],
		Maker:         common.HexToAddress(s.Maker),
		Signer:        common.HexToAddress(s.Signer),
		Taker:         common.HexToAddress(s.Taker),
		TokenID:       ints[1],
		MakerAmount:   ints[2],
		TakerAmount:   ints[3],
		Expiration:    ints[4],
		Nonce:         ints[5],
		FeeRateBps:    ints[6],
		Side:          side,
		SignatureType: sigType,
		NegRisk:       negRisk,
	}, nil
}

func invalidField(name string) error {
	return apperrors.NewInvalidRequest(fmt.Sprintf("signed order field %s is malformed", name))
}
