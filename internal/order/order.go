// Package order assembles unsigned CLOB orders for an external wallet to sign.
package order

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/GoPolymarket/polymarket-go-sdk/pkg/auth"
	"github.com/GoPolymarket/polydesk/internal/pkg/apperrors"
	"github.com/GoPolymarket/polydesk/internal/signer"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/shopspring/decimal"
)

type Side uint8

const (
	SideBuy  Side = 0
	SideSell Side = 1
)

func (s Side) String() string {
	if s == SideSell {
		return "SELL"
	}
	return "BUY"
}

func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return SideBuy, nil
	case "SELL":
		return SideSell, nil
	default:
		return 0, apperrors.NewInvalidOrder(fmt.Sprintf("side must be BUY or SELL, got %q", s))
	}
}

const (
	usdcDecimals      = 6
	defaultExpiration = 24 * time.Hour
)

var (
	usdcScale = decimal.New(1, usdcDecimals)
	maxSalt   = new(big.Int).Lsh(big.NewInt(1), 62)
)

// Params is what a caller supplies. Price and size arrive as decimals so no
// float rounding leaks into the amount legs.
type Params struct {
	TokenID       string
	Price         decimal.Decimal
	Size          decimal.Decimal
	Side          string
	Signer        string
	Funder        string
	SignatureType *int
	NegRisk       bool
}

type UnsignedOrder struct {
	Salt          *big.Int
	Maker         common.Address
	Signer        common.Address
	Taker         common.Address
	TokenID       *big.Int
	MakerAmount   *big.Int
	TakerAmount   *big.Int
	Expiration    *big.Int
	Nonce         *big.Int
	FeeRateBps    *big.Int
	Side          Side
	SignatureType auth.SignatureType
	NegRisk       bool
}

// Builder is a pure function of its inputs plus the injected clock and
// random source.
type Builder struct {
	ChainID int64
	Now     func() time.Time
	Rand    io.Reader
}

func NewBuilder(chainID int64) *Builder {
	return &Builder{ChainID: chainID, Now: time.Now, Rand: rand.Reader}
}

func (b *Builder) Build(p Params) (*UnsignedOrder, error) {
	if err := validate(p); err != nil {
		return nil, err
	}
	side, err := ParseSide(p.Side)
	if err != nil {
		return nil, err
	}
	tokenID, ok := new(big.Int).SetString(strings.TrimSpace(p.TokenID), 10)
	if !ok || tokenID.Sign() < 0 {
		return nil, apperrors.NewInvalidOrder("token id must be a non-negative decimal integer")
	}
	if !common.IsHexAddress(p.Signer) {
		return nil, apperrors.NewInvalidOrder("signer must be a hex address")
	}
	signerAddr := common.HexToAddress(p.Signer)
	maker := signerAddr
	if p.Funder != "" {
		if !common.IsHexAddress(p.Funder) {
			return nil, apperrors.NewInvalidOrder("funder must be a hex address")
		}
		maker = common.HexToAddress(p.Funder)
	}
	sigType, err := resolveSignatureType(p.SignatureType)
	if err != nil {
		return nil, err
	}

	priceUnits := p.Price.Mul(usdcScale).Floor()
	wholeSize := p.Size.Floor()
	usdcLeg := priceUnits.Mul(wholeSize).BigInt()
	tokenLeg := wholeSize.Mul(usdcScale).BigInt()

	makerAmount, takerAmount := usdcLeg, tokenLeg
	if side == SideSell {
		makerAmount, takerAmount = tokenLeg, usdcLeg
	}

	salt, err := rand.Int(b.randReader(), maxSalt)
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	now := b.now()

	return &UnsignedOrder{
		Salt:          salt,
		Maker:         maker,
		Signer:        signerAddr,
		Taker:         common.Address{},
		TokenID:       tokenID,
		MakerAmount:   makerAmount,
		TakerAmount:   takerAmount,
		Expiration:    big.NewInt(now.Add(defaultExpiration).Unix()),
		Nonce:         big.NewInt(now.UnixMilli()),
		FeeRateBps:    big.NewInt(0),
		Side:          side,
		SignatureType: sigType,
		NegRisk:       p.NegRisk,
	}, nil
}

func validate(p Params) error {
	if !p.Price.IsPositive() || p.Price.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return apperrors.NewInvalidOrder(fmt.Sprintf("price %s must be strictly between 0 and 1", p.Price))
	}
	if p.Price.Mul(usdcScale).Floor().IsZero() {
		return apperrors.NewInvalidOrder(fmt.Sprintf("price %s is below the smallest USDC unit", p.Price))
	}
	if !p.Size.IsPositive() {
		return apperrors.NewInvalidOrder(fmt.Sprintf("size %s must be positive", p.Size))
	}
	if p.Size.Floor().LessThan(decimal.NewFromInt(1)) {
		return apperrors.NewInvalidOrder(fmt.Sprintf("size %s is below one whole share", p.Size))
	}
	if p.TokenID == "" {
		return apperrors.NewInvalidOrder("token id is required")
	}
	return nil
}

// Browser wallets trade through a Gnosis safe, so that is the default.
func resolveSignatureType(v *int) (auth.SignatureType, error) {
	if v == nil {
		return auth.SignatureGnosisSafe, nil
	}
	switch st := auth.SignatureType(*v); st {
	case auth.SignatureEOA, auth.SignatureProxy, auth.SignatureGnosisSafe:
		return st, nil
	default:
		return 0, apperrors.NewInvalidOrder(fmt.Sprintf("unsupported signature type %d", *v))
	}
}

func (b *Builder) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

func (b *Builder) randReader() io.Reader {
	if b.Rand == nil {
		return rand.Reader
	}
	return b.Rand
}

// TypedData is the EIP-712 payload handed to the wallet.
func (o *UnsignedOrder) TypedData(chainID int64) apitypes.TypedData {
	return apitypes.TypedData{
		Types:       signer.OrderTypes,
		PrimaryType: signer.OrderPrimaryType,
		Domain:      signer.OrderDomain(chainID, o.NegRisk),
		Message: apitypes.TypedDataMessage{
			"salt":          (*math.HexOrDecimal256)(o.Salt),
			"maker":         o.Maker.Hex(),
			"signer":        o.Signer.Hex(),
			"taker":         o.Taker.Hex(),
			"tokenId":       (*math.HexOrDecimal256)(o.TokenID),
			"makerAmount":   (*math.HexOrDecimal256)(o.MakerAmount),
			"takerAmount":   (*math.HexOrDecimal256)(o.TakerAmount),
			"expiration":    (*math.HexOrDecimal256)(o.Expiration),
			"nonce":         (*math.HexOrDecimal256)(o.Nonce),
			"feeRateBps":    (*math.HexOrDecimal256)(o.FeeRateBps),
			"side":          (*math.HexOrDecimal256)(big.NewInt(int64(o.Side))),
			"signatureType": (*math.HexOrDecimal256)(big.NewInt(int64(o.SignatureType))),
		},
	}
}
