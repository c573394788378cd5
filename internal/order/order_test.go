package order

import (
	"context"
	"testing"
	"time"

	"github.com/GoPolymarket/polymarket-go-sdk/pkg/auth"
	"github.com/GoPolymarket/polydesk/internal/pkg/apperrors"
	"github.com/GoPolymarket/polydesk/internal/signer"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSigner = "0x1111111111111111111111111111111111111111"
	testFunder = "0x2222222222222222222222222222222222222222"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestBuilder() *Builder {
	b := NewBuilder(137)
	b.Now = func() time.Time { return fixedNow }
	return b
}

func params(side, price, size string) Params {
	return Params{
		TokenID: "71321045679252212594626385532706912750332728571942532289631379312455583992563",
		Price:   decimal.RequireFromString(price),
		Size:    decimal.RequireFromString(size),
		Side:    side,
		Signer:  testSigner,
	}
}

func TestBuildBuyAmounts(t *testing.T) {
	o, err := newTestBuilder().Build(params("BUY", "0.65", "10"))
	require.NoError(t, err)

	assert.Equal(t, "6500000", o.MakerAmount.String())
	assert.Equal(t, "10000000", o.TakerAmount.String())
	assert.Equal(t, SideBuy, o.Side)
}

func TestBuildSellAmounts(t *testing.T) {
	o, err := newTestBuilder().Build(params("sell", "0.40", "5"))
	require.NoError(t, err)

	assert.Equal(t, "5000000", o.MakerAmount.String())
	assert.Equal(t, "2000000", o.TakerAmount.String())
	assert.Equal(t, SideSell, o.Side)
}

func TestBuildFloorsFractions(t *testing.T) {
	o, err := newTestBuilder().Build(params("BUY", "0.1234567", "3.9"))
	require.NoError(t, err)

	assert.Equal(t, "370368", o.MakerAmount.String()) // 123456 * 3
	assert.Equal(t, "3000000", o.TakerAmount.String())
}

func TestBuildFixedFields(t *testing.T) {
	p := params("BUY", "0.5", "2")
	p.Funder = testFunder
	o, err := newTestBuilder().Build(p)
	require.NoError(t, err)

	assert.Equal(t, common.HexToAddress(testFunder), o.Maker)
	assert.Equal(t, common.HexToAddress(testSigner), o.Signer)
	assert.Equal(t, common.Address{}, o.Taker)
	assert.Equal(t, fixedNow.Unix()+86400, o.Expiration.Int64())
	assert.Equal(t, fixedNow.UnixMilli(), o.Nonce.Int64())
	assert.Equal(t, int64(0), o.FeeRateBps.Int64())
	assert.Equal(t, auth.SignatureGnosisSafe, o.SignatureType)
	assert.True(t, o.Salt.Sign() >= 0)
}

func TestBuildMakerDefaultsToSigner(t *testing.T) {
	o, err := newTestBuilder().Build(params("BUY", "0.5", "2"))
	require.NoError(t, err)
	assert.Equal(t, o.Signer, o.Maker)
}

func TestBuildRejectsInvalidParams(t *testing.T) {
	eoa := 0
	bad := 9
	tests := []struct {
		name string
		mod  func(p *Params)
	}{
		{"price zero", func(p *Params) { p.Price = decimal.Zero }},
		{"price one", func(p *Params) { p.Price = decimal.NewFromInt(1) }},
		{"price below one micro-unit", func(p *Params) { p.Price = decimal.RequireFromString("0.0000001") }},
		{"negative price", func(p *Params) { p.Price = decimal.RequireFromString("-0.2") }},
		{"zero size", func(p *Params) { p.Size = decimal.Zero }},
		{"negative size", func(p *Params) { p.Size = decimal.NewFromInt(-3) }},
		{"fractional share", func(p *Params) { p.Size = decimal.RequireFromString("0.5") }},
		{"bad side", func(p *Params) { p.Side = "HOLD" }},
		{"bad token", func(p *Params) { p.TokenID = "0xabc" }},
		{"bad signer", func(p *Params) { p.Signer = "nope" }},
		{"bad funder", func(p *Params) { p.Funder = "nope" }},
		{"bad signature type", func(p *Params) { p.SignatureType = &bad }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := params("BUY", "0.5", "2")
			p.SignatureType = &eoa
			tt.mod(&p)
			_, err := newTestBuilder().Build(p)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrInvalidOrderParams), "got %v", err)
		})
	}
}

func TestWithSignatureWireForm(t *testing.T) {
	o, err := newTestBuilder().Build(params("SELL", "0.40", "5"))
	require.NoError(t, err)

	s := o.WithSignature("0xdeadbeef")
	assert.Equal(t, "SELL", s.Side)
	assert.Equal(t, 2, s.SignatureType)
	assert.Equal(t, "5000000", s.MakerAmount)
	assert.Equal(t, "0", s.FeeRateBps)
	assert.Equal(t, "0xdeadbeef", s.Signature)

	back, err := s.Unsigned(false)
	require.NoError(t, err)
	assert.Equal(t, o.Salt, back.Salt)
	assert.Equal(t, o.TokenID, back.TokenID)
	assert.Equal(t, o.Maker, back.Maker)
	assert.Equal(t, o.Side, back.Side)
}

func TestTypedDataSignsAndVerifies(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	wallet := signer.NewWalletFromKey(key)

	p := params("BUY", "0.65", "10")
	p.Signer = wallet.Address().Hex()
	o, err := newTestBuilder().Build(p)
	require.NoError(t, err)

	td := o.TypedData(137)
	assert.Equal(t, signer.ExchangeContractAddress, td.Domain.VerifyingContract)

	sig, err := wallet.SignTypedData(context.Background(), td)
	require.NoError(t, err)
	assert.NoError(t, signer.VerifyTypedData(td, sig, wallet.Address()))

	o.NegRisk = true
	assert.Error(t, signer.VerifyTypedData(o.TypedData(137), sig, wallet.Address()))
}
