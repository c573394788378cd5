package gate

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/GoPolymarket/polydesk/internal/model"
	"github.com/GoPolymarket/polydesk/internal/signer"
	"github.com/stretchr/testify/assert"
)

type stubStatus struct {
	closed bool
	err    error
	calls  int
}

func (s *stubStatus) ClosedOnly(context.Context, *signer.HMACSigner) (bool, error) {
	s.calls++
	return s.closed, s.err
}

func boolPtr(b bool) *bool { return &b }

func allTrue() Predicates {
	return Predicates{HasKey: true, HasSecret: true, HasPassphrase: true, OwnerMatch: true, ClosedOnly: boolPtr(false)}
}

func TestDecideAllTrue(t *testing.T) {
	r := Decide(allTrue())
	assert.True(t, r.TradingEnabled)
	assert.Equal(t, StageReady, r.Stage)
}

func TestDecideMonotonic(t *testing.T) {
	flips := map[string]func(*Predicates){
		"key":         func(p *Predicates) { p.HasKey = false },
		"secret":      func(p *Predicates) { p.HasSecret = false },
		"passphrase":  func(p *Predicates) { p.HasPassphrase = false },
		"owner":       func(p *Predicates) { p.OwnerMatch = false },
		"closed only": func(p *Predicates) { p.ClosedOnly = boolPtr(true) },
	}
	for name, flip := range flips {
		t.Run(name, func(t *testing.T) {
			p := allTrue()
			flip(&p)
			assert.False(t, Decide(p).TradingEnabled)
		})
	}
}

func TestDecideStages(t *testing.T) {
	assert.Equal(t, StageNoCredentials, Decide(Predicates{OwnerMatch: true}).Stage)
	assert.Equal(t, StageIncompleteCredentials, Decide(Predicates{HasKey: true, OwnerMatch: true}).Stage)

	p := allTrue()
	p.ClosedOnly = boolPtr(true)
	assert.Equal(t, StageClosedOnly, Decide(p).Stage)

	p.ClosedOnly = nil
	r := Decide(p)
	assert.Equal(t, StageStatusCheckFailed, r.Stage)
	assert.False(t, r.TradingEnabled)
}

var testSecret = base64.StdEncoding.EncodeToString([]byte("secret-bytes"))

func completeCreds() *model.VenueBCredentials {
	return &model.VenueBCredentials{
		APIKey:       "key",
		Secret:       testSecret,
		Passphrase:   "pass",
		OwnerAddress: "0xAbCdEf0000000000000000000000000000000001",
	}
}

func TestEvaluateReady(t *testing.T) {
	st := &stubStatus{}
	r := NewEvaluator(st).Evaluate(context.Background(), completeCreds(), "0xabcdef0000000000000000000000000000000001")
	assert.True(t, r.TradingEnabled)
	assert.Equal(t, 1, st.calls)
}

func TestEvaluateClosedOnly(t *testing.T) {
	r := NewEvaluator(&stubStatus{closed: true}).Evaluate(context.Background(), completeCreds(), "0xABCDEF0000000000000000000000000000000001")
	assert.False(t, r.TradingEnabled)
	assert.Equal(t, StageClosedOnly, r.Stage)
	if assert.NotNil(t, r.ClosedOnly) {
		assert.True(t, *r.ClosedOnly)
	}
}

func TestEvaluateStatusFailureIsNotUnrestricted(t *testing.T) {
	r := NewEvaluator(&stubStatus{err: errors.New("connection reset")}).Evaluate(context.Background(), completeCreds(), "0xabcdef0000000000000000000000000000000001")
	assert.False(t, r.TradingEnabled)
	assert.Equal(t, StageStatusCheckFailed, r.Stage)
	assert.Nil(t, r.ClosedOnly)
	assert.Contains(t, r.Reason, "connection reset")
}

func TestEvaluateShortCircuits(t *testing.T) {
	st := &stubStatus{}
	ev := NewEvaluator(st)

	r := ev.Evaluate(context.Background(), nil, "0xabc")
	assert.Equal(t, StageNoCredentials, r.Stage)

	creds := completeCreds()
	creds.Passphrase = "  "
	r = ev.Evaluate(context.Background(), creds, creds.OwnerAddress)
	assert.Equal(t, StageIncompleteCredentials, r.Stage)

	r = ev.Evaluate(context.Background(), completeCreds(), "0x0000000000000000000000000000000000000002")
	assert.Equal(t, StageOwnerMismatch, r.Stage)

	r = ev.Evaluate(context.Background(), completeCreds(), "")
	assert.Equal(t, StageOwnerMismatch, r.Stage)

	assert.Zero(t, st.calls)
}
