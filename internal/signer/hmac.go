package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/GoPolymarket/polymarket-go-sdk/pkg/auth"
	"github.com/GoPolymarket/polydesk/internal/pkg/apperrors"
	"github.com/GoPolymarket/polydesk/internal/pkg/metrics"
)

// HMACSigner produces CLOB L2 signatures for one API key.
type HMACSigner struct {
	address string
	creds   auth.APIKey
	secret  []byte
}

func NewHMAC(address string, creds auth.APIKey) (*HMACSigner, error) {
	secret, err := DecodeSecret(creds.Secret)
	if err != nil {
		return nil, err
	}
	return &HMACSigner{address: address, creds: creds, secret: secret}, nil
}

// DecodeSecret accepts the secret in either base64 alphabet, with or without
// padding and with stray whitespace.
func DecodeSecret(secret string) ([]byte, error) {
	s := strings.NewReplacer("-", "+", "_", "/").Replace(secret)
	s = strings.Join(strings.Fields(s), "")
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, apperrors.NewDecode("api secret is not valid base64", err)
	}
	return raw, nil
}

// Sign returns urlsafe-base64(HMAC-SHA256(secret, timestamp+method+path+body)).
// The method is used as given; callers pass it upper-case.
func (s *HMACSigner) Sign(timestamp, method, path, body string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(timestamp + method + path + body))
	metrics.SignaturesTotal.WithLabelValues("polymarket", "ok").Inc()
	return base64.URLEncoding.EncodeToString(mac.Sum(nil))
}

// Headers signs with a fresh second-resolution timestamp.
func (s *HMACSigner) Headers(now time.Time, method, path, body string) VenueBHeaders {
	ts := strconv.FormatInt(now.Unix(), 10)
	return VenueBHeaders{
		Address:    s.address,
		APIKey:     s.creds.Key,
		Passphrase: s.creds.Passphrase,
		Signature:  s.Sign(ts, strings.ToUpper(method), path, body),
		Timestamp:  ts,
	}
}

// SignVenueB is the one-shot form used by the signing endpoint.
func SignVenueB(address string, creds auth.APIKey, timestampSec, method, path, body string) (VenueBHeaders, error) {
	s, err := NewHMAC(address, creds)
	if err != nil {
		metrics.SignaturesTotal.WithLabelValues("polymarket", "error").Inc()
		return VenueBHeaders{}, err
	}
	return VenueBHeaders{
		Address:    address,
		APIKey:     creds.Key,
		Passphrase: creds.Passphrase,
		Signature:  s.Sign(timestampSec, strings.ToUpper(method), path, body),
		Timestamp:  timestampSec,
	}, nil
}
