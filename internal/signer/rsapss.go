package signer

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/GoPolymarket/polydesk/internal/keys"
	"github.com/GoPolymarket/polydesk/internal/pkg/apperrors"
	"github.com/GoPolymarket/polydesk/internal/pkg/metrics"
)

const pssSaltLength = 32

// RSAPSSSigner signs Kalshi requests. It holds an imported key and no other state.
type RSAPSSSigner struct {
	keyID string
	key   *rsa.PrivateKey
}

// NewRSAPSS normalizes the PEM key and imports it.
func NewRSAPSS(keyID, privateKeyPEM string) (*RSAPSSSigner, error) {
	material, err := keys.Normalize(privateKeyPEM)
	if err != nil {
		return nil, err
	}
	key, err := material.RSA()
	if err != nil {
		return nil, err
	}
	return &RSAPSSSigner{keyID: keyID, key: key}, nil
}

// Sign returns base64(RSA-PSS-SHA256(timestamp + method + path)). Any query
// string on path is not part of the signed message.
func (s *RSAPSSSigner) Sign(timestamp, method, path string) (string, error) {
	msg := timestamp + strings.ToUpper(method) + stripQuery(path)
	digest := sha256.Sum256([]byte(msg))
	sig, err := rsa.SignPSS(rand.Reader, s.key, crypto.SHA256, digest[:], &rsa.PSSOptions{
		SaltLength: pssSaltLength,
		Hash:       crypto.SHA256,
	})
	if err != nil {
		metrics.SignaturesTotal.WithLabelValues("kalshi", "error").Inc()
		return "", apperrors.NewSigning("rsa-pss signing failed", err)
	}
	metrics.SignaturesTotal.WithLabelValues("kalshi", "ok").Inc()
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Headers signs with a fresh millisecond timestamp.
func (s *RSAPSSSigner) Headers(now time.Time, method, path string) (VenueAHeaders, error) {
	ts := strconv.FormatInt(now.UnixMilli(), 10)
	sig, err := s.Sign(ts, method, path)
	if err != nil {
		return VenueAHeaders{}, err
	}
	return VenueAHeaders{AccessKey: s.keyID, Signature: sig, Timestamp: ts}, nil
}

func (s *RSAPSSSigner) KeyID() string { return s.keyID }

func (s *RSAPSSSigner) PublicKey() *rsa.PublicKey { return &s.key.PublicKey }

// SignVenueA is the one-shot form: normalize, import and sign. The signed
// message is timestamp + upper-cased method + path with any query string
// removed, matching what the venue verifies; pass the same path without its
// query when checking a signature independently.
func SignVenueA(keyID, privateKeyPEM, timestampMs, method, path string) (VenueAHeaders, error) {
	s, err := NewRSAPSS(keyID, privateKeyPEM)
	if err != nil {
		return VenueAHeaders{}, err
	}
	sig, err := s.Sign(timestampMs, method, path)
	if err != nil {
		return VenueAHeaders{}, err
	}
	return VenueAHeaders{AccessKey: keyID, Signature: sig, Timestamp: timestampMs}, nil
}

func stripQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}
