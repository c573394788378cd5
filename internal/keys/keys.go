// Package keys turns user-supplied RSA private keys into canonical PKCS#8 DER.
//
// Keys arrive either as legacy PKCS#1 ("RSA PRIVATE KEY") or PKCS#8
// ("PRIVATE KEY") PEM documents. Both end up as PKCS#8 so the signer has a
// single import path. Encrypted keys are refused outright.
package keys

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"regexp"
	"strings"

	"github.com/GoPolymarket/polydesk/internal/pkg/apperrors"
)

type Format int

const (
	FormatPKCS1 Format = iota + 1
	FormatPKCS8
)

func (f Format) String() string {
	switch f {
	case FormatPKCS1:
		return "pkcs1"
	case FormatPKCS8:
		return "pkcs8"
	default:
		return "unknown"
	}
}

const (
	labelPKCS1     = "RSA PRIVATE KEY"
	labelPKCS8     = "PRIVATE KEY"
	labelEncrypted = "ENCRYPTED PRIVATE KEY"
)

var armorRe = regexp.MustCompile(`(?s)-----BEGIN ([A-Z0-9 ]+)-----(.*?)-----END ([A-Z0-9 ]+)-----`)

// Material is a normalized private key. It is built per signing call and
// never cached.
type Material struct {
	der    []byte
	Source Format
}

// DER returns a copy of the PKCS#8 encoding.
func (m *Material) DER() []byte {
	out := make([]byte, len(m.der))
	copy(out, m.der)
	return out
}

// PEM re-armors the key as a PKCS#8 document.
func (m *Material) PEM() string {
	return string(pem.EncodeToMemory(&pem.Block{Type: labelPKCS8, Bytes: m.der}))
}

// RSA imports the material. A well-formed PKCS#8 key of another algorithm is a
// format problem; bytes that do not parse are a signing problem.
func (m *Material) RSA() (*rsa.PrivateKey, error) {
	parsed, err := x509.ParsePKCS8PrivateKey(m.der)
	if err != nil {
		return nil, apperrors.NewSigning("failed to import private key", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, apperrors.NewKeyFormat(fmt.Sprintf("expected an RSA key, got %T", parsed))
	}
	return key, nil
}

// Normalize validates a PEM document and returns its PKCS#8 form.
func Normalize(input string) (*Material, error) {
	doc := unwrap(input)
	if doc == "" {
		return nil, apperrors.NewKeyFormat("private key is empty")
	}
	if strings.Contains(doc, "Proc-Type:") || strings.Contains(doc, "DEK-Info:") {
		return nil, apperrors.NewKeyFormat("encrypted private keys are not supported")
	}

	m := armorRe.FindStringSubmatch(doc)
	if m == nil {
		return nil, apperrors.NewKeyFormat("missing PEM armor")
	}
	label, body, endLabel := m[1], m[2], m[3]
	if label != endLabel {
		return nil, apperrors.NewKeyFormat(fmt.Sprintf("mismatched PEM armor %q / %q", label, endLabel))
	}

	var format Format
	switch label {
	case labelPKCS1:
		format = FormatPKCS1
	case labelPKCS8:
		format = FormatPKCS8
	case labelEncrypted:
		return nil, apperrors.NewKeyFormat("encrypted private keys are not supported")
	default:
		return nil, apperrors.NewKeyFormat(fmt.Sprintf("unsupported PEM label %q", label))
	}

	raw, err := base64.StdEncoding.DecodeString(stripSpace(body))
	if err != nil {
		return nil, apperrors.NewDecode("private key body is not valid base64", err)
	}
	if len(raw) == 0 {
		return nil, apperrors.NewKeyFormat("private key body is empty")
	}

	if format == FormatPKCS1 {
		raw = WrapPKCS1(raw)
	}
	return &Material{der: raw, Source: format}, nil
}

// unwrap undoes the two ways keys get mangled in transit: literal "\n"
// escapes from env vars and a base64 layer around the whole document.
func unwrap(input string) string {
	s := strings.TrimSpace(input)
	s = strings.ReplaceAll(s, `\r\n`, "\n")
	s = strings.ReplaceAll(s, `\n`, "\n")
	if s == "" || strings.Contains(s, "-----BEGIN") {
		return s
	}
	decoded, err := base64.StdEncoding.DecodeString(stripSpace(s))
	if err == nil && strings.Contains(string(decoded), "-----BEGIN") {
		return strings.TrimSpace(string(decoded))
	}
	return s
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			return -1
		}
		return r
	}, s)
}
