package model

import (
	"strings"
	"time"

	"github.com/GoPolymarket/polymarket-go-sdk/pkg/auth"
)

// VenueACredentials are the RSA key pair registered with Kalshi.
type VenueACredentials struct {
	APIKeyID   string `json:"api_key_id"`
	PrivateKey string `json:"private_key"`
}

func (c *VenueACredentials) Complete() bool {
	return c != nil && c.APIKeyID != "" && c.PrivateKey != ""
}

// VenueBCredentials are the CLOB L2 API credentials plus the wallet they
// were issued to.
type VenueBCredentials struct {
	APIKey        string `json:"api_key"`
	Secret        string `json:"secret"`
	Passphrase    string `json:"passphrase"`
	OwnerAddress  string `json:"owner_address"`
	FunderAddress string `json:"funder_address,omitempty"`
	SignatureType *int   `json:"signature_type,omitempty"`
}

func (c *VenueBCredentials) HasKey() bool {
	return c != nil && strings.TrimSpace(c.APIKey) != ""
}

func (c *VenueBCredentials) HasSecret() bool {
	return c != nil && strings.TrimSpace(c.Secret) != ""
}

func (c *VenueBCredentials) HasPassphrase() bool {
	return c != nil && strings.TrimSpace(c.Passphrase) != ""
}

func (c *VenueBCredentials) APIKeyCreds() auth.APIKey {
	return auth.APIKey{Key: c.APIKey, Secret: c.Secret, Passphrase: c.Passphrase}
}

// Credentials is the record the credential store keeps per user. Writers
// replace the whole record; the last write wins.
type Credentials struct {
	UserID     string             `json:"user_id"`
	Kalshi     *VenueACredentials `json:"kalshi,omitempty"`
	Polymarket *VenueBCredentials `json:"polymarket,omitempty"`
	UpdatedAt  time.Time          `json:"updated_at"`
}
