// Command inspector checks venue credentials offline: it normalizes a Kalshi
// RSA key and can produce CLOB L1 headers from a local wallet key.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/GoPolymarket/polydesk/internal/keys"
	"github.com/GoPolymarket/polydesk/internal/signer"
	"github.com/spf13/pflag"
)

func main() {
	keyFile := pflag.String("key-file", "", "path to a Kalshi RSA private key (PKCS#1 or PKCS#8 PEM)")
	keyID := pflag.String("key-id", "", "Kalshi API key id; with --path, prints signed headers")
	method := pflag.String("method", "GET", "HTTP method to sign")
	path := pflag.String("path", "", "request path to sign, e.g. /trade-api/v2/portfolio/balance")
	walletKey := pflag.String("wallet-key", "", "hex EOA private key; prints address and ClobAuth L1 headers")
	chainID := pflag.Int64("chain-id", 137, "chain id for the ClobAuth domain")
	nonce := pflag.Uint64("nonce", 0, "ClobAuth nonce")
	pflag.Parse()

	if *keyFile == "" && *walletKey == "" {
		pflag.Usage()
		os.Exit(2)
	}
	if *keyFile != "" {
		if err := inspectKey(*keyFile, *keyID, *method, *path); err != nil {
			fmt.Fprintln(os.Stderr, "key:", err)
			os.Exit(1)
		}
	}
	if *walletKey != "" {
		if err := inspectWallet(*walletKey, *chainID, *nonce); err != nil {
			fmt.Fprintln(os.Stderr, "wallet:", err)
			os.Exit(1)
		}
	}
}

func inspectKey(file, keyID, method, path string) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	m, err := keys.Normalize(string(raw))
	if err != nil {
		return err
	}
	pk, err := m.RSA()
	if err != nil {
		return err
	}
	fmt.Printf("source format: %s\n", m.Source)
	fmt.Printf("modulus bits:  %d\n", pk.N.BitLen())
	fmt.Print(m.PEM())

	if keyID == "" || path == "" {
		return nil
	}
	s, err := signer.NewRSAPSS(keyID, string(raw))
	if err != nil {
		return err
	}
	h, err := s.Headers(time.Now(), method, path)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n%s: %s\n%s: %s\n",
		signer.HeaderKalshiKey, h.AccessKey,
		signer.HeaderKalshiTimestamp, h.Timestamp,
		signer.HeaderKalshiSignature, h.Signature)
	return nil
}

func inspectWallet(hexKey string, chainID int64, nonce uint64) error {
	w, err := signer.NewPrivateKeyWallet(hexKey)
	if err != nil {
		return err
	}
	h, err := signer.SignL1(context.Background(), w, chainID, time.Now().Unix(), nonce)
	if err != nil {
		return err
	}
	fmt.Printf("address: %s\n", w.Address().Hex())
	fmt.Printf("%s: %s\n%s: %s\n%s: %s\n%s: %s\n",
		signer.HeaderPolyAddress, h.Address,
		signer.HeaderPolyTimestamp, h.Timestamp,
		signer.HeaderPolyNonce, h.Nonce,
		signer.HeaderPolySignature, h.Signature)
	return nil
}
