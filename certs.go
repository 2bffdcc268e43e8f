package pdfsign

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// LoadCertificate parses c into an *x509.Certificate, reading from disk
// first if PEM is empty.
func LoadCertificate(c Certificate) (*x509.Certificate, error) {
	data := c.PEM
	if len(data) == 0 {
		if c.Path == "" {
			return nil, invalidArgument("Certificate", "neither PEM nor Path supplied")
		}
		b, err := os.ReadFile(c.Path)
		if err != nil {
			return nil, ioFailure(c.Path, err)
		}
		data = b
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, cryptoFailure("Certificate", fmt.Errorf("no PEM block found"))
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, cryptoFailure("Certificate", err)
	}
	return cert, nil
}

// LoadPrivateKey reads and parses a PEM-encoded RSA private key from disk.
// pk.Password is only ever held in memory for the duration of this call.
func LoadPrivateKey(pk PrivateKey) (*rsa.PrivateKey, error) {
	if pk.Path == "" {
		return nil, invalidArgument("PrivateKey", "Path is required")
	}
	data, err := os.ReadFile(pk.Path)
	if err != nil {
		return nil, ioFailure(pk.Path, err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, cryptoFailure("PrivateKey", fmt.Errorf("no PEM block found"))
	}

	keyBytes := block.Bytes
	if pk.Password != "" {
		//nolint:staticcheck // legacy PEM encryption, kept for compatibility with existing key files
		decrypted, err := x509.DecryptPEMBlock(block, []byte(pk.Password))
		if err != nil {
			return nil, cryptoFailure("PrivateKey", err)
		}
		keyBytes = decrypted
	}

	key, err := x509.ParsePKCS1PrivateKey(keyBytes)
	if err != nil {
		return nil, cryptoFailure("PrivateKey", err)
	}
	return key, nil
}
