// Package testpki builds small RSA certificate chains for this module's
// own tests. It is a cut-down descendant of a much larger PKI test harness:
// OCSP, CRL, and ECDSA support belong to signature verification, which this
// module does not implement, so only chain issuance survives here.
package testpki

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"
)

// Chain is a freshly generated entity certificate plus its private key and
// the issuing CA certificate that signed it.
type Chain struct {
	EntityCert *x509.Certificate
	EntityKey  *rsa.PrivateKey
	CACert     *x509.Certificate
}

// Certificates returns the chain in the order Signer.SignLocal expects:
// entity certificate first, then the rest of the chain.
func (c Chain) Certificates() []*x509.Certificate {
	return []*x509.Certificate{c.EntityCert, c.CACert}
}

// NewRSAChain issues a self-signed CA and a 2048-bit RSA leaf certificate
// signed by it, named commonName.
func NewRSAChain(t *testing.T, commonName string) Chain {
	caKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate CA key: %v", err)
	}
	caTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Test CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	caBytes, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, &caKey.PublicKey, caKey)
	if err != nil {
		t.Fatalf("create CA cert: %v", err)
	}
	caCert, err := x509.ParseCertificate(caBytes)
	if err != nil {
		t.Fatalf("parse CA cert: %v", err)
	}

	entityKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate entity key: %v", err)
	}
	entityTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	entityBytes, err := x509.CreateCertificate(rand.Reader, entityTemplate, caCert, &entityKey.PublicKey, caKey)
	if err != nil {
		t.Fatalf("create entity cert: %v", err)
	}
	entityCert, err := x509.ParseCertificate(entityBytes)
	if err != nil {
		t.Fatalf("parse entity cert: %v", err)
	}

	return Chain{EntityCert: entityCert, EntityKey: entityKey, CACert: caCert}
}

// WritePEM renders cert as a PEM CERTIFICATE block, in the layout
// LoadCertificate expects on disk.
func WritePEM(cert *x509.Certificate) []byte {
	var buf bytes.Buffer
	_ = pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	return buf.Bytes()
}

// WriteKeyPEM renders key as a PKCS1 PEM block, in the layout
// LoadPrivateKey expects on disk.
func WriteKeyPEM(key *rsa.PrivateKey) []byte {
	var buf bytes.Buffer
	_ = pem.Encode(&buf, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return buf.Bytes()
}
