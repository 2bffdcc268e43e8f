package cms

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/base64"
	"math/big"
	"testing"
	"time"
)

func issueTestCert(t *testing.T, cn string) (*rsa.PrivateKey, *x509.Certificate) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(42),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create cert: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse cert: %v", err)
	}
	return key, cert
}

func TestDecodeBase64Flexible(t *testing.T) {
	data := []byte("hello world")
	padded := base64.StdEncoding.EncodeToString(data)
	unpadded := base64.RawURLEncoding.EncodeToString(data)

	for _, s := range []string{padded, unpadded} {
		got, err := DecodeBase64Flexible(s)
		if err != nil {
			t.Fatalf("decode %q: %v", s, err)
		}
		if string(got) != string(data) {
			t.Fatalf("decode %q = %q, want %q", s, got, data)
		}
	}

	if _, err := DecodeBase64Flexible("not base64!!"); err == nil {
		t.Fatal("expected error for invalid input")
	}
}

func TestComputeAuthAttrEncodesSingleSet(t *testing.T) {
	digest := sha256.Sum256([]byte("document bytes"))
	digestB64 := base64.StdEncoding.EncodeToString(digest[:])

	signingTime, authAttrB64, err := ComputeAuthAttr(digestB64, "")
	if err != nil {
		t.Fatalf("ComputeAuthAttr: %v", err)
	}
	if len(signingTime) == 0 {
		t.Fatal("expected a generated signing time")
	}

	der, err := DecodeBase64Flexible(authAttrB64)
	if err != nil {
		t.Fatalf("decode auth_attr: %v", err)
	}

	var raw asn1.RawValue
	rest, err := asn1.Unmarshal(der, &raw)
	if err != nil {
		t.Fatalf("unmarshal auth_attr: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("unexpected trailing bytes: %d", len(rest))
	}
	if raw.Tag != asn1.TagSet {
		t.Fatalf("expected a SET OF, got tag %d", raw.Tag)
	}
}

func TestComputeAuthAttrRejectsEmptyDigest(t *testing.T) {
	if _, _, err := ComputeAuthAttr("", ""); err == nil {
		t.Fatal("expected error for empty digest")
	}
}

func TestSignAuthAttrAndAssembleRoundTrip(t *testing.T) {
	key, cert := issueTestCert(t, "round trip signer")

	digest := sha256.Sum256([]byte("document bytes"))
	digestB64 := base64.StdEncoding.EncodeToString(digest[:])

	signingTime, authAttrB64, err := ComputeAuthAttr(digestB64, "")
	if err != nil {
		t.Fatalf("ComputeAuthAttr: %v", err)
	}

	encDigestB64, err := SignAuthAttr(authAttrB64, key)
	if err != nil {
		t.Fatalf("SignAuthAttr: %v", err)
	}

	der, err := Assemble(cert, nil, digestB64, encDigestB64, signingTime)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(der) == 0 {
		t.Fatal("expected non-empty DER")
	}

	var ci contentInfoASN1
	rest, err := asn1.Unmarshal(der, &ci)
	if err != nil {
		t.Fatalf("unmarshal content info: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("unexpected trailing bytes: %d", len(rest))
	}
	if !ci.ContentType.Equal(oidSignedData) {
		t.Fatalf("content type = %v, want signedData", ci.ContentType)
	}
}

func TestSignAuthAttrWithSignerMatchesDirectRSA(t *testing.T) {
	key, cert := issueTestCert(t, "signer interface")

	digest := sha256.Sum256([]byte("document bytes"))
	digestB64 := base64.StdEncoding.EncodeToString(digest[:])
	_, authAttrB64, err := ComputeAuthAttr(digestB64, "")
	if err != nil {
		t.Fatalf("ComputeAuthAttr: %v", err)
	}

	viaDirect, err := SignAuthAttr(authAttrB64, key)
	if err != nil {
		t.Fatalf("SignAuthAttr: %v", err)
	}
	viaSigner, err := SignAuthAttrWithSigner(authAttrB64, key)
	if err != nil {
		t.Fatalf("SignAuthAttrWithSigner: %v", err)
	}

	// RSA PKCS1v1.5 signing is deterministic for a fixed key and message,
	// so both call paths must produce byte-identical signatures.
	if viaDirect != viaSigner {
		t.Fatalf("SignAuthAttrWithSigner diverged from SignAuthAttr")
	}
	_ = cert
}

func TestAssembleRejectsMissingCertificate(t *testing.T) {
	if _, err := Assemble(nil, nil, "", "", ""); err == nil {
		t.Fatal("expected error for nil entity certificate")
	}
}
