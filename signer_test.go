package pdfsign

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/casper2020/casper-pdf-signer/internal/testpki"
)

func TestSignerInvisibleLocalRoundTrip(t *testing.T) {
	srcPath := writeTempFile(t, buildMinimalPDF())
	outPath := filepath.Join(filepath.Dir(srcPath), "signed.pdf")

	chain := testpki.NewRSAChain(t, "invisible round trip")

	s := NewSigner()
	ann := &SignatureAnnotation{
		Name:    "Signature1",
		Page:    1,
		Rect:    Rect{X: 10, Y: 10, W: 100, H: 40},
		Visible: false,
		Info:    SignatureInfo{Reason: "Approval", SizeInBytes: 8192},
	}
	if err := s.SetPlaceholder(srcPath, outPath, ann); err != nil {
		t.Fatalf("SetPlaceholder: %v", err)
	}
	if ann.ByteRange.AfterSize <= 0 {
		t.Fatalf("ByteRange was not stamped onto the annotation: %+v", ann.ByteRange)
	}

	attrs := &SigningAttributes{}
	if err := s.SignLocal(outPath, ann.ByteRange, chain.Certificates(), chain.EntityKey, attrs); err != nil {
		t.Fatalf("SignLocal: %v", err)
	}
	if attrs.Digest == "" || attrs.EncDigest == "" {
		t.Fatal("expected SignLocal to populate Digest and EncDigest")
	}

	gotBR, err := s.GetByteRange(outPath, 0, "Signature1")
	if err != nil {
		t.Fatalf("GetByteRange: %v", err)
	}
	if gotBR != ann.ByteRange {
		t.Fatalf("GetByteRange = %+v, want %+v", gotBR, ann.ByteRange)
	}

	pemPath := filepath.Join(filepath.Dir(srcPath), "signature.p7")
	if err := s.ExportPKCS7(outPath, gotBR, pemPath); err != nil {
		t.Fatalf("ExportPKCS7: %v", err)
	}
	pemBytes, err := os.ReadFile(pemPath)
	if err != nil {
		t.Fatalf("read exported PKCS7: %v", err)
	}
	if !bytes.Contains(pemBytes, []byte("-----BEGIN PKCS7-----")) {
		t.Fatal("expected a PEM-encoded PKCS7 block")
	}

	if err := s.ZeroOutContents(outPath, gotBR); err != nil {
		t.Fatalf("ZeroOutContents: %v", err)
	}
}

func TestSignerVisibleSplitFlow(t *testing.T) {
	srcPath := writeTempFile(t, buildMinimalPDF())
	outPath := filepath.Join(filepath.Dir(srcPath), "signed.pdf")

	chain := testpki.NewRSAChain(t, "split flow signer")

	s := NewSigner()
	ann := &SignatureAnnotation{
		Name:    "Signature1",
		Page:    1,
		Rect:    Rect{X: 10, Y: 10, W: 150, H: 60},
		Visible: true,
		Info:    SignatureInfo{Author: "Jane Doe", Reason: "Approval", SizeInBytes: 8192},
	}
	if err := s.SetPlaceholder(srcPath, outPath, ann); err != nil {
		t.Fatalf("SetPlaceholder: %v", err)
	}

	attrs := &SigningAttributes{}
	if err := s.CalculateSigningAttributes(outPath, ann.ByteRange, attrs); err != nil {
		t.Fatalf("CalculateSigningAttributes: %v", err)
	}
	// Simulate an external signer receiving AuthAttr and returning EncDigest,
	// as the split flow's HTTP round trip would.
	if err := s.SignSigningAttributes(chain.EntityKey, attrs); err != nil {
		t.Fatalf("SignSigningAttributes: %v", err)
	}
	if err := s.SignExternal(outPath, ann.ByteRange, attrs, chain.Certificates()); err != nil {
		t.Fatalf("SignExternal: %v", err)
	}
}

func TestSignerRejectsDuplicatePlaceholder(t *testing.T) {
	srcPath := writeTempFile(t, buildMinimalPDF())
	outPath := filepath.Join(filepath.Dir(srcPath), "signed.pdf")
	out2Path := filepath.Join(filepath.Dir(srcPath), "signed2.pdf")

	s := NewSigner()
	ann := &SignatureAnnotation{
		Name: "Signature1", Page: 1, Rect: Rect{W: 100, H: 40},
		Info: SignatureInfo{SizeInBytes: 4096},
	}
	if err := s.SetPlaceholder(srcPath, outPath, ann); err != nil {
		t.Fatalf("first SetPlaceholder: %v", err)
	}

	ann2 := &SignatureAnnotation{
		Name: "Signature1", Page: 1, Rect: Rect{W: 100, H: 40},
		Info: SignatureInfo{SizeInBytes: 4096},
	}
	err := s.SetPlaceholder(outPath, out2Path, ann2)
	if err == nil {
		t.Fatal("expected an error placing a second field with the same name")
	}
	sigErr, ok := err.(*Error)
	if !ok || sigErr.Kind != AlreadyExists {
		t.Fatalf("err = %v, want Kind=AlreadyExists", err)
	}
}

func TestSignerSetPlaceholderRequiresSize(t *testing.T) {
	srcPath := writeTempFile(t, buildMinimalPDF())
	outPath := filepath.Join(filepath.Dir(srcPath), "signed.pdf")

	s := NewSigner()
	ann := &SignatureAnnotation{Name: "Signature1", Page: 1, Rect: Rect{W: 100, H: 40}}
	err := s.SetPlaceholder(srcPath, outPath, ann)
	if err == nil {
		t.Fatal("expected an error when SizeInBytes is zero")
	}
	sigErr, ok := err.(*Error)
	if !ok || sigErr.Kind != InvalidArgument {
		t.Fatalf("err = %v, want Kind=InvalidArgument", err)
	}
}
