package pdfsign

import (
	"crypto"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"os"
	"time"

	"github.com/casper2020/casper-pdf-signer/internal/cms"
	"github.com/casper2020/casper-pdf-signer/internal/editor"
	"github.com/casper2020/casper-pdf-signer/painter"
)

// Signer drives the placeholder/digest/CMS/inject phases in order. It
// holds no state between sessions; every method takes the file path and
// prior-phase output it needs directly.
type Signer struct{}

// NewSigner returns a ready-to-use orchestrator.
func NewSigner() *Signer {
	return &Signer{}
}

// SetPlaceholder implements 4.2: it opens inPath, reserves the signature
// field and widget, and writes the result to outPath with ann.ByteRange
// stamped to the real offsets.
func (s *Signer) SetPlaceholder(inPath, outPath string, ann *SignatureAnnotation) error {
	if ann.Info.SizeInBytes == 0 {
		return invalidArgument("SizeInBytes", "size_in_bytes must be non-zero")
	}

	in, err := os.Open(inPath)
	if err != nil {
		return ioFailure(inPath, err)
	}
	defer in.Close()
	st, err := in.Stat()
	if err != nil {
		return ioFailure(inPath, err)
	}

	ed, err := editor.Open(in, st.Size(), inPath)
	if err != nil {
		return pdfMalformed(inPath, "", err.Error())
	}

	var appearance []byte
	if ann.Visible {
		appearance, err = painter.DrawSignatureAppearance(ann.Rect.W, ann.Rect.H, painter.SignatureInfo{
			Author:      ann.Info.Author,
			Reason:      ann.Info.Reason,
			CertifiedBy: ann.Info.CertifiedBy,
			DateTime:    ann.Info.DateTime,
		})
		if err != nil {
			return invalidArgument("Rect", err.Error())
		}
	}

	spec := editor.WidgetSpec{
		Name:       ann.Name,
		Page:       ann.Page,
		X:          ann.Rect.X,
		Y:          ann.Rect.Y,
		W:          ann.Rect.W,
		H:          ann.Rect.H,
		Visible:    ann.Visible,
		Reason:     ann.Info.Reason,
		Date:       time.Now(),
		SizeBytes:  int(ann.Info.SizeInBytes),
		Appearance: appearance,
	}

	if err := ed.CreatePlaceholder(spec); err != nil {
		return placeholderError(inPath, ann.Name, err)
	}
	if err := ed.Finish(); err != nil {
		return pdfMalformed(inPath, "", err.Error())
	}

	before, beforeSize, after, afterSize, err := ed.ByteRangeArray()
	if err != nil {
		return pdfMalformed(inPath, "ByteRange", err.Error())
	}
	ann.ByteRange = ByteRange{BeforeStart: before, BeforeSize: beforeSize, AfterStart: after, AfterSize: afterSize}

	out, err := os.Create(outPath)
	if err != nil {
		return ioFailure(outPath, err)
	}
	defer out.Close()

	if _, err := ed.WriteTo(out); err != nil {
		return ioFailure(outPath, err)
	}
	return nil
}

// placeholderError maps CreatePlaceholder's failure modes onto the closed
// Kind enumeration: a name collision or a repeat call is AlreadyExists,
// anything else is a malformed source document (missing page, AcroForm,
// or /Pages).
func placeholderError(path, name string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, editor.ErrFieldExists) || errors.Is(err, editor.ErrAlreadyPlaced) {
		return alreadyExists(path, name)
	}
	return pdfMalformed(path, name, err.Error())
}

// GetByteRange implements 4.1.
func (s *Signer) GetByteRange(path string, page int, annotationName string) (ByteRange, error) {
	return GetByteRange(path, page, annotationName)
}

// CalculateSigningAttributes implements 4.4.1: it digests path's
// ByteRange and builds the auth_attr DER, filling in attrs in place.
func (s *Signer) CalculateSigningAttributes(path string, br ByteRange, attrs *SigningAttributes) error {
	digest, err := ComputeDigest(path, br)
	if err != nil {
		return err
	}
	attrs.Digest = digest

	signingTime, authAttrB64, err := cms.ComputeAuthAttr(digest, attrs.SigningTime)
	if err != nil {
		return cryptoFailure("AuthAttr", err)
	}
	attrs.SigningTime = signingTime
	attrs.AuthAttr = authAttrB64
	return nil
}

// SignSigningAttributes implements 4.4.2, for the split external-signer
// flow's local-key leg (or for simulating an HSM in tests).
func (s *Signer) SignSigningAttributes(key *rsa.PrivateKey, attrs *SigningAttributes) error {
	encDigest, err := cms.SignAuthAttr(attrs.AuthAttr, key)
	if err != nil {
		return cryptoFailure("EncDigest", err)
	}
	attrs.EncDigest = encDigest
	return nil
}

// SignWithSigner mirrors SignSigningAttributes for an external crypto.Signer
// (an HSM-backed session, for example, via signers/pkcs11) instead of a
// local RSA key, producing the same SigningAttributes.EncDigest an
// external-signer round trip over HTTP would.
func (s *Signer) SignWithSigner(signer crypto.Signer, attrs *SigningAttributes) error {
	encDigest, err := cms.SignAuthAttrWithSigner(attrs.AuthAttr, signer)
	if err != nil {
		return cryptoFailure("EncDigest", err)
	}
	attrs.EncDigest = encDigest
	return nil
}

// SignLocal runs 4.4.1-4.4.3 and 4.5 end to end with a local RSA key.
func (s *Signer) SignLocal(path string, br ByteRange, certs []*x509.Certificate, key *rsa.PrivateKey, attrs *SigningAttributes) error {
	if len(certs) == 0 {
		return invalidArgument("certs", "at least the entity certificate is required")
	}
	if err := s.CalculateSigningAttributes(path, br, attrs); err != nil {
		return err
	}
	if err := s.SignSigningAttributes(key, attrs); err != nil {
		return err
	}
	return s.assembleAndInject(path, br, certs, attrs)
}

// SignExternal finishes the split flow: attrs must already carry
// EncDigest from an external signer's sign_auth_attr round-trip.
func (s *Signer) SignExternal(path string, br ByteRange, attrs *SigningAttributes, certs []*x509.Certificate) error {
	if attrs.EncDigest == "" {
		return invalidArgument("EncDigest", "external signature has not been supplied yet")
	}
	if len(certs) == 0 {
		return invalidArgument("certs", "at least the entity certificate is required")
	}
	return s.assembleAndInject(path, br, certs, attrs)
}

func (s *Signer) assembleAndInject(path string, br ByteRange, certs []*x509.Certificate, attrs *SigningAttributes) error {
	entity := certs[0]
	chain := certs[1:]

	der, err := cms.Assemble(entity, chain, attrs.Digest, attrs.EncDigest, attrs.SigningTime)
	if err != nil {
		return cryptoFailure("Assemble", err)
	}
	return InjectContents(path, br, der)
}

// ZeroOutContents implements the corresponding orchestrator operation.
func (s *Signer) ZeroOutContents(path string, br ByteRange) error {
	return ZeroOutContents(path, br)
}

// ExportPKCS7 implements the corresponding orchestrator operation.
func (s *Signer) ExportPKCS7(pdfPath string, br ByteRange, outPath string) error {
	return ExportPKCS7(pdfPath, br, outPath)
}

// GetSigningTime returns the current time as an ASN.1 UTCTime string.
func (s *Signer) GetSigningTime() string {
	return currentUTCTime()
}
