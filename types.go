// Package pdfsign inserts PAdES-style CMS/PKCS#7 signatures into existing
// PDF documents: reserving a signature placeholder with a correctly
// computed /ByteRange, digesting the two byte ranges that flank it, and
// writing the resulting CMS SignedData back into the reserved hex region.
package pdfsign

import "time"

// Role describes why a certificate is present in a signing operation.
type Role int

const (
	// RoleEntity is the signer's own certificate. Its issuer/serial pair
	// identifies the SignerInfo.
	RoleEntity Role = iota
	// RoleIntermediate is a CA certificate between the entity and the issuer.
	RoleIntermediate
	// RoleIssuer is the top of the supplied chain.
	RoleIssuer
)

// Certificate is an X.509 certificate supplied either as an in-memory PEM
// blob or as a filesystem path. Role is advisory: the CMS builder always
// treats whichever certificate is passed as the entity cert as the
// SignerInfo issuer/serial source, and bundles the rest into the
// SignedData certificates field in input order.
type Certificate struct {
	PEM  []byte
	Path string
	Role Role
}

// PrivateKey is a filesystem path to a PEM-encoded RSA private key, with an
// optional decryption password. The password is only ever held in process
// memory for the duration of the PEM load.
type PrivateKey struct {
	Path     string
	Password string
}

// SignatureInfo carries the visible and verifiable attributes of one
// signature.
type SignatureInfo struct {
	OID          string
	Author       string
	Reason       string
	CertifiedBy  string
	DateTime     string
	UTCDateTime  string
	SizeInBytes  uint32
}

// SigningAttributes is the intermediate state exchanged between the CMS
// builder and an external signer across the split-sign flow.
type SigningAttributes struct {
	// Digest is the base64 (RFC 4648, padded) SHA-256 over the document's
	// two ByteRange chunks.
	Digest string
	// SigningTime is an ASN.1 UTCTime string, YYMMDDHHMMSSZ.
	SigningTime string
	// AuthAttr is the base64 DER of the SET OF Attribute to be signed.
	AuthAttr string
	// EncDigest is the base64 RSA-PKCS1v1.5/SHA-256 signature over the DER
	// of AuthAttr.
	EncDigest string
}

// ByteRange identifies the two disjoint byte intervals of a file that a
// CMS signature covers: [BeforeStart, BeforeStart+BeforeSize) and
// [AfterStart, AfterStart+AfterSize). The gap between them holds the
// /Contents hex placeholder, including its angle brackets.
type ByteRange struct {
	BeforeStart int64
	BeforeSize  int64
	AfterStart  int64
	AfterSize   int64
}

// Array returns the ByteRange as the four-element form the /ByteRange PDF
// key expects.
func (b ByteRange) Array() [4]int64 {
	return [4]int64{b.BeforeStart, b.BeforeSize, b.AfterStart, b.AfterSize}
}

// SignatureAnnotation is a placeholder request: the logical field name
// (the /T value), target page, rectangle in points, visibility, the
// signature's display attributes, and — once the placeholder has been
// written — the computed ByteRange.
type SignatureAnnotation struct {
	Name      string
	Page      int
	Rect      Rect
	Visible   bool
	Info      SignatureInfo
	ByteRange ByteRange
}

// Rect is a rectangle in PDF points, top-origin as supplied by callers;
// the placeholder writer converts it to the PDF's bottom-origin space.
type Rect struct {
	X, Y, W, H float64
}

// currentUTCTime formats now as an ASN.1 UTCTime string.
func currentUTCTime() string {
	return time.Now().UTC().Format("060102150405") + "Z"
}
