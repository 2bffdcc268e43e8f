// Package cms assembles and partially signs detached CMS/PKCS#7
// SignedData structures for PAdES-style PDF signatures.
//
// Unlike a one-shot CMS signing API, this package exposes the three
// operations the split external-signer flow needs as separate steps:
// build the authenticated attributes DER that the signer actually signs,
// accept a pre-computed RSA signature over that DER from anywhere (a
// local key or an HSM), and assemble the final SignedData around it.
package cms

import (
	"encoding/asn1"
	"math/big"
)

var (
	oidData           = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 1}
	oidSignedData     = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 2}
	oidContentType    = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 3}
	oidSigningTime    = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 5}
	oidMessageDigest  = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 4}
	oidSHA256         = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}
	oidRSAEncryption  = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
)

// derNull is the DER encoding of an explicit NULL, used as the algorithm
// parameters for both id-sha256 and rsaEncryption.
var derNull = []byte{0x05, 0x00}

// attribute is a CMS Attribute: SEQUENCE { type OID, values SET OF ANY }.
type attribute struct {
	Type   asn1.ObjectIdentifier
	Values []asn1.RawValue `asn1:"set"`
}

// algorithmIdentifier is pkix.AlgorithmIdentifier re-declared locally so
// the NULL parameters can be set explicitly without relying on its
// optional/omitempty default behavior.
type algorithmIdentifier struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.RawValue `asn1:"optional"`
}

// issuerAndSerialNumber identifies a certificate by issuer DN and serial
// number, RFC 5652 section 10.2.4.
type issuerAndSerialNumber struct {
	Issuer       asn1.RawValue
	SerialNumber *big.Int
}

// signerInfoASN1 is the wire form of SignerInfo. SignedAttrs is populated
// with the IMPLICIT [0]-retagged SET OF Attribute bytes directly via
// FullBytes — Go's asn1 "set"/"tag" field options do not compose cleanly
// with the retagging this structure needs, so it is built by hand in
// retagSet.
type signerInfoASN1 struct {
	Version            int
	Sid                issuerAndSerialNumber
	DigestAlgorithm    algorithmIdentifier
	SignedAttrs        asn1.RawValue `asn1:"optional"`
	SignatureAlgorithm algorithmIdentifier
	Signature          []byte
}

// encapsulatedContentInfo always omits eContent: every signature produced
// by this package is detached.
type encapsulatedContentInfo struct {
	ContentType asn1.ObjectIdentifier
}

type signedDataASN1 struct {
	Version          int
	DigestAlgorithms []algorithmIdentifier `asn1:"set"`
	EncapContentInfo encapsulatedContentInfo
	Certificates     asn1.RawValue `asn1:"optional"`
	SignerInfos      []signerInfoASN1 `asn1:"set"`
}

type contentInfoASN1 struct {
	ContentType asn1.ObjectIdentifier
	Content     asn1.RawValue
}
