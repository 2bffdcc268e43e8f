package cms

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"encoding/base64"
	"fmt"
	"sort"
	"time"
)

// DecodeBase64Flexible decodes s trying RFC 4648 padded encoding first and,
// if that fails to parse, URL-unpadded encoding. External signers are not
// guaranteed to emit one or the other.
func DecodeBase64Flexible(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("neither RFC4648 padded nor URL-unpadded base64: %w", err)
	}
	return b, nil
}

// derTLV builds a DER tag-length-value encoding for an already-encoded
// content blob, using DER definite-length rules (short form under 128
// bytes, long form otherwise).
func derTLV(tag byte, content []byte) []byte {
	var lenBytes []byte
	n := len(content)
	if n < 0x80 {
		lenBytes = []byte{byte(n)}
	} else {
		var tmp []byte
		for n > 0 {
			tmp = append([]byte{byte(n & 0xff)}, tmp...)
			n >>= 8
		}
		lenBytes = append([]byte{0x80 | byte(len(tmp))}, tmp...)
	}
	out := make([]byte, 0, 1+len(lenBytes)+len(content))
	out = append(out, tag)
	out = append(out, lenBytes...)
	out = append(out, content...)
	return out
}

// retagSet re-encodes a DER SET OF (universal tag 0x31) with a different
// leading tag byte, preserving the length and content. Used to go from
// the "what gets signed" SET OF Attribute form to the IMPLICIT [0]
// constructed form SignerInfo.signedAttrs requires on the wire, and back.
func retagSet(der []byte, newTag byte) ([]byte, error) {
	if len(der) == 0 {
		return nil, fmt.Errorf("empty DER")
	}
	var raw asn1.RawValue
	if _, err := asn1.Unmarshal(der, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal for retag: %w", err)
	}
	return derTLV(newTag, raw.Bytes), nil
}

const (
	tagUniversalSet   = 0x31
	tagImplicit0Set   = 0xA0 // context-specific, constructed, tag 0
	tagExplicit0      = 0xA0 // context-specific, constructed, tag 0 (explicit wrapping)
)

// buildSignedAttrSET builds the DER of the SET OF Attribute — contentType,
// signingTime, messageDigest, in that order before DER's canonical
// reordering is applied — that 4.4.1 specifies.
func buildSignedAttrSET(signingTime string, messageDigest []byte) ([]byte, error) {
	contentTypeDER, err := asn1.Marshal(oidData)
	if err != nil {
		return nil, err
	}
	contentTypeAttr, err := asn1.Marshal(attribute{
		Type:   oidContentType,
		Values: []asn1.RawValue{{FullBytes: contentTypeDER}},
	})
	if err != nil {
		return nil, err
	}

	utcTime := asn1.RawValue{Class: asn1.ClassUniversal, Tag: 23, Bytes: []byte(signingTime)}
	utcTimeDER, err := asn1.Marshal(utcTime)
	if err != nil {
		return nil, err
	}
	signingTimeAttr, err := asn1.Marshal(attribute{
		Type:   oidSigningTime,
		Values: []asn1.RawValue{{FullBytes: utcTimeDER}},
	})
	if err != nil {
		return nil, err
	}

	digestDER, err := asn1.Marshal(messageDigest)
	if err != nil {
		return nil, err
	}
	messageDigestAttr, err := asn1.Marshal(attribute{
		Type:   oidMessageDigest,
		Values: []asn1.RawValue{{FullBytes: digestDER}},
	})
	if err != nil {
		return nil, err
	}

	// DER requires SET OF elements sorted by their encoded bytes.
	elems := [][]byte{contentTypeAttr, signingTimeAttr, messageDigestAttr}
	sort.Slice(elems, func(i, j int) bool { return bytes.Compare(elems[i], elems[j]) < 0 })

	var content bytes.Buffer
	for _, e := range elems {
		content.Write(e)
	}
	return derTLV(tagUniversalSet, content.Bytes()), nil
}

// ComputeAuthAttr builds the SignerInfo authenticated-attributes SET as
// DER (4.4.1). It returns the base64 (RFC4648 padded) of that DER, and the
// signing_time actually used — the caller-supplied value, or the current
// UTC time formatted as YYMMDDHHMMSSZ if the caller passed an empty one.
//
// digestB64 is the base64 document digest (SHA-256 over the ByteRange
// chunks). No certificate is taken: the returned SET holds only the three
// signed attributes, with no issuer/serial.
func ComputeAuthAttr(digestB64, signingTime string) (signingTimeOut, authAttrB64 string, err error) {
	if digestB64 == "" {
		return "", "", fmt.Errorf("digest is required")
	}
	digest, err := DecodeBase64Flexible(digestB64)
	if err != nil {
		return "", "", fmt.Errorf("decode digest: %w", err)
	}

	if signingTime == "" {
		signingTime = time.Now().UTC().Format("060102150405") + "Z"
	}

	setDER, err := buildSignedAttrSET(signingTime, digest)
	if err != nil {
		return "", "", fmt.Errorf("build signed attributes: %w", err)
	}

	return signingTime, base64.StdEncoding.EncodeToString(setDER), nil
}

// SignAuthAttr computes the RSA-PKCS1v1.5/SHA-256 signature over the
// decoded auth_attr DER (4.4.2).
func SignAuthAttr(authAttrB64 string, key *rsa.PrivateKey) (encDigestB64 string, err error) {
	authAttr, err := DecodeBase64Flexible(authAttrB64)
	if err != nil {
		return "", fmt.Errorf("decode auth_attr: %w", err)
	}

	h := sha256.Sum256(authAttr)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, h[:])
	if err != nil {
		return "", fmt.Errorf("rsa sign: %w", err)
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}

// SignAuthAttrWithSigner is SignAuthAttr generalized to any crypto.Signer,
// so an external signing oracle (an HSM-backed PKCS#11 session, for
// instance) can stand in for an in-process RSA key across the split-sign
// flow's compute_auth_attr/sign_auth_attr/assemble round trip.
func SignAuthAttrWithSigner(authAttrB64 string, signer crypto.Signer) (encDigestB64 string, err error) {
	authAttr, err := DecodeBase64Flexible(authAttrB64)
	if err != nil {
		return "", fmt.Errorf("decode auth_attr: %w", err)
	}

	h := sha256.Sum256(authAttr)
	sig, err := signer.Sign(rand.Reader, h[:], crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("external sign: %w", err)
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}

// Assemble constructs the final CMS SignedData DER (4.4.3): the entity
// certificate's issuer/serial identifies the SignerInfo, digestB64 is the
// document digest placed as the messageDigest attribute, encDigestB64 is
// the (possibly externally produced) RSA signature over the auth_attr
// DER, and signingTime is the same value returned from ComputeAuthAttr.
func Assemble(entityCert *x509.Certificate, chain []*x509.Certificate, digestB64, encDigestB64, signingTime string) ([]byte, error) {
	if entityCert == nil {
		return nil, fmt.Errorf("entity certificate is required")
	}

	digest, err := DecodeBase64Flexible(digestB64)
	if err != nil {
		return nil, fmt.Errorf("decode digest: %w", err)
	}
	encDigest, err := DecodeBase64Flexible(encDigestB64)
	if err != nil {
		return nil, fmt.Errorf("decode enc_digest: %w", err)
	}

	signedAttrSET, err := buildSignedAttrSET(signingTime, digest)
	if err != nil {
		return nil, fmt.Errorf("build signed attributes: %w", err)
	}
	signedAttrsWire, err := retagSet(signedAttrSET, tagImplicit0Set)
	if err != nil {
		return nil, fmt.Errorf("retag signed attributes: %w", err)
	}

	var certsContent bytes.Buffer
	certsContent.Write(entityCert.Raw)
	for _, c := range chain {
		certsContent.Write(c.Raw)
	}
	certsSET := derTLV(tagUniversalSet, certsContent.Bytes())
	certsWire, err := retagSet(certsSET, tagImplicit0Set)
	if err != nil {
		return nil, fmt.Errorf("retag certificates: %w", err)
	}

	sd := signedDataASN1{
		Version: 1,
		DigestAlgorithms: []algorithmIdentifier{
			{Algorithm: oidSHA256, Parameters: asn1.RawValue{FullBytes: derNull}},
		},
		EncapContentInfo: encapsulatedContentInfo{ContentType: oidData},
		Certificates:     asn1.RawValue{FullBytes: certsWire},
		SignerInfos: []signerInfoASN1{
			{
				Version: 1,
				Sid: issuerAndSerialNumber{
					Issuer:       asn1.RawValue{FullBytes: entityCert.RawIssuer},
					SerialNumber: entityCert.SerialNumber,
				},
				DigestAlgorithm:    algorithmIdentifier{Algorithm: oidSHA256, Parameters: asn1.RawValue{FullBytes: derNull}},
				SignedAttrs:        asn1.RawValue{FullBytes: signedAttrsWire},
				SignatureAlgorithm: algorithmIdentifier{Algorithm: oidRSAEncryption, Parameters: asn1.RawValue{FullBytes: derNull}},
				Signature:          encDigest,
			},
		},
	}

	sdDER, err := asn1.Marshal(sd)
	if err != nil {
		return nil, fmt.Errorf("marshal signed data: %w", err)
	}

	ci := contentInfoASN1{
		ContentType: oidSignedData,
		Content:     asn1.RawValue{FullBytes: derTLV(tagExplicit0, sdDER)},
	}
	ciDER, err := asn1.Marshal(ci)
	if err != nil {
		return nil, fmt.Errorf("marshal content info: %w", err)
	}

	return ciDER, nil
}
