// Package pkcs11 implements a crypto.Signer backed by a PKCS#11 module, for
// use as the external signing oracle in the split compute_auth_attr /
// sign_auth_attr / assemble flow: the private key never leaves the token.
package pkcs11

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"fmt"
	"io"

	"github.com/miekg/pkcs11"
)

// Signer implements crypto.Signer using a PKCS#11 module (HSM/Token).
type Signer struct {
	ModulePath string
	TokenLabel string
	KeyLabel   string
	PIN        string
	PublicKey  crypto.PublicKey
}

// NewSigner creates a new PKCS#11 signer.
func NewSigner(module, token, key, pin string, pub crypto.PublicKey) (*Signer, error) {
	if module == "" {
		return nil, fmt.Errorf("pkcs11: ModulePath is required")
	}
	return &Signer{
		ModulePath: module,
		TokenLabel: token,
		KeyLabel:   key,
		PIN:        pin,
		PublicKey:  pub,
	}, nil
}

// Public returns the public key.
func (s *Signer) Public() crypto.PublicKey {
	return s.PublicKey
}

// Sign signs a digest using the PKCS#11 module.
func (s *Signer) Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	p := pkcs11.New(s.ModulePath)
	if p == nil {
		return nil, fmt.Errorf("pkcs11: failed to load module %s", s.ModulePath)
	}

	if err := p.Initialize(); err != nil {
		return nil, fmt.Errorf("pkcs11: error initializing module: %w", err)
	}
	defer func() {
		_ = p.Finalize()
		p.Destroy()
	}()

	slots, err := p.GetSlotList(true)
	if err != nil {
		return nil, fmt.Errorf("pkcs11: error getting slots: %w", err)
	}

	var slotID uint
	foundSlot := false
	for _, sID := range slots {
		tokenInfo, err := p.GetTokenInfo(sID)
		if err != nil {
			continue
		}
		if tokenInfo.Label == s.TokenLabel || s.TokenLabel == "" {
			slotID = sID
			foundSlot = true
			break
		}
	}

	if !foundSlot {
		return nil, fmt.Errorf("pkcs11: token with label %q not found", s.TokenLabel)
	}

	session, err := p.OpenSession(slotID, pkcs11.CKF_SERIAL_SESSION)
	if err != nil {
		return nil, fmt.Errorf("pkcs11: error opening session: %w", err)
	}
	defer func() { _ = p.CloseSession(session) }()

	if s.PIN != "" {
		if err := p.Login(session, pkcs11.CKU_USER, s.PIN); err != nil {
			return nil, fmt.Errorf("pkcs11: error logging in: %w", err)
		}
		defer func() { _ = p.Logout(session) }()
	}

	// Find the private key
	template := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_PRIVATE_KEY),
	}
	if s.KeyLabel != "" {
		template = append(template, pkcs11.NewAttribute(pkcs11.CKA_LABEL, s.KeyLabel))
	}

	if err := p.FindObjectsInit(session, template); err != nil {
		return nil, fmt.Errorf("pkcs11: error finding objects: %w", err)
	}

	objs, _, err := p.FindObjects(session, 1)
	if err != nil {
		return nil, fmt.Errorf("pkcs11: error finding objects: %w", err)
	}
	if err := p.FindObjectsFinal(session); err != nil {
		return nil, fmt.Errorf("pkcs11: error finalizing object find: %w", err)
	}

	if len(objs) == 0 {
		return nil, fmt.Errorf("pkcs11: private key not found")
	}
	privKey := objs[0]

	mechanism := getMechanism(s.PublicKey, opts.HashFunc())
	if mechanism == nil {
		return nil, fmt.Errorf("pkcs11: unsupported public key or hash function")
	}

	if err := p.SignInit(session, []*pkcs11.Mechanism{mechanism}, privKey); err != nil {
		return nil, fmt.Errorf("pkcs11: sign init failed: %w", err)
	}

	// CKM_RSA_PKCS applies only the PKCS#1 v1.5 padding, so the DigestInfo
	// that identifies the hash has to be prepended here.
	data := digest
	if mechanism.Mechanism == pkcs11.CKM_RSA_PKCS && opts.HashFunc() == crypto.SHA256 {
		data = append(append([]byte{}, sha256DigestInfoPrefix...), digest...)
	}

	sig, err := p.Sign(session, data)
	if err != nil {
		return nil, fmt.Errorf("pkcs11: sign failed: %w", err)
	}

	return sig, nil
}

// sha256DigestInfoPrefix is the DER DigestInfo header for a SHA-256 hash.
var sha256DigestInfoPrefix = []byte{0x30, 0x31, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x01, 0x05, 0x00, 0x04, 0x20}

func getMechanism(pub crypto.PublicKey, hash crypto.Hash) *pkcs11.Mechanism {
	switch pub.(type) {
	case *rsa.PublicKey:
		return pkcs11.NewMechanism(pkcs11.CKM_RSA_PKCS, nil)
	case *ecdsa.PublicKey:
		return pkcs11.NewMechanism(pkcs11.CKM_ECDSA, nil)
	default:
		return pkcs11.NewMechanism(pkcs11.CKM_RSA_PKCS, nil)
	}
}
