package service

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kurbar/trustly-go/internal/core/ports"
	"github.com/kurbar/trustly-go/pkg/canonical"
)

// RSASignatureService implements ports.SignatureService with RSA PKCS#1
// v1.5 over SHA-1, the digest the protocol fixes. The merchant private key
// signs outbound messages; the counterparty public key verifies inbound
// ones. Both are loaded eagerly and held read-only for the service's
// lifetime, safe to share across goroutines.
type RSASignatureService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

// NewRSASignatureService loads both keys from PEM files resolved against
// baseDir. A missing or unreadable key is a fatal configuration error:
// construction fails before any network or database activity.
func NewRSASignatureService(baseDir, privateKeyFile, publicKeyFile string) (*RSASignatureService, error) {
	priv, err := loadPrivateKey(filepath.Join(baseDir, privateKeyFile))
	if err != nil {
		return nil, fmt.Errorf("loading merchant private key: %w", err)
	}

	pub, err := loadPublicKey(filepath.Join(baseDir, publicKeyFile))
	if err != nil {
		return nil, fmt.Errorf("loading counterparty public key: %w", err)
	}

	return &RSASignatureService{privateKey: priv, publicKey: pub}, nil
}

// NewRSASignatureServiceFromKeys wraps already-parsed keys. Used by tests
// and callers that manage key material themselves.
func NewRSASignatureServiceFromKeys(priv *rsa.PrivateKey, pub *rsa.PublicKey) *RSASignatureService {
	return &RSASignatureService{privateKey: priv, publicKey: pub}
}

var _ ports.SignatureService = (*RSASignatureService)(nil)

// Sign returns the base64 RSA-SHA1 signature over
// method ++ uuid ++ Serialize(data). Absent method or uuid enter as "".
func (s *RSASignatureService) Sign(method, uuid string, data map[string]any) (string, error) {
	digest := digest(method, uuid, data)

	raw, err := rsa.SignPKCS1v15(rand.Reader, s.privateKey, crypto.SHA1, digest)
	if err != nil {
		return "", fmt.Errorf("rsa sign: %w", err)
	}

	return base64.StdEncoding.EncodeToString(raw), nil
}

// Verify checks signature over the same signable material. An absent
// signature is immediately false; malformed base64 and crypto mismatches
// collapse to false rather than erroring.
func (s *RSASignatureService) Verify(method, uuid string, data map[string]any, signature string) bool {
	if signature == "" {
		return false
	}

	raw, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}

	return rsa.VerifyPKCS1v15(s.publicKey, crypto.SHA1, digest(method, uuid, data), raw) == nil
}

func digest(method, uuid string, data map[string]any) []byte {
	sum := sha1.Sum([]byte(method + uuid + canonical.Serialize(data)))
	return sum[:]
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	block, err := readPEM(path)
	if err != nil {
		return nil, err
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing private key %s: %w", path, err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key %s is not RSA", path)
	}
	return key, nil
}

func loadPublicKey(path string) (*rsa.PublicKey, error) {
	block, err := readPEM(path)
	if err != nil {
		return nil, err
	}

	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing public key %s: %w", path, err)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key %s is not RSA", path)
	}
	return key, nil
}

func readPEM(path string) (*pem.Block, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in %s", path)
	}
	return block, nil
}
