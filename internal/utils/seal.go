package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrTampered is returned when a sealed payload fails authentication.
var ErrTampered = errors.New("sealed payload failed authentication")

// Sealer encrypts plan snapshots at rest and authenticates them.
type Sealer struct {
	key    []byte
	secret []byte
}

// NewSealer builds a sealer from a hex-encoded AES key and an HMAC secret.
func NewSealer(encryptionKeyHex, hmacSecret string) (*Sealer, error) {
	key, err := hex.DecodeString(encryptionKeyHex)
	if err != nil {
		return nil, fmt.Errorf("encryption key must be hex: %w", err)
	}
	if len(key) != 16 && len(key) != 24 && len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 16, 24, or 32 bytes, got %d", len(key))
	}
	if hmacSecret == "" {
		return nil, fmt.Errorf("hmac secret is empty")
	}
	return &Sealer{key: key, secret: []byte(hmacSecret)}, nil
}

// Seal encrypts data and returns the hex payload with its MAC.
// The MAC covers the ciphertext (encrypt-then-MAC).
func (s *Sealer) Seal(data []byte) (payload, mac string, err error) {
	payload, err = Encrypt(data, s.key)
	if err != nil {
		return "", "", err
	}
	return payload, GenerateHMAC(payload, s.secret), nil
}

// Open checks the MAC and decrypts the payload.
func (s *Sealer) Open(payload, mac string) ([]byte, error) {
	want, err := hex.DecodeString(mac)
	if err != nil {
		return nil, ErrTampered
	}
	got, _ := hex.DecodeString(GenerateHMAC(payload, s.secret))
	if !hmac.Equal(got, want) {
		return nil, ErrTampered
	}
	return Decrypt(payload, s.key)
}

// GenerateHMAC returns the hex HMAC-SHA256 of data
func GenerateHMAC(data string, secret []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// Encrypt encrypts data using AES-CBC with PKCS#7 padding. The result is
// the hex encoding of IV followed by ciphertext.
func Encrypt(data []byte, key []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("input data is empty")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	padding := aes.BlockSize - len(data)%aes.BlockSize
	padded := make([]byte, len(data), len(data)+padding)
	copy(padded, data)
	for i := 0; i < padding; i++ {
		padded = append(padded, byte(padding))
	}

	ciphertext := make([]byte, aes.BlockSize+len(padded))
	copy(ciphertext, iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext[aes.BlockSize:], padded)

	return hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt
func Decrypt(encryptedData string, key []byte) ([]byte, error) {
	if len(encryptedData) == 0 {
		return nil, fmt.Errorf("encrypted data is empty")
	}

	data, err := hex.DecodeString(encryptedData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode hex: %w", err)
	}
	if len(data) < 2*aes.BlockSize {
		return nil, fmt.Errorf("encrypted data too short: %d bytes", len(data))
	}

	iv := data[:aes.BlockSize]
	ciphertext := data[aes.BlockSize:]
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("invalid ciphertext length: %d bytes", len(ciphertext))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	padding := int(plaintext[len(plaintext)-1])
	if padding > aes.BlockSize || padding == 0 {
		return nil, fmt.Errorf("invalid padding value: %d", padding)
	}
	for i := len(plaintext) - padding; i < len(plaintext); i++ {
		if int(plaintext[i]) != padding {
			return nil, fmt.Errorf("invalid padding bytes at position %d", i)
		}
	}

	return plaintext[:len(plaintext)-padding], nil
}
