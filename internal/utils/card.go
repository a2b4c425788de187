package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Card material helpers: number and CVV generation, the HMAC binding the
// card fields together, and the AES-CBC encryption applied before anything
// reaches the database. Plaintext card data is never persisted.

// Cards issued without an explicit expiry are valid for three years.
const cardValidityYears = 3

// GenerateCardNumber returns a numeric card number of the given length
// starting with prefix.
func GenerateCardNumber(prefix string, length int) (string, error) {
	if length < len(prefix) || length > 19 {
		return "", fmt.Errorf("invalid card number length: %d", length)
	}

	random := make([]byte, length-len(prefix))
	if _, err := rand.Read(random); err != nil {
		return "", fmt.Errorf("failed to generate random digits: %w", err)
	}

	var b strings.Builder
	b.WriteString(prefix)
	for _, r := range random {
		b.WriteByte(r%10 + '0')
	}
	return b.String(), nil
}

// GenerateCVV returns a 3-digit verification code.
func GenerateCVV() string {
	b := make([]byte, 3)
	rand.Read(b)
	return fmt.Sprintf("%d%d%d", b[0]%10, b[1]%10, b[2]%10)
}

// DefaultCardExpiry is the expiry stamped on approval when the card desk
// does not set one explicitly.
func DefaultCardExpiry(now time.Time) time.Time {
	return now.AddDate(cardValidityYears, 0, 0)
}

// GenerateHMAC ties the card number, expiry and CVV into one integrity tag.
func GenerateHMAC(cardNumber, expiryDate, cvv, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(cardNumber + expiryDate + cvv))
	return hex.EncodeToString(h.Sum(nil))
}

// Encrypt AES-CBC encrypts data under key (16, 24 or 32 bytes) with a fresh
// random IV and PKCS#7 padding. The result is hex encoded, IV first.
func Encrypt(data string, key []byte) (string, error) {
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

	padded := pkcs7Pad([]byte(data))
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(append(iv, ciphertext...)), nil
}

// Decrypt reverses Encrypt.
func Decrypt(encryptedData string, key []byte) (string, error) {
	raw, err := hex.DecodeString(encryptedData)
	if err != nil {
		return "", fmt.Errorf("failed to decode hex: %w", err)
	}
	if len(raw) < 2*aes.BlockSize || len(raw)%aes.BlockSize != 0 {
		return "", fmt.Errorf("invalid ciphertext length: %d bytes", len(raw))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	iv, ciphertext := raw[:aes.BlockSize], raw[aes.BlockSize:]
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	return pkcs7Unpad(plaintext)
}

func pkcs7Pad(data []byte) []byte {
	padding := aes.BlockSize - len(data)%aes.BlockSize
	for i := 0; i < padding; i++ {
		data = append(data, byte(padding))
	}
	return data
}

func pkcs7Unpad(data []byte) (string, error) {
	padding := int(data[len(data)-1])
	if padding == 0 || padding > aes.BlockSize || padding > len(data) {
		return "", fmt.Errorf("invalid padding value: %d", padding)
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return "", fmt.Errorf("invalid padding bytes")
		}
	}
	return string(data[:len(data)-padding]), nil
}
