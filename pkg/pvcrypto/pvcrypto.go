// Package pvcrypto implements the AES-256-CBC payload encryption used by
// the encode/decode pipelines: key derived as SHA-256(password), PKCS#7
// padding, random IV prepended to the ciphertext.
package pvcrypto

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/slippyex/pixveil/pkg/pverr"
	"github.com/slippyex/pixveil/pkg/rng"
)

// DeriveKey returns the AES-256 key for a password: SHA-256(password).
func DeriveKey(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return sum[:]
}

// Encrypt AES-256-CBC encrypts plaintext under password, PKCS#7 padding
// the plaintext to the cipher block size and prepending a random 16-byte
// IV to the returned ciphertext (IV || CIPHERTEXT). The IV is drawn from
// the process-wide CSPRNG.
func Encrypt(plaintext []byte, password string) ([]byte, error) {
	return EncryptWithRand(context.Background(), plaintext, password, nil)
}

// EncryptWithRand is Encrypt with the IV drawn from src when src is
// non-nil, so a caller holding a pinned entropy source gets a fully
// reproducible ciphertext.
func EncryptWithRand(ctx context.Context, plaintext []byte, password string, src rng.Source) ([]byte, error) {
	key := DeriveKey(password)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, pverr.New(pverr.InvalidConfig, "pvcrypto.Encrypt: new cipher", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)

	iv := make([]byte, aes.BlockSize)
	if src != nil {
		if _, err := src.Read(ctx, iv); err != nil {
			return nil, pverr.New(pverr.IOError, "pvcrypto.Encrypt: generate IV", err)
		}
	} else if _, err := crand.Read(iv); err != nil {
		return nil, pverr.New(pverr.IOError, "pvcrypto.Encrypt: generate IV", err)
	}

	ciphertext := make([]byte, len(padded))
	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(ciphertext, padded)

	out := make([]byte, 0, aes.BlockSize+len(ciphertext))
	out = append(out, iv...)
	out = append(out, ciphertext...)
	return out, nil
}

// Decrypt reverses Encrypt: splits the IV prefix off ivAndCiphertext,
// AES-256-CBC decrypts the remainder under password, and strips PKCS#7
// padding.
func Decrypt(ivAndCiphertext []byte, password string) ([]byte, error) {
	if len(ivAndCiphertext) < aes.BlockSize || (len(ivAndCiphertext)-aes.BlockSize)%aes.BlockSize != 0 {
		return nil, pverr.New(pverr.DecryptFailed, "pvcrypto.Decrypt: malformed ciphertext length", nil)
	}
	key := DeriveKey(password)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, pverr.New(pverr.DecryptFailed, "pvcrypto.Decrypt: new cipher", err)
	}

	iv := ivAndCiphertext[:aes.BlockSize]
	ciphertext := ivAndCiphertext[aes.BlockSize:]
	if len(ciphertext) == 0 {
		return nil, pverr.New(pverr.DecryptFailed, "pvcrypto.Decrypt: empty ciphertext", nil)
	}

	plainPadded := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(plainPadded, ciphertext)

	plain, err := pkcs7Unpad(plainPadded, aes.BlockSize)
	if err != nil {
		return nil, pverr.New(pverr.DecryptFailed, "pvcrypto.Decrypt: unpad", err)
	}
	return plain, nil
}

// Checksum returns the lowercase-hex SHA-256 digest of the full encrypted
// payload (IV || CIPHERTEXT), used to detect tampering before decryption
// is ever attempted.
func Checksum(encrypted []byte) string {
	sum := sha256.Sum256(encrypted)
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum reports whether encrypted's checksum matches want,
// returning a ChecksumMismatch error when it doesn't.
func VerifyChecksum(encrypted []byte, want string) error {
	got := Checksum(encrypted)
	if got != want {
		return pverr.New(pverr.ChecksumMismatch, "pvcrypto.VerifyChecksum",
			fmt.Errorf("got %s, want %s", got, want))
	}
	return nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(data, padding...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	n := len(data)
	if n == 0 || n%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", n)
	}
	padLen := int(data[n-1])
	if padLen == 0 || padLen > blockSize || padLen > n {
		return nil, fmt.Errorf("invalid padding length %d", padLen)
	}
	for _, b := range data[n-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("invalid padding bytes")
		}
	}
	return data[:n-padLen], nil
}
