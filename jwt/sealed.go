package jwt

import (
	"bytes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// seal serializes claims to JSON and encrypts them with AES-CBC under the
// configured key and IV. The same input always yields the same ciphertext.
func (c *Codec) seal(claims sealedClaims) (string, error) {
	plaintext, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	padded := pkcs7Pad(plaintext, c.block.BlockSize())
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, c.config.ClaimsIV).CryptBlocks(ciphertext, padded)

	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

func (c *Codec) open(sealed string) (*sealedClaims, error) {
	if sealed == "" {
		return nil, ErrClaimsUnreadable
	}
	ciphertext, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClaimsUnreadable, err)
	}
	size := c.block.BlockSize()
	if len(ciphertext) == 0 || len(ciphertext)%size != 0 {
		return nil, ErrClaimsUnreadable
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, c.config.ClaimsIV).CryptBlocks(plaintext, ciphertext)

	plaintext, ok := pkcs7Unpad(plaintext, size)
	if !ok {
		return nil, ErrClaimsUnreadable
	}

	out := &sealedClaims{}
	if err := json.Unmarshal(plaintext, out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClaimsUnreadable, err)
	}
	return out, nil
}

func pkcs7Pad(data []byte, size int) []byte {
	n := size - len(data)%size
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, size int) ([]byte, bool) {
	if len(data) == 0 {
		return nil, false
	}
	n := int(data[len(data)-1])
	if n == 0 || n > size || n > len(data) {
		return nil, false
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, false
		}
	}
	return data[:len(data)-n], true
}
