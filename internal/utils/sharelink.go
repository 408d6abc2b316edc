package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

// Base32Chars is the alphabet of share tokens. It leaves out I, O, S and Z
// so tokens survive being read aloud or retyped.
const Base32Chars = "0123456789ABCDEFGHJKLMNPQRTUVWXY"

var tokenEncoding = base32.NewEncoding(Base32Chars).WithPadding(base32.NoPadding)

var (
	ErrInvalidShareLink = errors.New("invalid share link")
	ErrShareLinkExpired = errors.New("share link expired")
)

// ShareLink grants read access to one document of one tenant until Expires.
type ShareLink struct {
	Tenant  string
	Entity  string
	ID      uint
	Expires time.Time
}

// ShareLinks seals and opens share tokens with AES-256-GCM.
type ShareLinks struct {
	aead cipher.AEAD
	Now  func() time.Time
}

// NewShareLinks derives the sealing key from secret.
func NewShareLinks(secret string) (*ShareLinks, error) {
	if secret == "" {
		return nil, errors.New("share link secret is empty")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte("eckbiz share link")), key); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &ShareLinks{aead: aead, Now: time.Now}, nil
}

// Seal returns the URL-safe token for l.
func (s *ShareLinks) Seal(l ShareLink) (string, error) {
	if strings.Contains(l.Tenant, "|") || strings.Contains(l.Entity, "|") {
		return "", ErrInvalidShareLink
	}
	plain := fmt.Sprintf("%s|%s|%d|%d", l.Tenant, l.Entity, l.ID, l.Expires.Unix())

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plain), nil)
	body := tokenEncoding.EncodeToString(sealed)
	return body + CheckChars(body), nil
}

// Open verifies token and returns the link it carries.
func (s *ShareLinks) Open(token string) (ShareLink, error) {
	token = strings.ToUpper(strings.TrimSpace(token))
	if len(token) < 3 {
		return ShareLink{}, ErrInvalidShareLink
	}
	body, check := token[:len(token)-2], token[len(token)-2:]
	if CheckChars(body) != check {
		return ShareLink{}, ErrInvalidShareLink
	}
	sealed, err := tokenEncoding.DecodeString(body)
	if err != nil || len(sealed) < s.aead.NonceSize() {
		return ShareLink{}, ErrInvalidShareLink
	}
	n := s.aead.NonceSize()
	plain, err := s.aead.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return ShareLink{}, ErrInvalidShareLink
	}

	parts := strings.Split(string(plain), "|")
	if len(parts) != 4 {
		return ShareLink{}, ErrInvalidShareLink
	}
	id, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return ShareLink{}, ErrInvalidShareLink
	}
	exp, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return ShareLink{}, ErrInvalidShareLink
	}
	l := ShareLink{Tenant: parts[0], Entity: parts[1], ID: uint(id), Expires: time.Unix(exp, 0).UTC()}
	if !s.Now().Before(l.Expires) {
		return l, ErrShareLinkExpired
	}
	return l, nil
}

// CheckChars is a two-character CRC of value, used to reject mistyped tokens
// before any decryption.
func CheckChars(value string) string {
	c := crc32.ChecksumIEEE([]byte(value)) & 1023
	return string(Base32Chars[c>>5]) + string(Base32Chars[c&31])
}
