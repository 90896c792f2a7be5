package keygen

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"math/big"

	"golang.org/x/crypto/ssh"
)

// Kinds of generated values accepted by Generate.
const (
	KindPassword = "password"
	KindSSHKey   = "ssh-key"
)

const (
	passwordAlphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	passwordSymbols  = "-_.!"
	// DefaultPasswordLength is used by Generate for KindPassword.
	DefaultPasswordLength = 24
)

// KeyPair holds an SSH key pair in ready-to-use formats.
type KeyPair struct {
	// PrivateKey is the private key in OpenSSH PEM format.
	PrivateKey []byte
	// PublicKey is the public key in OpenSSH authorized_keys format.
	PublicKey []byte
}

// GenerateSSHKeyPair generates a new ed25519 key pair.
func GenerateSSHKeyPair(comment string) (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}

	block, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH public key: %w", err)
	}

	return &KeyPair{
		PrivateKey: pem.EncodeToMemory(block),
		PublicKey:  ssh.MarshalAuthorizedKey(sshPub),
	}, nil
}

// GeneratePassword returns a random password of the given length. It always
// contains at least one symbol and one digit so it passes the usual
// database password policies.
func GeneratePassword(length int) (string, error) {
	if length < 8 {
		return "", fmt.Errorf("password length must be at least 8, got %d", length)
	}

	out := make([]byte, length)
	for i := range out {
		c, err := pick(passwordAlphabet)
		if err != nil {
			return "", err
		}
		out[i] = c
	}

	symbol, err := pick(passwordSymbols)
	if err != nil {
		return "", err
	}
	digit, err := pick("23456789")
	if err != nil {
		return "", err
	}
	// Never start with a symbol.
	out[length-1] = symbol
	out[length-2] = digit

	return string(out), nil
}

// Generate produces a value of the given kind. For KindSSHKey the private
// key is returned; the public half is derivable from it.
func Generate(kind, comment string) (string, error) {
	switch kind {
	case KindPassword:
		return GeneratePassword(DefaultPasswordLength)
	case KindSSHKey:
		kp, err := GenerateSSHKeyPair(comment)
		if err != nil {
			return "", err
		}
		return string(kp.PrivateKey), nil
	default:
		return "", fmt.Errorf("unknown generated value kind %q", kind)
	}
}

func pick(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, fmt.Errorf("failed to read random data: %w", err)
	}
	return alphabet[n.Int64()], nil
}
