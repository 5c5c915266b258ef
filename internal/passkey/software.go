package passkey

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-webauthn/webauthn/protocol/webauthncbor"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"
)

// Authenticator data flags.
const (
	flagUserPresent  byte = 0x01
	flagUserVerified byte = 0x04
	flagAttested     byte = 0x40
)

const (
	coseKeyTypeEC2 = 2
	coseAlgES256   = -7
)

// ErrNoCredential is returned when signing before a credential exists.
var ErrNoCredential = errors.New("no passkey credential registered")

var (
	bytesType, _    = abi.NewType("bytes", "", nil)
	stringType, _   = abi.NewType("string", "", nil)
	bytes32Pair, _  = abi.NewType("bytes32[2]", "", nil)
	assertionLayout = abi.Arguments{{Type: bytesType}, {Type: stringType}, {Type: bytes32Pair}}
)

// Assertion is a WebAuthn assertion in the layout the passkey validator decodes.
type Assertion struct {
	AuthenticatorData []byte
	ClientDataJSON    string
	R, S              *big.Int
}

// Encode returns abi.encode(bytes authenticatorData, string clientDataJSON, bytes32[2] rs).
func (a *Assertion) Encode() ([]byte, error) {
	var rs [2][32]byte
	a.R.FillBytes(rs[0][:])
	a.S.FillBytes(rs[1][:])
	return assertionLayout.Pack(a.AuthenticatorData, a.ClientDataJSON, rs)
}

// DecodeAssertion reverses Assertion.Encode.
func DecodeAssertion(data []byte) (*Assertion, error) {
	values, err := assertionLayout.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode assertion: %w", err)
	}
	rs := values[2].([2][32]byte)
	return &Assertion{
		AuthenticatorData: values[0].([]byte),
		ClientDataJSON:    values[1].(string),
		R:                 new(big.Int).SetBytes(rs[0][:]),
		S:                 new(big.Int).SetBytes(rs[1][:]),
	}, nil
}

type clientData struct {
	Type        string `json:"type"`
	Challenge   string `json:"challenge"`
	Origin      string `json:"origin"`
	CrossOrigin bool   `json:"crossOrigin"`
}

// SoftwareAuthenticator is an in-process P-256 passkey for development and tests.
type SoftwareAuthenticator struct {
	rpID   string
	origin string
	random io.Reader

	mu        sync.Mutex
	key       *ecdsa.PrivateKey
	credID    []byte
	signCount uint32
}

// NewSoftwareAuthenticator creates an authenticator scoped to rpID and origin.
func NewSoftwareAuthenticator(rpID, origin string) *SoftwareAuthenticator {
	return &SoftwareAuthenticator{rpID: rpID, origin: origin, random: rand.Reader}
}

// PublicKey returns the credential key, or nil before Register.
func (a *SoftwareAuthenticator) PublicKey() *ecdsa.PublicKey {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.key == nil {
		return nil
	}
	return &a.key.PublicKey
}

// Register creates a fresh P-256 credential bound to account.
func (a *SoftwareAuthenticator) Register(ctx context.Context, account common.Address) (*Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), a.random)
	if err != nil {
		return nil, fmt.Errorf("failed to generate credential key: %w", err)
	}
	credID := make([]byte, 16)
	if _, err = io.ReadFull(a.random, credID); err != nil {
		return nil, fmt.Errorf("failed to generate credential id: %w", err)
	}

	coseKey, err := webauthncbor.Marshal(webauthncose.EC2PublicKeyData{
		PublicKeyData: webauthncose.PublicKeyData{KeyType: coseKeyTypeEC2, Algorithm: coseAlgES256},
		Curve:         coseCurveP256,
		XCoord:        key.X.FillBytes(make([]byte, 32)),
		YCoord:        key.Y.FillBytes(make([]byte, 32)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode credential key: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.key = key
	a.credID = credID
	a.signCount = 0

	authData := a.authenticatorData(flagUserPresent | flagUserVerified | flagAttested)
	authData = append(authData, make([]byte, 16)...) // AAGUID
	authData = binary.BigEndian.AppendUint16(authData, uint16(len(credID)))
	authData = append(authData, credID...)
	authData = append(authData, coseKey...)

	clientDataJSON, err := json.Marshal(clientData{
		Type:      "webauthn.create",
		Challenge: base64.RawURLEncoding.EncodeToString(account.Bytes()),
		Origin:    a.origin,
	})
	if err != nil {
		return nil, err
	}

	return &Credential{ID: credID, AuthenticatorData: authData, ClientDataJSON: clientDataJSON}, nil
}

// Login asserts the registered credential over a random challenge.
func (a *SoftwareAuthenticator) Login(ctx context.Context) (*Credential, error) {
	challenge := make([]byte, 32)
	if _, err := io.ReadFull(a.random, challenge); err != nil {
		return nil, err
	}
	authData, clientDataJSON, _, _, err := a.assert(ctx, base64.RawURLEncoding.EncodeToString(challenge))
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	id := a.credID
	a.mu.Unlock()
	return &Credential{ID: id, AuthenticatorData: authData, ClientDataJSON: clientDataJSON}, nil
}

// Sign asserts the credential over challenge and returns the encoded Assertion.
func (a *SoftwareAuthenticator) Sign(ctx context.Context, challenge string) ([]byte, error) {
	authData, clientDataJSON, r, s, err := a.assert(ctx, challenge)
	if err != nil {
		return nil, err
	}
	assertion := &Assertion{AuthenticatorData: authData, ClientDataJSON: string(clientDataJSON), R: r, S: s}
	return assertion.Encode()
}

func (a *SoftwareAuthenticator) assert(ctx context.Context, challenge string) ([]byte, []byte, *big.Int, *big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.key == nil {
		return nil, nil, nil, nil, ErrNoCredential
	}

	a.signCount++
	authData := a.authenticatorData(flagUserPresent | flagUserVerified)
	clientDataJSON, err := json.Marshal(clientData{Type: "webauthn.get", Challenge: challenge, Origin: a.origin})
	if err != nil {
		return nil, nil, nil, nil, err
	}

	clientDataHash := sha256.Sum256(clientDataJSON)
	digest := sha256.Sum256(append(append([]byte{}, authData...), clientDataHash[:]...))
	r, s, err := ecdsa.Sign(a.random, a.key, digest[:])
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to sign assertion: %w", err)
	}

	// The validator only accepts the lower half of the curve order.
	n := elliptic.P256().Params().N
	if s.Cmp(new(big.Int).Rsh(n, 1)) > 0 {
		s = new(big.Int).Sub(n, s)
	}
	return authData, clientDataJSON, r, s, nil
}

// authenticatorData returns rpIdHash ‖ flags ‖ signCount. Callers hold a.mu.
func (a *SoftwareAuthenticator) authenticatorData(flags byte) []byte {
	rpIDHash := sha256.Sum256([]byte(a.rpID))
	data := append([]byte{}, rpIDHash[:]...)
	data = append(data, flags)
	return binary.BigEndian.AppendUint32(data, a.signCount)
}

// VerifyAssertion checks an encoded Assertion against pub and the expected challenge.
func VerifyAssertion(pub *ecdsa.PublicKey, challenge string, encoded []byte) error {
	assertion, err := DecodeAssertion(encoded)
	if err != nil {
		return err
	}

	var cd clientData
	if err = json.Unmarshal([]byte(assertion.ClientDataJSON), &cd); err != nil {
		return fmt.Errorf("invalid client data: %w", err)
	}
	if cd.Challenge != challenge {
		return fmt.Errorf("challenge mismatch: got %s, expected %s", cd.Challenge, challenge)
	}

	clientDataHash := sha256.Sum256([]byte(assertion.ClientDataJSON))
	digest := sha256.Sum256(append(append([]byte{}, assertion.AuthenticatorData...), clientDataHash[:]...))
	if !ecdsa.Verify(pub, digest[:], assertion.R, assertion.S) {
		return errors.New("invalid assertion signature")
	}
	return nil
}
