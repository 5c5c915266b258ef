// Package passkey defines the WebAuthn passkey capability consumed by the wallet and helpers around it.
package passkey

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"
)

// COSE curve identifier of P-256.
const coseCurveP256 = 1

// Credential is what the platform authenticator returns on registration or login.
type Credential struct {
	ID                []byte `json:"id"`
	AuthenticatorData []byte `json:"authenticatorData"`
	ClientDataJSON    []byte `json:"clientDataJSON"`
}

// Signer is the platform passkey capability.
type Signer interface {
	// Register creates a new credential bound to the account address.
	Register(ctx context.Context, account common.Address) (*Credential, error)
	// Login asserts an existing credential.
	Login(ctx context.Context) (*Credential, error)
	// Sign returns a raw signature over a base64url encoded challenge.
	Sign(ctx context.Context, challenge string) ([]byte, error)
}

// PublicKeyFromAuthenticatorData extracts the P-256 public key (x ‖ y, 64 bytes) from the
// attested credential data of a registration.
func PublicKeyFromAuthenticatorData(data []byte) ([]byte, error) {
	var authData protocol.AuthenticatorData
	if err := authData.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("failed to parse authenticator data: %w", err)
	}
	if !authData.Flags.HasAttestedCredentialData() {
		return nil, fmt.Errorf("authenticator data carries no attested credential")
	}

	key, err := webauthncose.ParsePublicKey(authData.AttData.CredentialPublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credential public key: %w", err)
	}
	ec2, ok := key.(webauthncose.EC2PublicKeyData)
	if !ok {
		return nil, fmt.Errorf("unsupported credential key type %T", key)
	}
	if ec2.Curve != coseCurveP256 {
		return nil, fmt.Errorf("unsupported curve %d, expected P-256", ec2.Curve)
	}
	if len(ec2.XCoord) > 32 || len(ec2.YCoord) > 32 {
		return nil, fmt.Errorf("invalid coordinate length x=%d y=%d", len(ec2.XCoord), len(ec2.YCoord))
	}

	publicKey := make([]byte, 64)
	copy(publicKey[32-len(ec2.XCoord):32], ec2.XCoord)
	copy(publicKey[64-len(ec2.YCoord):], ec2.YCoord)
	return publicKey, nil
}

// HexToBase64URL converts a hex string, with or without 0x prefix, into an unpadded base64url challenge.
func HexToBase64URL(hexStr string) (string, error) {
	if !strings.HasPrefix(hexStr, "0x") && !strings.HasPrefix(hexStr, "0X") {
		hexStr = "0x" + hexStr
	}
	raw, err := hexutil.Decode(hexStr)
	if err != nil {
		return "", fmt.Errorf("invalid hex challenge: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
