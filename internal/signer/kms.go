package signer

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/asn1"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	awsTypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/crypto/secp256k1"
)

var (
	secp256k1N     = crypto.S256().Params().N
	secp256k1HalfN = new(big.Int).Div(secp256k1N, big.NewInt(2))
)

// KMSClient is the subset of the AWS KMS API the signer uses.
type KMSClient interface {
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
}

// KMSSigner signs with an ECC_SECG_P256K1 key held in AWS KMS.
type KMSSigner struct {
	client      KMSClient
	keyID       string
	pubKeyBytes []byte
	address     common.Address
}

// NewKMSSigner loads the default AWS configuration and resolves the key's address.
func NewKMSSigner(ctx context.Context, keyID string) (*KMSSigner, error) {
	cfg, err := awsConfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	cfg.HTTPClient = &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   2 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   2 * time.Second,
			ResponseHeaderTimeout: 3 * time.Second,
		},
	}

	return NewKMSSignerWithClient(ctx, kms.NewFromConfig(cfg), keyID)
}

// NewKMSSignerWithClient builds a signer over an existing KMS client.
func NewKMSSignerWithClient(ctx context.Context, client KMSClient, keyID string) (*KMSSigner, error) {
	s := &KMSSigner{client: client, keyID: keyID}
	pubkey, err := s.publicKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get public key from KMS: %w", err)
	}
	s.pubKeyBytes = secp256k1.S256().Marshal(pubkey.X, pubkey.Y)
	s.address = crypto.PubkeyToAddress(*pubkey)
	return s, nil
}

// Address returns the address derived from the KMS public key.
func (s *KMSSigner) Address() common.Address { return s.address }

func (s *KMSSigner) publicKey(ctx context.Context) (*ecdsa.PublicKey, error) {
	out, err := s.client.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: aws.String(s.keyID)})
	if err != nil {
		return nil, fmt.Errorf("cannot get public key from KMS for KeyId=%s: %w", s.keyID, err)
	}

	var asn1pubk struct {
		EcPublicKeyInfo struct {
			Algorithm  asn1.ObjectIdentifier
			Parameters asn1.ObjectIdentifier
		}
		PublicKey asn1.BitString
	}
	if _, err = asn1.Unmarshal(out.PublicKey, &asn1pubk); err != nil {
		return nil, fmt.Errorf("cannot parse ASN.1 public key for KeyId=%s: %w", s.keyID, err)
	}

	pubkey, err := crypto.UnmarshalPubkey(asn1pubk.PublicKey.Bytes)
	if err != nil {
		return nil, fmt.Errorf("cannot construct secp256k1 public key from key bytes: %w", err)
	}
	return pubkey, nil
}

// SignHash signs hash in KMS and recovers the V value locally.
func (s *KMSSigner) SignHash(ctx context.Context, hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("hash must be 32 bytes, got %d", len(hash))
	}

	out, err := s.client.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(s.keyID),
		SigningAlgorithm: awsTypes.SigningAlgorithmSpecEcdsaSha256,
		MessageType:      awsTypes.MessageTypeDigest,
		Message:          hash,
	})
	if err != nil {
		return nil, fmt.Errorf("KMS sign failed: %w", err)
	}

	var sigAsn1 struct {
		R asn1.RawValue
		S asn1.RawValue
	}
	if _, err = asn1.Unmarshal(out.Signature, &sigAsn1); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ASN.1 signature: %w", err)
	}

	// Ethereum only accepts the lower half of the curve order.
	sBytes := sigAsn1.S.Bytes
	if sBig := new(big.Int).SetBytes(sBytes); sBig.Cmp(secp256k1HalfN) > 0 {
		sBytes = new(big.Int).Sub(secp256k1N, sBig).Bytes()
	}

	return recoverableSignature(s.pubKeyBytes, hash, sigAsn1.R.Bytes, sBytes)
}

// recoverableSignature appends the recovery id that yields expectedPublicKey.
func recoverableSignature(expectedPublicKey, hash, r, s []byte) ([]byte, error) {
	rs := append(padTo32(r), padTo32(s)...)
	for _, v := range []byte{0, 1} {
		signature := append(append([]byte{}, rs...), v)
		recovered, err := crypto.Ecrecover(hash, signature)
		if err != nil {
			return nil, fmt.Errorf("recovery with ID %d failed: %w", v, err)
		}
		if bytes.Equal(recovered, expectedPublicKey) {
			return signature, nil
		}
	}
	return nil, fmt.Errorf("cannot reconstruct public key from signature")
}

func padTo32(buffer []byte) []byte {
	buffer = bytes.TrimLeft(buffer, "\x00")
	return common.LeftPadBytes(buffer, 32)
}
