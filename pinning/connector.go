package pinning

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

const defaultDialTimeout = 10 * time.Second

// Connector establishes TLS sessions. StandardTrustStore and PinnedPublicKey
// are the two variants.
type Connector interface {
	// Establish dials host:port and completes the handshake. The returned
	// connection has passed every check the connector enforces.
	Establish(ctx context.Context, host, port string) (*tls.Conn, error)
	// ClientConfig is the TLS configuration for transports that perform the
	// handshake themselves, such as HTTPS through a CONNECT proxy.
	ClientConfig() *tls.Config
}

// Policy maps hosts to their pinned fingerprints.
type Policy struct {
	pins map[string]string
}

// NewPolicy returns an empty policy.
func NewPolicy() *Policy {
	return &Policy{pins: make(map[string]string)}
}

// Pin records the expected fingerprint for host. The fingerprint is normalized
// first and rejected if malformed.
func (p *Policy) Pin(host, fingerprint string) error {
	fp, err := NormalizeFingerprint(fingerprint)
	if err != nil {
		return err
	}
	p.pins[canonicalHost(host)] = fp
	return nil
}

// Lookup returns the pin for host, if any.
func (p *Policy) Lookup(host string) (string, bool) {
	if p == nil {
		return "", false
	}
	fp, ok := p.pins[canonicalHost(host)]
	return fp, ok
}

// Len returns the number of pinned hosts.
func (p *Policy) Len() int {
	if p == nil {
		return 0
	}
	return len(p.pins)
}

func canonicalHost(host string) string {
	return strings.TrimSuffix(strings.ToLower(host), ".")
}

// StandardTrustStore validates peers against the system roots, or RootCAs
// when set.
type StandardTrustStore struct {
	RootCAs     *x509.CertPool
	DialTimeout time.Duration
}

// NewStandardTrustStore returns a connector using the system trust store.
func NewStandardTrustStore() *StandardTrustStore {
	return &StandardTrustStore{}
}

func (s *StandardTrustStore) ClientConfig() *tls.Config {
	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		RootCAs:    s.RootCAs,
	}
}

func (s *StandardTrustStore) Establish(ctx context.Context, host, port string) (*tls.Conn, error) {
	conn, err := dialTLS(ctx, s.ClientConfig(), s.DialTimeout, host, port)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailure, err)
	}
	return conn, nil
}

// PinnedPublicKey performs standard validation and then checks the peer's
// leaf public key against the policy. Hosts without a pin are only subject to
// standard validation.
type PinnedPublicKey struct {
	trust  *StandardTrustStore
	policy *Policy
}

// NewPinnedPublicKey builds a pinning connector on top of trust.
func NewPinnedPublicKey(trust *StandardTrustStore, policy *Policy) *PinnedPublicKey {
	if trust == nil {
		trust = NewStandardTrustStore()
	}
	if policy == nil {
		policy = NewPolicy()
	}
	return &PinnedPublicKey{trust: trust, policy: policy}
}

// Policy returns the pins enforced by the connector.
func (p *PinnedPublicKey) Policy() *Policy {
	return p.policy
}

func (p *PinnedPublicKey) ClientConfig() *tls.Config {
	cfg := p.trust.ClientConfig()
	cfg.VerifyConnection = p.verifyConnection
	return cfg
}

func (p *PinnedPublicKey) Establish(ctx context.Context, host, port string) (*tls.Conn, error) {
	conn, err := dialTLS(ctx, p.ClientConfig(), p.trust.DialTimeout, host, port)
	if err != nil {
		if errors.Is(err, ErrFingerprintMismatch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailure, err)
	}
	return conn, nil
}

// verifyConnection runs once the handshake has completed and before any
// application data is exchanged. Returning an error aborts the handshake.
func (p *PinnedPublicKey) verifyConnection(cs tls.ConnectionState) error {
	expected, ok := p.policy.Lookup(cs.ServerName)
	if !ok {
		return nil
	}
	if len(cs.PeerCertificates) == 0 {
		return &MismatchError{Host: cs.ServerName, Expected: expected, Err: errors.New("no peer certificate")}
	}

	if err := Verify(cs.PeerCertificates[0].Raw, expected); err != nil {
		var mismatch *MismatchError
		if errors.As(err, &mismatch) {
			mismatch.Host = cs.ServerName
		}
		return err
	}
	return nil
}

// DialTLSContext adapts a connector to http.Transport.DialTLSContext.
func DialTLSContext(c Connector) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, _, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConnectionFailure, err)
		}
		return c.Establish(ctx, host, port)
	}
}

func dialTLS(ctx context.Context, cfg *tls.Config, timeout time.Duration, host, port string) (*tls.Conn, error) {
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	cfg.ServerName = host

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		Config:    cfg,
	}

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, err
	}
	return conn.(*tls.Conn), nil
}
