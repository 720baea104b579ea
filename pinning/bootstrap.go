package pinning

import (
	"context"
	"errors"
	"fmt"
)

// Bootstrap performs one unpinned handshake with host:port and returns the
// fingerprint of the presented leaf. The observed key is trusted as-is
// (trust on first use); only the standard chain validation of trust applies.
func Bootstrap(ctx context.Context, host, port string, trust *StandardTrustStore) (string, error) {
	if trust == nil {
		trust = NewStandardTrustStore()
	}

	conn, err := trust.Establish(ctx, host, port)
	if err != nil {
		return "", fmt.Errorf("bootstrap %s: %w", host, err)
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return "", fmt.Errorf("bootstrap %s: %w", host, errors.New("no peer certificate"))
	}

	fp, err := Fingerprint(certs[0].Raw)
	if err != nil {
		return "", fmt.Errorf("bootstrap %s: %w", host, err)
	}
	return fp, nil
}
