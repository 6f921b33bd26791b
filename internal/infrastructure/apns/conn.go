package apns

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"

	"github.com/go-apns-push/internal/config"
	"golang.org/x/crypto/pkcs12"
)

// Gateway endpoints for the binary protocol.
const (
	ProductionGateway = "gateway.push.apple.com:2195"
	SandboxGateway    = "gateway.sandbox.push.apple.com:2195"
)

// TLSDialer opens authenticated TLS sessions to the push gateway. One
// connection serves one delivery batch; connections are never shared across
// concurrent batches.
type TLSDialer struct {
	addr      string
	tlsConfig *tls.Config
}

// NewDialer loads the client certificate from the configured PKCS#12 bundle
// and prepares a dialer for the production or sandbox gateway. It fails fast
// so bad credentials surface at startup, not mid-batch.
func NewDialer(cfg *config.Config) (*TLSDialer, error) {
	p12, err := os.ReadFile(cfg.CertificatePath)
	if err != nil {
		return nil, fmt.Errorf("read gateway certificate: %w", err)
	}
	key, cert, err := pkcs12.Decode(p12, cfg.CertificatePassword)
	if err != nil {
		return nil, fmt.Errorf("decode gateway certificate bundle: %w", err)
	}

	addr := ProductionGateway
	if cfg.GatewaySandbox {
		addr = SandboxGateway
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("split gateway address: %w", err)
	}

	return &TLSDialer{
		addr: addr,
		tlsConfig: &tls.Config{
			Certificates: []tls.Certificate{{
				Certificate: [][]byte{cert.Raw},
				PrivateKey:  key,
				Leaf:        cert,
			}},
			ServerName: host,
		},
	}, nil
}

// DialContext opens one TLS connection to the gateway and completes the
// handshake before returning. The caller owns the connection and must close it.
func (d *TLSDialer) DialContext(ctx context.Context) (net.Conn, error) {
	var nd net.Dialer
	raw, err := nd.DialContext(ctx, "tcp", d.addr)
	if err != nil {
		return nil, fmt.Errorf("dial gateway %s: %w", d.addr, err)
	}
	conn := tls.Client(raw, d.tlsConfig)
	if err := conn.HandshakeContext(ctx); err != nil {
		raw.Close()
		return nil, fmt.Errorf("gateway TLS handshake: %w", err)
	}
	return conn, nil
}
