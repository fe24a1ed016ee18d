package http

import (
	"context"
	"fmt"
	"net"

	utls "github.com/refraction-networking/utls"
)

var tlsProfiles = map[string]utls.ClientHelloID{
	"chrome":  utls.HelloChrome_Auto,
	"firefox": utls.HelloFirefox_Auto,
	"edge":    utls.HelloEdge_Auto,
}

// DialFunc matches http.Transport.DialTLSContext
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// NewFingerprintDialer returns a TLS dialer that sends the ClientHello of
// the named browser. ALPN is pinned to http/1.1 because the transport
// using this dialer does not speak HTTP/2 over custom connections.
func NewFingerprintDialer(browser string, dialer *net.Dialer) (DialFunc, error) {
	hello, ok := tlsProfiles[browser]
	if !ok {
		return nil, fmt.Errorf("unknown TLS fingerprint %q", browser)
	}

	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}

		spec, err := utls.UTLSIdToSpec(hello)
		if err != nil {
			return nil, fmt.Errorf("failed to build ClientHello spec: %w", err)
		}
		for _, ext := range spec.Extensions {
			if alpn, ok := ext.(*utls.ALPNExtension); ok {
				alpn.AlpnProtocols = []string{"http/1.1"}
			}
		}

		raw, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		conn := utls.UClient(raw, &utls.Config{ServerName: host}, utls.HelloCustom)
		if err := conn.ApplyPreset(&spec); err != nil {
			raw.Close()
			return nil, fmt.Errorf("failed to apply ClientHello preset: %w", err)
		}
		if err := conn.HandshakeContext(ctx); err != nil {
			raw.Close()
			return nil, fmt.Errorf("TLS handshake with %s failed: %w", host, err)
		}

		return conn, nil
	}, nil
}
