// File: internal/replay/dialer.go
// Description: uTLS dialer for the replay transport. The dialer
// performs the TLS handshake with a ClientHello parroting the stored
// browser fingerprint, optionally tunnelling through an HTTP CONNECT
// proxy first.

package replay

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"

	utls "github.com/refraction-networking/utls"
)

// helloIDFor picks the uTLS parrot for a replay config. TLS 1.3
// configs use the rolling Chrome parrot (GREASE and shuffled
// extensions included); downgraded TLS 1.2 configs use the last Chrome
// release whose hello advertised 1.2 as its maximum.
func helloIDFor(minVersion string, downgraded bool) utls.ClientHelloID {
	if downgraded || minVersion == "1.2" {
		return utls.HelloChrome_58
	}
	return utls.HelloChrome_Auto
}

// utlsDialer returns a DialTLSContext-compatible function for
// golang.org/x/net/http2.Transport. proxyURL may be nil for a direct
// connection.
func utlsDialer(helloID utls.ClientHelloID, proxyURL *url.URL) func(ctx context.Context, network, addr string, tlsCfg *tls.Config) (net.Conn, error) {
	return func(ctx context.Context, network, addr string, tlsCfg *tls.Config) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("replay dialer: parse addr %q: %w", addr, err)
		}
		sni := host
		if tlsCfg != nil && tlsCfg.ServerName != "" {
			sni = tlsCfg.ServerName
		}

		rawConn, err := dialRaw(ctx, network, addr, proxyURL)
		if err != nil {
			return nil, err
		}

		uCfg := &utls.Config{
			ServerName:         sni,
			InsecureSkipVerify: tlsCfg != nil && tlsCfg.InsecureSkipVerify, // #nosec G402 -- caller-controlled
		}

		uConn := utls.UClient(rawConn, uCfg, helloID)
		if err := uConn.HandshakeContext(ctx); err != nil {
			_ = uConn.Close()
			return nil, fmt.Errorf("replay dialer: TLS handshake with %s: %w", addr, err)
		}
		return uConn, nil
	}
}

// dialRaw opens the underlying TCP connection, going through an HTTP
// CONNECT tunnel when a proxy is configured.
func dialRaw(ctx context.Context, network, addr string, proxyURL *url.URL) (net.Conn, error) {
	var d net.Dialer
	if proxyURL == nil {
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, fmt.Errorf("replay dialer: dial %s: %w", addr, err)
		}
		return conn, nil
	}

	conn, err := d.DialContext(ctx, network, proxyURL.Host)
	if err != nil {
		return nil, fmt.Errorf("replay dialer: dial proxy %s: %w", proxyURL.Host, err)
	}

	req := &http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Opaque: addr},
		Host:   addr,
		Header: make(http.Header),
	}
	if u := proxyURL.User; u != nil {
		password, _ := u.Password()
		req.SetBasicAuth(u.Username(), password)
		req.Header.Set("Proxy-Authorization", req.Header.Get("Authorization"))
		req.Header.Del("Authorization")
	}

	if err := req.Write(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("replay dialer: write CONNECT: %w", err)
	}
	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("replay dialer: read CONNECT response: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_ = conn.Close()
		return nil, fmt.Errorf("replay dialer: proxy refused CONNECT: %s", resp.Status)
	}
	return conn, nil
}
