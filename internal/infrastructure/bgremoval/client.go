package bgremoval

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gallery-api/config"
)

const (
	maxSourceBytes = 10 << 20
	maxResultBytes = 32 << 20
)

var (
	ErrTooLarge       = errors.New("payload too large")
	ErrBlockedAddress = errors.New("destination address is not allowed")
)

// carrier-grade NAT, not covered by netip's IsPrivate
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// Client talks to the background-removal inference endpoint and downloads
// source images for it.
type Client struct {
	logger   *zap.Logger
	http     *http.Client
	fetch    *http.Client
	endpoint string
}

func New(logger *zap.Logger, cfg config.BgRemoval) *Client {
	return &Client{
		logger:   logger,
		http:     &http.Client{Timeout: cfg.Timeout},
		fetch:    newPublicClient(cfg.Timeout),
		endpoint: cfg.URL,
	}
}

// newPublicClient dials public unicast addresses only. The check runs on the
// resolved address of every connection, redirects included.
func newPublicClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: 10 * time.Second, Control: refuseInternal}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.Proxy = nil
	tr.DialContext = dialer.DialContext

	return &http.Client{Timeout: timeout, Transport: tr}
}

func refuseInternal(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return err
	}
	ip = ip.Unmap()

	if !ip.IsGlobalUnicast() || ip.IsPrivate() || sharedAddressSpace.Contains(ip) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, ip)
	}
	return nil
}

// Fetch downloads the image at rawURL from a public host.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return nil, fmt.Errorf("fetch source image: unsupported scheme %q", req.URL.Scheme)
	}

	resp, err := c.fetch.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch source image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch source image: unexpected status %d", resp.StatusCode)
	}

	return readLimited(resp.Body, maxSourceBytes)
}

// RemoveBackground posts img as the multipart field "image" and returns the
// processed image body.
func (c *Client) RemoveBackground(ctx context.Context, filename string, img []byte) ([]byte, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return nil, err
	}
	if _, err = part.Write(img); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("background removal request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("background removal failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", msg),
		)
		return nil, fmt.Errorf("background removal: unexpected status %d", resp.StatusCode)
	}

	return readLimited(resp.Body, maxResultBytes)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, ErrTooLarge
	}
	return b, nil
}
