package remote

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/bitfsorg/hoard-go/codec"
	"github.com/bitfsorg/hoard-go/store"
)

// DefaultTimeout bounds dialing and each round trip.
const DefaultTimeout = 10 * time.Second

// Client is a store.Store backed by one store on a remote server. Every
// operation is a single blocking round trip with no retry. A broken
// connection is dropped and redialled on the next call.
type Client struct {
	endpoint Endpoint
	timeout  time.Duration
	logger   *slog.Logger
	codec    codec.Codec

	mu        sync.Mutex
	conn      net.Conn
	requestID uint64
}

var (
	_ store.Store = (*Client)(nil)
	_ store.Coded = (*Client)(nil)
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the dial and round-trip timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithClientLogger sets the client logger.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// Dial connects to host:port and checks that the server serves name.
// It fails with ErrRemoteStoreNotFound when it does not.
func Dial(name, host string, port uint16, opts ...ClientOption) (*Client, error) {
	c := &Client{
		endpoint: Endpoint{Store: name, Host: host, Port: port},
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	resp, err := c.call(CmdCheckExists, Request{Store: name})
	if err != nil {
		c.Close()
		return nil, err
	}
	if !resp.Found {
		c.Close()
		return nil, fmt.Errorf("%w: %s", ErrRemoteStoreNotFound, c.endpoint)
	}

	c.codec, err = codec.Get(resp.Codec)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.logger.Debug("connected to remote store", "endpoint", c.endpoint.String(), "codec", resp.Codec)
	return c, nil
}

// Endpoint returns the client's identity.
func (c *Client) Endpoint() Endpoint { return c.endpoint }

// Codec returns the codec reported by the server.
func (c *Client) Codec() codec.Codec { return c.codec }

// Close closes the connection. The client redials on its next call.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// LoadRaw fetches key from the remote store.
func (c *Client) LoadRaw(key string) ([]byte, error) {
	resp, err := c.call(CmdGetItem, Request{Store: c.endpoint.Store, Key: key})
	if err != nil {
		return nil, err
	}
	if resp.Value == nil {
		return []byte{}, nil
	}
	return resp.Value, nil
}

// StoreRaw writes key on the remote store.
func (c *Client) StoreRaw(key string, data []byte) error {
	_, err := c.call(CmdSetItem, Request{Store: c.endpoint.Store, Key: key, Value: data})
	return err
}

// Delete removes key from the remote store.
func (c *Client) Delete(key string) error {
	_, err := c.call(CmdDelItem, Request{Store: c.endpoint.Store, Key: key})
	return err
}

// Contains asks the remote store whether key is present.
func (c *Client) Contains(key string) (bool, error) {
	resp, err := c.call(CmdContains, Request{Store: c.endpoint.Store, Key: key})
	if err != nil {
		return false, err
	}
	return resp.Found, nil
}

// Keys fetches the full key list in one round trip when iteration starts.
func (c *Client) Keys() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := c.call(CmdListKeys, Request{Store: c.endpoint.Store})
		if err != nil {
			yield("", err)
			return
		}
		for _, k := range resp.Keys {
			if !yield(k, nil) {
				return
			}
		}
	}
}

func (c *Client) connectLocked() error {
	if c.conn != nil {
		return nil
	}
	conn, err := net.DialTimeout("tcp", c.endpoint.Addr(), c.timeout)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

func (c *Client) dropLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// call performs one round trip and maps error responses back onto the
// store error taxonomy.
func (c *Client) call(cmd uint8, req Request) (Response, error) {
	var resp Response

	payload, err := encodePayload(req)
	if err != nil {
		return resp, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connectLocked(); err != nil {
		return resp, fmt.Errorf("%w: connect %s: %w", store.ErrStorageFault, c.endpoint.Addr(), err)
	}

	reqID := c.requestID
	c.requestID++

	reqData, err := EncodeRequest(&RequestFrame{RequestID: reqID, Command: cmd, Payload: payload})
	if err != nil {
		return resp, err
	}

	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		c.dropLocked()
		return resp, fmt.Errorf("%w: %w", store.ErrStorageFault, err)
	}
	if err := writeLengthPrefixed(c.conn, reqData); err != nil {
		c.dropLocked()
		return resp, fmt.Errorf("%w: write: %w", store.ErrStorageFault, err)
	}
	respData, err := readLengthPrefixed(c.conn)
	if err != nil {
		c.dropLocked()
		return resp, fmt.Errorf("%w: read: %w", store.ErrStorageFault, err)
	}

	frame, err := DecodeResponse(respData)
	if err != nil {
		c.dropLocked()
		return resp, fmt.Errorf("%w: %w", store.ErrStorageFault, err)
	}
	if frame.RequestID != reqID {
		c.dropLocked()
		return resp, fmt.Errorf("%w: %w", store.ErrStorageFault, ErrRequestIDMismatch)
	}

	if len(frame.Payload) > 0 {
		if err := decodePayload(frame.Payload, &resp); err != nil {
			return resp, fmt.Errorf("%w: decode response: %w", store.ErrStorageFault, err)
		}
	}
	if frame.Status != StatusOK {
		if resp.Message == "" {
			return resp, errors.New("remote: server returned an error with no detail")
		}
		return resp, codeError(resp.Code, resp.Message)
	}
	return resp, nil
}
