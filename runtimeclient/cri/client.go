// Copyright 2024 The crispect authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cri

import (
	"context"
	"time"

	"github.com/containerd/containerd/pkg/dialer"
	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// ErrUnsupported indicates that a daemon answered on its socket, but rejects
// all CRI API generations this client speaks.
var ErrUnsupported = errors.New("runtime supports neither CRI v1 nor v1alpha2")

// PathResolver maps a runtime's advertised socket path into a path dialable
// from this process, when the process runs in a different mount namespace
// than the daemon.
type PathResolver func(socketpath string) (string, error)

// Client is a CRI runtime service API client bound to exactly one live gRPC
// session and one negotiated CRI API generation. Unfortunately, at this time
// of writing there isn't a generally reusable CRI client available, despite
// crictl and k8s itself, so we need to roll our own.
type Client struct {
	conn       *grpc.ClientConn
	api        runtimeAPI // generation-specific stub adaptor, fixed at negotiation.
	rpcTimeout time.Duration

	runtimeName    string
	runtimeVersion string
	apiVersion     string
}

type clientOpts struct {
	timeout     time.Duration
	rpcTimeout  time.Duration
	dialOptions []grpc.DialOption
	resolver    PathResolver
}

// ClientOpt is an option passed to the creation of a CRI client.
type ClientOpt func(c *clientOpts) error

// WithTimeout sets the connection timeout for the CRI client.
func WithTimeout(d time.Duration) ClientOpt {
	return func(c *clientOpts) error {
		c.timeout = d
		return nil
	}
}

// WithRPCTimeout bounds every individual RPC issued by the client, so that
// an unresponsive daemon cannot stall a probe or an aggregate query
// indefinitely. A tighter deadline on the caller's context still wins.
func WithRPCTimeout(d time.Duration) ClientOpt {
	return func(c *clientOpts) error {
		c.rpcTimeout = d
		return nil
	}
}

// WithDialOpts allows grpc.DialOptions to be set on the CRI client
// connection.
func WithDialOpts(opts []grpc.DialOption) ClientOpt {
	return func(c *clientOpts) error {
		c.dialOptions = opts
		return nil
	}
}

// WithPathResolver sets the resolver mapping runtime socket paths into the
// caller's view of the filesystem before dialing.
func WithPathResolver(resolver PathResolver) ClientOpt {
	return func(c *clientOpts) error {
		c.resolver = resolver
		return nil
	}
}

// WithHostRoot resolves runtime socket paths inside the specified host root
// mount (such as "/proc/1/root" or a "/host" bind mount), with symbolic
// links confined to that root.
func WithHostRoot(root string) ClientOpt {
	return func(c *clientOpts) error {
		c.resolver = func(socketpath string) (string, error) {
			return securejoin.SecureJoin(root, socketpath)
		}
		return nil
	}
}

// New returns a new CRI API client connected to the CRI service instance
// provided by address, with the API generation already negotiated: the
// newer v1 generation is tried first and v1alpha2 is the fallback whenever
// the daemon rejects the v1 message schema. Negotiation doubles as the
// liveness check, as it issues a Version RPC on the candidate generation.
func New(ctx context.Context, address string, opts ...ClientOpt) (*Client, error) {
	var clopts clientOpts
	for _, opt := range opts {
		if err := opt(&clopts); err != nil {
			return nil, err
		}
	}
	if clopts.timeout == 0 {
		clopts.timeout = 10 * time.Second
	}
	if clopts.rpcTimeout == 0 {
		clopts.rpcTimeout = 30 * time.Second
	}

	backoffConfig := backoff.DefaultConfig
	backoffConfig.MaxDelay = 3 * time.Second
	connParams := grpc.ConnectParams{
		Backoff: backoffConfig,
	}
	gopts := []grpc.DialOption{
		grpc.WithBlock(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.FailOnNonTempDialError(true),
		grpc.WithConnectParams(connParams),
		grpc.WithContextDialer(dialer.ContextDialer),
	}
	if len(clopts.dialOptions) > 0 {
		gopts = clopts.dialOptions
	}
	connector := func() (*grpc.ClientConn, error) {
		dctx, cancel := context.WithTimeout(ctx, clopts.timeout)
		defer cancel()
		conn, err := grpc.DialContext(dctx, dialer.DialAddress(address), gopts...)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to dial %q", address)
		}
		return conn, nil
	}
	conn, err := connector()
	if err != nil {
		return nil, err
	}

	cl := &Client{
		conn:       conn,
		rpcTimeout: clopts.rpcTimeout,
	}
	for _, api := range []runtimeAPI{newV1API(conn), newV1Alpha2API(conn)} {
		vctx, cancel := context.WithTimeout(ctx, clopts.rpcTimeout)
		version, err := api.version(vctx)
		cancel()
		if err != nil {
			if generationRejected(err) {
				continue // daemon speaks gRPC, just not this generation.
			}
			_ = conn.Close()
			return nil, errors.Wrapf(err, "CRI version check failed for %q", address)
		}
		cl.api = api
		cl.runtimeName = version.runtimeName
		cl.runtimeVersion = version.runtimeVersion
		cl.apiVersion = version.apiVersion
		return cl, nil
	}
	_ = conn.Close()
	return nil, errors.Wrapf(ErrUnsupported, "CRI version check failed for %q", address)
}

// generationRejected tells whether the daemon understood the transport but
// rejects the message schema of the attempted API generation.
func generationRejected(err error) bool {
	switch status.Code(err) {
	case codes.Unimplemented, codes.NotFound:
		return true
	}
	return false
}

// Close closes the underlying connection, if any.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// RuntimeName returns the runtime name reported by the daemon's Version
// RPC, such as "containerd" or "cri-o".
func (c *Client) RuntimeName() string { return c.runtimeName }

// RuntimeVersion returns the runtime version reported by the daemon.
func (c *Client) RuntimeVersion() string { return c.runtimeVersion }

// APIVersion returns the runtime API version reported by the daemon.
func (c *Client) APIVersion() string { return c.apiVersion }

// Generation returns the negotiated CRI API generation; it never changes
// over the lifetime of this client.
func (c *Client) Generation() Generation { return c.api.generation() }

// Address returns the API endpoint address the connection points to.
func (c *Client) Address() string { return c.conn.Target() }

// callContext bounds the specified context with the client's per-RPC
// deadline; any tighter deadline already present wins.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.rpcTimeout)
}
