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

	"github.com/containerd/log"
	"github.com/pkg/errors"
)

// Probe attempts to establish a working CRI session on the daemon socket at
// the specified path, negotiating the API generation (newest first, see
// New). The socket path is first mapped through the path resolver, if one
// was configured via WithPathResolver or WithHostRoot, as this client may
// run in a different mount namespace than the daemon.
//
// A daemon being absent, unreachable, or rejecting all known API
// generations is not an error at this layer: the probe then yields
// (nil, nil) and the path is simply skipped. Cancellation of the passed
// context still propagates.
func Probe(ctx context.Context, socketpath string, opts ...ClientOpt) (*RuntimeClient, error) {
	var clopts clientOpts
	for _, opt := range opts {
		if err := opt(&clopts); err != nil {
			return nil, err
		}
	}
	address := socketpath
	if clopts.resolver != nil {
		var err error
		address, err = clopts.resolver(socketpath)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot resolve runtime socket path %q", socketpath)
		}
	}
	client, err := New(ctx, address, opts...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.G(ctx).WithError(err).WithField("endpoint", socketpath).
			Debug("CRI endpoint probe failed")
		return nil, nil
	}
	log.G(ctx).WithField("endpoint", socketpath).
		WithField("runtime", client.RuntimeName()).
		WithField("generation", client.Generation()).
		Debug("CRI endpoint probed")
	return NewRuntimeClient(client), nil
}
