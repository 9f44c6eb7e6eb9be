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

package mockcri

import (
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"
	runtimev1 "k8s.io/cri-api/pkg/apis/runtime/v1"
	runtimev1alpha2 "k8s.io/cri-api/pkg/apis/runtime/v1alpha2"
)

// MockedContainer is our very, very limited knowledge about a mocked
// container; it just stores the minimum of information needed to serve the
// CRI list, status and stats RPCs under test.
type MockedContainer struct {
	ID           string            // unique identifier of container.
	PodSandboxID string            // sandbox the container runs in.
	Name         string            // CRI metadata name.
	Running      bool              // reported container state.
	CreatedAt    int64             // nanosecond epoch.
	StartedAt    int64             // nanosecond epoch; 0 == not started.
	PID          int               // surfaced via the verbose "info" JSON payload.
	Labels       map[string]string // container labels.
	Annotations  map[string]string // container annotations.

	// Elusive containers appear in listings but answer NOT_FOUND on status
	// queries, faking the inherent race between enumeration and detail
	// fetch.
	Elusive bool
}

// MockedInterface holds fake counters for one sandbox network interface.
type MockedInterface struct {
	Name     string
	RxBytes  uint64
	RxErrors uint64
	TxBytes  uint64
	TxErrors uint64
}

// Server is a mock CRI runtime daemon.
type Server struct {
	runtimeName string
	v1          bool
	v1alpha2    bool

	mux        sync.RWMutex
	containers []MockedContainer            // mocked containers, in insertion order.
	stats      map[string][]MockedInterface // sandbox interfaces by sandbox ID.

	srv *grpc.Server
	lis net.Listener
}

// Opt is an option passed to the creation of a mock CRI server.
type Opt func(*Server)

// WithV1 serves (only) the v1 API generation.
func WithV1() Opt {
	return func(s *Server) { s.v1 = true }
}

// WithV1Alpha2 serves (only) the v1alpha2 API generation.
func WithV1Alpha2() Opt {
	return func(s *Server) { s.v1alpha2 = true }
}

// New returns a new mock CRI server reporting the specified runtime name.
// Unless restricted via WithV1 or WithV1Alpha2, both API generations are
// served.
func New(runtimeName string, opts ...Opt) *Server {
	s := &Server{
		runtimeName: runtimeName,
		stats:       map[string][]MockedInterface{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.v1 && !s.v1alpha2 {
		s.v1 = true
		s.v1alpha2 = true
	}
	return s
}

// Listen starts serving the mock CRI API on a unix socket at the specified
// path.
func (s *Server) Listen(socketpath string) error {
	lis, err := net.Listen("unix", socketpath)
	if err != nil {
		return err
	}
	s.lis = lis
	s.srv = grpc.NewServer()
	if s.v1 {
		runtimev1.RegisterRuntimeServiceServer(s.srv, &serviceV1{s: s})
	}
	if s.v1alpha2 {
		runtimev1alpha2.RegisterRuntimeServiceServer(s.srv, &serviceV1Alpha2{s: s})
	}
	go func() { _ = s.srv.Serve(lis) }()
	return nil
}

// Stop stops the mock CRI server, closing its listening socket.
func (s *Server) Stop() {
	if s.srv != nil {
		s.srv.Stop()
	}
}

// AddContainer adds a mocked container; listing order is insertion order.
func (s *Server) AddContainer(c MockedContainer) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.containers = append(s.containers, c)
}

// RemoveContainer removes the mocked container with the specified ID.
func (s *Server) RemoveContainer(id string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	for idx, c := range s.containers {
		if c.ID == id {
			s.containers = append(s.containers[:idx], s.containers[idx+1:]...)
			return
		}
	}
}

// SetSandboxInterfaces injects the fake network interface counters reported
// for the specified pod sandbox.
func (s *Server) SetSandboxInterfaces(podSandboxID string, ifaces ...MockedInterface) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.stats[podSandboxID] = ifaces
}

// list returns a snapshot of the mocked containers.
func (s *Server) list() []MockedContainer {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return append([]MockedContainer(nil), s.containers...)
}

// lookup returns the non-elusive mocked container with the specified ID.
func (s *Server) lookup(id string) (MockedContainer, bool) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	for _, c := range s.containers {
		if c.ID == id && !c.Elusive {
			return c, true
		}
	}
	return MockedContainer{}, false
}

// sandboxStats returns the injected interface counters for the specified
// pod sandbox.
func (s *Server) sandboxStats(podSandboxID string) ([]MockedInterface, bool) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	ifaces, ok := s.stats[podSandboxID]
	return ifaces, ok
}

// verboseInfo renders the runtime-specific extra info payload of a verbose
// container status response, with the PID buried in JSON, just like the
// real engines do.
func verboseInfo(c MockedContainer) map[string]string {
	return map[string]string{
		"info": fmt.Sprintf(`{"pid":%d,"sandboxID":%q}`, c.PID, c.PodSandboxID),
	}
}
