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

package runtimeclient

import (
	"fmt"
	"strings"
)

// CRIUnavailableError indicates that not a single container runtime answered
// at any of the probed socket paths, so there is nothing to aggregate over.
type CRIUnavailableError struct {
	Endpoints []string // the socket paths that were probed, in probe order.
}

// Error returns a description naming all probed socket paths.
func (e *CRIUnavailableError) Error() string {
	return fmt.Sprintf("CRI is not available at any of [%s]",
		strings.Join(e.Endpoints, ", "))
}

// ContainerNotFoundError indicates that none of the held runtime clients
// knows a container with the requested ID.
type ContainerNotFoundError struct {
	ID string // the container ID that was looked up.
}

// Error returns a description naming the requested container ID.
func (e *ContainerNotFoundError) Error() string {
	return fmt.Sprintf("container %q not found on any runtime", e.ID)
}
