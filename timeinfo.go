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

package crispect

import "time"

// TimeInfo carries a container's creation and start timestamps, converted
// from the runtime's nanosecond epoch values into UTC.
//
// StartTime is nil for containers that have not (yet) been started: the CRI
// ContainerStatus message documents a zero started_at as "not started", so
// the sentinel never leaks as an epoch-zero timestamp.
type TimeInfo struct {
	CreateTime time.Time  // always set whenever TimeInfo is present.
	StartTime  *time.Time // nil while the container has not been started.
}
