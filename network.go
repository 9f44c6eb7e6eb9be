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

import "fmt"

// Network holds the transmit/receive counters of a single network interface
// of a container's pod sandbox. Only "eth*" interfaces are reported, so
// loopback and bridge interfaces never show up here.
type Network struct {
	Name     string // interface name, such as "eth0".
	RxBytes  uint64 // cumulative bytes received.
	RxErrors uint64 // cumulative receive errors.
	TxBytes  uint64 // cumulative bytes transmitted.
	TxErrors uint64 // cumulative transmit errors.
}

// String renders a short textual representation of the interface counters.
func (n Network) String() string {
	return fmt.Sprintf("interface %s rx %d/%d tx %d/%d",
		n.Name, n.RxBytes, n.RxErrors, n.TxBytes, n.TxErrors)
}
