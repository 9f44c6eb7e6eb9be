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

import (
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// newTestContainer returns a fake container snapshot with the specified name
// and running state, as well as a random ID string.
func newTestContainer(name string, running bool) (*Container, string) {
	o := make([]byte, 32) // length of fake SHA256 in "octets" :p
	_, err := crand.Read(o)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	id := hex.EncodeToString(o)
	return &Container{
		Runtime: "containerd",
		ID:      id,
		Name:    "k8s_" + name + "_mypod_default_123-456_0",
		Running: running,
	}, id
}

var _ = Describe("container snapshots", func() {

	It("stringifies", func() {
		c, id := newTestContainer("gnocchi_gnome", true)
		Expect(c.String()).To(Equal(fmt.Sprintf(
			"running container 'k8s_gnocchi_gnome_mypod_default_123-456_0'/%s on containerd", id)))

		c, id = newTestContainer("gnocchi_gnome", false)
		Expect(c.String()).To(MatchRegexp(`^stopped container .*/%s on containerd$`, id))
	})

	It("stringifies network interface counters", func() {
		n := Network{Name: "eth0", RxBytes: 1, RxErrors: 2, TxBytes: 3, TxErrors: 4}
		Expect(n.String()).To(Equal("interface eth0 rx 1/2 tx 3/4"))
	})

	It("keeps the not-yet-started sentinel distinguishable", func() {
		ti := TimeInfo{CreateTime: time.Unix(0, 1234567890).UTC()}
		Expect(ti.StartTime).To(BeNil())
	})

})
