// Copyright (C) 2025 ZedCloud Org.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package random

import (
	"io"
	"math/rand/v2"
	"sync"
)

// INSECURE seed used for deterministic result in test.
var seed [32]byte

func init() {
	copy(seed[:], "INSECURE")
}

type lockedReader struct {
	mu sync.Mutex
	r  io.Reader
}

func (l *lockedReader) Read(b []byte) (n int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Read(b)
}

var InsecureReader io.Reader = &lockedReader{r: rand.NewChaCha8(seed)}

var (
	insecureMu  sync.Mutex
	insecureSrc = rand.New(rand.NewChaCha8(seed))
)
