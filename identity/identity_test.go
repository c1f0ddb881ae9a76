// Copyright 2024 The SoC Monitor authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package identity

import (
	"testing"
)

func fuseImage(p0, p1, variant byte) []byte {
	buf := make([]byte, FuseLength)
	buf[2] = p0
	buf[3] = p1
	buf[6] = variant
	return buf
}

func TestFused(t *testing.T) {
	for _, test := range []struct {
		name  string
		fuses []byte
		want  ID
	}{
		{
			name:  "RK322XH",
			fuses: fuseImage(0x23, 0x82, 8),
			want:  RK322XH,
		}, {
			name:  "RK322XH with upper variant bits set",
			fuses: fuseImage(0x23, 0x82, 0xe8),
			want:  RK322XH,
		}, {
			name:  "RK3328",
			fuses: fuseImage(0x33, 0x82, 1),
			want:  RK3328,
		}, {
			name:  "RK3328 wrong variant",
			fuses: fuseImage(0x33, 0x82, 8),
			want:  Unknown,
		}, {
			name:  "RK2382H",
			fuses: fuseImage(0x32, 0x28, 8),
			want:  Root,
		}, {
			name:  "RK2382H wrong variant",
			fuses: fuseImage(0x32, 0x28, 1),
			want:  Unknown,
		}, {
			name:  "blank",
			fuses: make([]byte, FuseLength),
			want:  Root,
		}, {
			name:  "other part",
			fuses: fuseImage(0x33, 0x99, 1),
			want:  Unknown,
		}, {
			name:  "truncated",
			fuses: []byte{0, 0, 0x23, 0x82},
			want:  Unknown,
		}, {
			name:  "truncated blank",
			fuses: []byte{0xff, 0xff, 0, 0},
			want:  Root,
		}, {
			name:  "truncated part number",
			fuses: []byte{0, 0, 0},
			want:  Unknown,
		}, {
			name:  "empty",
			want:  Unknown,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			if got := Fused(test.fuses); got != test.want {
				t.Fatalf("Fused(%x) = %v, want %v", test.fuses, got, test.want)
			}
		})
	}
}

func TestFusedRK322XHVariants(t *testing.T) {
	for v := 0; v < 256; v++ {
		want := Unknown
		if v&0x1f == 8 {
			want = RK322XH
		}

		if got := Fused(fuseImage(0x23, 0x82, byte(v))); got != want {
			t.Errorf("variant %#x: got %v, want %v", v, got, want)
		}
	}
}

func TestFusedBlankIgnoresOtherBytes(t *testing.T) {
	for i := 0; i < FuseLength; i++ {
		if i == 2 || i == 3 {
			continue
		}

		buf := make([]byte, FuseLength)
		buf[i] = 0xff

		if got := Fused(buf); got != Root {
			t.Errorf("byte %d set: got %v, want %v", i, got, Root)
		}
	}
}

func TestClaim(t *testing.T) {
	for _, test := range []struct {
		val  uint32
		want ID
	}{
		{val: 0x2cc117ff, want: RK322XH},
		{val: 0x2a2ab17a, want: RK3328},
		{val: 0, want: Root},
		{val: 0x2cc117fe, want: Unknown},
		{val: 0xffffffff, want: Unknown},
		{val: 0x3328, want: Unknown},
	} {
		if got := Claim(test.val); got != test.want {
			t.Errorf("Claim(%#x) = %v, want %v", test.val, got, test.want)
		}
	}
}

type fakeClaim struct {
	val     uint32
	gated   bool
	readErr bool
}

func (f *fakeClaim) UngateClaim() func() {
	prev := f.gated
	f.gated = false
	return func() { f.gated = prev }
}

func (f *fakeClaim) ReadClaim() uint32 {
	if f.gated {
		f.readErr = true
		return 0xdeadbeef
	}
	return f.val
}

func TestRead(t *testing.T) {
	src := &fakeClaim{val: ClaimRK3328, gated: true}

	if got, want := Read(src), RK3328; got != want {
		t.Fatalf("Read() = %v, want %v", got, want)
	}

	if src.readErr {
		t.Fatal("claim register read with bus clock gated")
	}

	if !src.gated {
		t.Fatal("bus clock gating not restored")
	}
}

func TestString(t *testing.T) {
	for id, want := range map[ID]string{
		RK322XH: "RK322XH",
		RK3328:  "RK3328",
		Unknown: "unknown",
		Root:    "root",
		ID(7):   "ID(0x7)",
	} {
		if got := id.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
