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

// Package identity classifies the SoC identity established by one-time
// programmable fuses and the identity claimed by earlier boot stages through
// a shared register.
package identity

import (
	"fmt"
)

// ID represents a SoC identity.
type ID uint32

const (
	RK322XH ID = 0x3228F
	RK3328  ID = 0x3328
	// Unknown identifies parts, or claims, which cannot be trusted.
	Unknown ID = 0xEEEE
	// Root identifies blank (generic) parts or an unset claim.
	Root ID = 0xFFFF
)

func (id ID) String() string {
	switch id {
	case RK322XH:
		return "RK322XH"
	case RK3328:
		return "RK3328"
	case Unknown:
		return "unknown"
	case Root:
		return "root"
	}

	return fmt.Sprintf("ID(%#x)", uint32(id))
}

// Fuse image layout
const (
	// FuseWords is the number of 32-bit fuse words classified by Fused.
	FuseWords  = 8
	FuseLength = FuseWords * 4

	partOffset    = 2
	variantOffset = 6
	variantMask   = 0x1f
)

// Fused returns the identity encoded in a fuse image, the part number is
// matched against bytes 2-3 and the variant against the lower 5 bits of
// byte 6.
func Fused(fuses []byte) ID {
	if len(fuses) < partOffset+2 {
		return Unknown
	}

	part := [2]byte{fuses[partOffset], fuses[partOffset+1]}

	// blank fuses, whatever the remaining bytes
	if part == [2]byte{0x00, 0x00} {
		return Root
	}

	if len(fuses) <= variantOffset {
		return Unknown
	}

	variant := fuses[variantOffset] & variantMask

	switch part {
	case [2]byte{0x23, 0x82}:
		// H variant
		if variant == 8 {
			return RK322XH
		}
	case [2]byte{0x33, 0x82}:
		// A variant
		if variant == 1 {
			return RK3328
		}
	case [2]byte{0x32, 0x28}:
		// RK2382H parts are sold as RK322XH
		if variant == 8 {
			return Root
		}
	}

	return Unknown
}

// Claim register values
const (
	ClaimMask    = 0xffffffff
	ClaimRK322XH = 0x2cc117ff
	ClaimRK3328  = 0x2a2ab17a
	ClaimRoot    = 0x00000000
)

// Claim returns the identity encoded in a claim register value.
func Claim(val uint32) ID {
	switch val & ClaimMask {
	case ClaimRK322XH:
		return RK322XH
	case ClaimRK3328:
		return RK3328
	case ClaimRoot:
		return Root
	}

	return Unknown
}

// ClaimSource represents the shared register written by earlier boot stages
// to claim a SoC identity. The register can be rewritten at any time by
// software outside our control, therefore every read must be treated as
// untrusted.
type ClaimSource interface {
	// UngateClaim enables the bus clock required to access the claim
	// register, the returned function restores the previous gating.
	UngateClaim() (restore func())
	// ReadClaim returns the claim register value, its bus clock must be
	// ungated.
	ReadClaim() uint32
}

// Read returns the identity currently claimed by src.
func Read(src ClaimSource) ID {
	restore := src.UngateClaim()
	defer restore()

	return Claim(src.ReadClaim())
}
