package flair

import (
	"crypto/sha1"
	"encoding/binary"
	"regexp"
	"strconv"
	"strings"
)

var friendCodeExactRe = regexp.MustCompile(`^` + friendCodePattern + `$`)

// maxFriendCode is the largest value a 3DS friend code can encode: a 32-bit
// principal id plus a 7-bit checksum.
const maxFriendCode = 0x7FFFFFFFFF

// Validator decides whether a friend code is well formed. With checksum
// enabled it also applies the console's principal id checksum.
type Validator struct {
	checksum bool
}

func NewValidator(checksum bool) *Validator {
	return &Validator{checksum: checksum}
}

func (v *Validator) IsValid(fc string) bool {
	if !friendCodeExactRe.MatchString(fc) {
		return false
	}
	if !v.checksum {
		return true
	}
	return checksumMatches(fc)
}

func checksumMatches(fc string) bool {
	n, err := strconv.ParseUint(strings.ReplaceAll(fc, "-", ""), 10, 64)
	if err != nil || n > maxFriendCode {
		return false
	}
	var principal [4]byte
	binary.LittleEndian.PutUint32(principal[:], uint32(n&0xFFFFFFFF))
	sum := sha1.Sum(principal[:])
	return uint64(sum[0]>>1) == n>>32
}
