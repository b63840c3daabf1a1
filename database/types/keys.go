// Copyright 2026 Blink Labs Software
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

package types

import (
	"encoding/binary"
)

const (
	OpLogKeyPrefix  = "op"
	TipKey          = "tip"
	CommitMarkerKey = "commit_marker"
)

func Uint64ToBytes(input uint64) []byte {
	ret := make([]byte, 8)
	binary.BigEndian.PutUint64(ret, input)
	return ret
}

// BytesToUint64 decodes the output of Uint64ToBytes
func BytesToUint64(b []byte) (uint64, bool) {
	if len(b) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(b), true
}

// OpLogKey returns the key of an op log entry. Keys sort by sequence number.
func OpLogKey(seq uint64) []byte {
	key := []byte(OpLogKeyPrefix)
	return append(key, Uint64ToBytes(seq)...)
}

// OpLogSeq extracts the sequence number from an op log key
func OpLogSeq(key []byte) (uint64, bool) {
	if len(key) != len(OpLogKeyPrefix)+8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(key[len(OpLogKeyPrefix):]), true
}
