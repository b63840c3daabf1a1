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
	"database/sql/driver"
	"fmt"
	"math/big"
	"strconv"
)

// BigInt stores an arbitrary precision integer as decimal text, which keeps
// uint256 token amounts exact in sqlite
//
//nolint:recvcheck
type BigInt struct {
	*big.Int
}

// NewBigInt copies v. A nil v yields zero.
func NewBigInt(v *big.Int) BigInt {
	ret := BigInt{Int: new(big.Int)}
	if v != nil {
		ret.Set(v)
	}
	return ret
}

func (b BigInt) Value() (driver.Value, error) {
	if b.Int == nil {
		return "0", nil
	}
	return b.String(), nil
}

func (b *BigInt) Scan(val any) error {
	text, err := scanText(val)
	if err != nil {
		return err
	}
	tmp, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return fmt.Errorf("invalid integer text: %q", text)
	}
	b.Int = tmp
	return nil
}

// Uint64 stores a uint64 as decimal text, since sqlite integers are signed
//
//nolint:recvcheck
type Uint64 uint64

func (u Uint64) Value() (driver.Value, error) {
	return strconv.FormatUint(uint64(u), 10), nil
}

func (u *Uint64) Scan(val any) error {
	text, err := scanText(val)
	if err != nil {
		return err
	}
	tmp, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return err
	}
	*u = Uint64(tmp)
	return nil
}

func scanText(val any) (string, error) {
	switch v := val.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case int64:
		// Column affinity may have turned the text into an integer
		return strconv.FormatInt(v, 10), nil
	default:
		return "", fmt.Errorf("cannot scan %T into a decimal value", val)
	}
}
