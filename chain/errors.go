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

package chain

import "errors"

var (
	ErrInvalidOp     = errors.New("invalid op")
	ErrUnknownOpType = errors.New("unknown op type")
	// ErrPersist means the op was applied in memory but could not be
	// written. The chain halts and state is rebuilt from the op log on the
	// next start.
	ErrPersist = errors.New("failed to persist op")
	// ErrHalted is returned for every op after a persist failure
	ErrHalted = errors.New("chain halted")
	ErrReplay = errors.New("op log replay failed")
)
