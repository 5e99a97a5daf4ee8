// Copyright 2025 Poiesic Systems
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


package stagecache

import "errors"

var (
	// ErrInvalidHash indicates a cache key that is not a lowercase hex digest.
	ErrInvalidHash = errors.New("invalid cache hash")
	// ErrNilDocument indicates a Set call with a nil record.
	ErrNilDocument = errors.New("nil document data")
)
