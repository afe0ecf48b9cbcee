// Copyright 2026 The optimade-go Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package filter

import "fmt"

// UnsupportedError reports a filter construct that is grammatically valid
// but that this adapter (or the selected dialect) does not implement. The
// API layer maps it to 501 Not Implemented.
type UnsupportedError struct {
	// Construct names the offending operator or grammar production, e.g.
	// "HAS ONLY" or "property zip".
	Construct string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s is not supported", e.Construct)
}

// unsupported is shorthand for returning an *UnsupportedError.
func unsupported(format string, args ...interface{}) error {
	return &UnsupportedError{Construct: fmt.Sprintf(format, args...)}
}
