// Copyright 2020 Qizhou Guo
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

// Package utils holds small cross-cutting helpers shared by the
// orchestrator package and the fastcopy command.
package utils

import (
	"math/rand"
	"os"
	"strconv"
)

// Exists checks whether a path exists.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// NewClientName returns a lease-holder identity unique to this process.
// Kept on math/rand, matching the "FastCopy" + uniformRandomInt scheme the
// original client uses: two orchestrators running in the same process must
// not collide on a fixed name.
func NewClientName() string {
	return "FastCopy" + strconv.Itoa(rand.Int())
}
