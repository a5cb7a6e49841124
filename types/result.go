/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

// DeleteResult summarises a remove call.
type DeleteResult struct {
	DeletedCount int64        `json:"deletedCount" bson:"deletedCount"`
	Result       DeleteStatus `json:"result" bson:"result"`
}

// DeleteStatus carries the raw server counters.
type DeleteStatus struct {
	N  int64 `json:"n" bson:"n"`
	OK int   `json:"ok" bson:"ok"`
}

// NewDeleteResult builds the summary of an acknowledged delete of n documents.
func NewDeleteResult(n int64) *DeleteResult {
	return &DeleteResult{
		DeletedCount: n,
		Result:       DeleteStatus{N: n, OK: 1},
	}
}
