/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"errors"

	"sitebuilder/internal/domain"
)

// ErrNoGateway is returned by persistence calls on a session without a gateway.
var ErrNoGateway = errors.New("no persistence gateway configured")

// Gateway persists designs. Implementations must not retain the values passed to them beyond the call.
type Gateway interface {
	// LoadDesign returns the stored design; ok is false when none has been saved yet.
	LoadDesign(ctx context.Context) (d domain.Design, ok bool, err error)
	SaveDesign(ctx context.Context, d domain.Design) error
	// PublishDesign receives elements only; history is never published.
	PublishDesign(ctx context.Context, elements []domain.Element) error
}
