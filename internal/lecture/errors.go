/*
 * This file is part of Skool4Free (https://github.com/Rolandjg/skool4free).
 * Copyright (C) 2025 Skool4Free
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package lecture

import (
	"errors"
	"fmt"
)

var (
	// ErrDeckEmpty is returned when a document renders to zero slides.
	ErrDeckEmpty = errors.New("deck contains no slides")

	// ErrNoSession is returned when an operation needs an active lecture
	// and none has been started.
	ErrNoSession = errors.New("no active lecture session")

	// ErrNoActiveSlide is returned when audio is requested before the
	// first slide has been revealed or after the lecture completed.
	ErrNoActiveSlide = errors.New("no active slide")
)

func errSlideOutOfRange(index, total int) error {
	return fmt.Errorf("slide index %d out of range [0, %d)", index, total)
}
