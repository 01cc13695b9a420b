/*
 * This file is part of Skald (https://github.com/skaldaudio/skald).
 * Copyright (C) 2025 Skald Audio
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

package session

import "errors"

// Error is a boundary error carried back to the dispatcher with a
// machine-readable code. Boundary errors are reported synchronously and
// never leave side effects behind.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// CodeInvalidArguments marks a malformed or missing required argument
const CodeInvalidArguments = "INVALID_ARGUMENTS"

// ErrNotImplemented is the distinct outcome for unknown operation names.
// The dispatcher reports it as "not implemented" rather than as a
// failure.
var ErrNotImplemented = errors.New("not implemented")

func invalidArguments(msg string) *Error {
	return &Error{Code: CodeInvalidArguments, Message: msg}
}
