// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package feed

import "errors"

// ErrInvalidWeightOverride marks a malformed caller-supplied weight
// override. It is the only failure surfaced to the caller: the input is
// correctable, unlike collaborator failures which degrade internally.
var ErrInvalidWeightOverride = errors.New("invalid weight override")
