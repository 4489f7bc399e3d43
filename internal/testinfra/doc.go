// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

// Package testinfra provides container-backed test infrastructure for
// integration tests. Build with -tags integration to use it.
package testinfra
