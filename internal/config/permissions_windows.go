// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

//go:build windows

package config

// WarnInsecurePermissions is a no-op on Windows, where POSIX permission
// bits do not apply. ACL-based checks are not implemented.
func WarnInsecurePermissions(_ string) {}
