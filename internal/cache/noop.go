// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"time"
)

// NoopCache never stores anything. Every Get is a miss.
type NoopCache struct{}

// NewNoopCache returns a disabled cache.
func NewNoopCache() *NoopCache { return &NoopCache{} }

func (NoopCache) Get(context.Context, string) ([]byte, error) { return nil, ErrCacheMiss }

func (NoopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NoopCache) Delete(context.Context, string) error { return nil }

func (NoopCache) DeleteByPrefix(context.Context, string) error { return nil }

func (NoopCache) Clear(context.Context) error { return nil }

func (NoopCache) Close() error { return nil }

var _ Cacher = (*NoopCache)(nil)
