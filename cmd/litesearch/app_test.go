package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/health"
)

func TestDemoApp(t *testing.T) {
	a, err := newApp(config.Default(), true, nil)
	require.NoError(t, err)
	defer a.Close()
	ctx := context.Background()
	assert.False(t, a.sharedCache, "the default memory cache lives only as long as the process")

	res, err := a.router.Search(ctx, "headphones", 10)
	require.NoError(t, err)
	assert.Equal(t, "lite", res.Backend)
	assert.Subset(t, res.IDs, []int64{101, 102})

	result := a.engine.ForceRebuild(ctx)
	require.True(t, result.Success, result.Message)
	inStock := 0
	for _, p := range demoProducts() {
		if !p.Draft && p.Stock.InStock() {
			inStock++
		}
	}
	assert.Equal(t, inStock, result.Stats.IndexedCount, "bounded presets index published in-stock products only")

	report := a.health.Run(ctx)
	assert.Equal(t, health.StatusUp, report.Status)
	assert.Contains(t, report.Components, "lite_index")
}

func TestNewAppRejectsUnknownMode(t *testing.T) {
	cfg := config.Default()
	cfg.Router.Mode = "quantum"
	_, err := newApp(cfg, true, nil)
	assert.Error(t, err)
}
