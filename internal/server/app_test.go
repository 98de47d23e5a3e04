package server

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/bucketstore/internal/server/config"
	"github.com/stretchr/testify/require"
)

func TestNewApp_BadDSN(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDSN = "this is not a dsn"
	cfg.StorageRoot = t.TempDir()

	app, err := NewApp(context.Background(), cfg)
	require.Error(t, err)
	require.Nil(t, app)
}
