package app

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dangerclosesec/orgtodo/internal/config"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestOrganizationCache(t *testing.T) {
	cfg := &config.Config{}

	cfg.Notify.Backend = config.NotifyMemory
	local := organizationCache(cfg, nil)
	if assert.NotNil(t, local) {
		local.Close()
	}

	cfg.Notify.Backend = config.NotifyPostgres
	assert.Nil(t, organizationCache(cfg, nil), "instances without a shared cache read through")

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	assert.NotNil(t, organizationCache(cfg, client))
}
