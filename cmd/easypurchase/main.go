package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/bazimogmbh/easypurchase/internal/attribution"
	"github.com/bazimogmbh/easypurchase/internal/catalog"
	"github.com/bazimogmbh/easypurchase/internal/clock"
	"github.com/bazimogmbh/easypurchase/internal/config"
	"github.com/bazimogmbh/easypurchase/internal/entitlement"
	"github.com/bazimogmbh/easypurchase/internal/finalizer"
	"github.com/bazimogmbh/easypurchase/internal/observability"
	"github.com/bazimogmbh/easypurchase/internal/providers"
	"github.com/bazimogmbh/easypurchase/internal/purchase"
	"github.com/bazimogmbh/easypurchase/internal/receipt"
	"github.com/bazimogmbh/easypurchase/internal/restore"
	"github.com/bazimogmbh/easypurchase/internal/server"
	"github.com/bazimogmbh/easypurchase/pkg/kv"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		clock.Module,
		kv.Module,
		fx.Provide(RegisterSnowflake),

		// External collaborators
		providers.Module,

		// Functional domains
		entitlement.Module,
		catalog.Module,
		receipt.Module,
		purchase.Module,
		restore.Module,
		finalizer.Module,
		attribution.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
