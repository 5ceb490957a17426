package cmd

import (
	"github.com/orderpulse/notify-service/config"
	httpsrv "github.com/orderpulse/notify-service/infra/server/http"
	"github.com/orderpulse/notify-service/internal/domain/registry"
	amqpdi "github.com/orderpulse/notify-service/internal/handler/amqp"
	wshandler "github.com/orderpulse/notify-service/internal/handler/ws"
	"github.com/orderpulse/notify-service/internal/service"
	"go.uber.org/fx"
)

func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
			ProvideLogger,
			ProvideWatermillLogger,
		),
		service.Module,
		registry.Module,
		wshandler.Module,
		httpsrv.Module,
		amqpdi.Module,
	)
}
