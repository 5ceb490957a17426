package service

import "go.uber.org/fx"

var Module = fx.Module("service",
	fx.Provide(
		NewDeliveryService,
		func(s *DeliveryService) Deliverer { return s },
	),
)
