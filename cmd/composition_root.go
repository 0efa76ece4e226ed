package cmd

import (
	"crypto/rsa"
	"log/slog"
	"time"

	httpin "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/redisbus"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/application/usecases/subscriptions"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/jobs"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CompositionRoot wires adapters into use case handlers. Handlers are
// cheap value types, so each Create call builds a fresh one.
type CompositionRoot struct {
	config     Config
	gormDB     *gorm.DB
	uowFactory postgres.GormUnitOfWorkFactory
	publisher  *redisbus.Publisher
	privateKey *rsa.PrivateKey
	clock      commands.Clock
	logger     *slog.Logger
}

// NewCompositionRoot creates the application's object graph root.
func NewCompositionRoot(
	config Config,
	gormDB *gorm.DB,
	redisClient redis.UniversalClient,
	privateKey *rsa.PrivateKey,
	logger *slog.Logger,
) CompositionRoot {
	return CompositionRoot{
		config:     config,
		gormDB:     gormDB,
		uowFactory: *postgres.NewGormUnitOfWorkFactory(gormDB),
		publisher:  redisbus.NewPublisher(redisClient),
		privateKey: privateKey,
		clock:      time.Now,
		logger:     logger,
	}
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) courierUoWFactory() commands.CourierUoWFactory {
	return FuncCourierUoWFactory(func() commands.CourierUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) dispatchUoWFactory() commands.DispatchUoWFactory {
	return FuncDispatchUoWFactory(func() commands.DispatchUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.orderUoWFactory(), c.clock)
}

func (c *CompositionRoot) CreateCreateCourierCommandHandler() commands.CreateCourierCommandHandler {
	return commands.NewCreateCourierCommandHandler(c.courierUoWFactory(), c.clock)
}

func (c *CompositionRoot) CreateDispatchOrderCommandHandler() commands.DispatchOrderCommandHandler {
	return commands.NewDispatchOrderCommandHandler(
		c.dispatchUoWFactory(),
		services.NewCandidateSelector(),
		c.publisher,
		c.config.OfferTTL,
		c.config.MaxOfferRounds,
		c.clock,
		c.logger,
	)
}

func (c *CompositionRoot) CreateResolveOfferCommandHandler() commands.ResolveOfferCommandHandler {
	return commands.NewResolveOfferCommandHandler(c.dispatchUoWFactory(), c.publisher, c.clock, c.logger)
}

func (c *CompositionRoot) CreateTransitionOrderCommandHandler() commands.TransitionOrderCommandHandler {
	return commands.NewTransitionOrderCommandHandler(
		c.dispatchUoWFactory(), c.publisher, c.privateKey, c.clock, c.logger)
}

func (c *CompositionRoot) CreateReportLocationCommandHandler() commands.ReportLocationCommandHandler {
	return commands.NewReportLocationCommandHandler(c.courierUoWFactory(), c.publisher, c.logger)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetFleetQueryHandler() queries.GetFleetQueryHandler {
	return queries.NewGetFleetQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetActiveOrdersQueryHandler() queries.GetActiveOrdersQueryHandler {
	return queries.NewGetActiveOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateSubscribeQueryHandler() subscriptions.SubscribeQueryHandler {
	return subscriptions.NewSubscribeQueryHandler(c.gormDB, services.NewTopicRouter())
}

// CreateHTTPServer assembles the API surface.
func (c *CompositionRoot) CreateHTTPServer() *httpin.Server {
	return httpin.NewServer(
		c.CreateCreateOrderCommandHandler(),
		c.CreateCreateCourierCommandHandler(),
		c.CreateResolveOfferCommandHandler(),
		c.CreateTransitionOrderCommandHandler(),
		c.CreateReportLocationCommandHandler(),
		c.CreateGetOrderQueryHandler(),
		c.CreateGetFleetQueryHandler(),
		c.CreateGetActiveOrdersQueryHandler(),
		c.CreateSubscribeQueryHandler(),
	)
}

// CreateJobManager assembles the background job set.
func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		c.orderUoWFactory(),
		c.dispatchUoWFactory(),
		c.CreateDispatchOrderCommandHandler(),
		c.CreateResolveOfferCommandHandler(),
		c.clock,
		c.logger,
	)
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncCourierUoWFactory func() commands.CourierUoW

func (f FuncCourierUoWFactory) Create() commands.CourierUoW {
	return f()
}

type FuncDispatchUoWFactory func() commands.DispatchUoW

func (f FuncDispatchUoWFactory) Create() commands.DispatchUoW {
	return f()
}
