package di

import (
	"context"
	"log"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/session"
	"github.com/trezcool/masomo-portal/core/settings"
	"github.com/trezcool/masomo-portal/core/user"
	"github.com/trezcool/masomo-portal/services/detector"
	"github.com/trezcool/masomo-portal/services/factory"
	"github.com/trezcool/masomo-portal/services/httpclient"
	logsvc "github.com/trezcool/masomo-portal/services/logger"
	restsvc "github.com/trezcool/masomo-portal/services/rest"
	"github.com/trezcool/masomo-portal/storage/database"
	"github.com/trezcool/masomo-portal/storage/local"
	mockstore "github.com/trezcool/masomo-portal/storage/mock"
)

// Params are the application components, ready to use.
type Params struct {
	dig.In

	Conf     *core.Config
	Logger   core.Logger
	Storage  core.Storage
	Closer   Closer
	Messages *core.Messages
	Detector *detector.Detector
	Factory  *factory.Factory
	Session  *session.Store
	Settings *settings.Store
}

// Closer releases the resources held by the storage.
type Closer func()

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stderr, "PORTAL : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

// newStorage opens the storage selected by storage.driver.
func newStorage(conf *core.Config, logger core.Logger) (core.Storage, Closer, error) {
	switch conf.Storage.Driver {
	case "memory":
		return local.NewMemory(logger), func() {}, nil
	case "file":
		f, err := local.NewFile(conf, logger)
		if err != nil {
			return nil, nil, err
		}
		return f, func() {}, nil
	case "postgres":
		db, err := database.Open(context.Background(), conf)
		if err != nil {
			return nil, nil, err
		}
		closer := func() {
			if err := db.Close(); err != nil {
				logger.Error("closing database", err)
			}
		}
		return database.NewKVStore(db, conf, logger), closer, nil
	}
	return nil, nil, errors.Errorf("unknown storage driver %q", conf.Storage.Driver)
}

func newValidator() *core.Validator {
	v := core.NewValidator()
	user.RegisterValidators(v)
	return v
}

func newFactory(conf *core.Config, det *detector.Detector, rest *restsvc.Services, mock *mockstore.Stores, logger core.Logger) *factory.Factory {
	return factory.New(det, factory.RESTBackend(rest), factory.MockBackend(mock), conf, logger)
}

// newSessionStore authenticates through the factory and drops the session on any 401 seen by the client.
func newSessionStore(conf *core.Config, f *factory.Factory, storage core.Storage, client *httpclient.Client, logger core.Logger) *session.Store {
	return session.NewStore(f.Services(), storage, conf, logger, session.WithLogoutSignal(client.Unauthorized()))
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newStorage))
	must(c.Provide(newValidator))
	must(c.Provide(core.NewMessages))
	must(c.Provide(httpclient.New))
	must(c.Provide(detector.New))
	must(c.Provide(restsvc.New))
	must(c.Provide(mockstore.New))
	must(c.Provide(newFactory))
	must(c.Provide(newSessionStore))
	must(c.Provide(settings.NewStore))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
