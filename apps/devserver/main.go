// Command devserver serves the mock stores over the REST contract, for working on the portal without the real backend.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	echoapi "github.com/trezcool/masomo-portal/apps/devserver/echo"
	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
	logsvc "github.com/trezcool/masomo-portal/services/logger"
	"github.com/trezcool/masomo-portal/storage/local"
	mockstore "github.com/trezcool/masomo-portal/storage/mock"
)

const shutdownTimeout = 5 * time.Second

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		log.Fatal(err)
	}
	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "DEVSERVER : ", log.LstdFlags), conf)

	validator := core.NewValidator()
	user.RegisterValidators(validator)

	// the dev server never shares the portal's storage
	stores := mockstore.New(local.NewMemory(logger), conf, validator)

	server := echoapi.NewServer(&echoapi.Options{
		Address: conf.DevServer.Address,
		Debug:   conf.Debug,
		Stores:  stores,
		Logger:  logger,
	})

	errs := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("listening on %s", conf.DevServer.Address))
		errs <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err = <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(fmt.Sprintf("server error: %v", err), err)
		}
	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err = server.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}
