package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/tentens-tech/user-service/internal/delivery/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
