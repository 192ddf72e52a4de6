package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/kontur-authorization/internal/client/cli"
	"github.com/dmitrijs2005/kontur-authorization/internal/client/config"
	gs "github.com/dmitrijs2005/kontur-authorization/internal/server/grpc"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, args, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	conn, err := gs.Dial(cfg.ServerEndpointAddr)
	if err != nil {
		return err
	}
	defer conn.Close()

	app := cli.NewApp(cfg, gs.NewClient(conn), os.Stdout)
	return app.Run(context.Background(), args)
}
