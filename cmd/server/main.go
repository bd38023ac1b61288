package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

// @title           bscar API
// @version         1.0
// @description     Classifieds marketplace: listings, favorites, chats, complaints, support and moderation.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	root := &cli.Command{
		Name:  "bscar",
		Usage: "Classifieds marketplace server and maintenance commands",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: ".", Usage: "directory holding the .env file"},
		},
		Commands: []*cli.Command{
			serveCommand(),
			initDBCommand(),
			initCategoriesCommand(),
			upgradeSchemaCommand(),
			createAdminCommand(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runServer(ctx, cmd.String("config-dir"))
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		logrus.Fatal(err)
	}
}
