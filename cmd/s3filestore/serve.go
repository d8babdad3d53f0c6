package main

import (
	"context"
	"time"

	"github.com/bignyap/s3filestore/gateway"
	logapi "github.com/bignyap/s3filestore/logger/api"
	"github.com/bignyap/s3filestore/otel/initialize"
	"github.com/bignyap/s3filestore/otel/middleware"
	"github.com/bignyap/s3filestore/server"
	"github.com/bignyap/s3filestore/storage/factory"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			srvCfg, err := server.LoadConfig()
			if err != nil {
				return err
			}
			if port != "" {
				srvCfg.Port = port
			}
			if srvCfg.Version == "dev" {
				srvCfg.Version = version
			}

			provider, err := initialize.InitializeTelemetryFromEnv(serviceName)
			if err != nil {
				return err
			}

			var storeOpts []factory.Option
			serverOpts := []server.HTTPServerOption{server.WithLogger(a.log)}
			if provider != nil {
				storeOpts = append(storeOpts, factory.WithTelemetry(provider))
				serverOpts = append(serverOpts,
					server.WithRouterMiddleware(
						middleware.OtelMiddleware(serviceName, provider),
						middleware.MetricsMiddleware(provider),
					),
					server.WithShutdownFunc(func() {
						shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
						defer cancel()
						if err := initialize.ShutdownTelemetry(shutdownCtx, provider); err != nil {
							a.log.Error(shutdownCtx, "Telemetry shutdown failed", err)
						}
					}),
				)
			}

			files, closeFiles, err := a.provider(ctx, storeOpts...)
			if err != nil {
				return err
			}

			if _, err := files.Store().EnsureBucket(ctx, a.storage.BucketName); err != nil {
				closeFiles()
				return err
			}
			a.log.Info(ctx, "Object store ready",
				logapi.String("type", a.storage.Type),
				logapi.String("bucket", a.storage.BucketName),
				logapi.Bool("presign", a.storage.Presigns()),
				logapi.Bool("filesystem_fallback", a.storage.FilesystemFallback))

			serverOpts = append(serverOpts,
				server.WithHandler(gateway.New(files, a.log)),
				server.WithShutdownFunc(closeFiles),
			)
			return server.NewHTTPServer(srvCfg, serverOpts...).Start()
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}
