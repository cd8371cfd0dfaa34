// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/nacos"
	"bazaar/internal/pkg/tracing"
)

// AppCtx 在注册路由时交给各服务，携带通用的运行时依赖。
type AppCtx struct {
	Mux    *http.ServeMux
	Config *Config
}

// AppInfo 描述一个服务进程的启动参数。
type AppInfo struct {
	ServiceName string
	Config      *Config
	// RegisterHandlers 由服务自己注册独有的 HTTP 路由。
	RegisterHandlers func(appCtx AppCtx)
	// OnShutdown 在关停流程中执行，晚注册的先执行。
	OnShutdown []func(ctx context.Context)
}

// StartService 封装服务进程的通用启动与优雅关停：
// 追踪初始化、Nacos 注册、HTTP 监听，退出时按后进先出清理。
func StartService(info AppInfo) {
	cfg := info.Config
	logger.Init(info.ServiceName)

	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Jaeger.Endpoint)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	var registry *nacos.Client
	ip := ""
	if cfg.Nacos.Enabled {
		registry, err = nacos.NewClient(cfg.Nacos.Addrs, cfg.Nacos.Namespace, cfg.Nacos.Group)
		if err != nil {
			logger.Logger().Fatal().Err(err).Msg("failed to initialize nacos client")
		}
		ip, err = outboundIP()
		if err != nil {
			logger.Logger().Fatal().Err(err).Msg("failed to resolve outbound IP")
		}
		if err := registry.Register(info.ServiceName, ip, cfg.Service.Port); err != nil {
			logger.Logger().Fatal().Err(err).Msg("failed to register service")
		}
	}

	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux, Config: cfg})
	}
	server := &http.Server{Addr: ":" + strconv.Itoa(cfg.Service.Port), Handler: mux}
	go func() {
		logger.Logger().Info().Msgf("%s listening on %s", info.ServiceName, server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger().Fatal().Err(err).Msgf("could not listen on %s", server.Addr)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Logger().Info().Msgf("Shutting down service %s...", info.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 清理按后进先出执行：先摘流量，再冲刷追踪数据，最后关服务器。
	if registry != nil {
		if err := registry.Deregister(info.ServiceName, ip, cfg.Service.Port); err != nil {
			logger.Logger().Error().Err(err).Msg("error deregistering from nacos")
		}
	}
	for i := len(info.OnShutdown) - 1; i >= 0; i-- {
		info.OnShutdown[i](ctx)
	}
	if err := tp.Shutdown(ctx); err != nil {
		logger.Logger().Error().Err(err).Msg("error shutting down tracer provider")
	}
	if err := server.Shutdown(ctx); err != nil {
		logger.Logger().Error().Err(err).Msg("error shutting down http server")
	}

	logger.Logger().Info().Msgf("Service %s gracefully shut down", info.ServiceName)
}

// outboundIP 通过一次不真正发包的 UDP 连接探测本机对外地址。
func outboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
