// Package api 提供流水线状态的 HTTP 接口
package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/LENAX/saucer/pkg/api/handler"
	"github.com/LENAX/saucer/pkg/core/events"
	"github.com/LENAX/saucer/pkg/core/task"
	"github.com/LENAX/saucer/pkg/storage"
	"github.com/gin-gonic/gin"
)

// ServerConfig API服务器配置
type ServerConfig struct {
	Host         string        // 监听地址
	Port         int           // 监听端口
	ReadTimeout  time.Duration // 读取超时
	WriteTimeout time.Duration // 写入超时，WebSocket 连接不受影响
}

// DefaultServerConfig 默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:        "0.0.0.0",
		Port:        8080,
		ReadTimeout: 30 * time.Second,
	}
}

// APIServer HTTP API服务器
type APIServer struct {
	runner  handler.Runner
	history storage.RunRepository
	bus     *events.Bus
	config  ServerConfig
	version string

	stream  *handler.EventStream
	handler http.Handler

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
}

// NewAPIServer 创建API服务器；bus 非nil时通过 /api/v1/events 推送进度事件
func NewAPIServer(runner handler.Runner, history storage.RunRepository, bus *events.Bus, config ServerConfig, version string) *APIServer {
	return &APIServer{
		runner:  runner,
		history: history,
		bus:     bus,
		config:  config,
		version: version,
	}
}

// Handler 构建路由，并把事件流订阅到总线
// 只构建一次；总线 Start 之前调用才能收到全部事件
func (s *APIServer) Handler() (http.Handler, error) {
	if s.handler != nil {
		return s.handler, nil
	}
	gin.SetMode(gin.ReleaseMode)

	if s.bus != nil {
		s.stream = handler.NewEventStream()
		if err := s.bus.Subscribe("websocket", s.stream.Broadcast, task.AllEventKinds()...); err != nil {
			return nil, fmt.Errorf("订阅事件总线失败: %w", err)
		}
	}

	s.handler = SetupRouter(RouterDeps{
		Runner:  s.runner,
		History: s.history,
		Stream:  s.stream,
		Version: s.version,
	})
	return s.handler, nil
}

// Start 监听配置的地址并阻塞服务，Shutdown 后返回 nil
func (s *APIServer) Start() error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", s.Addr(), err)
	}
	return s.Serve(ln)
}

// Serve 在已有 listener 上服务，阻塞直到关闭
func (s *APIServer) Serve(ln net.Listener) error {
	h, err := s.Handler()
	if err != nil {
		ln.Close()
		return err
	}

	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		ln.Close()
		return errors.New("server already started")
	}
	s.srv = &http.Server{
		Handler:      h,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.listener = ln
	srv := s.srv
	s.mu.Unlock()

	log.Printf("🚀 [API] listening on %s", ln.Addr())
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

// Shutdown 关闭事件流连接，再等待进行中的请求完成
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	if s.stream != nil {
		s.stream.Close()
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Println("🛑 [API] stopped")
	return nil
}

// Addr 监听中返回实际地址，否则返回配置的地址
func (s *APIServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}
