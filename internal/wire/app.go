package wire

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/wacana/backend/internal/application/conversation"
	"github.com/wacana/backend/internal/application/stats"
	"github.com/wacana/backend/internal/domain/content"
	"github.com/wacana/backend/internal/domain/events"
	"github.com/wacana/backend/internal/infrastructure/cache"
	"github.com/wacana/backend/internal/infrastructure/config"
	applog "github.com/wacana/backend/internal/infrastructure/log"
	"github.com/wacana/backend/internal/infrastructure/vector"
	"github.com/wacana/backend/internal/interfaces"
)

// indexSyncTimeout 启动时索引同步的上限
const indexSyncTimeout = 10 * time.Minute

// App 应用主结构，组合所有服务
type App struct {
	HTTPServer *interfaces.HTTPServer
	history    *conversation.HistoryService
	recorder   *stats.Recorder
	eventBus   events.EventBus
	indexer    *vector.Indexer
	contents   content.Repository
	qdrantCfg  *config.QdrantConfig
	cache      *cache.Cache
	db         *sql.DB
	logger     *slog.Logger

	unsubscribe []func()
	serveErr    chan error
	cancelSync  context.CancelFunc
	syncWG      sync.WaitGroup
}

// NewApp 创建应用实例
func NewApp(
	httpServer *interfaces.HTTPServer,
	history *conversation.HistoryService,
	recorder *stats.Recorder,
	eventBus events.EventBus,
	indexer *vector.Indexer,
	contents content.Repository,
	qdrantCfg *config.QdrantConfig,
	redisCache *cache.Cache,
	db *sql.DB,
) *App {
	return &App{
		HTTPServer: httpServer,
		history:    history,
		recorder:   recorder,
		eventBus:   eventBus,
		indexer:    indexer,
		contents:   contents,
		qdrantCfg:  qdrantCfg,
		cache:      redisCache,
		db:         db,
		logger:     applog.NewModuleLogger("app", "main"),
		serveErr:   make(chan error, 1),
	}
}

// Start 启动所有服务
func (a *App) Start() error {
	a.logger.Info("Starting Wacana chatbot backend")

	// 注册事件订阅者
	a.setupEventSubscribers()

	// 向量索引准备（后台，不阻塞服务）
	a.startIndexSync()

	// 启动 HTTP 服务器（goroutine）
	go func() {
		if err := a.HTTPServer.Start(); err != nil {
			a.logger.Error("HTTP server stopped with error",
				"error", err,
			)
			a.serveErr <- err
		}
	}()

	a.logger.Info("Wacana chatbot backend started")
	return nil
}

// ServeErr HTTP 服务器异常退出时收到错误
func (a *App) ServeErr() <-chan error {
	return a.serveErr
}

// setupEventSubscribers 注册事件订阅者
func (a *App) setupEventSubscribers() {
	if a.eventBus == nil {
		return
	}

	// 指标写入
	if a.recorder != nil {
		a.unsubscribe = append(a.unsubscribe, a.eventBus.Subscribe(events.QueryCompleted, a.recorder))
		a.logger.Info("Metric recorder subscribed to query events")
	}

	// 访客历史合并
	if a.history != nil {
		a.unsubscribe = append(a.unsubscribe, a.eventBus.Subscribe(events.GuestIdentified, a.history))
		a.logger.Info("History service subscribed to guest identification events")
	}
}

// startIndexSync 后台确保集合存在，按配置重建全部内容向量
// Qdrant 或向量化服务不可用时只记录日志，检索降级为空上下文
func (a *App) startIndexSync() {
	if a.indexer == nil || a.contents == nil {
		return
	}
	full := a.qdrantCfg != nil && a.qdrantCfg.SyncOnStart

	ctx, cancel := context.WithTimeout(context.Background(), indexSyncTimeout)
	a.cancelSync = cancel
	a.syncWG.Add(1)
	go func() {
		defer a.syncWG.Done()
		defer cancel()

		if err := a.indexer.Sync(ctx, a.contents, full); err != nil {
			a.logger.Warn("Vector index sync incomplete",
				"full", full,
				"error", err,
			)
			return
		}
		a.logger.Info("Vector index ready", "full", full)
	}()
}

// Stop 停止所有服务
// HTTP 先停，随后排空事件总线，最后关闭存储
func (a *App) Stop() error {
	a.logger.Info("Stopping Wacana chatbot backend")

	var firstErr error
	if err := a.HTTPServer.Stop(); err != nil {
		a.logger.Error("Failed to stop HTTP server",
			"error", err,
		)
		firstErr = err
	}

	// 中止索引同步，等待其退出后再关闭存储
	if a.cancelSync != nil {
		a.cancelSync()
	}
	a.syncWG.Wait()

	// 关闭事件总线，等待后台写入完成
	if a.eventBus != nil {
		a.eventBus.Close()
		a.logger.Info("Event bus closed")
	}
	for _, unsub := range a.unsubscribe {
		unsub()
	}

	if err := a.cache.Close(); err != nil {
		a.logger.Error("Failed to close redis client",
			"error", err,
		)
	}

	// 关闭数据库连接
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Failed to close database connection",
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	a.logger.Info("Wacana chatbot backend stopped")
	return firstErr
}
