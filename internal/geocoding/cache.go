package geocoding

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/paiban/homevisit/pkg/errors"
	"github.com/paiban/homevisit/pkg/logger"
	"github.com/paiban/homevisit/pkg/model"
	"github.com/paiban/homevisit/pkg/routing"

	_ "modernc.org/sqlite" // SQLite 驱动
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	address    TEXT PRIMARY KEY,
	lat        REAL NOT NULL,
	lng        REAL NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLiteCache 带本地 SQLite 缓存的解析器装饰
type SQLiteCache struct {
	db   *sql.DB
	next routing.Geocoder
	mu   sync.Mutex

	hits   int
	misses int
}

// OpenSQLiteCache 打开（必要时创建）缓存文件，未命中时委托 next 解析
func OpenSQLiteCache(path string, next routing.Geocoder) (*SQLiteCache, error) {
	if next == nil {
		return nil, errors.New("geocode cache: 缺少下游解析器")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("创建缓存目录失败: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("打开地理编码缓存失败: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		cacheSchema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("初始化地理编码缓存失败: %w", err)
		}
	}

	logger.Info().Str("path", path).Msg("地理编码缓存已打开")
	return &SQLiteCache{db: db, next: next}, nil
}

// Resolve 先查缓存，未命中再调用下游并写回
func (c *SQLiteCache) Resolve(ctx context.Context, address, locality string) (model.Coordinate, error) {
	key := Normalize(address, locality)
	if key == "" {
		return model.Coordinate{}, ErrEmptyAddress
	}

	var coord model.Coordinate
	err := c.db.QueryRowContext(ctx, `SELECT lat, lng FROM geocode_cache WHERE address = ?`, key).Scan(&coord.Lat, &coord.Lng)
	switch {
	case err == nil:
		c.count(true)
		return coord, nil
	case !errors.Is(err, sql.ErrNoRows):
		return model.Coordinate{}, fmt.Errorf("查询地理编码缓存失败: %w", err)
	}

	c.count(false)
	coord, err = c.next.Resolve(ctx, address, locality)
	if err != nil {
		return model.Coordinate{}, err
	}
	if !coord.Valid() {
		return model.Coordinate{}, apperrors.InvalidInput("coordinate", "解析结果越界 "+coord.String())
	}

	if _, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO geocode_cache (address, lat, lng) VALUES (?, ?, ?)`,
		key, coord.Lat, coord.Lng,
	); err != nil {
		// 写缓存失败不影响解析结果
		logger.Warn().Err(err).Str("address", key).Msg("写入地理编码缓存失败")
	}
	return coord, nil
}

// Stats 返回命中与未命中次数
func (c *SQLiteCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Close 关闭缓存
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func (c *SQLiteCache) count(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}
