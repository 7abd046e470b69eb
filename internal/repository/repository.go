// Package repository 提供数据访问层：PostgreSQL 实现与基于快照的内存实现
package repository

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DB 数据库接口
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxDB 支持事务的数据库
type TxDB interface {
	DB
	Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// whereBuilder 拼接带位置参数的查询条件
type whereBuilder struct {
	conditions []string
	args       []any
}

func (w *whereBuilder) add(condition string, arg any) {
	w.args = append(w.args, arg)
	w.conditions = append(w.conditions, replaceArg(condition, len(w.args)))
}

func (w *whereBuilder) addRaw(condition string) {
	w.conditions = append(w.conditions, condition)
}

// replaceArg 把条件中的 ? 替换为 $n
func replaceArg(condition string, n int) string {
	return strings.ReplaceAll(condition, "?", "$"+strconv.Itoa(n))
}

func (w *whereBuilder) clause() string {
	if len(w.conditions) == 0 {
		return "TRUE"
	}
	return strings.Join(w.conditions, " AND ")
}

// uuidArray 将 UUID 列表转为 PostgreSQL 数组参数
func uuidArray(ids []uuid.UUID) any {
	values := make([]string, len(ids))
	for i, id := range ids {
		values[i] = id.String()
	}
	return pq.Array(values)
}
