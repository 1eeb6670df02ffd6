// Package catalog 是商品数据的来源：SQLite 存储、带 TTL 的详情缓存、用户画像，
// 以及把它们组装成排序 Pipeline 的 Engine。
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
)

// SQLiteRepository 用 SQLite 保存商品（listings 表）。
// 排序链路只读；Upsert 只给种子数据命令使用。
type SQLiteRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenSQLite 打开数据库并建表。":memory:" 每次打开一个独立命名的单连接内存库。
func OpenSQLite(dsn string) (*SQLiteRepository, error) {
	connStr := dsn
	if dsn == ":memory:" {
		connStr = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if dsn != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	r := &SQLiteRepository{db: db}
	if err := r.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return r, nil
}

func (r *SQLiteRepository) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS listings (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price REAL NOT NULL DEFAULT 0,
		images TEXT NOT NULL DEFAULT '[]',
		tags TEXT NOT NULL DEFAULT '[]',
		color TEXT NOT NULL DEFAULT '',
		material TEXT NOT NULL DEFAULT '',
		style TEXT NOT NULL DEFAULT '',
		gender TEXT NOT NULL DEFAULT '',
		size TEXT NOT NULL DEFAULT '',
		condition TEXT NOT NULL DEFAULT '',
		brand TEXT NOT NULL DEFAULT '',
		seller_id TEXT NOT NULL DEFAULT '',
		is_boosted INTEGER NOT NULL DEFAULT 0,
		boost_weight REAL NOT NULL DEFAULT 0,
		likes INTEGER NOT NULL DEFAULT 0,
		views INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_listings_category ON listings(category);
	CREATE INDEX IF NOT EXISTS idx_listings_created ON listings(created_at DESC);
	`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close 关闭数据库连接。
func (r *SQLiteRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.Close()
}

const listingColumns = `id, category, title, description, price, images, tags, color, material, style,
	gender, size, condition, brand, seller_id, is_boosted, boost_weight, likes, views, created_at`

// Query 返回满足筛选条件的商品，按 ID 升序。
// 类目、性别、成色、价格在 SQL 中过滤；尺码、查询词、卖家排除由 filter.AttributeFilter 处理。
func (r *SQLiteRepository) Query(ctx context.Context, f core.Filters) ([]*core.Item, error) {
	var (
		where []string
		args  []any
	)
	if c := strings.TrimSpace(f.Category); c != "" {
		where = append(where, "lower(category) = lower(?)")
		args = append(args, c)
	}
	if g := strings.TrimSpace(f.Gender); g != "" {
		where = append(where, "(gender = '' OR lower(gender) = 'unisex' OR lower(gender) = lower(?))")
		args = append(args, g)
	}
	if c := strings.TrimSpace(f.Condition); c != "" {
		where = append(where, "lower(condition) = lower(?)")
		args = append(args, c)
	}
	if f.MinPrice != nil {
		where = append(where, "price >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		where = append(where, "price <= ?")
		args = append(args, *f.MaxPrice)
	}

	q := "SELECT " + listingColumns + " FROM listings"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id"

	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// Get 按 ID 读取单个商品，不存在时返回 NOT_FOUND。
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*core.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row := r.db.QueryRowContext(ctx, "SELECT "+listingColumns+" FROM listings WHERE id = ?", id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotFound, fmt.Sprintf("listing %q not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("get listing %s: %w", id, err)
	}
	return it, nil
}

// BatchGet 批量读取，不存在的 ID 不出现在结果中。
func (r *SQLiteRepository) BatchGet(ctx context.Context, ids []string) (map[string]*core.Item, error) {
	out := make(map[string]*core.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.QueryContext(ctx, "SELECT "+listingColumns+" FROM listings WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("batch get listings: %w", err)
	}
	defer rows.Close()
	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

// Count 返回商品总数。
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM listings").Scan(&n)
	return n, err
}

// Upsert 写入或覆盖商品，返回写入条数。
func (r *SQLiteRepository) Upsert(ctx context.Context, items []*core.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO listings (`+listingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category = excluded.category, title = excluded.title, description = excluded.description,
			price = excluded.price, images = excluded.images, tags = excluded.tags,
			color = excluded.color, material = excluded.material, style = excluded.style,
			gender = excluded.gender, size = excluded.size, condition = excluded.condition,
			brand = excluded.brand, seller_id = excluded.seller_id, is_boosted = excluded.is_boosted,
			boost_weight = excluded.boost_weight, likes = excluded.likes, views = excluded.views,
			created_at = excluded.created_at
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, it := range items {
		if it == nil || strings.TrimSpace(it.ID) == "" {
			continue
		}
		images, err := json.Marshal(nonNil(it.Images))
		if err != nil {
			return 0, err
		}
		tags, err := json.Marshal(nonNil(it.Tags))
		if err != nil {
			return 0, err
		}
		weight := it.BoostWeight
		if weight < 0 {
			weight = 0
		}
		var created int64
		if !it.CreatedAt.IsZero() {
			created = it.CreatedAt.UnixMilli()
		}
		if _, err := stmt.ExecContext(ctx,
			it.ID, it.Category, it.Title, it.Description, it.Price, string(images), string(tags),
			it.Color, it.Material, it.Style, it.Gender, it.Size, it.Condition, it.Brand, it.SellerID,
			boolToInt(it.IsBoosted), weight, it.Likes, it.Views, created,
		); err != nil {
			return 0, fmt.Errorf("upsert listing %s: %w", it.ID, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*core.Item, error) {
	var (
		it            core.Item
		images, tags  string
		boosted       int
		createdMillis int64
	)
	if err := row.Scan(
		&it.ID, &it.Category, &it.Title, &it.Description, &it.Price, &images, &tags,
		&it.Color, &it.Material, &it.Style, &it.Gender, &it.Size, &it.Condition, &it.Brand, &it.SellerID,
		&boosted, &it.BoostWeight, &it.Likes, &it.Views, &createdMillis,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(images), &it.Images); err != nil {
		return nil, fmt.Errorf("decode images of %s: %w", it.ID, err)
	}
	if err := json.Unmarshal([]byte(tags), &it.Tags); err != nil {
		return nil, fmt.Errorf("decode tags of %s: %w", it.ID, err)
	}
	it.IsBoosted = boosted != 0
	if createdMillis > 0 {
		it.CreatedAt = time.UnixMilli(createdMillis).UTC()
	}
	return &it, nil
}

func scanItems(rows *sql.Rows) ([]*core.Item, error) {
	var out []*core.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
