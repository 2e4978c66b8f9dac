package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PGStore implements Service on PostgreSQL.
type PGStore struct {
	db *sql.DB
}

var _ Service = (*PGStore)(nil)

// NewPGStore wraps an open database handle.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const productColumns = `id, name, coalesce(description, ''), coalesce(brand, ''),
	price, stock, coalesce(category_id, 0), coalesce(image_url, ''), created_at`

func (s *PGStore) ListProducts(ctx context.Context, f Filter) ([]Product, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Query != "" {
		p := arg("%" + strings.ToLower(f.Query) + "%")
		conds = append(conds, fmt.Sprintf(
			"(lower(name) like %s or lower(coalesce(description,'')) like %s or lower(coalesce(brand,'')) like %s)", p, p, p))
	}
	if f.CategoryID != 0 {
		conds = append(conds, "category_id = "+arg(f.CategoryID))
	}
	if f.MinPrice > 0 {
		conds = append(conds, "price >= "+arg(f.MinPrice))
	}
	if f.MaxPrice > 0 {
		conds = append(conds, "price <= "+arg(f.MaxPrice))
	}

	query := `select ` + productColumns + ` from products`
	if len(conds) > 0 {
		query += " where " + strings.Join(conds, " and ")
	}
	query += " order by id"
	if f.Limit > 0 {
		query += " limit " + arg(f.Limit)
	}
	if f.Offset > 0 {
		query += " offset " + arg(f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Brand,
			&p.Price, &p.Stock, &p.CategoryID, &p.ImageURL, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *PGStore) GetProduct(ctx context.Context, id int64) (Product, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+productColumns+` from products where id=$1`, id)
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Brand,
		&p.Price, &p.Stock, &p.CategoryID, &p.ImageURL, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (s *PGStore) CreateProduct(ctx context.Context, p *Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	return s.db.QueryRowContext(ctx,
		`insert into products(name, description, brand, price, stock, category_id, image_url)
		 values($1,nullif($2,''),nullif($3,''),$4,$5,nullif($6,0),nullif($7,''))
		 returning id, created_at`,
		p.Name, p.Description, p.Brand, p.Price, p.Stock, p.CategoryID, p.ImageURL,
	).Scan(&p.ID, &p.CreatedAt)
}

func (s *PGStore) UpdateProduct(ctx context.Context, p *Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`update products set name=$2, description=nullif($3,''), brand=nullif($4,''),
			price=$5, stock=$6, category_id=nullif($7,0), image_url=nullif($8,'')
		 where id=$1`,
		p.ID, p.Name, p.Description, p.Brand, p.Price, p.Stock, p.CategoryID, p.ImageURL)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PGStore) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from products where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PGStore) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, name, coalesce(description, ''), created_at from categories order by id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *PGStore) GetCategory(ctx context.Context, id int64) (Category, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, coalesce(description, ''), created_at from categories where id=$1`, id)
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	return c, err
}

func (s *PGStore) CreateCategory(ctx context.Context, c *Category) error {
	if c.Name == "" {
		return ErrInvalidInput
	}
	return s.db.QueryRowContext(ctx,
		`insert into categories(name, description) values($1,nullif($2,'')) returning id, created_at`,
		c.Name, c.Description,
	).Scan(&c.ID, &c.CreatedAt)
}

func (s *PGStore) UpdateCategory(ctx context.Context, c *Category) error {
	if c.Name == "" {
		return ErrInvalidInput
	}
	res, err := s.db.ExecContext(ctx,
		`update categories set name=$2, description=nullif($3,'') where id=$1`,
		c.ID, c.Name, c.Description)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PGStore) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from categories where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
