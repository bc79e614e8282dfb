package catalog

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productRowColumns = []string{"id", "category_id", "name", "description", "price", "srp_price", "quantity", "image_url", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, Repository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewRepository(mock)
}

func TestRepository_ListProducts(t *testing.T) {
	mock, repo := newMockRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()
	categoryID := uuid.Must(uuid.NewV4())
	p1 := uuid.Must(uuid.NewV4())
	p2 := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(regexp.QuoteMeta("FROM products ORDER BY name, id")).
		WillReturnRows(pgxmock.NewRows(productRowColumns).
			AddRow(p1, categoryID, "Apple", "", "100.00", "120.00", 5, "", now, now).
			AddRow(p2, categoryID, "Banana", "yellow", "50.50", "60.00", 0, "https://img/b.png", now, now))

	products, err := repo.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, p1, products[0].ID)
	assert.True(t, products[0].CategoryID.Valid)
	assert.Equal(t, categoryID, products[0].CategoryID.UUID)
	assert.Equal(t, "100", products[0].Price.String())
	assert.Equal(t, "50.5", products[1].Price.String())
	assert.Equal(t, 0, products[1].Quantity)
	assert.Equal(t, "https://img/b.png", products[1].ImageURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListProducts_QueryError(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM products")).WillReturnError(errors.New("connection reset"))

	products, err := repo.ListProducts(context.Background())
	require.Error(t, err)
	assert.Nil(t, products)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SearchProducts(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now().UTC()
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(regexp.QuoteMeta("WHERE name ILIKE '%' || $1 || '%'")).
		WithArgs("app").
		WillReturnRows(pgxmock.NewRows(productRowColumns).
			AddRow(id, uuid.Must(uuid.NewV4()), "Apple", "", "1.00", "1.00", 3, "", now, now))

	products, err := repo.SearchProducts(context.Background(), "app")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Apple", products[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetProduct_NotFound(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id = $1")).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	p, err := repo.GetProduct(context.Background(), id)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateProduct(t *testing.T) {
	t.Run("assigns id from store", func(t *testing.T) {
		mock, repo := newMockRepo(t)
		id := uuid.Must(uuid.NewV4())
		now := time.Now().UTC()

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO products")).
			WithArgs(pgxmock.AnyArg(), "Apple", "", pgxmock.AnyArg(), pgxmock.AnyArg(), 10, "").
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id, now, now))

		p := &Product{Name: "Apple", Quantity: 10}
		require.NoError(t, repo.CreateProduct(context.Background(), p))
		assert.Equal(t, id, p.ID)
		assert.Equal(t, now, p.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown category", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO products")).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation})

		p := &Product{Name: "Apple", CategoryID: uuid.NullUUID{UUID: uuid.Must(uuid.NewV4()), Valid: true}}
		err := repo.CreateProduct(context.Background(), p)
		assert.ErrorIs(t, err, ErrCategoryNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_DeleteProduct_NotFound(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.Must(uuid.NewV4())

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products WHERE id = $1")).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, repo.DeleteProduct(context.Background(), id), ErrProductNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_DecrementStock(t *testing.T) {
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())

	tests := []struct {
		name      string
		setup     func(mock pgxmock.PgxPoolIface)
		remaining int
		wantErr   error
	}{
		{
			name: "relative decrement returns remaining",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta("SET quantity = quantity - $2")).
					WithArgs(id, 3).
					WillReturnRows(pgxmock.NewRows([]string{"quantity"}).AddRow(2))
			},
			remaining: 2,
		},
		{
			name: "may go below zero",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta("SET quantity = quantity - $2")).
					WithArgs(id, 3).
					WillReturnRows(pgxmock.NewRows([]string{"quantity"}).AddRow(-1))
			},
			remaining: -1,
		},
		{
			name: "missing product",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta("SET quantity = quantity - $2")).
					WithArgs(id, 3).
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: ErrProductNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, repo := newMockRepo(t)
			tt.setup(mock)

			remaining, err := repo.DecrementStock(ctx, id, 3)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.remaining, remaining)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_Categories(t *testing.T) {
	mock, repo := newMockRepo(t)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO categories")).
		WithArgs("Drinks", "cold").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM categories ORDER BY name")).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "created_at", "updated_at"}).
			AddRow(id, "Drinks", "cold", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE categories")).
		WithArgs(id, "Beverages", "cold").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM categories")).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	c := &Category{Name: "Drinks", Description: "cold"}
	require.NoError(t, repo.CreateCategory(ctx, c))
	assert.Equal(t, id, c.ID)

	list, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Drinks", list[0].Name)

	err = repo.UpdateCategory(ctx, &Category{ID: id, Name: "Beverages", Description: "cold"})
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	require.NoError(t, repo.DeleteCategory(ctx, id))
	assert.NoError(t, mock.ExpectationsWereMet())
}
