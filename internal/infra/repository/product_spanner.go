package repository

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/spanner"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	"catalog/internal/domain/model"
	repo "catalog/internal/repository"
)

const (
	spannerProductsTable = "Products"
	spannerCountersTable = "Counters"
	productIDCounter     = "products"
)

var spannerProductColumns = []string{"ProductId", "Name", "Description", "Price", "Category"}

// cmd/migrate が流すDDL。
// Counters は最大IDの商品を消してもIDを再利用しないための採番行。
var SpannerDDL = []string{
	`CREATE TABLE Products (
		ProductId   INT64 NOT NULL,
		Name        STRING(255) NOT NULL,
		Description STRING(MAX),
		Price       NUMERIC NOT NULL,
		Category    STRING(100) NOT NULL,
	) PRIMARY KEY (ProductId)`,
	`CREATE INDEX ProductsByCategory ON Products(Category)`,
	`CREATE TABLE Counters (
		Name  STRING(64) NOT NULL,
		Value INT64 NOT NULL,
	) PRIMARY KEY (Name)`,
}

// Cloud Spanner の商品ストア。
// upsert/削除は read-write トランザクション内で行う。
type ProductSpannerRepository struct {
	client *spanner.Client
}

func NewProductSpannerRepository(client *spanner.Client) *ProductSpannerRepository {
	return &ProductSpannerRepository{client: client}
}

func (r *ProductSpannerRepository) Products(ctx context.Context) ([]model.Product, error) {
	stmt := spanner.Statement{
		SQL: `SELECT ProductId, Name, Description, Price, Category FROM Products ORDER BY ProductId ASC`,
	}
	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	out := []model.Product{}
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, storageErr("list products", err)
		}
		p, err := productFromRow(row)
		if err != nil {
			return nil, storageErr("list products", err)
		}
		out = append(out, p)
	}
}

func (r *ProductSpannerRepository) FindProduct(ctx context.Context, id int64) (model.Product, error) {
	row, err := r.client.Single().ReadRow(ctx, spannerProductsTable, spanner.Key{id}, spannerProductColumns)
	if spanner.ErrCode(err) == codes.NotFound {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, storageErr("find product", err)
	}
	p, err := productFromRow(row)
	if err != nil {
		return model.Product{}, storageErr("find product", err)
	}
	return p, nil
}

func (r *ProductSpannerRepository) SaveProduct(ctx context.Context, p model.Product) (model.Product, error) {
	var saved model.Product
	_, err := r.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		// abort時に再実行されるので毎回引数の値から始める
		cand := p
		if !cand.IsNew() {
			_, err := txn.ReadRow(ctx, spannerProductsTable, spanner.Key{cand.ID}, []string{"ProductId"})
			switch {
			case spanner.ErrCode(err) == codes.NotFound:
				cand.ID = 0
			case err != nil:
				return err
			}
		}

		muts := []*spanner.Mutation{}
		if cand.IsNew() {
			id, err := nextProductID(ctx, txn)
			if err != nil {
				return err
			}
			cand.ID = id
			muts = append(muts, spanner.InsertOrUpdateMap(spannerCountersTable, map[string]interface{}{
				"Name":  productIDCounter,
				"Value": id,
			}))
		}
		muts = append(muts, spanner.ReplaceMap(spannerProductsTable, productValues(cand)))

		if err := txn.BufferWrite(muts); err != nil {
			return err
		}
		saved = cand
		return nil
	})
	if err != nil {
		return model.Product{}, storageErr("save product", err)
	}
	return saved, nil
}

func (r *ProductSpannerRepository) DeleteProduct(ctx context.Context, id int64) (model.Product, error) {
	var deleted model.Product
	_, err := r.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		row, err := txn.ReadRow(ctx, spannerProductsTable, spanner.Key{id}, spannerProductColumns)
		if err != nil {
			return err
		}
		p, err := productFromRow(row)
		if err != nil {
			return err
		}
		deleted = p
		return txn.BufferWrite([]*spanner.Mutation{spanner.Delete(spannerProductsTable, spanner.Key{id})})
	})
	if spanner.ErrCode(err) == codes.NotFound {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, storageErr("delete product", err)
	}
	return deleted, nil
}

func nextProductID(ctx context.Context, txn *spanner.ReadWriteTransaction) (int64, error) {
	row, err := txn.ReadRow(ctx, spannerCountersTable, spanner.Key{productIDCounter}, []string{"Value"})
	if spanner.ErrCode(err) == codes.NotFound {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	var last int64
	if err := row.Columns(&last); err != nil {
		return 0, err
	}
	return last + 1, nil
}

// テストから列を確認できるようにmutationとは分けておく
func productValues(p model.Product) map[string]interface{} {
	return map[string]interface{}{
		"ProductId":   p.ID,
		"Name":        p.Name,
		"Description": p.Description,
		"Price":       p.Price.Rat(),
		"Category":    p.Category,
	}
}

func productFromRow(row *spanner.Row) (model.Product, error) {
	var (
		id          int64
		name        string
		description spanner.NullString
		price       spanner.NullNumeric
		category    string
	)
	if err := row.Columns(&id, &name, &description, &price, &category); err != nil {
		return model.Product{}, err
	}
	if !price.Valid {
		return model.Product{}, errors.New("price is null")
	}
	// NUMERICのscaleは9
	d, err := decimal.NewFromString(price.Numeric.FloatString(9))
	if err != nil {
		return model.Product{}, fmt.Errorf("invalid price %q: %w", price.Numeric.String(), err)
	}
	return model.Product{
		ID:          id,
		Name:        name,
		Description: description.StringVal,
		Price:       d,
		Category:    category,
	}, nil
}
