package ports

import "context"

// StockChecker decides whether a product is available in the requested quantity.
type StockChecker interface {
	InStock(ctx context.Context, productID int64, quantity int) (bool, error)
}
