package domain

import "context"

// TxManager runs fn inside a storage transaction. The opaque tx handle is
// passed to repository Tx methods; any error from fn rolls everything back.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(tx any) error) error
}
