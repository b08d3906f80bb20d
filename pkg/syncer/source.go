package syncer

import (
	"context"

	"github.com/tidwall/gjson"
)

// PageRequest asks a Source for one page of an entity.
type PageRequest struct {
	Spec   *Spec
	Window Window
	Offset int
	Limit  int
	Cursor string
}

// Page is one page of raw items.
//
// HasMore is nil for offset sources that do not report it; the procedure
// then keeps paging until a page comes back empty. Cursor sources set
// NextCursor.
type Page struct {
	Items      []gjson.Result
	HasMore    *bool
	NextCursor string
}

// Source fetches raw items from a remote paginated API.
type Source interface {
	// ListPage returns one page of the entity described by req.Spec.
	ListPage(ctx context.Context, req PageRequest) (*Page, error)
	// Resolve fetches the item list behind an absolute link taken from a record.
	Resolve(ctx context.Context, href string) ([]gjson.Result, error)
}
