package port

import (
	"context"
	"sync"

	"github.com/niksmo/foodex/internal/core/domain"
)

type (
	runnerContextWg interface {
		Run(context.Context, context.CancelFunc, *sync.WaitGroup)
	}

	closer interface {
		Close()
	}
)

// Inbound ports.

type CartManager interface {
	AddToCart(context.Context, string, domain.AddToCart) (domain.Cart, error)
	IncreaseQty(context.Context, string, domain.CartItemRef) (domain.Cart, bool, error)
	DecreaseQty(context.Context, string, domain.CartItemRef) (domain.Cart, bool, error)
	RemoveItem(context.Context, string, domain.CartItemRef) (domain.Cart, bool, error)
	ClearCart(context.Context, string) (domain.Cart, error)
	Summary(context.Context, string) (domain.Cart, domain.OrderSummary, error)
}

type MenuReader interface {
	Menu(context.Context, domain.MenuFilter) ([]domain.MenuItem, error)
	Categories(context.Context) ([]domain.Category, error)
	PopularMenu(context.Context, int) ([]domain.PopularMenuItem, error)
}

type AccountManager interface {
	SignUp(context.Context, domain.NewAccount) (domain.User, domain.Session, error)
	SignIn(context.Context, domain.Credentials) (domain.Session, error)
	SignOut(context.Context, string) error
	CurrentUser(context.Context, string) (domain.User, error)
	UpdateProfile(context.Context, string, domain.ProfileUpdate) (domain.User, error)
}

type CartSnapshotSaver interface {
	SaveCartSnapshots(context.Context, []domain.CartSnapshot) error
}

// Outbound ports.

type Catalog interface {
	ListMenu(context.Context, domain.MenuFilter) ([]domain.MenuItem, error)
	ListCategories(context.Context) ([]domain.Category, error)
	MenuItem(ctx context.Context, id string) (domain.MenuItem, error)
	Customizations(
		ctx context.Context, productID string, ids []string,
	) ([]domain.Customization, error)
}

type Accounts interface {
	CreateAccount(context.Context, domain.NewAccount) (domain.User, error)
	CreateSession(context.Context, domain.Credentials) (domain.Session, error)
	DeleteSession(ctx context.Context, token string) error
	UserBySession(ctx context.Context, token string) (domain.User, error)
	UpdateUser(context.Context, string, domain.ProfileUpdate) (domain.User, error)
}

type CartEventsProducer interface {
	ProduceCartEvent(context.Context, domain.CartEvent) error
}

type CartSnapshotStorage interface {
	StoreSnapshots(context.Context, []domain.CartSnapshot) error
	LoadSnapshot(ctx context.Context, userID string) (domain.CartSnapshot, error)
}

type PopularityReader interface {
	AddedCount(productID string) (int64, error)
}

type PopularityProcessor interface {
	runnerContextWg
	closer
}
