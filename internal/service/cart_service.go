package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_cart/pricing-service/internal/cache"
	"github.com/fjod/go_cart/pricing-service/internal/catalog"
	"github.com/fjod/go_cart/pricing-service/internal/domain"
	"github.com/fjod/go_cart/pricing-service/internal/repository"
	"github.com/fjod/go_cart/pricing-service/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrProductUnavailable = errors.New("product unavailable")

const cacheTimeout = time.Second

// AddItemInput describes a product to put into the cart. The unit price is
// taken from the catalog, never from the caller.
type AddItemInput struct {
	ProductID    string
	Quantity     int
	ParentItemID string
	IsGift       bool
}

// session pairs a user's cart store with the lock that orders its snapshot
// writes, so the repository never sees an older cart after a newer one.
type session struct {
	store     *store.Store
	persistMu sync.Mutex
}

type CartService struct {
	repo    repository.CartRepository
	cache   cache.CartCache
	catalog catalog.Catalog
	log     *zap.Logger
	opts    []store.Option

	mu       sync.RWMutex
	sessions map[string]*session

	sfg   singleflight.Group // Prevents cache stampede
	loads singleflight.Group
}

func NewCartService(
	repo repository.CartRepository,
	cache cache.CartCache,
	catalog catalog.Catalog,
	log *zap.Logger,
	opts ...store.Option,
) *CartService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CartService{
		repo:     repo,
		cache:    cache,
		catalog:  catalog,
		log:      log,
		opts:     opts,
		sessions: make(map[string]*session),
	}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("cache get failed", zap.String("user_id", userID), zap.Error(err))
		}

		sess, err := s.session(ctx, userID)
		if err != nil {
			return nil, err
		}

		// Filling under persistMu keeps a fill from landing after a newer
		// mutation has already invalidated the key.
		sess.persistMu.Lock()
		defer sess.persistMu.Unlock()

		current := sess.store.Cart()
		setCtx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
		defer cancel()
		if errSet := s.cache.Set(setCtx, userID, &current); errSet != nil {
			s.log.Warn("cache set failed", zap.String("user_id", userID), zap.Error(errSet))
		}
		return &current, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

func (s *CartService) AddItem(ctx context.Context, userID string, in AddItemInput) (*domain.Cart, error) {
	product, err := s.catalog.GetProduct(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Purchasable() {
		return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, product.ID)
	}

	price := product.Price
	if in.IsGift {
		price = decimal.Zero
	}
	item := domain.CartItem{
		ProductID:    product.ID,
		Quantity:     in.Quantity,
		UnitPrice:    price,
		ParentItemID: in.ParentItemID,
		IsGift:       in.IsGift,
	}

	return s.mutate(ctx, userID, func(st *store.Store) (domain.Cart, error) {
		return st.AddItem(item)
	})
}

func (s *CartService) SetItemQuantity(ctx context.Context, userID, itemID string, quantity int) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(st *store.Store) (domain.Cart, error) {
		return st.SetItemQuantity(itemID, quantity)
	})
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(st *store.Store) (domain.Cart, error) {
		return st.RemoveItem(itemID)
	})
}

// ApplyCoupon persists the cart only when the coupon was accepted.
func (s *CartService) ApplyCoupon(ctx context.Context, userID, code string) (store.ApplyCouponResult, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return store.ApplyCouponResult{}, err
	}

	sess.persistMu.Lock()
	defer sess.persistMu.Unlock()

	result, err := sess.store.ApplyCoupon(ctx, code)
	if err != nil {
		s.log.Error("apply coupon failed", zap.String("user_id", userID), zap.Error(err))
		return store.ApplyCouponResult{}, err
	}
	if !result.Success {
		s.log.Info("coupon rejected",
			zap.String("user_id", userID),
			zap.String("code", code),
			zap.String("reason", result.Message))
		return result, nil
	}

	s.persist(ctx, userID, result.Cart)
	return result, nil
}

func (s *CartService) RemoveCoupon(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(st *store.Store) (domain.Cart, error) {
		return st.RemoveCoupon(), nil
	})
}

func (s *CartService) SetCharges(ctx context.Context, userID string, shipping, tax decimal.Decimal) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(st *store.Store) (domain.Cart, error) {
		return st.SetCharges(shipping, tax), nil
	})
}

// ClearCart empties the cart and drops its stored snapshot.
func (s *CartService) ClearCart(ctx context.Context, userID string) (*domain.Cart, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}

	sess.persistMu.Lock()
	defer sess.persistMu.Unlock()

	cart := sess.store.Clear()
	if errDelete := s.repo.DeleteCart(ctx, userID); errDelete != nil && !errors.Is(errDelete, repository.ErrCartNotFound) {
		s.log.Warn("repo delete cart failed", zap.String("user_id", userID), zap.Error(errDelete))
	}
	s.invalidateCache(userID)

	return &cart, nil
}

func (s *CartService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.catalog.GetAllProducts(ctx)
}

func (s *CartService) mutate(
	ctx context.Context,
	userID string,
	op func(*store.Store) (domain.Cart, error),
) (*domain.Cart, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return nil, err
	}

	sess.persistMu.Lock()
	defer sess.persistMu.Unlock()

	cart, err := op(sess.store)
	if err != nil {
		return nil, err
	}

	s.persist(ctx, userID, &cart)
	return &cart, nil
}

// persist must be called with the session's persistMu held. A failed write
// is logged only: the in-memory store stays authoritative.
func (s *CartService) persist(ctx context.Context, userID string, cart *domain.Cart) {
	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		s.log.Warn("repo upsert cart failed", zap.String("user_id", userID), zap.Error(err))
	}
	s.invalidateCache(userID)
}

func (s *CartService) session(ctx context.Context, userID string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[userID]
	s.mu.RUnlock()
	if ok {
		return sess, nil
	}

	v, err, _ := s.loads.Do(userID, func() (interface{}, error) {
		s.mu.RLock()
		sess, ok := s.sessions[userID]
		s.mu.RUnlock()
		if ok {
			return sess, nil
		}

		initial := domain.Cart{UserID: userID}
		stored, err := s.repo.GetCart(ctx, userID)
		switch {
		case err == nil:
			initial = *stored
		case errors.Is(err, repository.ErrCartNotFound):
			s.log.Debug("starting new cart", zap.String("user_id", userID))
		default:
			return nil, fmt.Errorf("failed to load cart: %w", err)
		}

		sess = &session{store: store.New(initial, s.catalog, s.opts...)}
		s.mu.Lock()
		s.sessions[userID] = sess
		s.mu.Unlock()
		return sess, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*session), nil
}

func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.Warn("cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
	}
}
