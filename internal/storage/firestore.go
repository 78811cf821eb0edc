package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pauljones0/dealboard/internal/models"
)

const (
	dealsCollection      = "deals"
	storesCollection     = "stores"
	categoriesCollection = "categories"
	usersCollection      = "users"
	commentsCollection   = "comments"
)

// ErrDealExists is returned by CreateDeal when the document ID is taken.
var ErrDealExists = models.ErrDealExists

type Client struct {
	client *firestore.Client
}

// New opens a Firestore client. When serviceAccountJSON is empty the
// application default credentials are used.
func New(ctx context.Context, projectID string, serviceAccountJSON []byte) (*Client, error) {
	var opts []option.ClientOption
	if len(serviceAccountJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(serviceAccountJSON))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient: %w", err)
	}
	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// DealFilter narrows ListDeals. Zero values mean "no filter".
type DealFilter struct {
	CategorySlug string
	StoreSlug    string
	Limit        int
}

// ListDeals returns every deal, unordered. An OrderBy would make Firestore
// skip documents without createdAt, and backfills must see those.
func (c *Client) ListDeals(ctx context.Context) ([]models.Deal, error) {
	return collect(ctx, c.client.Collection(dealsCollection).Documents(ctx), dealFromDoc)
}

// FindDeals returns deals matching f, newest first.
func (c *Client) FindDeals(ctx context.Context, f DealFilter) ([]models.Deal, error) {
	q := c.client.Collection(dealsCollection).Query
	if f.CategorySlug != "" {
		q = q.Where("category.slug", "==", f.CategorySlug)
	}
	if f.StoreSlug != "" {
		q = q.Where("store.slug", "==", f.StoreSlug)
	}
	q = q.OrderBy("createdAt", firestore.Desc)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	return collect(ctx, q.Documents(ctx), dealFromDoc)
}

// DealsCreatedSince returns deals created at or after since.
func (c *Client) DealsCreatedSince(ctx context.Context, since time.Time) ([]models.Deal, error) {
	q := c.client.Collection(dealsCollection).Where("createdAt", ">=", since)
	return collect(ctx, q.Documents(ctx), dealFromDoc)
}

// GetDealBySlug returns models.ErrNotFound when no deal has the slug.
func (c *Client) GetDealBySlug(ctx context.Context, slug string) (*models.Deal, error) {
	iter := c.client.Collection(dealsCollection).Where("slug", "==", slug).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deal by slug %s: %w", slug, err)
	}
	deal, err := dealFromDoc(doc)
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

// CreateDeal stores a new deal under a generated ID and returns it with the
// ID filled in.
func (c *Client) CreateDeal(ctx context.Context, deal models.Deal) (models.Deal, error) {
	docRef := c.client.Collection(dealsCollection).NewDoc()
	// Create fails if the document already exists.
	if _, err := docRef.Create(ctx, deal); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return models.Deal{}, ErrDealExists
		}
		return models.Deal{}, fmt.Errorf("failed to create deal: %w", err)
	}
	deal.ID = docRef.ID
	return deal, nil
}

// SetDealSlug writes only the slug field of a deal.
func (c *Client) SetDealSlug(ctx context.Context, id, slug string) error {
	_, err := c.client.Collection(dealsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "slug", Value: slug},
	})
	if err != nil {
		return fmt.Errorf("failed to set slug on deal %s: %w", id, err)
	}
	return nil
}

// ListStores returns every store ordered by name.
func (c *Client) ListStores(ctx context.Context) ([]models.Store, error) {
	q := c.client.Collection(storesCollection).OrderBy("name", firestore.Asc)
	return collect(ctx, q.Documents(ctx), storeFromDoc)
}

// GetStoreBySlug returns models.ErrNotFound when no store has the slug.
func (c *Client) GetStoreBySlug(ctx context.Context, slug string) (*models.Store, error) {
	iter := c.client.Collection(storesCollection).Where("slug", "==", slug).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get store by slug %s: %w", slug, err)
	}
	store, err := storeFromDoc(doc)
	if err != nil {
		return nil, err
	}
	return &store, nil
}

// CreateStore stores a new store keyed by its slug. A concurrent creator
// winning the race is not an error; the existing store is returned instead.
func (c *Client) CreateStore(ctx context.Context, store models.Store) (models.Store, error) {
	docRef := c.client.Collection(storesCollection).Doc(store.Slug)
	if _, err := docRef.Create(ctx, store); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			existing, getErr := c.GetStoreBySlug(ctx, store.Slug)
			if getErr != nil {
				return models.Store{}, getErr
			}
			return *existing, nil
		}
		return models.Store{}, fmt.Errorf("failed to create store %s: %w", store.Slug, err)
	}
	store.ID = docRef.ID
	return store, nil
}

// ListCategories returns every category ordered by name.
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	q := c.client.Collection(categoriesCollection).OrderBy("name", firestore.Asc)
	return collect(ctx, q.Documents(ctx), categoryFromDoc)
}

// GetCategoryBySlug returns models.ErrNotFound when no category has the slug.
func (c *Client) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	iter := c.client.Collection(categoriesCollection).Where("slug", "==", slug).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category by slug %s: %w", slug, err)
	}
	cat, err := categoryFromDoc(doc)
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// CountDealsInCategory counts deals in a category with a server-side
// aggregation query.
func (c *Client) CountDealsInCategory(ctx context.Context, categorySlug string) (int, error) {
	q := c.client.Collection(dealsCollection).Where("category.slug", "==", categorySlug)
	result, err := q.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count deals in category %s: %w", categorySlug, err)
	}
	return countFromAggregation(result, "all")
}

// SetStoreDealCounts writes activeDealCount for each store ID in counts
// through a BulkWriter.
func (c *Client) SetStoreDealCounts(ctx context.Context, counts map[string]int) error {
	return c.bulkSetInt(ctx, storesCollection, "activeDealCount", counts)
}

// SetCategoryDealCounts writes dealCount for each category ID in counts
// through a BulkWriter.
func (c *Client) SetCategoryDealCounts(ctx context.Context, counts map[string]int) error {
	return c.bulkSetInt(ctx, categoriesCollection, "dealCount", counts)
}

func (c *Client) bulkSetInt(ctx context.Context, collection, field string, values map[string]int) error {
	if len(values) == 0 {
		return nil
	}
	bulkWriter := c.client.BulkWriter(ctx)
	jobs := make(map[string]*firestore.BulkWriterJob, len(values))
	for id, v := range values {
		job, err := bulkWriter.Update(c.client.Collection(collection).Doc(id), []firestore.Update{
			{Path: field, Value: v},
		})
		if err != nil {
			slog.Warn("Failed to queue count update", "collection", collection, "id", id, "error", err)
			continue
		}
		jobs[id] = job
	}
	bulkWriter.End()

	var failed int
	for id, job := range jobs {
		if _, err := job.Results(); err != nil {
			slog.Warn("Count update failed", "collection", collection, "id", id, "error", err)
			failed++
		}
	}
	slog.Info("Flushed count updates", "collection", collection, "queued", len(jobs), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d %s count updates failed", failed, len(values), collection)
	}
	return nil
}

// TopUsersByReputation returns the highest-reputation users.
func (c *Client) TopUsersByReputation(ctx context.Context, limit int) ([]models.User, error) {
	q := c.client.Collection(usersCollection).OrderBy("reputation", firestore.Desc).Limit(limit)
	return collect(ctx, q.Documents(ctx), userFromDoc)
}

// GetUsersByIDs fetches users in one round trip. Unknown IDs are skipped.
func (c *Client) GetUsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	if len(ids) == 0 {
		return map[string]models.User{}, nil
	}
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, c.client.Collection(usersCollection).Doc(id))
	}
	docs, err := c.client.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	users := make(map[string]models.User, len(docs))
	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		u, err := userFromDoc(doc)
		if err != nil {
			return nil, err
		}
		users[u.ID] = u
	}
	return users, nil
}

// ListComments returns a deal's comments oldest first, flat.
func (c *Client) ListComments(ctx context.Context, dealID string) ([]models.Comment, error) {
	q := c.client.Collection(commentsCollection).
		Where("dealId", "==", dealID).
		OrderBy("createdAt", firestore.Asc)
	return collect(ctx, q.Documents(ctx), commentFromDoc)
}

func collect[T any](ctx context.Context, iter *firestore.DocumentIterator, decode func(*firestore.DocumentSnapshot) (T, error)) ([]T, error) {
	defer iter.Stop()

	var out []T
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate documents: %w", err)
		}
		v, err := decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, ctx.Err()
}

func dealFromDoc(doc *firestore.DocumentSnapshot) (models.Deal, error) {
	var d models.Deal
	if err := doc.DataTo(&d); err != nil {
		return models.Deal{}, fmt.Errorf("failed to unmarshal deal %s: %w", doc.Ref.ID, err)
	}
	d.ID = doc.Ref.ID
	return d, nil
}

func storeFromDoc(doc *firestore.DocumentSnapshot) (models.Store, error) {
	var s models.Store
	if err := doc.DataTo(&s); err != nil {
		return models.Store{}, fmt.Errorf("failed to unmarshal store %s: %w", doc.Ref.ID, err)
	}
	s.ID = doc.Ref.ID
	return s, nil
}

func categoryFromDoc(doc *firestore.DocumentSnapshot) (models.Category, error) {
	var cat models.Category
	if err := doc.DataTo(&cat); err != nil {
		return models.Category{}, fmt.Errorf("failed to unmarshal category %s: %w", doc.Ref.ID, err)
	}
	cat.ID = doc.Ref.ID
	return cat, nil
}

func userFromDoc(doc *firestore.DocumentSnapshot) (models.User, error) {
	var u models.User
	if err := doc.DataTo(&u); err != nil {
		return models.User{}, fmt.Errorf("failed to unmarshal user %s: %w", doc.Ref.ID, err)
	}
	u.ID = doc.Ref.ID
	return u, nil
}

func commentFromDoc(doc *firestore.DocumentSnapshot) (models.Comment, error) {
	var cm models.Comment
	if err := doc.DataTo(&cm); err != nil {
		return models.Comment{}, fmt.Errorf("failed to unmarshal comment %s: %w", doc.Ref.ID, err)
	}
	cm.ID = doc.Ref.ID
	return cm, nil
}

// countFromAggregation reads a count aggregation result, which the client
// library has returned both as a raw int64 and as a *firestorepb.Value.
func countFromAggregation(result firestore.AggregationResult, key string) (int, error) {
	v, ok := result[key]
	if !ok {
		return 0, fmt.Errorf("count aggregation result was invalid: %q key missing", key)
	}
	switch val := v.(type) {
	case int64:
		return int(val), nil
	case *firestorepb.Value:
		return int(val.GetIntegerValue()), nil
	default:
		return 0, fmt.Errorf("count aggregation result has unexpected type %T", v)
	}
}
