// Package mongostore implements featureflag.Store on a MongoDB collection.
//
// Soft-deleted documents keep a deleted=true marker; a partial unique index
// on code over live documents lets a deleted code be reused.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/flagkit/pkg/feature"
)

// DefaultCollection is the collection used when none is configured.
const DefaultCollection = "feature_flags"

type document struct {
	ID          string     `bson:"_id"`
	Name        string     `bson:"name"`
	Code        string     `bson:"code"`
	Description string     `bson:"description"`
	Enabled     bool       `bson:"enabled"`
	RuleKind    string     `bson:"rule_kind"`
	Rule        string     `bson:"rule,omitempty"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   *time.Time `bson:"updated_at,omitempty"`
	Deleted     bool       `bson:"deleted"`
	DeletedAt   *time.Time `bson:"deleted_at,omitempty"`
}

// Store is a featureflag.Store backed by a MongoDB collection.
type Store struct {
	coll *mongo.Collection
	now  func() time.Time
}

// New creates a Store on coll. Call EnsureIndexes once before use.
func New(coll *mongo.Collection) *Store {
	return &Store{coll: coll, now: time.Now}
}

// NewFromDatabase creates a Store on the DefaultCollection of db.
func NewFromDatabase(db *mongo.Database) *Store {
	return New(db.Collection(DefaultCollection))
}

// EnsureIndexes creates the live-code unique index and the rule kind index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "code", Value: 1}},
			Options: options.Index().
				SetName("live_code").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "deleted", Value: false}}),
		},
		{
			Keys:    bson.D{{Key: "deleted", Value: 1}, {Key: "rule_kind", Value: 1}},
			Options: options.Index().SetName("live_rule_kind"),
		},
	})
	if err != nil {
		return fmt.Errorf("create feature flag indexes: %w", err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, flag *feature.Flag) (uuid.UUID, error) {
	rule, err := feature.MarshalRule(flag.Rule)
	if err != nil {
		return uuid.Nil, err
	}
	id := uuid.New()
	doc := document{
		ID:          id.String(),
		Name:        flag.Name,
		Code:        flag.Code,
		Description: flag.Description,
		Enabled:     flag.Enabled,
		RuleKind:    string(flag.Kind()),
		Rule:        string(rule),
		CreatedAt:   s.timestamp(),
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return uuid.Nil, feature.ErrFlagExists
		}
		return uuid.Nil, fmt.Errorf("insert feature flag: %w", err)
	}
	return id, nil
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*feature.Flag, error) {
	return s.findOne(ctx, bson.D{{Key: "_id", Value: id.String()}, {Key: "deleted", Value: false}})
}

func (s *Store) FindByCode(ctx context.Context, code string) (*feature.Flag, error) {
	return s.findOne(ctx, live(code))
}

func (s *Store) UpdateEnabled(ctx context.Context, code string, enabled bool) (*feature.Flag, error) {
	return s.set(ctx, code, bson.D{{Key: "enabled", Value: enabled}})
}

func (s *Store) Update(ctx context.Context, code string, flag *feature.Flag) (*feature.Flag, error) {
	if flag == nil {
		return nil, errors.Join(feature.ErrInvalidFlag, errors.New("flag cannot be nil"))
	}
	rule, err := feature.MarshalRule(flag.Rule)
	if err != nil {
		return nil, err
	}
	return s.set(ctx, code, bson.D{
		{Key: "name", Value: flag.Name},
		{Key: "description", Value: flag.Description},
		{Key: "enabled", Value: flag.Enabled},
		{Key: "rule_kind", Value: string(flag.Kind())},
		{Key: "rule", Value: string(rule)},
	})
}

func (s *Store) UpdateFields(ctx context.Context, code string, patch feature.Patch) (*feature.Flag, error) {
	fields := bson.D{}
	if patch.Enabled != nil {
		fields = append(fields, bson.E{Key: "enabled", Value: *patch.Enabled})
	}
	if patch.Description != nil {
		fields = append(fields, bson.E{Key: "description", Value: *patch.Description})
	}
	if patch.Rule != nil {
		rule, err := feature.MarshalRule(patch.Rule)
		if err != nil {
			return nil, err
		}
		fields = append(fields,
			bson.E{Key: "rule_kind", Value: string(feature.KindOf(patch.Rule))},
			bson.E{Key: "rule", Value: string(rule)},
		)
	}
	return s.set(ctx, code, fields)
}

func (s *Store) SoftDelete(ctx context.Context, code string) (*feature.Flag, error) {
	return s.apply(ctx, code, bson.D{
		{Key: "deleted", Value: true},
		{Key: "deleted_at", Value: s.timestamp()},
	})
}

func (s *Store) Query(ctx context.Context, q feature.ListQuery) (feature.Page[*feature.Flag], error) {
	q = q.Normalize()
	page := feature.Page[*feature.Flag]{Items: []*feature.Flag{}}
	f := filter(q)

	count, err := s.coll.CountDocuments(ctx, f)
	if err != nil {
		return page, fmt.Errorf("count feature flags: %w", err)
	}
	page.Count = count
	if count == 0 {
		return page, nil
	}

	cur, err := s.coll.Find(ctx, f, options.Find().
		SetSort(bson.D{{Key: "code", Value: 1}}).
		SetSkip(int64(q.Offset)).
		SetLimit(int64(q.Limit)))
	if err != nil {
		return page, fmt.Errorf("query feature flags: %w", err)
	}
	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return page, fmt.Errorf("query feature flags: %w", err)
	}
	for i := range docs {
		flag, err := docs[i].toFlag()
		if err != nil {
			return page, err
		}
		page.Items = append(page.Items, flag)
	}
	return page, nil
}

func filter(q feature.ListQuery) bson.D {
	f := bson.D{{Key: "deleted", Value: false}}
	if q.Keyword != "" {
		re := bson.Regex{Pattern: regexp.QuoteMeta(q.Keyword), Options: "i"}
		f = append(f, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: re}},
			bson.D{{Key: "description", Value: re}},
			bson.D{{Key: "code", Value: re}},
		}})
	}
	if q.Enabled != nil {
		f = append(f, bson.E{Key: "enabled", Value: *q.Enabled})
	}
	if q.Kind != nil {
		f = append(f, bson.E{Key: "rule_kind", Value: string(*q.Kind)})
	}
	return f
}

func live(code string) bson.D {
	return bson.D{{Key: "code", Value: code}, {Key: "deleted", Value: false}}
}

// set applies fields to the live document with code and stamps updated_at.
func (s *Store) set(ctx context.Context, code string, fields bson.D) (*feature.Flag, error) {
	return s.apply(ctx, code, append(fields, bson.E{Key: "updated_at", Value: s.timestamp()}))
}

func (s *Store) apply(ctx context.Context, code string, fields bson.D) (*feature.Flag, error) {
	var doc document
	err := s.coll.FindOneAndUpdate(ctx, live(code), bson.D{{Key: "$set", Value: fields}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, feature.ErrFlagNotFound
		}
		return nil, fmt.Errorf("update feature flag: %w", err)
	}
	return doc.toFlag()
}

func (s *Store) findOne(ctx context.Context, f bson.D) (*feature.Flag, error) {
	var doc document
	if err := s.coll.FindOne(ctx, f).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, feature.ErrFlagNotFound
		}
		return nil, fmt.Errorf("find feature flag: %w", err)
	}
	return doc.toFlag()
}

// timestamp truncates to BSON datetime precision.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (d *document) toFlag() (*feature.Flag, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse id of feature flag %q: %w", d.Code, err)
	}
	rule, err := feature.UnmarshalRule([]byte(d.Rule))
	if err != nil {
		return nil, fmt.Errorf("decode rule of feature flag %q: %w", d.Code, err)
	}
	f := &feature.Flag{
		ID:          id,
		Name:        d.Name,
		Code:        d.Code,
		Description: d.Description,
		Enabled:     d.Enabled,
		Rule:        rule,
		CreatedAt:   d.CreatedAt.UTC(),
	}
	if d.UpdatedAt != nil {
		t := d.UpdatedAt.UTC()
		f.UpdatedAt = &t
	}
	if d.DeletedAt != nil {
		t := d.DeletedAt.UTC()
		f.DeletedAt = &t
	}
	return f, nil
}
