package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Govind-619/FolioForge/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is the MongoDB-backed Store. Multi-document transactions
// require the server to run as a replica set.
type MongoStore struct {
	client     *mongo.Client
	users      *mongo.Collection
	coupons    *mongo.Collection
	payments   *mongo.Collection
	portfolios *mongo.Collection
}

// portfolioDoc keeps the portfolio content as JSON text.
type portfolioDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	Slug      string    `bson:"slug"`
	Template  string    `bson:"template"`
	Title     string    `bson:"title"`
	Content   string    `bson:"content"`
	Published bool      `bson:"published"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func toPortfolioDoc(p models.Portfolio) portfolioDoc {
	return portfolioDoc{
		ID:        p.ID,
		UserID:    p.UserID,
		Slug:      p.Slug,
		Template:  p.Template,
		Title:     p.Title,
		Content:   string(p.Content),
		Published: p.Published,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (d portfolioDoc) model() models.Portfolio {
	return models.Portfolio{
		ID:        d.ID,
		UserID:    d.UserID,
		Slug:      d.Slug,
		Template:  d.Template,
		Title:     d.Title,
		Content:   []byte(d.Content),
		Published: d.Published,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// NewMongoStore connects to uri, selects database and creates indexes.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:     client,
		users:      db.Collection("users"),
		coupons:    db.Collection("coupons"),
		payments:   db.Collection("payments"),
		portfolios: db.Collection("portfolios"),
	}
	if err := s.createIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) createIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{
				Keys:    bson.D{{Key: "googleId", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
		},
		s.payments: {
			{Keys: bson.D{{Key: "transactionId", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}}},
		},
		s.portfolios: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
	}
	for coll, ims := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, ims); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func mongoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return err
	}
}

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(u.Email)
	if u.Subscription.Type == "" {
		u.Subscription.Type = models.TierFree
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := s.users.InsertOne(ctx, u)
	return mongoErr(err)
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (models.User, error) {
	var u models.User
	err := s.users.FindOne(ctx, filter).Decode(&u)
	return u, mongoErr(err)
}

func (s *MongoStore) GetUserByID(ctx context.Context, id string) (models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findUser(ctx, bson.M{"email": strings.ToLower(email)})
}

func (s *MongoStore) GetUserByGoogleID(ctx context.Context, googleID string) (models.User, error) {
	return s.findUser(ctx, bson.M{"googleId": googleID})
}

func (s *MongoStore) LinkGoogleAccount(ctx context.Context, userID, googleID string) error {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"googleId": googleID, "updatedAt": time.Now()}})
	if err != nil {
		return mongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type mongoTx struct {
	sc mongo.SessionContext
	s  *MongoStore
}

func (t *mongoTx) PaymentOwner(_ context.Context, transactionID string) (string, error) {
	var rec models.PaymentRecord
	err := t.s.payments.FindOne(t.sc, bson.M{"transactionId": transactionID},
		options.FindOne().SetProjection(bson.M{"userId": 1})).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return rec.UserID, nil
}

func (t *mongoTx) AppendPayment(_ context.Context, rec *models.PaymentRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := t.s.payments.InsertOne(t.sc, rec)
	return mongoErr(err)
}

func (t *mongoTx) CreatePortfolio(_ context.Context, p *models.Portfolio) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := t.s.portfolios.InsertOne(t.sc, toPortfolioDoc(*p))
	return mongoErr(err)
}

// UpdateUser writes a lock counter on the user document first. A second
// transaction touching the same user then hits a write conflict and is
// retried by the driver once the first one commits.
func (s *MongoStore) UpdateUser(ctx context.Context, userID string, fn UpdateFunc) (models.User, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return models.User{}, fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	res, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var u models.User
		err := s.users.FindOneAndUpdate(sc,
			bson.M{"_id": userID},
			bson.M{"$inc": bson.M{"lockVersion": 1}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&u)
		if err != nil {
			return nil, mongoErr(err)
		}

		if err := fn(&mongoTx{sc: sc, s: s}, &u); err != nil {
			return nil, err
		}

		u.UpdatedAt = time.Now()
		_, err = s.users.UpdateOne(sc, bson.M{"_id": userID}, bson.M{"$set": bson.M{
			"name":         u.Name,
			"subscription": u.Subscription,
			"tokens":       u.Tokens,
			"updatedAt":    u.UpdatedAt,
		}})
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		return u, nil
	})
	if err != nil {
		return models.User{}, err
	}
	return res.(models.User), nil
}

func (s *MongoStore) GetCoupon(ctx context.Context, code string) (models.Coupon, error) {
	var c models.Coupon
	err := s.coupons.FindOne(ctx, bson.M{"_id": models.NormalizeCouponCode(code)}).Decode(&c)
	return c, mongoErr(err)
}

func (s *MongoStore) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	cursor, err := s.coupons.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find coupons: %w", err)
	}
	var coupons []models.Coupon
	if err := cursor.All(ctx, &coupons); err != nil {
		return nil, fmt.Errorf("decode coupons: %w", err)
	}
	return coupons, nil
}

func (s *MongoStore) CreateCoupon(ctx context.Context, c *models.Coupon) error {
	c.Code = models.NormalizeCouponCode(c.Code)
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := s.coupons.InsertOne(ctx, c)
	return mongoErr(err)
}

func (s *MongoStore) UpdateCoupon(ctx context.Context, c *models.Coupon) error {
	c.Code = models.NormalizeCouponCode(c.Code)
	c.UpdatedAt = time.Now()
	res, err := s.coupons.UpdateOne(ctx, bson.M{"_id": c.Code}, bson.M{"$set": bson.M{
		"discountType":  c.DiscountType,
		"discountValue": c.DiscountValue,
		"minAmount":     c.MinAmount,
		"maxDiscount":   c.MaxDiscount,
		"validUntil":    c.ValidUntil,
		"isActive":      c.IsActive,
		"updatedAt":     c.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeactivateCoupon(ctx context.Context, code string) error {
	res, err := s.coupons.UpdateOne(ctx,
		bson.M{"_id": models.NormalizeCouponCode(code)},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) GetPayment(ctx context.Context, id string) (models.PaymentRecord, error) {
	var p models.PaymentRecord
	err := s.payments.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	return p, mongoErr(err)
}

func (s *MongoStore) ListPayments(ctx context.Context, userID string, offset, limit int) ([]models.PaymentRecord, int64, error) {
	filter := bson.M{}
	if userID != "" {
		filter["userId"] = userID
	}
	total, err := s.payments.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.payments.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find payments: %w", err)
	}
	records := []models.PaymentRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, 0, fmt.Errorf("decode payments: %w", err)
	}
	return records, total, nil
}

func (s *MongoStore) findPortfolio(ctx context.Context, filter bson.M) (models.Portfolio, error) {
	var d portfolioDoc
	if err := s.portfolios.FindOne(ctx, filter).Decode(&d); err != nil {
		return models.Portfolio{}, mongoErr(err)
	}
	return d.model(), nil
}

func (s *MongoStore) GetPortfolio(ctx context.Context, id string) (models.Portfolio, error) {
	return s.findPortfolio(ctx, bson.M{"_id": id})
}

func (s *MongoStore) GetPortfolioBySlug(ctx context.Context, slug string) (models.Portfolio, error) {
	return s.findPortfolio(ctx, bson.M{"slug": slug})
}

func (s *MongoStore) ListPortfolios(ctx context.Context, userID string) ([]models.Portfolio, error) {
	cursor, err := s.portfolios.Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find portfolios: %w", err)
	}
	var docs []portfolioDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode portfolios: %w", err)
	}
	out := make([]models.Portfolio, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (s *MongoStore) UpdatePortfolio(ctx context.Context, p *models.Portfolio) error {
	p.UpdatedAt = time.Now()
	res, err := s.portfolios.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": bson.M{
		"slug":      p.Slug,
		"template":  p.Template,
		"title":     p.Title,
		"content":   string(p.Content),
		"published": p.Published,
		"updatedAt": p.UpdatedAt,
	}})
	if err != nil {
		return mongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeletePortfolio(ctx context.Context, id string) error {
	res, err := s.portfolios.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	n, err := s.portfolios.CountDocuments(ctx, bson.M{"slug": slug})
	return n > 0, err
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
