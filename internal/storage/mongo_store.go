package storage

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/apodboard/backend/internal/models"
)

type MongoStore struct {
	client      *mongo.Client
	db          *mongo.Database
	usersCol    *mongo.Collection
	adminsCol   *mongo.Collection
	postsCol    *mongo.Collection
	votesCol    *mongo.Collection
	countersCol *mongo.Collection
}

type mongoUserDoc struct {
	ID       int64  `bson:"_id"`
	Email    string `bson:"email"`
	Password string `bson:"password"`
	IsBanned bool   `bson:"is_banned"`
}

type mongoAdminDoc struct {
	UserID int64 `bson:"_id"`
}

type mongoPostDoc struct {
	ID          int64  `bson:"_id"`
	Title       string `bson:"title"`
	QueryString string `bson:"query_string"`
	Explanation string `bson:"explanation"`
	ImgURL      string `bson:"img_url"`
	ApodDate    string `bson:"apod_date"`
}

type mongoVoteDoc struct {
	ID     int64 `bson:"_id"`
	PostID int64 `bson:"post_id"`
	UserID int64 `bson:"user_id"`
}

func NewMongoStore(ctx context.Context, mongoURI, dbName string) (*MongoStore, error) {
	opts := options.Client().ApplyURI(mongoURI)
	// Atlas (mongodb+srv) only negotiates reliably when pinned to TLS 1.2.
	if strings.HasPrefix(mongoURI, "mongodb+srv://") {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tls.VersionTLS12,
			MaxVersion: tls.VersionTLS12,
		})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, unavailable(err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, unavailable(err)
	}

	db := client.Database(dbName)
	s := &MongoStore{
		client:      client,
		db:          db,
		usersCol:    db.Collection("users"),
		adminsCol:   db.Collection("admins"),
		postsCol:    db.Collection("posts"),
		votesCol:    db.Collection("votes"),
		countersCol: db.Collection("counters"),
	}

	indexes := []struct {
		col   *mongo.Collection
		model mongo.IndexModel
	}{
		{s.usersCol, mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.postsCol, mongo.IndexModel{
			Keys:    bson.D{{Key: "query_string", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.votesCol, mongo.IndexModel{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "post_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.votesCol, mongo.IndexModel{Keys: bson.D{{Key: "post_id", Value: 1}}}},
	}
	// Unlike the other indexes these carry invariants, so failures are fatal.
	for _, ix := range indexes {
		if _, err := ix.col.Indexes().CreateOne(ctx, ix.model); err != nil {
			_ = client.Disconnect(ctx)
			return nil, unavailable(err)
		}
	}

	log.Printf("MongoDB connected: db=%s", dbName)
	return s, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func mongoErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return unavailable(err)
}

// nextID hands out SERIAL-style ids from the counters collection.
func (s *MongoStore) nextID(ctx context.Context, name string) (int64, error) {
	var out struct {
		Seq int64 `bson:"seq"`
	}
	err := s.countersCol.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return 0, mongoErr(err)
	}
	return out.Seq, nil
}

func postDocToModel(d mongoPostDoc) models.Post {
	return models.Post{
		ID:          d.ID,
		Title:       d.Title,
		QueryString: d.QueryString,
		Explanation: d.Explanation,
		ImgURL:      d.ImgURL,
		ApodDate:    d.ApodDate,
	}
}

// Users

func (s *MongoStore) CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	id, err := s.nextID(ctx, "users")
	if err != nil {
		return nil, err
	}
	doc := mongoUserDoc{ID: id, Email: email, Password: passwordHash}
	if _, err := s.usersCol.InsertOne(ctx, doc); err != nil {
		return nil, mongoErr(err)
	}
	return &models.User{ID: id, Email: email, PasswordHash: passwordHash}, nil
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var doc mongoUserDoc
	if err := s.usersCol.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		return nil, mongoErr(err)
	}
	return &models.User{ID: doc.ID, Email: doc.Email, PasswordHash: doc.Password, IsBanned: doc.IsBanned}, nil
}

func (s *MongoStore) SetUserBanned(ctx context.Context, email string, banned bool) error {
	res, err := s.usersCol.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{"is_banned": banned}})
	if err != nil {
		return mongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Admins

func (s *MongoStore) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	n, err := s.adminsCol.CountDocuments(ctx, bson.M{"_id": userID})
	if err != nil {
		return false, mongoErr(err)
	}
	return n > 0, nil
}

func (s *MongoStore) AddAdmin(ctx context.Context, userID int64) error {
	_, err := s.adminsCol.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$setOnInsert": mongoAdminDoc{UserID: userID}},
		options.Update().SetUpsert(true),
	)
	return mongoErr(err)
}

func (s *MongoStore) RemoveAdmin(ctx context.Context, userID int64) error {
	_, err := s.adminsCol.DeleteOne(ctx, bson.M{"_id": userID})
	return mongoErr(err)
}

// Posts

func (s *MongoStore) CreatePost(ctx context.Context, req *models.CreatePostRequest) (*models.Post, error) {
	id, err := s.nextID(ctx, "posts")
	if err != nil {
		return nil, err
	}
	doc := mongoPostDoc{
		ID:          id,
		Title:       req.Title,
		QueryString: req.QueryString,
		Explanation: req.Explanation,
		ImgURL:      req.ImgURL,
		ApodDate:    req.ApodDate,
	}
	if _, err := s.postsCol.InsertOne(ctx, doc); err != nil {
		return nil, mongoErr(err)
	}
	p := postDocToModel(doc)
	return &p, nil
}

func (s *MongoStore) findPost(ctx context.Context, filter bson.M) (*models.Post, error) {
	var doc mongoPostDoc
	if err := s.postsCol.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mongoErr(err)
	}
	p := postDocToModel(doc)
	return &p, nil
}

func (s *MongoStore) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	return s.findPost(ctx, bson.M{"_id": id})
}

func (s *MongoStore) GetPostByQueryString(ctx context.Context, queryString string) (*models.Post, error) {
	return s.findPost(ctx, bson.M{"query_string": queryString})
}

func (s *MongoStore) findPosts(ctx context.Context, filter bson.M) ([]models.Post, error) {
	cur, err := s.postsCol.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, mongoErr(err)
	}
	defer cur.Close(ctx)

	out := make([]models.Post, 0)
	for cur.Next(ctx) {
		var doc mongoPostDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, mongoErr(err)
		}
		out = append(out, postDocToModel(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, mongoErr(err)
	}
	return out, nil
}

func (s *MongoStore) ListPosts(ctx context.Context) ([]models.Post, error) {
	return s.findPosts(ctx, bson.M{})
}

func (s *MongoStore) ListPostsVotedByUser(ctx context.Context, userID int64) ([]models.Post, error) {
	cur, err := s.votesCol.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetProjection(bson.M{"post_id": 1}))
	if err != nil {
		return nil, mongoErr(err)
	}
	defer cur.Close(ctx)

	postIDs := make([]int64, 0)
	for cur.Next(ctx) {
		var v mongoVoteDoc
		if err := cur.Decode(&v); err != nil {
			return nil, mongoErr(err)
		}
		postIDs = append(postIDs, v.PostID)
	}
	if err := cur.Err(); err != nil {
		return nil, mongoErr(err)
	}
	if len(postIDs) == 0 {
		return []models.Post{}, nil
	}
	return s.findPosts(ctx, bson.M{"_id": bson.M{"$in": postIDs}})
}

func (s *MongoStore) UpdatePost(ctx context.Context, req *models.UpdatePostRequest) (*models.Post, error) {
	var doc mongoPostDoc
	err := s.postsCol.FindOneAndUpdate(ctx,
		bson.M{"_id": req.ID},
		bson.M{"$set": bson.M{
			"title":        req.Title,
			"query_string": req.QueryString,
			"explanation":  req.Explanation,
			"img_url":      req.ImgURL,
			"apod_date":    req.ApodDate,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, mongoErr(err)
	}
	p := postDocToModel(doc)
	return &p, nil
}

func (s *MongoStore) DeletePost(ctx context.Context, id int64) error {
	res, err := s.postsCol.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mongoErr(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	if _, err := s.votesCol.DeleteMany(ctx, bson.M{"post_id": id}); err != nil {
		return mongoErr(err)
	}
	return nil
}

// Votes

func (s *MongoStore) CreateVote(ctx context.Context, postID, userID int64) (*models.Vote, error) {
	id, err := s.nextID(ctx, "votes")
	if err != nil {
		return nil, err
	}
	doc := mongoVoteDoc{ID: id, PostID: postID, UserID: userID}
	if _, err := s.votesCol.InsertOne(ctx, doc); err != nil {
		return nil, mongoErr(err)
	}
	return &models.Vote{ID: id, PostID: postID, UserID: userID}, nil
}

func (s *MongoStore) DeleteVote(ctx context.Context, postID, userID int64) error {
	res, err := s.votesCol.DeleteOne(ctx, bson.M{"user_id": userID, "post_id": postID})
	if err != nil {
		return mongoErr(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CountVotes(ctx context.Context, postID int64) (int64, error) {
	n, err := s.votesCol.CountDocuments(ctx, bson.M{"post_id": postID})
	if err != nil {
		return 0, mongoErr(err)
	}
	return n, nil
}

func (s *MongoStore) HasVoted(ctx context.Context, userID, postID int64) (bool, error) {
	n, err := s.votesCol.CountDocuments(ctx, bson.M{"user_id": userID, "post_id": postID})
	if err != nil {
		return false, mongoErr(err)
	}
	return n > 0, nil
}

func (s *MongoStore) TopPostIDs(ctx context.Context, limit int) ([]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$post_id"},
			{Key: "number", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "number", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: int64(limit)}},
	}
	cur, err := s.votesCol.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, mongoErr(err)
	}
	defer cur.Close(ctx)

	ids := make([]int64, 0, limit)
	for cur.Next(ctx) {
		var row struct {
			PostID int64 `bson:"_id"`
			Number int64 `bson:"number"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, mongoErr(err)
		}
		ids = append(ids, row.PostID)
	}
	if err := cur.Err(); err != nil {
		return nil, mongoErr(err)
	}
	return ids, nil
}
