package db

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	SessionCollection   *mongo.Collection
	ProductCollection   *mongo.Collection
	CouponCollection    *mongo.Collection
	StockHoldCollection *mongo.Collection
	UserCollection      *mongo.Collection
	Client              *mongo.Client
)

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	var err error
	Client, err = mongo.Connect(context.TODO(), options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	database := Client.Database("cartdb")
	SessionCollection = database.Collection("cart_sessions")
	ProductCollection = database.Collection("products")
	CouponCollection = database.Collection("coupons")
	StockHoldCollection = database.Collection("stock_holds")
	UserCollection = database.Collection("users")

	ensureIndexes()
}

// One active row per cart key; SKU lookups and sweeps need their own indexes.
func ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := SessionCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "cart_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
		},
	})
	if err != nil {
		log.Printf("session index creation failed: %v", err)
	}

	_, err = ProductCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "sku", Value: 1}},
		Options: options.Index().SetSparse(true),
	})
	if err != nil {
		log.Printf("product index creation failed: %v", err)
	}
}
