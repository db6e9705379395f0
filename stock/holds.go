package stock

import (
	"context"
	"log"
	"time"

	"satchel/db"
	"satchel/models"
	"satchel/utils"

	"go.mongodb.org/mongo-driver/bson"
)

// Held sums the quantity of a product reserved by pending, unpaid orders.
// The cart subtracts this from available stock during sufficiency checks.
func Held(ctx context.Context, productID string) (float64, error) {
	cursor, err := db.StockHoldCollection.Aggregate(ctx, bson.A{
		bson.M{"$match": bson.M{
			"product_id": productID,
			"status":     "pending",
			"expires_at": bson.M{"$gt": time.Now()},
		}},
		bson.M{"$group": bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$quantity"},
		}},
	})
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}

// Holder adapts Held to the cart's StockHolder interface.
type Holder struct{}

func (Holder) Held(ctx context.Context, productID string) (float64, error) {
	return Held(ctx, productID)
}

// PlaceHolds reserves stock for every managed-stock line item in a cart,
// typically when checkout is initiated. Holds die on their own after ttl.
func PlaceHolds(ctx context.Context, cartKey string, items []models.CartItem, ttl time.Duration) ([]models.StockHold, error) {
	now := time.Now()
	holds := make([]models.StockHold, 0, len(items))
	docs := make([]interface{}, 0, len(items))
	for _, item := range items {
		hold := models.StockHold{
			HoldID:    "h" + utils.GenerateRandomString(12),
			CartKey:   cartKey,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Status:    "pending",
			ExpiresAt: now.Add(ttl),
			CreatedAt: now,
		}
		holds = append(holds, hold)
		docs = append(docs, hold)
	}
	if len(docs) == 0 {
		return holds, nil
	}
	if _, err := db.StockHoldCollection.InsertMany(ctx, docs); err != nil {
		return nil, err
	}
	return holds, nil
}

// ReleaseForCart drops the pending holds of one cart, e.g. when it empties.
func ReleaseForCart(ctx context.Context, cartKey string) error {
	_, err := db.StockHoldCollection.DeleteMany(ctx, bson.M{
		"cart_key": cartKey,
		"status":   "pending",
	})
	return err
}

// StartReleaser sweeps expired holds on a ticker. Call once from main.
func StartReleaser(interval time.Duration) {
	ticker := time.NewTicker(interval)
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		res, err := db.StockHoldCollection.DeleteMany(ctx, bson.M{
			"status":     "pending",
			"expires_at": bson.M{"$lt": time.Now()},
		})
		cancel()
		if err != nil {
			log.Printf("stock hold release failed: %v", err)
			continue
		}
		if res.DeletedCount > 0 {
			log.Printf("released %d expired stock holds", res.DeletedCount)
		}
	}
}
