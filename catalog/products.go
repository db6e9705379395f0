package catalog

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"satchel/apperr"
	"satchel/db"
	"satchel/models"
	"satchel/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProductByID returns nil, nil when no product carries the ID.
func ProductByID(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := db.ProductCollection.FindOne(ctx, bson.M{"product_id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ProductBySKU is the fallback lookup for add-to-cart by SKU string.
func ProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	if sku == "" {
		return nil, nil
	}
	var p models.Product
	err := db.ProductCollection.FindOne(ctx, bson.M{"sku": sku}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Finder adapts the package lookups to the cart's ProductFinder interface.
type Finder struct{}

func (Finder) ProductByID(ctx context.Context, id string) (*models.Product, error) {
	return ProductByID(ctx, id)
}

func (Finder) ProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	return ProductBySKU(ctx, sku)
}

// CreateProduct inserts a catalog entry. Admin-facing; used to seed the
// catalog the cart operates against.
func CreateProduct(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var p models.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		log.Println("CreateProduct decode error:", err)
		utils.RespondWithAppError(w, apperr.BadRequest("invalid_payload", "Invalid JSON payload."))
		return
	}

	if p.Name == "" {
		utils.RespondWithAppError(w, apperr.BadRequest("missing_fields", "Product name is required."))
		return
	}
	if p.ProductID == "" {
		p.ProductID = "p" + utils.GenerateRandomString(12)
	}
	if p.Type == "" {
		p.Type = models.ProductSimple
	}
	if p.Status == "" {
		p.Status = models.StatusPublish
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt

	if _, err := db.ProductCollection.InsertOne(ctx, p); err != nil {
		log.Println("CreateProduct InsertOne error:", err)
		utils.RespondWithAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, p)
}

func GetProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p, err := ProductByID(ctx, ps.ByName("productid"))
	if err != nil {
		log.Println("GetProduct error:", err)
		utils.RespondWithAppError(w, err)
		return
	}
	if p == nil {
		utils.RespondWithAppError(w, apperr.NotFound("product_not_found", "No product matches that ID."))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, p)
}

// ListProducts returns published products, optionally filtered by ?type=.
func ListProducts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{"status": models.StatusPublish}
	if t := r.URL.Query().Get("type"); t != "" {
		filter["type"] = t
	}

	opts := options.Find().SetLimit(100).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := db.ProductCollection.Find(ctx, filter, opts)
	if err != nil {
		log.Println("ListProducts Find error:", err)
		utils.RespondWithAppError(w, err)
		return
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		log.Println("ListProducts cursor error:", err)
		utils.RespondWithAppError(w, err)
		return
	}
	if len(products) == 0 {
		products = []models.Product{}
	}

	utils.RespondWithJSON(w, http.StatusOK, products)
}
